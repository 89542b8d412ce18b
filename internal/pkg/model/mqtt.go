package model

import "time"

type MirrorDevice struct {
	Name     string     `json:"name"`
	Type     DeviceType `json:"type"`
	Location string     `json:"location"`
}

type RegisterMessage struct {
	ID         string       `json:"unique_id"`
	StateTopic string       `json:"state_topic"`
	Device     MirrorDevice `json:"device"`
}

type ReadingMessage struct {
	Value     string    `json:"value"`
	Unit      Unit      `json:"unit_of_measurement,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type StatusMessage struct {
	Status    DeviceStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
}
