package model

// BatchRequest is the tRPC batch envelope. A single call sits under key "0".
type BatchRequest[T any] map[string]Call[T]

type Call[T any] struct {
	JSON T `json:"json"`
}

func NewBatchRequest[T any](payload T) BatchRequest[T] {
	return BatchRequest[T]{"0": {JSON: payload}}
}

// Payload returns the first call of the batch.
func (b BatchRequest[T]) Payload() (T, bool) {
	c, ok := b["0"]
	return c.JSON, ok
}

type RegisterPayload struct {
	DeviceID string     `json:"deviceId"`
	Name     string     `json:"name"`
	Type     DeviceType `json:"type"`
	Location string     `json:"location"`
}

type ReadingPayload struct {
	DeviceID string `json:"deviceId"`
	Value    string `json:"value"`
	Unit     Unit   `json:"unit,omitempty"`
}

type StatusPayload struct {
	DeviceID string       `json:"deviceId"`
	Status   DeviceStatus `json:"status"`
}
