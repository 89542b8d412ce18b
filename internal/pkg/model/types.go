package model

import "errors"

var (
	ErrUnknownDeviceType = errors.New("unknown device type")
	ErrInvalidInterval   = errors.New("interval must be positive")
)

type DeviceType string

func (dt DeviceType) String() string {
	return string(dt)
}

const (
	Temperature DeviceType = "temperature"
	Humidity    DeviceType = "humidity"
	Occupancy   DeviceType = "occupancy"
	Lighting    DeviceType = "lighting"
)

var DeviceTypes = []DeviceType{
	Temperature,
	Humidity,
	Occupancy,
	Lighting,
}

// DeviceStatus is reported to the platform, never read back.
type DeviceStatus string

func (ds DeviceStatus) String() string {
	return string(ds)
}

const (
	StatusOnline  DeviceStatus = "online"
	StatusOffline DeviceStatus = "offline"
	StatusError   DeviceStatus = "error"
)

type Unit string

const (
	UnitDegreeC Unit = "°C"
	UnitPercent Unit = "%"
	UnitPeople  Unit = "people"
)
