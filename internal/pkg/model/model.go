package model

import (
	"fmt"
	"time"
)

// Device is the identity a simulated device registers with. It is never
// mutated after a session is created.
type Device struct {
	ID       string
	Name     string
	Type     DeviceType
	Location string
}

// Reading is generated fresh every cycle and only ever handed to a transport.
type Reading struct {
	Value string
	Unit  Unit
}

func (r Reading) String() string {
	return r.Value + string(r.Unit)
}

// Result is the outcome of a single transport call.
type Result struct {
	StatusCode int
	Duration   time.Duration
	Err        error
}

func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) String() string {
	if r.OK() {
		return fmt.Sprintf("ok (%d)", r.StatusCode)
	}
	if r.StatusCode != 0 {
		return fmt.Sprintf("failed (%d): %s", r.StatusCode, r.Err)
	}
	return "failed: " + r.Err.Error()
}
