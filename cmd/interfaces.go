package cmd

import (
	"context"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

// Transport defines what cmd.run expects from the platform side. It matches
// session.Transport so the instrumented fan-out can be passed straight through.
type Transport interface {
	Register(ctx context.Context, device model.Device) model.Result
	SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result
	UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result
}
