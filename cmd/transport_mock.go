package cmd

import (
	"context"
	"sync"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

// MockTransport is a mock implementation of the Transport interface.
type MockTransport struct {
	RegisterFunc      func(ctx context.Context, device model.Device) model.Result
	SubmitReadingFunc func(ctx context.Context, deviceID string, reading model.Reading) model.Result
	UpdateStatusFunc  func(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result

	mu       sync.Mutex
	Statuses map[string][]model.DeviceStatus
	Readings map[string]int
}

func (m *MockTransport) Register(ctx context.Context, device model.Device) model.Result {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, device)
	}
	return model.Result{StatusCode: 200}
}

func (m *MockTransport) SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result {
	m.mu.Lock()
	if m.Readings == nil {
		m.Readings = map[string]int{}
	}
	m.Readings[deviceID]++
	m.mu.Unlock()
	if m.SubmitReadingFunc != nil {
		return m.SubmitReadingFunc(ctx, deviceID, reading)
	}
	return model.Result{StatusCode: 200}
}

func (m *MockTransport) UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result {
	m.mu.Lock()
	if m.Statuses == nil {
		m.Statuses = map[string][]model.DeviceStatus{}
	}
	m.Statuses[deviceID] = append(m.Statuses[deviceID], status)
	m.mu.Unlock()
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, deviceID, status)
	}
	return model.Result{StatusCode: 200}
}

func (m *MockTransport) readingsFor(deviceID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Readings[deviceID]
}

func (m *MockTransport) statusesFor(deviceID string) []model.DeviceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.DeviceStatus(nil), m.Statuses[deviceID]...)
}
