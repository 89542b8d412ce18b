package session

import (
	"context"
	"sync"
	"time"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

// MockTransport records every call in order and delegates to the Func fields
// when they are set. Unset funcs succeed with a 200.
type MockTransport struct {
	mu    sync.Mutex
	calls []string

	RegisterFunc      func(ctx context.Context, device model.Device) model.Result
	SubmitReadingFunc func(ctx context.Context, deviceID string, reading model.Reading) model.Result
	UpdateStatusFunc  func(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result
}

func (m *MockTransport) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *MockTransport) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockTransport) Register(ctx context.Context, device model.Device) model.Result {
	m.record("register")
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, device)
	}
	return model.Result{StatusCode: 200}
}

func (m *MockTransport) SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result {
	m.record("submit")
	if m.SubmitReadingFunc != nil {
		return m.SubmitReadingFunc(ctx, deviceID, reading)
	}
	return model.Result{StatusCode: 200}
}

func (m *MockTransport) UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result {
	m.record("status:" + status.String())
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, deviceID, status)
	}
	return model.Result{StatusCode: 200}
}

type generatorFunc func(dt model.DeviceType) (model.Reading, error)

func (f generatorFunc) Generate(dt model.DeviceType) (model.Reading, error) {
	return f(dt)
}

// interruptingSleeper simulates an interrupt arriving during the n-th wait.
type interruptingSleeper struct {
	mu          sync.Mutex
	calls       int
	interruptOn int
}

func (s *interruptingSleeper) sleep(ctx context.Context, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls >= s.interruptOn {
		return context.Canceled
	}
	return nil
}

func (s *interruptingSleeper) completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= s.interruptOn {
		return s.interruptOn - 1
	}
	return s.calls
}
