package publisher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

type transport interface {
	Register(ctx context.Context, device model.Device) model.Result
	SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result
	UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result
}

type publisher interface {
	RegisterDevice(ctx context.Context, device model.Device) error
	PublishReading(ctx context.Context, deviceID string, reading model.Reading) error
	PublishStatus(ctx context.Context, deviceID string, status model.DeviceStatus) error
}

// Fanout forwards every call to the primary transport, whose result is the
// only one returned, and mirrors successful calls to registered publishers.
type Fanout struct {
	primary    transport
	mu         sync.RWMutex
	publishers map[string]publisher
	logger     *zap.Logger
}

func New(primary transport) *Fanout {
	return &Fanout{
		primary:    primary,
		publishers: make(map[string]publisher),
		logger:     zap.L(),
	}
}

func (f *Fanout) RegisterPublisher(name string, p publisher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.publishers[name]; ok {
		return errAlreadyRegistered
	}
	f.publishers[name] = p
	return nil
}

func (f *Fanout) Register(ctx context.Context, device model.Device) model.Result {
	res := f.primary.Register(ctx, device)
	if res.OK() {
		f.each(func(name string, p publisher) error {
			return p.RegisterDevice(ctx, device)
		}, "failed to mirror registration", device.ID)
	}
	return res
}

func (f *Fanout) SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result {
	res := f.primary.SubmitReading(ctx, deviceID, reading)
	if res.OK() {
		f.each(func(name string, p publisher) error {
			return p.PublishReading(ctx, deviceID, reading)
		}, "failed to mirror reading", deviceID)
	}
	return res
}

// UpdateStatus mirrors regardless of the primary result so that brokers
// still see offline/error transitions when the platform is unreachable.
func (f *Fanout) UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result {
	res := f.primary.UpdateStatus(ctx, deviceID, status)
	f.each(func(name string, p publisher) error {
		return p.PublishStatus(ctx, deviceID, status)
	}, "failed to mirror status", deviceID)
	return res
}

func (f *Fanout) each(fn func(name string, p publisher) error, msg, deviceID string) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for name, p := range f.publishers {
		if err := fn(name, p); err != nil {
			f.logger.Error(msg, zap.Error(err), zap.String("publisher", name), zap.String("device_id", deviceID))
			continue
		}
		f.logger.Debug("mirrored", zap.String("publisher", name), zap.String("device_id", deviceID))
	}
}
