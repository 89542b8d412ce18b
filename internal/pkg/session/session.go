package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/campus-simulator/internal/pkg/contxt"
	"github.com/anicoll/campus-simulator/internal/pkg/generator"
	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

const defaultStatusTimeout = 5 * time.Second

var ErrInternalFault = errors.New("internal fault in reporting loop")

// Transport is the platform capability a session drives. Implementations
// must report every failure through the returned Result.
type Transport interface {
	Register(ctx context.Context, device model.Device) model.Result
	SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result
	UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result
}

type readingGenerator interface {
	Generate(dt model.DeviceType) (model.Reading, error)
}

type Session struct {
	device        model.Device
	transport     Transport
	generator     readingGenerator
	sleep         func(ctx context.Context, d time.Duration) error
	statusTimeout time.Duration
	onChange      func(State)
	logger        *zap.Logger

	state          atomic.Int32
	submitted      atomic.Int64
	submitFailures atomic.Int64
	statusFailures atomic.Int64
}

type Option func(*Session)

func WithGenerator(g readingGenerator) Option {
	return func(s *Session) {
		s.generator = g
	}
}

// WithSleeper replaces the wait between reporting cycles.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Session) {
		s.sleep = fn
	}
}

// WithStatusTimeout bounds the final offline/error report, which is sent
// after the run context is already done.
func WithStatusTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.statusTimeout = d
	}
}

// WithStateChange registers fn to be called after every state transition.
func WithStateChange(fn func(State)) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

func New(device model.Device, transport Transport, opts ...Option) *Session {
	s := &Session{
		device:        device,
		transport:     transport,
		generator:     generator.New(),
		sleep:         sleep,
		statusTimeout: defaultStatusTimeout,
		logger:        zap.L(), // returns the global logger.
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With(zap.String("device_id", device.ID), zap.String("device_name", device.Name))
	return s
}

func (s *Session) Device() model.Device {
	return s.device
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) Stats() Stats {
	return Stats{
		Device:         s.device.ID,
		State:          s.State(),
		Submitted:      s.submitted.Load(),
		SubmitFailures: s.submitFailures.Load(),
		StatusFailures: s.statusFailures.Load(),
	}
}

// Run registers the device and reports readings every interval until ctx is
// cancelled or the loop faults. It blocks for the whole lifetime and returns
// the terminal state. A non-nil error means the session was misconfigured
// and no transport call was made.
func (s *Session) Run(ctx context.Context, interval time.Duration) (State, error) {
	if interval <= 0 {
		return s.State(), fmt.Errorf("%w: %s", model.ErrInvalidInterval, interval)
	}
	if !generator.Supports(s.device.Type) {
		s.logger.Error("unknown device type", zap.String("device_type", s.device.Type.String()))
		return s.State(), fmt.Errorf("%w: %q", model.ErrUnknownDeviceType, s.device.Type)
	}

	s.logger.Info("starting simulator",
		zap.String("device_type", s.device.Type.String()),
		zap.String("location", s.device.Location),
		zap.Duration("interval", interval),
	)

	// Calls already issued run to completion, bounded by the transport's own
	// timeout. An interrupt is only observed between cycles.
	callCtx := context.WithoutCancel(ctx)

	if res := s.register(callCtx); !res.OK() {
		s.logger.Error("failed to register device, exiting", zap.Int("status_code", res.StatusCode), zap.Error(res.Err))
		return s.State(), nil
	}
	s.logger.Info("device registered")

	s.setState(Online)
	s.updateStatus(callCtx, model.StatusOnline)

	return s.loop(ctx, interval), nil
}

func (s *Session) loop(ctx context.Context, interval time.Duration) State {
	callCtx := context.WithoutCancel(ctx)
	for {
		if ctx.Err() != nil {
			return s.finish(ctx, Offline, model.StatusOffline)
		}
		if err := s.cycle(callCtx); err != nil {
			s.logger.Error("error in simulator", zap.Error(err))
			return s.finish(ctx, Error, model.StatusError)
		}
		if err := s.sleep(ctx, interval); err != nil {
			s.logger.Info("shutting down simulator", zap.NamedError("reason", err))
			return s.finish(ctx, Offline, model.StatusOffline)
		}
	}
}

// cycle generates and submits one reading. Submission failures are logged
// and swallowed; only generator errors and panics end the loop.
func (s *Session) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternalFault, r)
		}
	}()

	reading, err := s.generator.Generate(s.device.Type)
	if err != nil {
		return err
	}

	res := s.transport.SubmitReading(ctx, s.device.ID, reading)
	if !res.OK() {
		s.submitFailures.Add(1)
		s.logger.Warn("failed to send reading", zap.Int("status_code", res.StatusCode), zap.Error(res.Err))
		return nil
	}
	s.submitted.Add(1)
	s.logger.Info("reading submitted", zap.String("reading", reading.String()), zap.Duration("took", res.Duration))
	return nil
}

// finish reports the terminal status with a fresh context, since ctx may
// already be cancelled by the interrupt that got us here.
func (s *Session) finish(ctx context.Context, state State, status model.DeviceStatus) State {
	s.setState(state)
	ctx, cancel := contxt.NewContext(ctx, s.statusTimeout)
	defer cancel()
	s.updateStatus(ctx, status)
	return state
}

func (s *Session) setState(state State) {
	s.state.Store(int32(state))
	if s.onChange != nil {
		s.onChange(state)
	}
}

// register treats a panicking transport as a failed registration.
func (s *Session) register(ctx context.Context) (res model.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = model.Result{Err: fmt.Errorf("%w: %v", ErrInternalFault, r)}
		}
	}()
	return s.transport.Register(ctx, s.device)
}

// updateStatus never blocks a transition. A panicking transport counts as a
// failed update.
func (s *Session) updateStatus(ctx context.Context, status model.DeviceStatus) {
	res := s.safeUpdateStatus(ctx, status)
	if !res.OK() {
		s.statusFailures.Add(1)
		s.logger.Warn("failed to update status", zap.String("status", status.String()), zap.Int("status_code", res.StatusCode), zap.Error(res.Err))
		return
	}
	s.logger.Debug("status updated", zap.String("status", status.String()))
}

func (s *Session) safeUpdateStatus(ctx context.Context, status model.DeviceStatus) (res model.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = model.Result{Err: fmt.Errorf("%w: %v", ErrInternalFault, r)}
		}
	}()
	return s.transport.UpdateStatus(ctx, s.device.ID, status)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
