package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
	"github.com/anicoll/campus-simulator/internal/pkg/session"
)

type sessionsGauge interface {
	SetSessions(byState map[string]int)
}

type Fleet struct {
	sessions []*session.Session
	interval time.Duration
	stagger  time.Duration
	summary  time.Duration
	gauge    sessionsGauge
	gaugeMu  sync.Mutex
	logger   *zap.Logger

	sessionOpts []session.Option
}

type Option func(*Fleet)

// WithStagger delays the start of each session after the first by d.
func WithStagger(d time.Duration) Option {
	return func(f *Fleet) {
		f.stagger = d
	}
}

// WithSummary logs a fleet summary every d. Zero disables it.
func WithSummary(d time.Duration) Option {
	return func(f *Fleet) {
		f.summary = d
	}
}

func WithSessionOptions(opts ...session.Option) Option {
	return func(f *Fleet) {
		f.sessionOpts = append(f.sessionOpts, opts...)
	}
}

func WithGauge(g sessionsGauge) Option {
	return func(f *Fleet) {
		f.gauge = g
	}
}

func New(devices []model.Device, transport session.Transport, interval time.Duration, opts ...Option) (*Fleet, error) {
	if err := checkUnique(devices); err != nil {
		return nil, err
	}
	f := &Fleet{
		interval: interval,
		logger:   zap.L(),
	}
	for _, o := range opts {
		o(f)
	}
	opts := append([]session.Option{}, f.sessionOpts...)
	opts = append(opts, session.WithStateChange(func(session.State) { f.publishStates() }))
	f.sessions = lo.Map(devices, func(d model.Device, _ int) *session.Session {
		return session.New(d, transport, opts...)
	})
	return f, nil
}

func (f *Fleet) Sessions() []*session.Session {
	return f.sessions
}

// Run starts every session in its own goroutine and blocks until all of them
// reached a terminal state. Cancel ctx to take the whole fleet offline.
func (f *Fleet) Run(ctx context.Context) error {
	if f.summary > 0 {
		c := cron.New()
		if _, err := c.AddFunc("@every "+f.summary.String(), f.logSummary); err != nil {
			return err
		}
		c.Start()
		defer func() {
			<-c.Stop().Done()
			f.logSummary()
		}()
	}

	f.publishStates()

	eg, ctx := errgroup.WithContext(ctx)
	for i, s := range f.sessions {
		delay := time.Duration(i) * f.stagger
		eg.Go(func() error {
			if delay > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
			}
			state, err := s.Run(ctx, f.interval)
			if err != nil {
				return err
			}
			f.logger.Info("session ended", zap.String("device_id", s.Device().ID), zap.String("state", state.String()))
			return nil
		})
	}
	return eg.Wait()
}

func (f *Fleet) Stats() []session.Stats {
	return lo.Map(f.sessions, func(s *session.Session, _ int) session.Stats {
		return s.Stats()
	})
}

func countByState(stats []session.Stats) map[string]int {
	return lo.CountValuesBy(stats, func(s session.Stats) string {
		return s.State.String()
	})
}

// publishStates pushes the current per-state session counts to the gauge.
// Called on every session transition.
func (f *Fleet) publishStates() {
	if f.gauge == nil {
		return
	}
	f.gaugeMu.Lock()
	defer f.gaugeMu.Unlock()
	f.gauge.SetSessions(countByState(f.Stats()))
}

func (f *Fleet) logSummary() {
	stats := f.Stats()
	byState := countByState(stats)
	f.logger.Info("fleet summary",
		zap.Int("sessions", len(stats)),
		zap.Any("by_state", byState),
		zap.Int64("submitted", lo.SumBy(stats, func(s session.Stats) int64 { return s.Submitted })),
		zap.Int64("submit_failures", lo.SumBy(stats, func(s session.Stats) int64 { return s.SubmitFailures })),
		zap.Int64("status_failures", lo.SumBy(stats, func(s session.Stats) int64 { return s.StatusFailures })),
	)
}
