package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

const (
	opRegister     = "register"
	opSubmit       = "submit_reading"
	opUpdateStatus = "update_status"
)

type Metrics struct {
	registry     *prometheus.Registry
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	sessions     *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simulator_transport_calls_total",
			Help: "Total platform calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "simulator_transport_call_duration_seconds",
			Help:    "Histogram of platform call durations by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "simulator_sessions",
			Help: "Device sessions by lifecycle state.",
		}, []string{"state"}),
	}
	m.registry.MustRegister(m.calls, m.callDuration, m.sessions)
	return m
}

func (m *Metrics) observe(operation string, res model.Result) {
	if m == nil {
		return
	}
	outcome := "success"
	if !res.OK() {
		outcome = "failure"
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
	m.callDuration.WithLabelValues(operation).Observe(res.Duration.Seconds())
}

// SetSessions replaces the per-state session gauge.
func (m *Metrics) SetSessions(byState map[string]int) {
	if m == nil {
		return
	}
	m.sessions.Reset()
	for state, n := range byState {
		m.sessions.WithLabelValues(state).Set(float64(n))
	}
}

type transport interface {
	Register(ctx context.Context, device model.Device) model.Result
	SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result
	UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result
}

type instrumented struct {
	next    transport
	metrics *Metrics
}

// Instrument wraps next so every call is counted and timed.
func (m *Metrics) Instrument(next transport) *instrumented {
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) Register(ctx context.Context, device model.Device) model.Result {
	res := i.next.Register(ctx, device)
	i.metrics.observe(opRegister, res)
	return res
}

func (i *instrumented) SubmitReading(ctx context.Context, deviceID string, reading model.Reading) model.Result {
	res := i.next.SubmitReading(ctx, deviceID, reading)
	i.metrics.observe(opSubmit, res)
	return res
}

func (i *instrumented) UpdateStatus(ctx context.Context, deviceID string, status model.DeviceStatus) model.Result {
	res := i.next.UpdateStatus(ctx, deviceID, status)
	i.metrics.observe(opUpdateStatus, res)
	return res
}
