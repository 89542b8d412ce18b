package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/campus-simulator/internal/pkg/config"
	"github.com/anicoll/campus-simulator/internal/pkg/fleet"
	"github.com/anicoll/campus-simulator/internal/pkg/metrics"
	"github.com/anicoll/campus-simulator/internal/pkg/model"
	"github.com/anicoll/campus-simulator/internal/pkg/mqtt"
	"github.com/anicoll/campus-simulator/internal/pkg/platform"
	"github.com/anicoll/campus-simulator/internal/pkg/publisher"
	"github.com/anicoll/campus-simulator/internal/pkg/session"
)

// SimulatorCommand is the main entry point for the simulator CLI command.
// It validates configuration, wires the transports and runs the fleet until
// SIGINT or SIGTERM.
func SimulatorCommand(ctx *cli.Context) error {
	platformCfg, err := config.LoadPlatformConfig(ctx.String("url"))
	if err != nil {
		return err
	}
	cfg := &config.Config{
		Platform: platformCfg,
		Device: &config.DeviceConfig{
			ID:       ctx.String("device-id"),
			Name:     ctx.String("name"),
			Type:     model.DeviceType(ctx.String("type")),
			Location: ctx.String("location"),
			Interval: time.Duration(ctx.Int("interval")) * time.Second,
		},
		Fleet: &config.FleetConfig{
			Count:           ctx.Int("count"),
			Stagger:         ctx.Duration("stagger"),
			SummaryInterval: ctx.Duration("summary-interval"),
		},
		MqttCfg: &config.MqttConfig{
			Host:     ctx.String("mqtt-host"),
			Username: ctx.String("mqtt-user"),
			Password: ctx.String("mqtt-pass"),
		},
		MetricsAddr: ctx.String("metrics-addr"),
		LogLevel:    ctx.String("log-level"),
	}
	if cfg.Device.ID == "" {
		cfg.Device.ID = fleet.DeviceID(cfg.Device.Name)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	client, err := platform.New(cfg.Platform)
	if err != nil {
		return err
	}
	fanout := publisher.New(client)
	if cfg.MqttCfg.Host != "" {
		mqttSvc := mqtt.New(mqtt.NewClient(cfg.MqttCfg.Host, cfg.MqttCfg.Username, cfg.MqttCfg.Password, "campus-simulator-"+cfg.Device.ID))
		if err := mqttSvc.Connect(); err != nil {
			return err
		}
		defer mqttSvc.Disconnect()
		if err := fanout.RegisterPublisher("mqtt", mqttSvc); err != nil {
			return err
		}
	}

	m := metrics.New()

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(sigCtx, cfg, m.Instrument(fanout), m, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

func run(ctx context.Context, cfg *config.Config, transport Transport, m *metrics.Metrics, logger *zap.Logger) error {
	devices := fleet.Expand(cfg.Device.Device(), cfg.Fleet.Count)

	f, err := fleet.New(devices, transport, cfg.Device.Interval,
		fleet.WithStagger(cfg.Fleet.Stagger),
		fleet.WithSummary(cfg.Fleet.SummaryInterval),
		fleet.WithGauge(m),
		fleet.WithSessionOptions(session.WithLogger(logger)),
	)
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()

	eg.Go(func() error {
		defer stopMetrics()
		if err := f.Run(ctx); err != nil {
			logger.Error("simulator stopped", zap.Error(err))
			return err
		}
		logger.Info("all devices stopped", zap.Int("devices", len(devices)))
		return nil
	})

	if cfg.MetricsAddr != "" && m != nil {
		eg.Go(func() error {
			return m.Serve(metricsCtx, cfg.MetricsAddr)
		})
	}

	return eg.Wait()
}
