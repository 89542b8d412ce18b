package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

var (
	ErrInvalidURL   = errors.New("invalid platform url")
	ErrMissingName  = errors.New("device name is required")
	ErrInvalidCount = errors.New("device count must be at least 1")
)

type Config struct {
	Platform *PlatformConfig
	Device   *DeviceConfig
	Fleet    *FleetConfig
	MqttCfg  *MqttConfig
	// MetricsAddr is empty when the metrics endpoint is disabled.
	MetricsAddr string
	LogLevel    string
}

type PlatformConfig struct {
	BaseURL   string
	Timeout   time.Duration `env:"PLATFORM_TIMEOUT" envDefault:"10s"`
	UserAgent string        `env:"PLATFORM_USER_AGENT" envDefault:"campus-simulator"`
	Token     string        `env:"PLATFORM_TOKEN"`
}

type DeviceConfig struct {
	ID       string
	Name     string
	Type     model.DeviceType
	Location string
	Interval time.Duration
}

type FleetConfig struct {
	Count           int
	Stagger         time.Duration
	SummaryInterval time.Duration
}

type MqttConfig struct {
	Host     string
	Username string
	Password string
}

// LoadPlatformConfig reads the HTTP tuning knobs from the environment.
func LoadPlatformConfig(baseURL string) (*PlatformConfig, error) {
	cfg, err := env.ParseAs[PlatformConfig]()
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = baseURL
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Platform == nil || c.Device == nil {
		return errors.New("incomplete configuration")
	}
	u, err := url.Parse(c.Platform.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, c.Platform.BaseURL)
	}
	if err := c.Device.Validate(); err != nil {
		return err
	}
	if c.Fleet != nil && c.Fleet.Count < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, c.Fleet.Count)
	}
	return nil
}

func (d *DeviceConfig) Validate() error {
	if d.Name == "" {
		return ErrMissingName
	}
	if !lo.Contains(model.DeviceTypes, d.Type) {
		return fmt.Errorf("%w: %q", model.ErrUnknownDeviceType, d.Type)
	}
	if d.Interval <= 0 {
		return fmt.Errorf("%w: %s", model.ErrInvalidInterval, d.Interval)
	}
	return nil
}

func (d *DeviceConfig) Device() model.Device {
	return model.Device{
		ID:       d.ID,
		Name:     d.Name,
		Type:     d.Type,
		Location: d.Location,
	}
}
