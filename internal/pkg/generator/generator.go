package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/anicoll/campus-simulator/internal/pkg/model"
)

type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

type Option func(*Generator)

// WithRand sets the random source, mostly for tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rnd = r
	}
}

// WithClock sets the time source used for hour-of-day shaping.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Supports reports whether a reading can be generated for the device type.
func Supports(dt model.DeviceType) bool {
	switch dt {
	case model.Temperature, model.Humidity, model.Occupancy, model.Lighting:
		return true
	}
	return false
}

// Generate returns a reading for the device type at the current local hour.
func (g *Generator) Generate(dt model.DeviceType) (model.Reading, error) {
	return g.GenerateAt(dt, g.now().Hour())
}

func (g *Generator) GenerateAt(dt model.DeviceType, hour int) (model.Reading, error) {
	switch dt {
	case model.Temperature:
		return g.temperature(hour), nil
	case model.Humidity:
		return g.humidity(), nil
	case model.Occupancy:
		return g.occupancy(hour), nil
	case model.Lighting:
		return g.lighting(hour), nil
	}
	return model.Reading{}, fmt.Errorf("%w: %q", model.ErrUnknownDeviceType, dt)
}

// temperature peaks at 14:00.
func (g *Generator) temperature(hour int) model.Reading {
	base := 20 + 5*(1-math.Abs(float64(hour-14))/14)
	temp := base + g.uniform(-2, 2)
	return model.Reading{Value: strconv.FormatFloat(temp, 'f', 1, 64), Unit: model.UnitDegreeC}
}

func (g *Generator) humidity() model.Reading {
	return model.Reading{Value: strconv.FormatFloat(g.uniform(35, 75), 'f', 1, 64), Unit: model.UnitPercent}
}

func (g *Generator) occupancy(hour int) model.Reading {
	var people int
	if hour >= 8 && hour <= 18 {
		people = g.intBetween(20, 100)
	} else {
		people = g.intBetween(0, 20)
	}
	return model.Reading{Value: strconv.Itoa(people), Unit: model.UnitPeople}
}

// lighting encodes "<on|off>,<brightness>"; the unit applies to brightness.
func (g *Generator) lighting(hour int) model.Reading {
	status, brightness := "off", 0
	if hour >= 7 && hour <= 22 {
		status, brightness = "on", g.intBetween(50, 100)
	}
	return model.Reading{Value: status + "," + strconv.Itoa(brightness), Unit: model.UnitPercent}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

// intBetween is inclusive on both ends.
func (g *Generator) intBetween(lo, hi int) int {
	return lo + g.rnd.IntN(hi-lo+1)
}
