package phy

import (
	"flag"
	"fmt"
	"time"
)

// Config defines the signalling parameters of an Endpoint.
type Config struct {
	HighVoltage    float64
	LowVoltage     float64
	PulseWidth     time.Duration
	MaxPayloadSize int
	// InactivityTimeout abandons a partially received frame after this
	// long without a start pulse. 0 disables it.
	InactivityTimeout time.Duration
	// SampleOffset is the fraction of a pulse width the receiver waits
	// before its first sample.
	SampleOffset float64
	// Continuous keeps receiving frames after the first one.
	Continuous bool
}

// Defaults
const (
	DefaultHighVoltage       float64       = 2.5
	DefaultLowVoltage        float64       = -2.5
	DefaultPulseWidth        time.Duration = 200 * time.Millisecond
	DefaultMaxPayloadSize    int           = 1500
	DefaultInactivityTimeout time.Duration = 32 * DefaultPulseWidth
	DefaultSampleOffset      float64       = 0.5
)

// Pulse counts of the low periods preceding a frame and every byte.
const (
	settlePulses = 4
	gapPulses    = 4
)

var defaultConfig = Config{
	HighVoltage:       DefaultHighVoltage,
	LowVoltage:        DefaultLowVoltage,
	PulseWidth:        DefaultPulseWidth,
	MaxPayloadSize:    DefaultMaxPayloadSize,
	InactivityTimeout: DefaultInactivityTimeout,
	SampleOffset:      DefaultSampleOffset,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.HighVoltage, "high-voltage", defaultConfig.HighVoltage, "Voltage asserted for bit 1.")
	flag.Float64Var(&defaultConfig.LowVoltage, "low-voltage", defaultConfig.LowVoltage, "Voltage asserted for bit 0.")
	flag.DurationVar(&defaultConfig.PulseWidth, "pulse-width", defaultConfig.PulseWidth, "Duration of a single pulse.")
	flag.IntVar(&defaultConfig.MaxPayloadSize, "max-payload", defaultConfig.MaxPayloadSize, "Maximum payload size (bytes) of a frame.")
	flag.DurationVar(&defaultConfig.InactivityTimeout, "inactivity-timeout", defaultConfig.InactivityTimeout, "Abandon a partial frame after this long without data, 0 disables.")
	flag.BoolVar(&defaultConfig.Continuous, "continuous", defaultConfig.Continuous, "Keep receiving frames after the first one.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the config is usable.
func (c *Config) Validate() error {
	switch {
	case c.PulseWidth <= 0:
		return fmt.Errorf("%w: pulse width must be positive", ErrInvalidConfig)
	case c.HighVoltage <= 0 || c.LowVoltage > 0:
		return fmt.Errorf("%w: high voltage must be positive and low voltage must not be", ErrInvalidConfig)
	case c.MaxPayloadSize <= 0:
		return fmt.Errorf("%w: max payload size must be positive", ErrInvalidConfig)
	case c.SampleOffset < 0 || c.SampleOffset >= 1:
		return fmt.Errorf("%w: sample offset must be in [0, 1)", ErrInvalidConfig)
	case c.InactivityTimeout < 0:
		return fmt.Errorf("%w: negative inactivity timeout", ErrInvalidConfig)
	case c.InactivityTimeout > 0 && c.inactivitySamples() <= gapPulses:
		return fmt.Errorf("%w: inactivity timeout must exceed the inter-byte gap", ErrInvalidConfig)
	}
	return nil
}

// Level returns the voltage representing bit.
func (c *Config) Level(bit bool) float64 {
	if bit {
		return c.HighVoltage
	}
	return c.LowVoltage
}

// NewEndpoint creates an Endpoint using the config.
func (c *Config) NewEndpoint(name string, bus Bus, listener FrameListener) (*Endpoint, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ep := NewEndpoint(name, bus, listener)
	ep.Config = *c
	return ep, nil
}

func (c *Config) pulses(n int) time.Duration {
	return time.Duration(n) * c.PulseWidth
}

func (c *Config) sampleDelay() time.Duration {
	return time.Duration(c.SampleOffset * float64(c.PulseWidth))
}

func (c *Config) inactivitySamples() int {
	return int(c.InactivityTimeout / c.PulseWidth)
}
