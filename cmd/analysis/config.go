package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jcalabro/countmin"
	"github.com/kelseyhightower/envconfig"
)

const (
	envPrefix = "CMS"
	maxDepth  = 64
)

var errInvalidConfig = errors.New("invalid configuration")

// Config holds the analysis settings. Every field can be set from the
// environment (e.g. CMS_ITEMS) and overridden by command-line flags.
type Config struct {
	Items       int      `envconfig:"ITEMS" default:"1000000"`
	HitterEvery int      `envconfig:"HITTER_EVERY" default:"1000"`
	Configs     []string `envconfig:"CONFIGS" default:"1024x4,65536x8,1048576x16"`
	Epsilon     float64  `envconfig:"EPSILON" default:"0"`
	Delta       float64  `envconfig:"DELTA" default:"0"`
	Seed        uint64   `envconfig:"SEED" default:"0"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings and returns the sketch shapes to analyze.
func (c *Config) Validate() ([]Dimensions, error) {
	if c.Items <= 0 {
		return nil, fmt.Errorf("%w: items must be positive, got %d", errInvalidConfig, c.Items)
	}
	if c.HitterEvery <= 0 {
		return nil, fmt.Errorf("%w: hitter-every must be positive, got %d", errInvalidConfig, c.HitterEvery)
	}

	dims := make([]Dimensions, 0, len(c.Configs)+1)
	for _, s := range c.Configs {
		d, err := ParseDimensions(s)
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}

	if c.Epsilon != 0 || c.Delta != 0 {
		if !(c.Epsilon > 0 && c.Epsilon < 1) || !(c.Delta > 0 && c.Delta < 1) {
			return nil, fmt.Errorf("%w: epsilon and delta must both be in (0, 1), got %v and %v",
				errInvalidConfig, c.Epsilon, c.Delta)
		}
		dims = append(dims, DimensionsFor(c.Epsilon, c.Delta))
	}

	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: no sketch configuration given", errInvalidConfig)
	}

	return dims, nil
}

// ParseDimensions parses a "<width>x<depth>" shape such as "65536x8".
func ParseDimensions(s string) (Dimensions, error) {
	ws, ds, ok := strings.Cut(strings.TrimSpace(s), "x")
	if !ok {
		return Dimensions{}, fmt.Errorf("%w: shape %q is not <width>x<depth>", errInvalidConfig, s)
	}

	width, err := strconv.ParseUint(ws, 10, 64)
	if err != nil || width == 0 || width > countmin.MaxWidth {
		return Dimensions{}, fmt.Errorf("%w: bad width in %q", errInvalidConfig, s)
	}
	depth, err := strconv.ParseUint(ds, 10, 64)
	if err != nil || depth == 0 || depth > maxDepth {
		return Dimensions{}, fmt.Errorf("%w: bad depth in %q", errInvalidConfig, s)
	}

	return Dimensions{Width: width, Depth: depth}, nil
}
