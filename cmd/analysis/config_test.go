package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1_000_000, cfg.Items)
	assert.Equal(t, 1000, cfg.HitterEvery)
	assert.Equal(t, []string{"1024x4", "65536x8", "1048576x16"}, cfg.Configs)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CMS_ITEMS", "5000")
	t.Setenv("CMS_CONFIGS", "256x3,512x4")
	t.Setenv("CMS_EPSILON", "0.01")
	t.Setenv("CMS_DELTA", "0.01")
	t.Setenv("CMS_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Items)
	assert.Equal(t, []string{"256x3", "512x4"}, cfg.Configs)
	assert.Equal(t, uint64(7), cfg.Seed)

	dims, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, []Dimensions{{256, 3}, {512, 4}, {512, 5}}, dims)
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("CMS_ITEMS", "many")

	_, err := Load()
	require.Error(t, err)
}

func TestParseDimensions(t *testing.T) {
	tests := []struct {
		in    string
		want  Dimensions
		isErr bool
	}{
		{in: "1024x4", want: Dimensions{1024, 4}},
		{in: " 100x8 ", want: Dimensions{100, 8}},
		{in: "1024", isErr: true},
		{in: "0x4", isErr: true},
		{in: "1024x0", isErr: true},
		{in: "axb", isErr: true},
		{in: "1024x65", isErr: true},
		{in: "281474976710657x1", isErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDimensions(tt.in)
			if tt.isErr {
				require.ErrorIs(t, err, errInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Items: 100, HitterEvery: 10, Configs: []string{"64x2"}}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		isErr  bool
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "zero items", modify: func(c *Config) { c.Items = 0 }, isErr: true},
		{name: "zero hitter", modify: func(c *Config) { c.HitterEvery = 0 }, isErr: true},
		{name: "bad shape", modify: func(c *Config) { c.Configs = []string{"64"} }, isErr: true},
		{name: "no shapes", modify: func(c *Config) { c.Configs = nil }, isErr: true},
		{name: "epsilon only", modify: func(c *Config) { c.Epsilon = 0.1 }, isErr: true},
		{name: "delta out of range", modify: func(c *Config) { c.Epsilon, c.Delta = 0.1, 1 }, isErr: true},
		{name: "estimates only", modify: func(c *Config) {
			c.Configs = nil
			c.Epsilon, c.Delta = 0.1, 0.1
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.modify(cfg)
			_, err := cfg.Validate()
			if tt.isErr {
				require.ErrorIs(t, err, errInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}
