package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/jcalabro/countmin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamKey(t *testing.T) {
	var buf []byte
	buf = streamKey(buf, 0, 1000)
	assert.Equal(t, "hitter", string(buf))
	buf = streamKey(buf, 17, 1000)
	assert.Equal(t, "i_17", string(buf))
	buf = streamKey(buf, 2000, 1000)
	assert.Equal(t, "hitter", string(buf))
}

func TestAnalyze(t *testing.T) {
	r, err := Analyze(context.Background(), Dimensions{4096, 5}, countmin.DefaultSeeds, 20_000, 100)
	require.NoError(t, err)

	assert.Equal(t, uint64(4096), r.Width)
	assert.Equal(t, uint64(5), r.Depth)
	assert.Equal(t, 20_000, r.Items)
	// 200 hitter increments plus 19,800 unique keys
	assert.Equal(t, 19_801, r.Distinct)
	assert.Equal(t, uint64(200), r.HitterTrue)
	assert.GreaterOrEqual(t, r.HitterEstimate, r.HitterTrue)
	assert.GreaterOrEqual(t, r.AvgRelativeError, 0.0)
	assert.Equal(t, uint64(4096*5*8), r.SizeBytes)
	assert.InDelta(t, countmin.EpsilonFor(4096)*20_000, r.ErrorBound, 1e-9)
	assert.LessOrEqual(t, r.OverBoundRatio(), 2*r.Delta)
}

func TestAnalyzeExactWhenSparse(t *testing.T) {
	// A single repeated key never collides with anything
	r, err := Analyze(context.Background(), Dimensions{1024, 4}, countmin.DefaultSeeds, 500, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Distinct)
	assert.Equal(t, uint64(500), r.HitterEstimate)
	assert.Zero(t, r.MaxAbsoluteError)
	assert.Zero(t, r.AvgRelativeError)
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Analyze(ctx, Dimensions{64, 2}, countmin.DefaultSeeds, 10, 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSeedsFor(t *testing.T) {
	assert.Equal(t, countmin.DefaultSeeds, seedsFor(0))
	assert.Equal(t, countmin.Seeds{5, 6, 7, 8}, seedsFor(5))
}

func TestRun(t *testing.T) {
	cfg := &Config{
		Items:       5000,
		HitterEvery: 50,
		Configs:     []string{"256x3"},
		Epsilon:     0.01,
		Delta:       0.01,
		LogLevel:    "error",
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SHAPE"))
	assert.True(t, strings.HasPrefix(lines[1], "256x3"))
	assert.True(t, strings.HasPrefix(lines[2], "512x5"))
	assert.Contains(t, lines[1], "/100")
}

func TestRunInvalidLogLevel(t *testing.T) {
	cfg := &Config{Items: 10, HitterEvery: 1, Configs: []string{"8x1"}, LogLevel: "loud"}
	require.Error(t, run(context.Background(), cfg, &bytes.Buffer{}))
}

func TestRootCmdFlags(t *testing.T) {
	cmd, err := newRootCmd()
	require.NoError(t, err)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--items", "1000", "--config", "128x2", "--log-level", "error"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "128x2")
	assert.NotContains(t, out.String(), "1024x4")
}
