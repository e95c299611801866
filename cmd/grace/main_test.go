package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/grace/internal/cli"
)

func TestRunHelp(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), out, out, []string{"-h"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "USAGE:")
}

func TestRunUsageError(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"frobnicate"})
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRunVersion(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), out, out, []string{"version"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "grace dev (built ")
}

func TestBuildInfo(t *testing.T) {
	defer func(v, b string) { version, buildTime = v, b }(version, buildTime)

	version, buildTime = "v1.0.0", "2024-03-01T12:00:00Z"
	info, err := buildInfo()
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", info.Version)
	assert.True(t, info.Time.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	buildTime = "yesterday"
	_, err = buildInfo()
	assert.ErrorContains(t, err, "invalid build time")
}
