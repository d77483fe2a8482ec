package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestGearTable(t *testing.T) {
	GearConfig = ""
	tbl, err := GearTable()
	require.NoError(t, err)
	assert.Equal(t, 500.0, tbl.Tolerance)

	GearConfig = filepath.Join(t.TempDir(), "gear.yml")
	t.Cleanup(func() { GearConfig = "" })
	require.NoError(t, os.WriteFile(GearConfig, []byte("tolerance: 250\n"), 0o600))
	tbl, err = GearTable()
	require.NoError(t, err)
	assert.Equal(t, 250.0, tbl.Tolerance)
	assert.Equal(t, 7147.0, tbl.ShiftRPM["2->3"])

	GearConfig = filepath.Join(t.TempDir(), "missing.yml")
	_, err = GearTable()
	assert.Error(t, err)
}

func TestSetupTelemetry(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	buf := &bytes.Buffer{}
	tel, err := setupTelemetry(context.Background(), buf, 0)
	require.NoError(t, err)
	counter, err := otel.GetMeterProvider().Meter("test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)
	tel.Shutdown()
	assert.Contains(t, buf.String(), "test.counter")
}
