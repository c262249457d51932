package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://api-adresse.data.gouv.fr/search", cfg.BAN.BaseURL)
	assert.InDelta(t, 0.4, cfg.BAN.AddressScoreFloor, 1e-9)
	assert.InDelta(t, 0.85, cfg.Anthropic.MinConfidence, 1e-9)
	assert.Equal(t, 10, cfg.Anthropic.BatchSize)
	assert.InDelta(t, 500_000, cfg.Merge.MinAmount, 1e-9)
	assert.Equal(t, "grandes_operations", cfg.Warehouse.Table)
	assert.InDelta(t, 100.0, cfg.Extract.TotalTolerance, 1e-9)
	assert.NotEmpty(t, cfg.Sources.BudgetVote[2024])
	assert.NotEmpty(t, cfg.Sources.Investments[2023])
}

func TestLoad_FileOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
log:
  level: debug
merge:
  min_amount: 250000
ban:
  rps: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.InDelta(t, 250_000, cfg.Merge.MinAmount, 1e-9)
	assert.InDelta(t, 2.0, cfg.BAN.RPS, 1e-9)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Anthropic.BatchSize)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
