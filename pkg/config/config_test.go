package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalYAML = `
environment: test
binance:
  rest_url: https://api.binance.com
scan:
  panel_symbols:
    - BTCUSDT
redis:
  host: localhost
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, 10, cfg.Scan.Concurrency)
	require.Equal(t, 50, cfg.Scan.MinConfidence)
	require.Equal(t, 0.5, cfg.Scan.VolatilityGate)
	require.Equal(t, 25, cfg.Scan.TopResults)
	require.Equal(t, 210, cfg.Binance.CandleLimit)
	require.Equal(t, 10, cfg.Binance.BookDepth)
	require.Equal(t, 120, cfg.Binance.MaxSymbols)
	require.Equal(t, 30, cfg.Scan.Learning.TradeCount)
	require.Equal(t, 5, cfg.Scan.Learning.Lookahead)
	require.Equal(t, 2, cfg.Scan.Learning.Rate)
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\n"))
	require.Error(t, err)
}

func TestLoadRejectsMissingPanel(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
binance:
  rest_url: https://api.binance.com
redis:
  host: localhost
`))
	require.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BINANCE_REST_URL", "https://testnet.binance.vision")
	t.Setenv("REDIS_ADDR", "redis-prod:6380")
	t.Setenv("PANEL_SYMBOLS", "ETHUSDT,SOLUSDT")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "https://testnet.binance.vision", cfg.Binance.RestURL)
	require.Equal(t, "redis-prod", cfg.Redis.Host)
	require.Equal(t, 6380, cfg.Redis.Port)
	require.Equal(t, []string{"ETHUSDT", "SOLUSDT"}, cfg.Scan.PanelSymbols)
}

func TestSplitHostPort(t *testing.T) {
	h, p := splitHostPort("localhost:6379", 0)
	require.Equal(t, "localhost", h)
	require.Equal(t, 6379, p)

	h, p = splitHostPort("justhost", 6379)
	require.Equal(t, "justhost", h)
	require.Equal(t, 6379, p)
}
