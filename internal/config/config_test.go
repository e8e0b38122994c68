package config

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Weather.HistoryDays)
	assert.Equal(t, 7, cfg.Weather.ForecastDays)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.35, cfg.Intent.Weights["rule"], 1e-9)
	assert.InDelta(t, 1.2, cfg.Intent.WinnerBoost, 1e-9)
	assert.False(t, cfg.LLM.Enabled())
}

func TestLoadHonoursPlainEnvNames(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("HTTP_PORT", "9191")
	t.Setenv("AGRI_WEATHER_FORECAST_DAYS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Weather.ForecastDays)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = ""
	cfg.Intent.WinnerBoost = 0.5
	cfg.Weather.ForecastDays = 0
	cfg.Intent.Weights = map[string]float64{"rule": -1}

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.GreaterOrEqual(t, len(merr.Errors), 5)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "winner_boost")
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("AGRI_NLP_CODE_MIXED_THRESHOLD", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code_mixed_threshold")
}
