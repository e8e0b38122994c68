package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/core"
	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "agri.db")
	cfg.NLP.UseLanguageModel = false
	cfg.LLM.APIKey = ""
	cfg.LLM.EmbeddingDim = 8
	return cfg
}

func TestNew_WithoutOptionalDependencies(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })

	assert.Nil(t, a.LLM)
	assert.False(t, a.Auth.Enabled())
	assert.Equal(t, []string{"rule", "ml"}, a.Pipeline.Classifier().ScorerNames())
	assert.Equal(t, []string{"rule"}, a.Simple.ScorerNames())

	res := a.Pipeline.Process(context.Background(), "price of rice")
	assert.Equal(t, intent.PriceQuery, res.PrimaryIntent)

	adv := a.Advisor.Advise(context.Background(), "How to grow wheat", "")
	assert.Equal(t, core.ResponderGeneral, adv.Responder)
	assert.NotEmpty(t, adv.Answer)
	assert.Contains(t, adv.Degraded, "llm")
}

func TestNew_UsesRedisWhenConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Address = mr.Addr()
	cfg.Auth.JWTSecret = "s3cret"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.True(t, a.Auth.Enabled())
	require.NoError(t, a.Cache.SetJSON(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("agri:k"))
}

func TestNew_UnreachableRedisFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Redis.Address = "127.0.0.1:1"

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.NoError(t, a.Cache.SetJSON(context.Background(), "k", "v"))
}

func TestBuildClassifier_TrainingFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "extra.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"text":"tractor ki kist kab bharni hai","intent":"technical_support"}`+"\n"), 0o644))
	cfg.Intent.TrainingFile = path

	c, err := BuildClassifier(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"rule", "ml"}, c.ScorerNames())

	cfg.Intent.TrainingFile = filepath.Join(t.TempDir(), "missing.jsonl")
	_, err = BuildClassifier(cfg, nil, nil)
	assert.Error(t, err)

	cfg.Intent.TrainingFile = ""
	cfg.Intent.UseML = false
	c, err = BuildClassifier(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"rule"}, c.ScorerNames())
}
