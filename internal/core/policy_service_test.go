package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/store"
)

func newPolicyStore(t *testing.T, sections map[string][]float32) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "policy.db"), 3, logger.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pos := 0
	for _, content := range []string{"PM-KISAN pays 6000 rupees a year", "PMFBY crop insurance premium is 2 percent", "Soil health cards every two years"} {
		vec, ok := sections[content]
		if !ok {
			continue
		}
		sec := &store.PolicySection{Source: "/data/schemes.pdf", Position: pos, Content: content, Embedding: vec}
		require.NoError(t, s.InsertPolicySection(context.Background(), sec))
		pos++
	}
	return s
}

func vectorEmbedder(vectors map[string][]float32) *fakeLLM {
	return &fakeLLM{embed: func(text string) ([]float32, error) {
		if v, ok := vectors[text]; ok {
			return v, nil
		}
		return nil, errors.New("quota exceeded")
	}}
}

func TestPolicyService_Retrieve(t *testing.T) {
	idx := newPolicyStore(t, map[string][]float32{
		"PM-KISAN pays 6000 rupees a year":          {1, 0, 0},
		"PMFBY crop insurance premium is 2 percent": {0, 1, 0},
		"Soil health cards every two years":         {0.7, 0.7, 0},
	})
	emb := vectorEmbedder(map[string][]float32{"pm kisan amount": {1, 0.1, 0}})
	svc := NewPolicyService(idx, emb, config.PolicyConfig{TopK: 3, SimilarityThreshold: 0.5}, logger.NewTestLogger(t))

	matches, err := svc.Retrieve(context.Background(), "pm kisan amount")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "PM-KISAN pays 6000 rupees a year", matches[0].Content)
	assert.Equal(t, "Soil health cards every two years", matches[1].Content)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)

	ctxText := PolicyContext(matches)
	assert.Contains(t, ctxText, "[1] schemes.pdf (section 1)\nPM-KISAN pays 6000 rupees a year")
	assert.Contains(t, ctxText, "[2] schemes.pdf (section 3)")

	_, err = svc.Retrieve(context.Background(), "unknown question")
	assert.ErrorContains(t, err, "failed to embed question")
}

func TestPolicyService_NothingAboveThreshold(t *testing.T) {
	idx := newPolicyStore(t, map[string][]float32{"PMFBY crop insurance premium is 2 percent": {0, 1, 0}})
	emb := vectorEmbedder(map[string][]float32{"q": {1, 0, 0}})
	svc := NewPolicyService(idx, emb, config.PolicyConfig{SimilarityThreshold: 0.5}, nil)

	matches, err := svc.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPolicyService_EmptyIndex(t *testing.T) {
	idx := newPolicyStore(t, nil)
	svc := NewPolicyService(idx, vectorEmbedder(nil), config.PolicyConfig{}, nil)

	_, err := svc.Retrieve(context.Background(), "pm kisan")
	assert.ErrorIs(t, err, ErrPolicyIndexEmpty)

	noEmbedder := NewPolicyService(idx, nil, config.PolicyConfig{}, nil)
	_, err = noEmbedder.Retrieve(context.Background(), "pm kisan")
	assert.ErrorIs(t, err, ErrLLMUnavailable)
}
