package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/store"
)

// PolicyIndex is the read side of the policy vector index.
type PolicyIndex interface {
	CountPolicySections(ctx context.Context) (int, error)
	SearchPolicySections(ctx context.Context, query []float32, k int) ([]store.PolicyMatch, error)
}

type PolicyService struct {
	index    PolicyIndex
	embedder Embedder
	cfg      config.PolicyConfig
	log      logger.Logger
}

func NewPolicyService(index PolicyIndex, embedder Embedder, cfg config.PolicyConfig, log logger.Logger) *PolicyService {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &PolicyService{index: index, embedder: embedder, cfg: cfg, log: log}
}

// Retrieve returns the sections most similar to the question, best first, keeping
// only those at or above the similarity threshold. An empty slice means nothing
// relevant was found.
func (s *PolicyService) Retrieve(ctx context.Context, question string) ([]store.PolicyMatch, error) {
	if s.embedder == nil {
		return nil, ErrLLMUnavailable
	}
	n, err := s.index.CountPolicySections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count policy sections: %w", err)
	}
	if n == 0 {
		return nil, ErrPolicyIndexEmpty
	}

	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	matches, err := s.index.SearchPolicySections(ctx, vec, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("policy search failed: %w", err)
	}

	relevant := matches[:0]
	for _, m := range matches {
		if m.Similarity >= s.cfg.SimilarityThreshold {
			relevant = append(relevant, m)
		}
	}
	s.log.Debug("policy sections retrieved", map[string]interface{}{
		"candidates": len(matches), "relevant": len(relevant), "threshold": s.cfg.SimilarityThreshold,
	})
	return relevant, nil
}

// PolicyContext renders sections as a numbered context block for a prompt.
func PolicyContext(matches []store.PolicyMatch) string {
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "[%d] %s (section %d)\n%s\n\n", i+1, filepath.Base(m.Source), m.Position+1, strings.TrimSpace(m.Content))
	}
	return strings.TrimSpace(b.String())
}
