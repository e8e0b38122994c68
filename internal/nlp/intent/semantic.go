package intent

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/kisanmitra/agri-advisor/internal/utils"
)

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SemanticScorer compares the query embedding against embedded exemplars.
type SemanticScorer struct {
	embedder  Embedder
	perIntent int

	mu      sync.Mutex
	vectors map[Intent][][]float32
}

// NewSemanticScorer embeds up to perIntent exemplars of each intent on first use.
func NewSemanticScorer(e Embedder, perIntent int) *SemanticScorer {
	if perIntent <= 0 {
		perIntent = 4
	}
	return &SemanticScorer{embedder: e, perIntent: perIntent}
}

func (s *SemanticScorer) Name() string { return "semantic" }

// exemplarVectors embeds the exemplars on first success; the mutex lets a failed attempt be retried.
func (s *SemanticScorer) exemplarVectors(ctx context.Context) (map[Intent][][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vectors != nil {
		return s.vectors, nil
	}

	vectors := make(map[Intent][][]float32, len(All))
	for _, in := range All {
		texts := exemplars[in]
		if len(texts) > s.perIntent {
			texts = texts[:s.perIntent]
		}
		for _, text := range texts {
			vec, err := s.embedder.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("failed to embed exemplar %q: %w", text, err)
			}
			vectors[in] = append(vectors[in], vec)
		}
	}
	s.vectors = vectors
	return vectors, nil
}

// Score takes the best exemplar similarity of each intent, clipped to [0, 1],
// and normalizes them. No positive similarity means no signal.
func (s *SemanticScorer) Score(ctx context.Context, text string) (Scores, error) {
	vectors, err := s.exemplarVectors(ctx)
	if err != nil {
		return nil, err
	}
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	out := make(Scores, len(All))
	for _, in := range All {
		top := 0.0
		for _, vec := range vectors[in] {
			sim, err := utils.CosineSimilarity(query, vec)
			if err != nil {
				return nil, err
			}
			top = math.Max(top, float64(sim))
		}
		out[in] = math.Min(top, 1)
	}
	return out.Normalize(), nil
}
