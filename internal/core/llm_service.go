package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/logger"
)

// Completer produces free text from a system instruction and a prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type LLMService struct {
	client *genai.Client
	cfg    config.LLMConfig
	log    logger.Logger
}

// NewLLMService returns ErrLLMUnavailable when no API key is configured.
func NewLLMService(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (*LLMService, error) {
	if !cfg.Enabled() {
		return nil, ErrLLMUnavailable
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, cfg: cfg, log: log}, nil
}

func (s *LLMService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close GenAI client: %w", err)
	}
	return nil
}

func (s *LLMService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *LLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	em := s.client.EmbeddingModel(s.cfg.EmbeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// Complete runs a single-turn generation with the configured temperature and token limit.
func (s *LLMService) Complete(ctx context.Context, system, prompt string) (string, error) {
	model := s.model(system)
	temp := s.cfg.Temperature
	maxTokens := s.cfg.MaxTokens
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     &temp,
		MaxOutputTokens: &maxTokens,
	}
	return s.generate(ctx, model, prompt)
}

// CompleteJSON asks for a deterministic JSON-only answer.
func (s *LLMService) CompleteJSON(ctx context.Context, system, prompt string) (string, error) {
	model := s.model(system)
	temp := float32(0)
	maxTokens := s.cfg.MaxTokens
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		MaxOutputTokens:  &maxTokens,
		ResponseMIMEType: "application/json",
	}
	return s.generate(ctx, model, prompt)
}

func (s *LLMService) model(system string) *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.cfg.ChatModel)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	return model
}

func (s *LLMService) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			s.log.Debug("ignoring non-text gemini part", map[string]interface{}{"type": fmt.Sprintf("%T", part)})
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return out, nil
}
