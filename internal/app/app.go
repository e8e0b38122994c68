// Package app assembles the services from configuration for the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/kisanmitra/agri-advisor/internal/auth"
	"github.com/kisanmitra/agri-advisor/internal/cache"
	"github.com/kisanmitra/agri-advisor/internal/config"
	"github.com/kisanmitra/agri-advisor/internal/core"
	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/nlp"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
	"github.com/kisanmitra/agri-advisor/internal/store"
)

type App struct {
	Config   *config.Config
	Log      logger.Logger
	Cache    cache.Cache
	Store    *store.SQLiteStore
	LLM      *core.LLMService
	Pipeline *nlp.Pipeline
	Simple   *intent.Classifier
	Weather  *core.WeatherService
	Prices   *core.PriceService
	Policies *core.PolicyService
	Advisor  *core.AdvisorService
	Auth     *auth.Issuer
}

// New builds every component. Optional dependencies that cannot be reached
// (LLM key, Redis) are logged and left out; the rest of the app still works.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	a := &App{Config: cfg, Log: log, Auth: auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)}

	c, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("cache unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		c = cache.Nop{}
	}
	a.Cache = c

	a.Store, err = store.NewSQLiteStore(cfg.Database.Path, cfg.LLM.EmbeddingDim, log)
	if err != nil {
		_ = a.Cache.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a.LLM, err = core.NewLLMService(ctx, cfg.LLM, log)
	switch {
	case errors.Is(err, core.ErrLLMUnavailable):
		log.Warn("no LLM API key configured; semantic scoring, zero-shot scoring and answer phrasing are disabled", nil)
		a.LLM = nil
	case err != nil:
		log.Warn("LLM client unavailable", map[string]interface{}{"error": err.Error()})
		a.LLM = nil
	}

	// Typed nils must not leak into the interfaces below.
	var completer core.Completer
	var embedder core.Embedder
	if a.LLM != nil {
		completer = a.LLM
		embedder = a.LLM
	}

	a.Pipeline, err = BuildPipeline(cfg, a.LLM, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Simple = intent.NewSimple(cfg.Intent.RuleBaseline, cfg.Intent.LowConfidence)

	a.Weather = core.NewWeatherService(cfg.Weather, a.Cache, log)
	a.Prices = core.NewPriceService(a.Store, completer, log)
	a.Policies = core.NewPolicyService(a.Store, embedder, cfg.Policy, log)
	a.Advisor = core.NewAdvisorService(a.Pipeline, core.Responders{
		Weather:  a.Weather,
		Prices:   a.Prices,
		Policies: a.Policies,
	}, completer, a.Cache, log)
	return a, nil
}

// BuildPipeline assembles the understanding pipeline. llm may be nil.
func BuildPipeline(cfg *config.Config, llm *core.LLMService, log logger.Logger) (*nlp.Pipeline, error) {
	var langOpts []nlp.LanguageOption
	if cfg.NLP.UseLanguageModel {
		langOpts = append(langOpts, nlp.WithLanguageModel(nlp.NewLinguaModel(), cfg.NLP.LanguageModelWeight))
	}
	langOpts = append(langOpts, nlp.WithCodeMixedThreshold(cfg.NLP.CodeMixedThreshold))

	var entOpts []nlp.EntityOption
	if cfg.NLP.UseNER {
		entOpts = append(entOpts, nlp.WithNER(nlp.ProseTagger{}))
	}

	classifier, err := BuildClassifier(cfg, llm, log)
	if err != nil {
		return nil, err
	}
	return nlp.NewPipeline(
		nlp.NewLanguageDetector(langOpts...),
		nlp.DefaultNormalizer(),
		classifier,
		nlp.NewEntityExtractor(entOpts...),
		log,
	), nil
}

// BuildClassifier attaches the keyword scorer and whichever optional scorers are
// enabled and available.
func BuildClassifier(cfg *config.Config, llm *core.LLMService, log logger.Logger) (*intent.Classifier, error) {
	scorers := []intent.Scorer{intent.NewKeywordScorer(cfg.Intent.RuleBaseline)}

	if cfg.Intent.UseML {
		examples := intent.DefaultExamples()
		if cfg.Intent.TrainingFile != "" {
			extra, err := intent.LoadExamples(cfg.Intent.TrainingFile)
			if err != nil {
				return nil, err
			}
			examples = append(examples, extra...)
		}
		bayes, err := intent.TrainBayes(examples)
		if err != nil {
			return nil, fmt.Errorf("failed to train intent model: %w", err)
		}
		scorers = append(scorers, bayes)
	}
	if llm != nil {
		if cfg.Intent.UseSemantic {
			scorers = append(scorers, intent.NewSemanticScorer(llm, 4))
		}
		if cfg.Intent.UseZeroShot {
			scorers = append(scorers, intent.NewZeroShotScorer(llm))
		}
	}

	return intent.New(intent.Options{
		Weights:       cfg.Intent.Weights,
		Adaptive:      cfg.Intent.Adaptive,
		WinnerBoost:   cfg.Intent.WinnerBoost,
		LowConfidence: cfg.Intent.LowConfidence,
	}, log, scorers...), nil
}

// Close releases every opened resource and reports all failures.
func (a *App) Close() error {
	var result *multierror.Error
	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close store: %w", err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	return result.ErrorOrNil()
}
