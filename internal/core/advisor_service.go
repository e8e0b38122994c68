package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kisanmitra/agri-advisor/internal/cache"
	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/metrics"
	"github.com/kisanmitra/agri-advisor/internal/nlp"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
	"github.com/kisanmitra/agri-advisor/internal/store"
)

// Analyzer turns a raw query into a structured result.
type Analyzer interface {
	Process(ctx context.Context, text string) *nlp.Result
}

type PriceLookuper interface {
	Lookup(ctx context.Context, question, crop, location string) (*PriceLookup, error)
}

type PolicyRetriever interface {
	Retrieve(ctx context.Context, question string) ([]store.PolicyMatch, error)
}

// Responders are the specialised back ends. Any of them may be nil.
type Responders struct {
	Weather  WeatherProvider
	Prices   PriceLookuper
	Policies PolicyRetriever
}

// ReplyLanguage is the language an answer is phrased in.
type ReplyLanguage string

const (
	ReplyEnglish  ReplyLanguage = "english"
	ReplyHindi    ReplyLanguage = "hindi"
	ReplyHinglish ReplyLanguage = "hinglish"
)

func (l ReplyLanguage) instruction() string {
	switch l {
	case ReplyHindi:
		return "Hindi, written in Devanagari script"
	case ReplyHinglish:
		return "Hinglish, Hindi written in Latin script mixed with common English words"
	default:
		return "simple English"
	}
}

// ReplyLanguageFor picks Hinglish for code-mixed queries, otherwise the primary language.
func ReplyLanguageFor(res *nlp.Result) ReplyLanguage {
	switch {
	case res.IsCodeMixed:
		return ReplyHinglish
	case res.PrimaryLanguage == nlp.Hindi:
		return ReplyHindi
	default:
		return ReplyEnglish
	}
}

const (
	ResponderWeather = "weather"
	ResponderPrice   = "price"
	ResponderPolicy  = "policy"
	ResponderGeneral = "general"
)

type Advice struct {
	ID          string        `json:"id"`
	Query       string        `json:"query"`
	Intent      intent.Intent `json:"intent"`
	Confidence  float64       `json:"confidence"`
	Language    ReplyLanguage `json:"language"`
	Responder   string        `json:"responder"`
	Answer      string        `json:"answer"`
	Data        interface{}   `json:"data,omitempty"`
	Degraded    []string      `json:"degraded,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type AdvisorService struct {
	analyzer   Analyzer
	responders Responders
	llm        Completer
	cache      cache.Cache
	log        logger.Logger
}

// NewAdvisorService wires the router. llm may be nil; answers then fall back to
// rendered data or canned text.
func NewAdvisorService(a Analyzer, r Responders, llm Completer, c cache.Cache, log logger.Logger) *AdvisorService {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &AdvisorService{analyzer: a, responders: r, llm: llm, cache: c, log: log}
}

// Advise analyses the query and answers it with the responder for its intent.
// city is the session location used when the query names none. Advise always
// returns an answer; failed dependencies are listed in Degraded.
func (s *AdvisorService) Advise(ctx context.Context, query, city string) *Advice {
	res := s.analyzer.Process(ctx, query)
	adv := &Advice{
		ID:         uuid.NewString(),
		Query:      query,
		Intent:     res.PrimaryIntent,
		Confidence: res.IntentConfidence,
		Language:   ReplyLanguageFor(res),
		Degraded:   append([]string(nil), res.Degraded...),
	}

	var outcome string
	switch res.PrimaryIntent {
	case intent.WeatherQuery:
		adv.Responder = ResponderWeather
		outcome = s.weather(ctx, adv, res, city)
	case intent.PriceQuery:
		adv.Responder = ResponderPrice
		outcome = s.price(ctx, adv, res)
	case intent.PolicyQuery:
		adv.Responder = ResponderPolicy
		outcome = s.policy(ctx, adv, res)
	default:
		adv.Responder = ResponderGeneral
		outcome = s.general(ctx, adv, res)
	}

	metrics.ResponderRequests.WithLabelValues(adv.Responder, outcome).Inc()
	s.log.Info("advice generated", map[string]interface{}{
		"id":        adv.ID,
		"intent":    adv.Intent,
		"responder": adv.Responder,
		"outcome":   outcome,
		"language":  adv.Language,
	})
	adv.GeneratedAt = time.Now().UTC()
	return adv
}

func entityValue(res *nlp.Result, cat nlp.EntityCategory) string {
	e, ok := res.EntityResult().First(cat)
	if !ok {
		return ""
	}
	if e.Normalized != "" {
		return e.Normalized
	}
	return e.Text
}

func (s *AdvisorService) weather(ctx context.Context, adv *Advice, res *nlp.Result, city string) string {
	location := entityValue(res, nlp.CategoryLocation)
	if location == "" {
		location = strings.TrimSpace(city)
	}
	if location == "" {
		adv.Answer = cannedText(msgSetCity, adv.Language)
		return "needs_location"
	}
	if s.responders.Weather == nil {
		adv.Answer = cannedText(msgWeatherUnavailable, adv.Language)
		adv.Degraded = append(adv.Degraded, "weather")
		return "unavailable"
	}

	report, err := s.responders.Weather.Report(ctx, location)
	if errors.Is(err, ErrLocationNotFound) {
		adv.Answer = fmt.Sprintf(cannedText(msgLocationNotFound, adv.Language), location)
		return "location_not_found"
	}
	if err != nil {
		s.log.Warn("weather lookup failed", map[string]interface{}{"location": location, "error": err.Error()})
		adv.Answer = cannedText(msgWeatherUnavailable, adv.Language)
		adv.Degraded = append(adv.Degraded, "weather")
		return "error"
	}
	adv.Data = report

	prompt := fmt.Sprintf("Explain this weather report to a farmer and say what to do in the field this week.\n\n%s\n\nFarmer's question: %s",
		report.Summary(), adv.Query)
	return s.phrase(ctx, adv, prompt, report.Summary())
}

func (s *AdvisorService) price(ctx context.Context, adv *Advice, res *nlp.Result) string {
	if s.responders.Prices == nil {
		adv.Answer = cannedText(msgPriceUnavailable, adv.Language)
		adv.Degraded = append(adv.Degraded, "prices")
		return "unavailable"
	}
	crop := entityValue(res, nlp.CategoryCrop)
	location := entityValue(res, nlp.CategoryLocation)

	lookup, err := s.responders.Prices.Lookup(ctx, res.NormalizedText, crop, location)
	if err != nil {
		s.log.Warn("price lookup failed", map[string]interface{}{"crop": crop, "error": err.Error()})
		adv.Answer = cannedText(msgPriceUnavailable, adv.Language)
		adv.Degraded = append(adv.Degraded, "prices")
		return "error"
	}
	adv.Data = lookup
	if lookup.Empty() {
		adv.Answer = cannedText(msgNoPrices, adv.Language)
		return "no_rows"
	}
	if !lookup.Generated {
		adv.Degraded = append(adv.Degraded, "price:sql")
	}

	table := RenderTable(lookup.Result)
	prompt := fmt.Sprintf("Summarise these mandi prices for the farmer. Prices are rupees per quintal; mention market and date.\n\nRows:\n%s\n\nFarmer's question: %s",
		table, adv.Query)
	return s.phrase(ctx, adv, prompt, table)
}

func (s *AdvisorService) policy(ctx context.Context, adv *Advice, res *nlp.Result) string {
	var matches []store.PolicyMatch
	if s.responders.Policies != nil {
		var err error
		matches, err = s.responders.Policies.Retrieve(ctx, res.NormalizedText)
		if err != nil {
			s.log.Warn("policy retrieval failed", map[string]interface{}{"error": err.Error()})
			adv.Degraded = append(adv.Degraded, "policy_index")
		}
	} else {
		adv.Degraded = append(adv.Degraded, "policy_index")
	}

	if len(matches) == 0 {
		prompt := fmt.Sprintf("No scheme documents matched this question. Answer from general knowledge of Indian government schemes for farmers and say where the farmer can verify the details.\n\nFarmer's question: %s",
			adv.Query)
		return s.phrase(ctx, adv, prompt, cannedText(msgPolicyUnavailable, adv.Language))
	}

	adv.Data = matches
	prompt := fmt.Sprintf("Answer the farmer's question using only the scheme documents below and name the document you relied on.\n\n--- CONTEXT START ---\n%s\n--- CONTEXT END ---\n\nFarmer's question: %s",
		PolicyContext(matches), adv.Query)
	return s.phrase(ctx, adv, prompt, strings.TrimSpace(matches[0].Content))
}

func (s *AdvisorService) general(ctx context.Context, adv *Advice, res *nlp.Result) string {
	key := fmt.Sprintf("advice:%s:%s", adv.Language, strings.ToLower(strings.TrimSpace(res.NormalizedText)))
	var cached string
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil && cached != "" {
		adv.Answer = cached
		return "cached"
	}

	var details []string
	for _, cat := range nlp.Categories {
		if vals := res.Entities[cat]; len(vals) > 0 {
			details = append(details, fmt.Sprintf("%s: %s", cat, strings.Join(vals, ", ")))
		}
	}
	prompt := fmt.Sprintf("Topic: %s\n", adv.Intent.Description())
	if len(details) > 0 {
		prompt += "Details mentioned: " + strings.Join(details, "; ") + "\n"
	}
	prompt += "Farmer's question: " + adv.Query

	outcome := s.phrase(ctx, adv, prompt, cannedText(msgGeneralUnavailable, adv.Language))
	if outcome == "ok" {
		if err := s.cache.SetJSON(ctx, key, adv.Answer); err != nil {
			s.log.Warn("advice cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return outcome
}

// phrase asks the LLM for the final answer and uses fallback when it cannot.
func (s *AdvisorService) phrase(ctx context.Context, adv *Advice, prompt, fallback string) string {
	if s.llm == nil {
		adv.Answer = fallback
		adv.Degraded = append(adv.Degraded, "llm")
		return "fallback"
	}
	answer, err := s.llm.Complete(ctx, systemPrompt(adv.Language), prompt)
	if err != nil {
		s.log.Warn("answer phrasing failed", map[string]interface{}{"responder": adv.Responder, "error": err.Error()})
		adv.Answer = fallback
		adv.Degraded = append(adv.Degraded, "llm")
		return "fallback"
	}
	adv.Answer = answer
	return "ok"
}

func systemPrompt(lang ReplyLanguage) string {
	return "You are KisanMitra, an assistant for Indian farmers. " +
		"Reply in " + lang.instruction() + ", in at most 150 words. " +
		"Give practical and safe advice. Do not invent prices, dates or scheme amounts that are not given to you. " +
		"Suggest the local Krishi Vigyan Kendra or agriculture officer when a field visit is needed."
}
