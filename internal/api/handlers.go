package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kisanmitra/agri-advisor/internal/auth"
	"github.com/kisanmitra/agri-advisor/internal/core"
	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/nlp"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

// QueryProcessor is the understanding pipeline as seen by the API.
type QueryProcessor interface {
	Process(ctx context.Context, text string) *nlp.Result
	ProcessBatch(ctx context.Context, texts []string) []*nlp.Result
	DetectLanguage(text string) nlp.LanguageResult
	ClassifyIntent(ctx context.Context, text string) intent.Classification
	ExtractEntities(text string) nlp.EntityResult
}

type Advisor interface {
	Advise(ctx context.Context, query, city string) *core.Advice
}

type APIHandler struct {
	pipeline QueryProcessor
	advisor  Advisor
	issuer   *auth.Issuer
	schemas  *schemas
	log      logger.Logger
}

// NewAPIHandler returns an error only if the request schemas fail to compile.
func NewAPIHandler(p QueryProcessor, a Advisor, issuer *auth.Issuer, maxBatch int, log logger.Logger) (*APIHandler, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if maxBatch <= 0 {
		maxBatch = 100
	}
	s, err := compileSchemas(maxBatch)
	if err != nil {
		return nil, err
	}
	return &APIHandler{pipeline: p, advisor: a, issuer: issuer, schemas: s, log: log}, nil
}

type ctxKey string

const subjectKey ctxKey = "subject"

// JWTAuthMiddleware requires a bearer token when an issuer secret is configured.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.issuer.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authorization header must be a Bearer token")
			return
		}
		subject, err := h.issuer.ValidateJWT(tokenString)
		if err != nil {
			h.log.Debug("rejected token", map[string]interface{}{"error": err.Error()})
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, subject)))
	})
}

type TextRequest struct {
	Text string `json:"text"`
}

type BatchRequest struct {
	Texts []string `json:"texts"`
}

type BatchResponse struct {
	Results    []*nlp.Result  `json:"results"`
	Statistics nlp.Statistics `json:"statistics"`
}

type AdviseRequest struct {
	Query string `json:"query"`
	City  string `json:"city,omitempty"`
}

func (h *APIHandler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decodeValid(r, h.schemas.text, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.Process(r.Context(), req.Text))
}

func (h *APIHandler) BatchHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeValid(r, h.schemas.batch, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	results := h.pipeline.ProcessBatch(r.Context(), req.Texts)
	writeJSON(w, http.StatusOK, BatchResponse{Results: results, Statistics: nlp.ComputeStatistics(results)})
}

func (h *APIHandler) LanguageDetectHandler(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decodeValid(r, h.schemas.text, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.DetectLanguage(req.Text))
}

func (h *APIHandler) ClassifyIntentHandler(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decodeValid(r, h.schemas.text, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.ClassifyIntent(r.Context(), req.Text))
}

func (h *APIHandler) ExtractEntitiesHandler(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := decodeValid(r, h.schemas.text, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.pipeline.ExtractEntities(req.Text))
}

func (h *APIHandler) AdviseHandler(w http.ResponseWriter, r *http.Request) {
	var req AdviseRequest
	if err := decodeValid(r, h.schemas.advise, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.advisor.Advise(r.Context(), req.Query, req.City))
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
