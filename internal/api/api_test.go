package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kisanmitra/agri-advisor/internal/auth"
	"github.com/kisanmitra/agri-advisor/internal/core"
	"github.com/kisanmitra/agri-advisor/internal/logger"
	"github.com/kisanmitra/agri-advisor/internal/nlp"
	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

type stubAdvisor struct {
	query, city string
}

func (s *stubAdvisor) Advise(_ context.Context, query, city string) *core.Advice {
	s.query, s.city = query, city
	return &core.Advice{Query: query, Intent: intent.WeatherQuery, Responder: core.ResponderWeather, Answer: "Light rain tomorrow."}
}

func newTestServer(t *testing.T, issuer *auth.Issuer, maxBatch int) (*httptest.Server, *stubAdvisor) {
	t.Helper()
	pipeline := nlp.NewPipeline(
		nlp.NewLanguageDetector(),
		nlp.DefaultNormalizer(),
		intent.NewSimple(0.3, 0.4),
		nlp.NewEntityExtractor(),
		logger.NewTestLogger(t),
	)
	adv := &stubAdvisor{}
	h, err := NewAPIHandler(pipeline, adv, issuer, maxBatch, logger.NewTestLogger(t))
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, adv
}

func post(t *testing.T, srv *httptest.Server, path, body string, headers ...string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestProcessHandler(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)

	resp, body := post(t, srv, "/process", `{"text":"Wheat crop in Punjab needs irrigation"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "crop_advice", body["primary_intent"])
	assert.NotEmpty(t, body["id"])
	ents := body["entities"].(map[string]interface{})
	assert.Equal(t, []interface{}{"Wheat"}, ents["crop"])
	assert.Equal(t, []interface{}{"Punjab"}, ents["location"])
}

func TestProcessHandler_EmptyTextIsAccepted(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)

	resp, body := post(t, srv, "/process", `{"text":""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "general_inquiry", body["primary_intent"])
	assert.Equal(t, true, body["low_confidence"])
}

func TestHandlers_ValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil, 2)

	tests := []struct {
		name, path, body, want string
	}{
		{"malformed json", "/process", `{"text":`, "invalid JSON body"},
		{"missing field", "/language-detect", `{}`, "text is required"},
		{"wrong type", "/classify-intent", `{"text": 5}`, "Invalid type"},
		{"too many items", "/batch", `{"texts":["a","b","c"]}`, "request validation failed"},
		{"empty batch", "/batch", `{"texts":[]}`, "request validation failed"},
		{"empty advise query", "/advise", `{"query":""}`, "request validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestBatchHandler(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)

	resp, body := post(t, srv, "/batch", `{"texts":["price of rice","मौसम कैसा है","hello"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	results := body["results"].([]interface{})
	require.Len(t, results, 3)
	assert.Equal(t, "price of rice", results[0].(map[string]interface{})["query"])
	assert.Equal(t, "price_query", results[0].(map[string]interface{})["primary_intent"])
	assert.Equal(t, "मौसम कैसा है", results[1].(map[string]interface{})["query"])

	stats := body["statistics"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["total_queries"])
}

func TestComponentHandlers(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)

	_, lang := post(t, srv, "/language-detect", `{"text":"पानी कब देना है"}`)
	assert.Equal(t, "hi", lang["primary_language"])
	scores := lang["scores"].(map[string]interface{})
	assert.InDelta(t, 1.0, scores["hi"].(float64)+scores["en"].(float64), 1e-9)

	_, cls := post(t, srv, "/classify-intent", `{"text":"price of rice"}`)
	assert.Equal(t, "price_query", cls["primary_intent"])
	assert.Equal(t, []interface{}{"rule"}, cls["scorers_used"])

	_, ents := post(t, srv, "/extract-entities", `{"text":"Wheat crop in Punjab"}`)
	assert.Contains(t, ents, "details")
	assert.Equal(t, []interface{}{"Punjab"}, ents["entities"].(map[string]interface{})["location"])
}

func TestAdviseHandler(t *testing.T) {
	srv, adv := newTestServer(t, nil, 100)

	resp, body := post(t, srv, "/advise", `{"query":"kal barish hogi kya","city":"Indore"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Light rain tomorrow.", body["answer"])
	assert.Equal(t, "weather", body["responder"])
	assert.Equal(t, "kal barish hogi kya", adv.query)
	assert.Equal(t, "Indore", adv.city)
}

func TestAuthMiddleware(t *testing.T) {
	issuer := auth.NewIssuer("s3cret", time.Hour)
	srv, _ := newTestServer(t, issuer, 100)

	resp, body := post(t, srv, "/process", `{"text":"hello"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authorization header is required", body["error"])

	resp, _ = post(t, srv, "/process", `{"text":"hello"}`, "Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = post(t, srv, "/process", `{"text":"hello"}`, "Authorization", "Bearer abc")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := issuer.GenerateJWT("field-app")
	require.NoError(t, err)
	resp, _ = post(t, srv, "/process", `{"text":"hello"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, nil, 100)
	post(t, srv, "/process", `{"text":"price of rice"}`)

	resp, err := srv.Client().Get(srv.URL + "/health/")
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, map[string]string{"status": "ok"}, health)

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "agri_queries_processed_total")
}
