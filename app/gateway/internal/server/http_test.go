package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/market_intel/app/gateway/internal/conf"
	"github.com/iWorld-y/market_intel/app/gateway/internal/service"
	"github.com/iWorld-y/market_intel/app/gateway/internal/usecase"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/state"
)

type fakeAgent struct {
	gotQuery, gotDomain string
}

func (f *fakeAgent) ProcessQuery(_ context.Context, query, domain string) *model.QueryResponse {
	f.gotQuery, f.gotDomain = query, domain
	return &model.QueryResponse{
		StateID: "query_20240102030405",
		Analysis: model.Succeeded(&model.MarketReport{
			Trends: []model.Trend{{TrendName: "AI copilots", ConfidenceScore: 0.8}},
		}),
	}
}

func (f *fakeAgent) AnswerQuestion(_ context.Context, _, stateID string) *model.AnswerResponse {
	if stateID != "query_20240102030405" {
		return &model.AnswerResponse{Error: "Failed to answer question: not found"}
	}
	return &model.AnswerResponse{Result: model.Succeeded(&model.Answer{Answer: "yes", Confidence: 0.9})}
}

func (f *fakeAgent) State(_ context.Context, stateID string) (*model.QueryState, error) {
	if stateID == "query_20240102030405" {
		return &model.QueryState{ID: stateID, Query: "AI", MarketDomain: "SaaS"}, nil
	}
	return nil, fmt.Errorf("%w: %s", state.ErrNotFound, stateID)
}

func newTestServer(agent *fakeAgent) http.Handler {
	uc := usecase.NewMarketUseCase(agent, log.DefaultLogger)
	svc := service.NewMarketService(uc, log.DefaultLogger)
	return NewHTTPServer(&conf.Server{Http: &conf.HTTP{Timeout: "5s"}}, svc, log.DefaultLogger)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_Query(t *testing.T) {
	agent := &fakeAgent{}
	rec := do(t, newTestServer(agent), http.MethodPost, "/v1/market/query", `{"query":"AI","market_domain":"SaaS"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "query_20240102030405", got["state_id"])
	assert.Len(t, got["trends"], 1)
	assert.Equal(t, "AI", agent.gotQuery)
	assert.Equal(t, "SaaS", agent.gotDomain)
}

func TestHTTP_QueryMissingDomain(t *testing.T) {
	rec := do(t, newTestServer(&fakeAgent{}), http.MethodPost, "/v1/market/query", `{"query":"AI"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_Question(t *testing.T) {
	h := newTestServer(&fakeAgent{})

	rec := do(t, h, http.MethodPost, "/v1/market/question", `{"question":"growing?","state_id":"query_20240102030405"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"answer":"yes","sources":null,"confidence":0.9}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/v1/market/question", `{"question":"growing?","state_id":"query_1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to answer question: not found"}`, rec.Body.String())
}

func TestHTTP_GetState(t *testing.T) {
	h := newTestServer(&fakeAgent{})

	rec := do(t, h, http.MethodGet, "/v1/market/states/query_20240102030405", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st model.QueryState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "SaaS", st.MarketDomain)

	rec = do(t, h, http.MethodGet, "/v1/market/states/query_19990101000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToConfig(t *testing.T) {
	cfg := ToConfig(&conf.Agent{
		CacheDir:    "/tmp/c",
		Llm:         &conf.LLM{Provider: "mock", MaxOutputTokens: 512},
		Retrieval:   &conf.Retrieval{K: 6, UseInPrompt: true},
		State:       &conf.State{Backend: "postgres", Db: &conf.DB{Host: "db", Port: 5433}},
		Concurrency: &conf.Concurrency{Rpm: 30},
	})
	assert.Equal(t, "/tmp/c", cfg.CacheDir)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 512, cfg.LLM.MaxOutputTokens)
	assert.Equal(t, 6, cfg.Retrieval.K)
	assert.True(t, cfg.Retrieval.UseInPrompt)
	assert.Equal(t, "postgres", cfg.State.Backend)
	assert.Equal(t, 5433, cfg.State.DB.Port)
	assert.Equal(t, 30, cfg.Concurrency.RPM)

	assert.NotNil(t, ToConfig(nil))
}

func TestNewAgentEngine_Mock(t *testing.T) {
	dir := t.TempDir()
	eng, cleanup, err := NewAgentEngine(&conf.Agent{
		CacheDir:  dir + "/cache",
		StateDir:  dir + "/states",
		Llm:       &conf.LLM{Provider: "mock"},
		Embedding: &conf.Embedding{Provider: "mock"},
		Log:       &conf.Log{Level: "info", File: dir + "/agent.log"},
	}, log.DefaultLogger)
	require.NoError(t, err)
	defer cleanup()

	_, err = eng.State(context.Background(), "query_unknown")
	assert.ErrorIs(t, err, state.ErrNotFound)
}
