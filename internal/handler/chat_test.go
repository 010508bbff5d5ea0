package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eluia/eluia-api/internal/index"
	"github.com/eluia/eluia-api/internal/llm"
	"github.com/eluia/eluia-api/internal/middleware"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/internal/service"
	"github.com/eluia/eluia-api/pkg/logger"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (stubEmbedder) Model() string { return "stub-embedding" }

type stubGenerator struct{}

func (stubGenerator) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{
		Content:   "Voici la réponse.",
		Model:     "claude-3-haiku-20240307",
		TokensIn:  100,
		TokensOut: 50,
	}, nil
}

func (stubGenerator) Name() string { return "stub" }

func newChatRouter(t *testing.T, quota int) (*chi.Mux, *model.Tenant) {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	tenants := service.NewTenantService(log)
	idx := index.New()

	tenant, err := tenants.Register(ctx, &model.RegisterRequest{
		Email: "marie@example.com", Password: "motdepasse", Name: "Marie Dupont",
	})
	require.NoError(t, err)

	doc, err := tenants.BeginProcessing(ctx, tenant.ID, model.CategoryProgram, "programme.pdf", 1024)
	require.NoError(t, err)
	chunks := []model.Chunk{{
		ID: "c1", DocumentID: doc.ID, TenantID: tenant.ID,
		Category: model.CategoryProgram, Page: 1,
		Text: "Nous construirons 500 logements sociaux.",
	}}
	require.NoError(t, idx.Swap(tenant.ID, model.CategoryProgram, chunks, [][]float32{{1, 0}}))
	require.NoError(t, tenants.MarkReady(ctx, tenant.ID, doc, 1, 1))

	chatSvc := service.NewChatService(
		tenants, service.NewQuotaTracker(quota), service.NewCostMonitor(10),
		service.NewAnswerCache(time.Hour), idx,
		stubEmbedder{}, stubGenerator{}, nil,
		service.NewAggregator(), nil,
		service.ChatConfig{}, log,
	)
	h := NewChatHandler(chatSvc, log)

	r := chi.NewRouter()
	r.Route("/api/chat/{slug}", func(r chi.Router) {
		r.Use(middleware.Session())
		r.Get("/info", h.Info)
		r.Post("/message", h.Message)
	})
	return r, tenant
}

func postMessage(t *testing.T, r http.Handler, slug, question, ip string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(model.ChatRequest{Question: question})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/chat/"+slug+"/message", bytes.NewReader(body))
	req.RemoteAddr = ip + ":40000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatInfoEndpoint(t *testing.T) {
	r, tenant := newChatRouter(t, 20)

	req := httptest.NewRequest("GET", "/api/chat/"+tenant.Slug+"/info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var info model.ChatInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "Marie Dupont", info.Name)
}

func TestChatInfoUnknownSlug(t *testing.T) {
	r, _ := newChatRouter(t, 20)

	req := httptest.NewRequest("GET", "/api/chat/inconnue/info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatMessageEndpoint(t *testing.T) {
	r, tenant := newChatRouter(t, 20)

	w := postMessage(t, r, tenant.Slug, "Quelle est votre politique de logement ?", "203.0.113.7")
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Voici la réponse.", resp.Answer)
	assert.False(t, resp.Cached)
	assert.Equal(t, 19, resp.RemainingMessages)
}

func TestChatMessageQuota(t *testing.T) {
	r, tenant := newChatRouter(t, 2)

	for i := 0; i < 2; i++ {
		w := postMessage(t, r, tenant.Slug, "question", "203.0.113.7")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postMessage(t, r, tenant.Slug, "question", "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Another IP is a fresh session.
	w = postMessage(t, r, tenant.Slug, "question", "203.0.113.8")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatMessageValidation(t *testing.T) {
	r, tenant := newChatRouter(t, 20)

	w := postMessage(t, r, tenant.Slug, "", "203.0.113.7")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/api/chat/"+tenant.Slug+"/message", bytes.NewReader([]byte("pas du json")))
	req.RemoteAddr = "203.0.113.7:40000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
