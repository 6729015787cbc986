package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"vademecum/internal/api/handlers"
	"vademecum/internal/dto"
	"vademecum/internal/metrics"
	"vademecum/internal/parser"
	"vademecum/internal/repository"
	"vademecum/internal/service"
	"vademecum/pkg/auth"
	"vademecum/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testDocument = `IBUPROFENO
Indicaciones: dolor leve a moderado y fiebre
Interacciones: Aspirina: riesgo de sangrado

ASPIRINA
Indicaciones: dolor, fiebre y prevención cardiovascular
`

type hashEmbedder struct {
	err error
}

func (e hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum%97) + 1, float32(sum%89) + 1, 1}, nil
}

type staticExtractor string

func (s staticExtractor) ExtractText([]byte) string { return string(s) }

type testEnv struct {
	app   *fiber.App
	jwt   *auth.JWTManager
	store *repository.MemoryMedicationRepository
}

func newTestEnv(t *testing.T, embedder hashEmbedder, withAuth bool) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	engine := config.DefaultEngine()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store := repository.NewMemoryMedicationRepository(logger)
	p := parser.New(parser.Options{}, logger)
	ingestion := service.NewIngestionService(staticExtractor(testDocument), p, embedder, store, m, logger)
	retrieval := service.NewRetrievalService(store, embedder, &engine, m, logger)
	interactions := service.NewInteractionService(retrieval, &engine, logger)
	contexts := service.NewContextService(interactions, logger)
	h := handlers.NewVademecumHandler(ingestion, retrieval, interactions, contexts, logger)

	var jwtManager *auth.JWTManager
	if withAuth {
		jwtManager = auth.NewJWTManager("secret", "vademecum", time.Hour)
	}
	app := SetupRouter(h, jwtManager, reg, &config.ServerConfig{CORSOrigins: "*"}, logger)
	return &testEnv{app: app, jwt: jwtManager, store: store}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	if e.jwt != nil {
		token, err := e.jwt.GenerateToken("test")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (e *testEnv) ingest(t *testing.T) dto.IngestResponse {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "vademecum.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vademecum/ingest", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, body := e.do(t, req)
	require.Equal(t, http.StatusOK, status, string(body))

	var out dto.IngestResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func postJSON(path string, v any) *http.Request {
	payload, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRouter_IngestThenQuery(t *testing.T) {
	env := newTestEnv(t, hashEmbedder{}, true)

	ingested := env.ingest(t)
	assert.Equal(t, dto.IngestResponse{Source: "vademecum.pdf", Processed: 2}, ingested)

	status, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/vademecum/medications/"+url.PathEscape("ibuprofeno"), nil))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"genericName":"Ibuprofeno"`)

	status, body = env.do(t, postJSON("/api/v1/vademecum/interactions", dto.MedicationNamesRequest{Medications: []string{"Ibuprofeno", "Aspirina"}}))
	require.Equal(t, http.StatusOK, status)
	var alerts dto.InteractionsResponse
	require.NoError(t, json.Unmarshal(body, &alerts))
	require.Len(t, alerts.Alerts, 1)
	assert.Equal(t, "moderada", alerts.Alerts[0].Severity)

	status, body = env.do(t, postJSON("/api/v1/vademecum/context", dto.MedicationNamesRequest{Medications: []string{"Ibuprofeno", "Aspirina"}}))
	require.Equal(t, http.StatusOK, status)
	var ctxResp dto.ContextResponse
	require.NoError(t, json.Unmarshal(body, &ctxResp))
	assert.True(t, strings.HasPrefix(ctxResp.Context, "## Ibuprofeno\n"))
	assert.Contains(t, ctxResp.Context, "## ALERTAS DE INTERACCIONES")

	status, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/vademecum/stats", nil))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"medications":2}`, string(body))
}

func TestRouter_ClientErrors(t *testing.T) {
	env := newTestEnv(t, hashEmbedder{}, false)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"short query", httptest.NewRequest(http.MethodGet, "/api/v1/vademecum/search?q=a", nil), http.StatusBadRequest},
		{"single interaction name", postJSON("/api/v1/vademecum/interactions", dto.MedicationNamesRequest{Medications: []string{"solo"}}), http.StatusBadRequest},
		{"empty context", postJSON("/api/v1/vademecum/context", dto.MedicationNamesRequest{}), http.StatusBadRequest},
		{"missing file", httptest.NewRequest(http.MethodPost, "/api/v1/vademecum/ingest", nil), http.StatusBadRequest},
		{"unknown medication", httptest.NewRequest(http.MethodGet, "/api/v1/vademecum/medications/nada", nil), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.req)
			assert.Equal(t, tt.status, status, string(body))
		})
	}
}

func TestRouter_EmbeddingOutageIsBadGateway(t *testing.T) {
	env := newTestEnv(t, hashEmbedder{err: errors.New("provider down")}, false)

	status, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/vademecum/search?q=dolor", nil))
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestRouter_AuthAndOperationalRoutes(t *testing.T) {
	env := newTestEnv(t, hashEmbedder{}, true)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/vademecum/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.ingest(t)
	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vademecum_ingest_sections_total")
}
