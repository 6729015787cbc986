package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const providerOllama = "ollama"

// OllamaEmbedder calls a local Ollama /api/embed endpoint. No API key.
type OllamaEmbedder struct {
	host   string
	model  string
	client *http.Client
}

type OllamaConfig struct {
	Host    string // e.g. "http://localhost:11434"
	Model   string
	Timeout time.Duration
}

func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaEmbedder{
		host:   cfg.Host,
		model:  cfg.Model,
		client: &http.Client{Timeout: timeout},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: []string{text}})
	if err != nil {
		return nil, newError(providerOllama, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, newError(providerOllama, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, newError(providerOllama, "request failed", err)
	}
	defer resp.Body.Close()

	var result ollamaEmbedResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil {
			msg = result.Error
		}
		return nil, statusError(providerOllama, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, newError(providerOllama, "decode response", decodeErr)
	}
	if len(result.Embeddings) != 1 || len(result.Embeddings[0]) == 0 {
		return nil, newError(providerOllama, "response carries no embedding", nil)
	}
	return result.Embeddings[0], nil
}
