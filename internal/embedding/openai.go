package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const providerOpenAI = "openai"

// OpenAIEmbedder calls the OpenAI or Azure OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	azure      bool
	apiVersion string
	client     *http.Client
}

type OpenAIConfig struct {
	// BaseURL is "https://api.openai.com/v1" or "https://<resource>.openai.azure.com/openai".
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Azure      bool
	APIVersion string
	Timeout    time.Duration
}

func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		azure:      cfg.Azure,
		apiVersion: cfg.APIVersion,
		client:     &http.Client{Timeout: timeout},
	}
}

type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body := openaiEmbedRequest{
		Input: []string{text},
		Model: e.model,
	}
	if e.dimensions > 0 {
		body.Dimensions = e.dimensions
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newError(providerOpenAI, "marshal request", err)
	}

	url := e.baseURL + "/embeddings"
	if e.azure {
		url = e.baseURL + "/deployments/" + e.model + "/embeddings?api-version=" + e.apiVersion
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(providerOpenAI, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.azure {
		req.Header.Set("api-key", e.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, newError(providerOpenAI, "request failed", err)
	}
	defer resp.Body.Close()

	var result openaiEmbedResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if decodeErr == nil && result.Error != nil {
			msg = result.Error.Message
		}
		return nil, statusError(providerOpenAI, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, newError(providerOpenAI, "decode response", decodeErr)
	}

	for _, d := range result.Data {
		if d.Index == 0 && len(d.Embedding) > 0 {
			return d.Embedding, nil
		}
	}
	return nil, newError(providerOpenAI, "response carries no embedding", nil)
}
