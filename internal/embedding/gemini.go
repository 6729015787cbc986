package embedding

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

const providerGemini = "gemini"

type GeminiConfig struct {
	APIKey     string
	Model      string
	Dimensions int
}

// GeminiEmbedder calls the Gemini embedContent API through the genai SDK.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

func NewGeminiEmbedder(ctx context.Context, cfg *GeminiConfig) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, newError(providerGemini, "create client", err)
	}
	return &GeminiEmbedder{
		client:     client,
		model:      cfg.Model,
		dimensions: int32(cfg.Dimensions),
	}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedCfg *genai.EmbedContentConfig
	if e.dimensions > 0 {
		embedCfg = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(e.dimensions)}
	}

	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), embedCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &Error{Provider: providerGemini, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		return nil, newError(providerGemini, "embed content", err)
	}
	if len(res.Embeddings) == 0 || len(res.Embeddings[0].Values) == 0 {
		return nil, newError(providerGemini, "response carries no embedding", nil)
	}
	return res.Embeddings[0].Values, nil
}
