package embedding

import (
	"context"
	"fmt"

	"vademecum/pkg/config"

	"go.uber.org/zap"
)

const (
	defaultOpenAIModel   = "text-embedding-3-small"
	defaultOllamaModel   = "nomic-embed-text"
	defaultGeminiModel   = "text-embedding-004"
	defaultGigaChatModel = "Embeddings"

	defaultOpenAIURL = "https://api.openai.com/v1"
	defaultOllamaURL = "http://localhost:11434"
)

// New builds the embedder selected by cfg.Provider.
func New(ctx context.Context, cfg *config.EmbeddingConfig, giga *config.GigaChatConfig, logger *zap.Logger) (Embedder, error) {
	model := func(fallback string) string {
		if cfg.Model != "" {
			return cfg.Model
		}
		return fallback
	}

	logger.Info("Initializing embedder",
		zap.String("provider", cfg.Provider),
		zap.Int("dimensions", cfg.Dimensions))

	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding provider openai: EMBEDDING_API_KEY is required")
		}
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOpenAIURL
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint,
			APIKey:     cfg.APIKey,
			Model:      model(defaultOpenAIModel),
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		}), nil

	case "azure":
		if cfg.APIKey == "" || cfg.Endpoint == "" || cfg.Model == "" {
			return nil, fmt.Errorf("embedding provider azure: EMBEDDING_API_KEY, EMBEDDING_ENDPOINT and EMBEDDING_MODEL are required")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Azure:      true,
			APIVersion: cfg.APIVersion,
			Timeout:    cfg.Timeout,
		}), nil

	case "ollama":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOllamaURL
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:    endpoint,
			Model:   model(defaultOllamaModel),
			Timeout: cfg.Timeout,
		}), nil

	case "gigachat":
		if giga.APIKey == "" {
			return nil, fmt.Errorf("embedding provider gigachat: GIGACHAT_API_KEY is required")
		}
		baseURL := giga.BaseURL
		if cfg.Endpoint != "" {
			baseURL = cfg.Endpoint
		}
		return NewGigaChatEmbedder(&GigaChatConfig{
			APIKey:             giga.APIKey,
			Scope:              giga.Scope,
			OAuthURL:           giga.OAuthURL,
			BaseURL:            baseURL,
			Model:              model(defaultGigaChatModel),
			InsecureSkipVerify: giga.InsecureSkipVerify,
			Timeout:            cfg.Timeout,
		}, logger), nil

	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding provider gemini: EMBEDDING_API_KEY is required")
		}
		gemini, err := NewGeminiEmbedder(ctx, &GeminiConfig{
			APIKey:     cfg.APIKey,
			Model:      model(defaultGeminiModel),
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		return gemini, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want openai, azure, ollama, gigachat or gemini)", cfg.Provider)
	}
}
