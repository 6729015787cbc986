package service

import (
	"context"
	"time"

	"vademecum/internal/embedding"
	"vademecum/internal/metrics"
	"vademecum/pkg/config"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// EmbeddingService fronts the provider client: it truncates input to the
// configured cap, throttles calls and records latency.
type EmbeddingService struct {
	embedder embedding.Embedder
	maxChars int
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewEmbeddingService(
	embedder embedding.Embedder,
	engine *config.EngineConfig,
	embCfg *config.EmbeddingConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EmbeddingService {
	var limiter *rate.Limiter
	if embCfg != nil && embCfg.RequestsPerSecond > 0 {
		burst := embCfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(embCfg.RequestsPerSecond), burst)
	}

	return &EmbeddingService{
		embedder: embedder,
		maxChars: engine.EmbeddingMaxChars,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
	}
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	truncated := truncateRunes(text, s.maxChars)
	if len(truncated) < len(text) {
		s.logger.Debug("Embedding input truncated",
			zap.Int("original_length", len(text)),
			zap.Int("max_chars", s.maxChars))
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	vec, err := s.embedder.Embed(ctx, truncated)
	if err != nil {
		s.metrics.ObserveEmbedding(metrics.OutcomeError, time.Since(start))
		return nil, err
	}
	s.metrics.ObserveEmbedding(metrics.OutcomeOK, time.Since(start))
	return vec, nil
}
