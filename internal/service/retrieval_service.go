package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"vademecum/internal/embedding"
	"vademecum/internal/metrics"
	"vademecum/internal/models"
	"vademecum/internal/repository"
	"vademecum/pkg/config"

	"go.uber.org/zap"
)

// RetrievalService resolves medications by exact name first and by embedding
// similarity second.
type RetrievalService struct {
	store    repository.MedicationStore
	embedder embedding.Embedder
	engine   *config.EngineConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewRetrievalService(
	store repository.MedicationStore,
	embedder embedding.Embedder,
	engine *config.EngineConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *RetrievalService {
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		engine:   engine,
		metrics:  m,
		logger:   logger,
	}
}

// GetMedication returns (nil, false, nil) when nothing matches. An exact
// generic or commercial name match always wins over a semantic one.
func (s *RetrievalService) GetMedication(ctx context.Context, name string) (*models.Medication, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, invalidInput("medication name is blank")
	}

	med, err := s.store.FindExact(ctx, name)
	if err == nil {
		s.metrics.ObserveLookup(metrics.PathExact)
		return med, true, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, &RetrievalError{Op: "find exact", Err: err}
	}

	vec, err := s.embedder.Embed(ctx, name)
	if err != nil {
		return nil, false, &RetrievalError{Op: "embed", Err: err}
	}

	hits, err := s.store.FindNearest(ctx, vec, 1)
	if err != nil {
		return nil, false, &RetrievalError{Op: "find nearest", Err: err}
	}
	if len(hits) == 0 || (s.engine.SemanticLookupFloor > 0 && hits[0].Similarity <= s.engine.SemanticLookupFloor) {
		s.metrics.ObserveLookup(metrics.PathMiss)
		s.logger.Debug("Medication not found", zap.String("name", name))
		return nil, false, nil
	}

	s.metrics.ObserveLookup(metrics.PathSemantic)
	s.logger.Debug("Medication resolved semantically",
		zap.String("name", name),
		zap.String("generic_name", hits[0].Medication.GenericName),
		zap.Float64("similarity", hits[0].Similarity),
	)
	return hits[0].Medication, true, nil
}

// Search returns at most limit records whose similarity is above the floor.
// It never pads with weaker matches. Queries under the minimum length are
// rejected without calling the embedder.
func (s *RetrievalService) Search(ctx context.Context, query string, limit int) ([]models.ScoredMedication, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < s.engine.MinQueryLength {
		return nil, invalidInput("query must have at least %d characters", s.engine.MinQueryLength)
	}

	switch {
	case limit <= 0:
		limit = s.engine.DefaultSearchLimit
	case limit > s.engine.MaxSearchLimit:
		limit = s.engine.MaxSearchLimit
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Op: "embed", Err: err}
	}

	hits, err := s.store.FindNearest(ctx, vec, limit)
	if err != nil {
		return nil, &RetrievalError{Op: "find nearest", Err: err}
	}

	results := make([]models.ScoredMedication, 0, len(hits))
	for _, hit := range hits {
		if hit.Similarity <= s.engine.SimilarityFloor {
			continue
		}
		results = append(results, hit)
	}

	s.metrics.ObserveSearch(len(results))
	s.logger.Info("Medication search completed",
		zap.String("query", query),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// Count reports how many records the store holds.
func (s *RetrievalService) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, &RetrievalError{Op: "count", Err: err}
	}
	return n, nil
}
