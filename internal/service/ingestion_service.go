package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vademecum/internal/embedding"
	"vademecum/internal/metrics"
	"vademecum/internal/models"
	"vademecum/internal/parser"
	"vademecum/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type documentExtractor interface {
	ExtractText(document []byte) string
}

// IngestionService runs the batch path: extract, segment, embed, upsert.
// Sections are handled one at a time and a failing section never stops the batch.
type IngestionService struct {
	extractor documentExtractor
	parser    *parser.Parser
	embedder  embedding.Embedder
	store     repository.MedicationStore
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewIngestionService(
	extractor documentExtractor,
	p *parser.Parser,
	embedder embedding.Embedder,
	store repository.MedicationStore,
	m *metrics.Metrics,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		extractor: extractor,
		parser:    p,
		embedder:  embedder,
		store:     store,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// IngestDocument extracts a PDF payload and ingests its text. A document
// without a text layer yields an empty tally, not an error.
func (s *IngestionService) IngestDocument(ctx context.Context, document []byte, source string) (models.IngestResult, error) {
	text := s.extractor.ExtractText(document)
	if strings.TrimSpace(text) == "" {
		s.metrics.ObserveDocument(metrics.OutcomeEmpty)
		s.logger.Warn("Document yielded no text", zap.String("source", source))
		return models.IngestResult{}, nil
	}
	s.metrics.ObserveDocument(metrics.OutcomeOK)
	return s.IngestText(ctx, text, source)
}

// IngestText parses already extracted text. The only error returned is the
// context's, together with the tally reached so far.
func (s *IngestionService) IngestText(ctx context.Context, text, source string) (models.IngestResult, error) {
	candidates := s.parser.Parse(sanitizeUTF8(text))

	var result models.IngestResult
	for _, med := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.ingestOne(ctx, med, source); err != nil {
			result.Errors++
			s.metrics.ObserveSection(metrics.OutcomeFailed)
			s.logger.Error("Failed to ingest medication",
				zap.String("generic_name", med.GenericName),
				zap.String("source", source),
				zap.Error(err),
			)
			continue
		}
		result.Processed++
		s.metrics.ObserveSection(metrics.OutcomeOK)
	}

	s.logger.Info("Ingestion completed",
		zap.String("source", source),
		zap.Int("candidates", len(candidates)),
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

func (s *IngestionService) ingestOne(ctx context.Context, med *models.Medication, source string) error {
	vec, err := s.embedder.Embed(ctx, med.Content)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	now := s.now()
	med.ID = uuid.New()
	med.Embedding = vec
	med.Source = source
	med.CreatedAt = now
	med.UpdatedAt = now

	if err := s.store.Upsert(ctx, med); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
