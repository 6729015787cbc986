package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SchemaStatements returns the DDL for the medications table with an
// embedding column of the given dimension. Every statement is idempotent.
func SchemaStatements(dimensions int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS medications (
	id                UUID PRIMARY KEY,
	generic_name      TEXT        NOT NULL,
	generic_name_key  TEXT        NOT NULL,
	commercial_names  TEXT[]      NOT NULL DEFAULT '{}',
	active_ingredient TEXT        NOT NULL DEFAULT '',
	therapeutic_group TEXT        NOT NULL DEFAULT '',
	content           TEXT        NOT NULL,
	metadata          JSONB       NOT NULL DEFAULT '{}',
	embedding         vector(%d),
	source            TEXT        NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`, dimensions),
		`CREATE UNIQUE INDEX IF NOT EXISTS medications_generic_name_key_idx
	ON medications (generic_name_key)`,
		`CREATE INDEX IF NOT EXISTS medications_embedding_idx
	ON medications USING hnsw (embedding vector_cosine_ops)`,
	}
}

// Migrate applies SchemaStatements one by one.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dimensions int, logger *zap.Logger) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid embedding dimensions: %d", dimensions)
	}

	for _, stmt := range SchemaStatements(dimensions) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	logger.Info("Database schema ready", zap.Int("dimensions", dimensions))
	return nil
}
