package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vademecum/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

const medicationsTable = "medications"

var medicationColumns = []string{
	"id", "generic_name", "commercial_names", "active_ingredient", "therapeutic_group",
	"content", "metadata", "source", "created_at", "updated_at",
}

const upsertConflict = `ON CONFLICT (generic_name_key) DO UPDATE SET
	generic_name = EXCLUDED.generic_name,
	commercial_names = EXCLUDED.commercial_names,
	active_ingredient = EXCLUDED.active_ingredient,
	therapeutic_group = EXCLUDED.therapeutic_group,
	content = EXCLUDED.content,
	metadata = EXCLUDED.metadata,
	embedding = EXCLUDED.embedding,
	source = EXCLUDED.source,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at`

// MedicationRepository stores medications in Postgres with a pgvector column.
type MedicationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMedicationRepository(db *pgxpool.Pool, logger *zap.Logger) *MedicationRepository {
	return &MedicationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *MedicationRepository) Upsert(ctx context.Context, med *models.Medication) error {
	query, err := upsertQuery(med)
	if err != nil {
		return err
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&med.ID, &med.CreatedAt); err != nil {
		return fmt.Errorf("upsert medication %q: %w", med.GenericName, err)
	}
	return nil
}

func (r *MedicationRepository) FindExact(ctx context.Context, name string) (*models.Medication, error) {
	sql, args, err := findExactQuery(name).ToSql()
	if err != nil {
		return nil, err
	}

	med, err := scanMedication(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find medication %q: %w", name, err)
	}
	return med, nil
}

func (r *MedicationRepository) FindNearest(ctx context.Context, vector []float32, k int) ([]models.ScoredMedication, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}

	sql, args, err := findNearestQuery(vector, k).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("nearest medications: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredMedication
	for rows.Next() {
		var similarity float64
		med, err := scanMedication(rows, &similarity)
		if err != nil {
			return nil, err
		}
		results = append(results, models.ScoredMedication{Medication: med, Similarity: similarity})
	}
	return results, rows.Err()
}

func (r *MedicationRepository) Count(ctx context.Context) (int, error) {
	sql, args, err := squirrel.Select("count(*)").From(medicationsTable).ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count medications: %w", err)
	}
	return count, nil
}

func upsertQuery(med *models.Medication) (squirrel.InsertBuilder, error) {
	metadata, err := json.Marshal(med.Metadata)
	if err != nil {
		return squirrel.InsertBuilder{}, fmt.Errorf("marshal metadata: %w", err)
	}

	var embedding any
	if med.Embedding != nil {
		embedding = pgvector.NewVector(med.Embedding)
	}
	commercialNames := med.CommercialNames
	if commercialNames == nil {
		commercialNames = []string{}
	}

	return squirrel.Insert(medicationsTable).
		Columns("id", "generic_name", "generic_name_key", "commercial_names", "active_ingredient",
			"therapeutic_group", "content", "metadata", "embedding", "source", "created_at", "updated_at").
		Values(med.ID, med.GenericName, med.NameKey(), commercialNames, med.ActiveIngredient,
			med.TherapeuticGroup, med.Content, string(metadata), embedding, med.Source, med.CreatedAt, med.UpdatedAt).
		Suffix(upsertConflict).
		PlaceholderFormat(squirrel.Dollar), nil
}

func findExactQuery(name string) squirrel.SelectBuilder {
	key := models.NameKey(name)
	lowered := strings.ToLower(strings.TrimSpace(name))

	return squirrel.Select(medicationColumns...).
		From(medicationsTable).
		Where(squirrel.Or{
			squirrel.Eq{"generic_name_key": key},
			squirrel.Expr("EXISTS (SELECT 1 FROM unnest(commercial_names) AS cn WHERE lower(btrim(cn)) = ?)", lowered),
		}).
		OrderByClause("(generic_name_key = ?) DESC", key).
		OrderBy("generic_name_key").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)
}

func findNearestQuery(vector []float32, k int) squirrel.SelectBuilder {
	v := pgvector.NewVector(vector)

	return squirrel.Select(medicationColumns...).
		Column(squirrel.Expr("1 - (embedding <=> ?) AS similarity", v)).
		From(medicationsTable).
		Where("embedding IS NOT NULL").
		OrderByClause("embedding <=> ?", v).
		Limit(uint64(k)).
		PlaceholderFormat(squirrel.Dollar)
}

func scanMedication(row pgx.Row, extra ...any) (*models.Medication, error) {
	var (
		med      models.Medication
		metadata []byte
	)
	dest := []any{
		&med.ID, &med.GenericName, &med.CommercialNames, &med.ActiveIngredient, &med.TherapeuticGroup,
		&med.Content, &metadata, &med.Source, &med.CreatedAt, &med.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &med.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %q: %w", med.GenericName, err)
		}
	}
	return &med, nil
}
