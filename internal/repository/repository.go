package repository

import (
	"context"
	"errors"

	"vademecum/internal/models"
)

var (
	ErrNotFound = errors.New("medication not found")
	// ErrMissingEmbedding is returned by vector-only backends for records
	// that have not been embedded yet.
	ErrMissingEmbedding = errors.New("medication has no embedding")
)

// MedicationStore persists medication records keyed by normalised generic name.
// Implementations must make Upsert atomic per record.
type MedicationStore interface {
	// Upsert inserts the record or overwrites the stored one with the same name
	// key. ID and CreatedAt of an existing record are kept and written back.
	Upsert(ctx context.Context, med *models.Medication) error
	// FindExact matches name case-insensitively against the generic name or
	// any commercial name. A generic match wins. Misses return ErrNotFound.
	FindExact(ctx context.Context, name string) (*models.Medication, error)
	// FindNearest returns up to k embedded records ordered by descending
	// cosine similarity.
	FindNearest(ctx context.Context, vector []float32, k int) ([]models.ScoredMedication, error)
	Count(ctx context.Context) (int, error)
}
