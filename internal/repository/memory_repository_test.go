package repository

import (
	"context"
	"testing"
	"time"

	"vademecum/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMemoryRepo(t *testing.T) *MemoryMedicationRepository {
	t.Helper()
	return NewMemoryMedicationRepository(zap.NewNop())
}

func TestMemoryRepository_UpsertKeepsIdentity(t *testing.T) {
	t.Parallel()
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	first := &models.Medication{GenericName: "Ibuprofeno", Content: "v1", Source: "lote-1", Embedding: []float32{1, 0}}
	require.NoError(t, repo.Upsert(ctx, first))
	require.NotEqual(t, uuid.Nil, first.ID)

	second := &models.Medication{
		GenericName: "  IBUPROFENO. ",
		Content:     "v2",
		Source:      "lote-2",
		Embedding:   []float32{0, 1},
		UpdatedAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.FindExact(ctx, "ibuprofeno")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
	assert.Equal(t, "lote-2", got.Source)
	assert.Equal(t, []float32{0, 1}, got.Embedding)
}

func TestMemoryRepository_FindExact(t *testing.T) {
	t.Parallel()
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Medication{GenericName: "Paracetamol", CommercialNames: []string{"Tylenol", "Advil"}}))
	require.NoError(t, repo.Upsert(ctx, &models.Medication{GenericName: "Advil"}))
	require.NoError(t, repo.Upsert(ctx, &models.Medication{GenericName: "Ibuprofeno", CommercialNames: []string{"Motrin"}}))

	tests := []struct {
		query string
		want  string
	}{
		{query: "PARACETAMOL", want: "Paracetamol"},
		{query: "tylenol", want: "Paracetamol"},
		{query: " Motrin ", want: "Ibuprofeno"},
		{query: "advil", want: "Advil"},
	}
	for _, tt := range tests {
		got, err := repo.FindExact(ctx, tt.query)
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.want, got.GenericName, tt.query)
	}

	_, err := repo.FindExact(ctx, "Aspirina")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_FindNearest(t *testing.T) {
	t.Parallel()
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Medication{GenericName: "Alfa", Embedding: []float32{1, 0}}))
	require.NoError(t, repo.Upsert(ctx, &models.Medication{GenericName: "Beta", Embedding: []float32{1, 1}}))
	require.NoError(t, repo.Upsert(ctx, &models.Medication{GenericName: "Gamma", Embedding: []float32{0, 1}}))
	require.NoError(t, repo.Upsert(ctx, &models.Medication{GenericName: "Sin vector"}))

	results, err := repo.FindNearest(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Alfa", results[0].Medication.GenericName)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.Equal(t, "Beta", results[1].Medication.GenericName)
	assert.Equal(t, "Gamma", results[2].Medication.GenericName)
	assert.InDelta(t, 0.0, results[2].Similarity, 1e-9)

	top, err := repo.FindNearest(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Alfa", top[0].Medication.GenericName)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	t.Parallel()
	repo := newTestMemoryRepo(t)
	ctx := context.Background()

	med := &models.Medication{GenericName: "Ibuprofeno", CommercialNames: []string{"Advil"}}
	require.NoError(t, repo.Upsert(ctx, med))
	med.CommercialNames[0] = "mutated"

	got, err := repo.FindExact(ctx, "Ibuprofeno")
	require.NoError(t, err)
	got.CommercialNames[0] = "mutated again"

	again, err := repo.FindExact(ctx, "advil")
	require.NoError(t, err)
	assert.Equal(t, []string{"Advil"}, again.CommercialNames)
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, cosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
