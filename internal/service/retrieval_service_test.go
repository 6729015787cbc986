package service

import (
	"context"
	"errors"
	"testing"

	"vademecum/internal/embedding"
	"vademecum/internal/models"
	"vademecum/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seededStore(t *testing.T) *repository.MemoryMedicationRepository {
	t.Helper()
	store := repository.NewMemoryMedicationRepository(zap.NewNop())
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, &models.Medication{
		GenericName:     "Paracetamol",
		CommercialNames: []string{"Tempra"},
		Content:         "Medicamento: Paracetamol",
		Embedding:       []float32{1, 0},
	}))
	require.NoError(t, store.Upsert(ctx, &models.Medication{
		GenericName: "Acetaminofen",
		Content:     "Medicamento: Acetaminofen",
		Embedding:   []float32{0, 1},
	}))
	return store
}

func TestGetMedication_ExactMatchWins(t *testing.T) {
	t.Parallel()
	// Every query embeds next to Acetaminofen.
	emb := &fakeEmbedder{embedFn: func(string) ([]float32, error) { return []float32{0, 1}, nil }}
	svc := NewRetrievalService(seededStore(t), emb, testEngine(), nil, zap.NewNop())

	for _, name := range []string{"paracetamol", " PARACETAMOL ", "tempra"} {
		med, found, err := svc.GetMedication(context.Background(), name)
		require.NoError(t, err)
		require.True(t, found, name)
		assert.Equal(t, "Paracetamol", med.GenericName, name)
	}
	assert.Zero(t, emb.calls.Load())
}

func TestGetMedication_SemanticFallback(t *testing.T) {
	t.Parallel()
	emb := &fakeEmbedder{embedFn: func(string) ([]float32, error) { return []float32{0.1, 1}, nil }}
	svc := NewRetrievalService(seededStore(t), emb, testEngine(), nil, zap.NewNop())

	med, found, err := svc.GetMedication(context.Background(), "acetaminofén 500")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Acetaminofen", med.GenericName)
	assert.Equal(t, int32(1), emb.calls.Load())
}

func TestGetMedication_NotFound(t *testing.T) {
	t.Parallel()
	svc := NewRetrievalService(repository.NewMemoryMedicationRepository(zap.NewNop()), &fakeEmbedder{}, testEngine(), nil, zap.NewNop())

	med, found, err := svc.GetMedication(context.Background(), "Desconocido")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, med)
}

func TestGetMedication_SemanticLookupFloor(t *testing.T) {
	t.Parallel()
	engine := testEngine()
	engine.SemanticLookupFloor = 0.8
	emb := &fakeEmbedder{embedFn: func(string) ([]float32, error) { return []float32{1, 1}, nil }}
	svc := NewRetrievalService(seededStore(t), emb, engine, nil, zap.NewNop())

	_, found, err := svc.GetMedication(context.Background(), "algo parecido")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetMedication_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, _, err := NewRetrievalService(seededStore(t), &fakeEmbedder{}, testEngine(), nil, zap.NewNop()).GetMedication(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	providerErr := &embedding.Error{Provider: "openai", StatusCode: 503, Message: "overloaded"}
	emb := &fakeEmbedder{embedFn: func(string) ([]float32, error) { return nil, providerErr }}
	_, _, err = NewRetrievalService(seededStore(t), emb, testEngine(), nil, zap.NewNop()).GetMedication(ctx, "Ibuprofeno")

	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "embed", retrievalErr.Op)
	var embErr *embedding.Error
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, 503, embErr.StatusCode)

	storeErr := errors.New("connection refused")
	broken := &stubStore{findExactFn: func(string) (*models.Medication, error) { return nil, storeErr }}
	_, _, err = NewRetrievalService(broken, &fakeEmbedder{}, testEngine(), nil, zap.NewNop()).GetMedication(ctx, "Ibuprofeno")
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestSearch_SimilarityFloor(t *testing.T) {
	t.Parallel()

	var gotK int
	store := &stubStore{findNearestFn: func(_ []float32, k int) ([]models.ScoredMedication, error) {
		gotK = k
		return []models.ScoredMedication{
			{Medication: &models.Medication{GenericName: "Paracetamol"}, Similarity: 0.91},
			{Medication: &models.Medication{GenericName: "Metamizol"}, Similarity: 0.5},
			{Medication: &models.Medication{GenericName: "Ibuprofeno"}, Similarity: 0.31},
		}, nil
	}}
	svc := NewRetrievalService(store, &fakeEmbedder{}, testEngine(), nil, zap.NewNop())

	results, err := svc.Search(context.Background(), "acetaminofen", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, gotK)
	require.Len(t, results, 1)
	assert.Equal(t, "Paracetamol", results[0].Medication.GenericName)
	for _, r := range results {
		assert.Greater(t, r.Similarity, 0.5)
	}
}

func TestSearch_Limits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: 5},
		{limit: -3, want: 5},
		{limit: 7, want: 7},
		{limit: 500, want: 50},
	}
	for _, tt := range tests {
		var gotK int
		store := &stubStore{findNearestFn: func(_ []float32, k int) ([]models.ScoredMedication, error) {
			gotK = k
			return nil, nil
		}}
		svc := NewRetrievalService(store, &fakeEmbedder{}, testEngine(), nil, zap.NewNop())
		results, err := svc.Search(context.Background(), "dolor", tt.limit)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, tt.want, gotK, "limit %d", tt.limit)
	}
}

func TestSearch_RejectsShortQueryWithoutEmbedding(t *testing.T) {
	t.Parallel()
	emb := &fakeEmbedder{}
	svc := NewRetrievalService(seededStore(t), emb, testEngine(), nil, zap.NewNop())

	for _, q := range []string{"a", " a ", "", "é"} {
		_, err := svc.Search(context.Background(), q, 5)
		assert.ErrorIs(t, err, ErrInvalidInput, q)
	}
	assert.Zero(t, emb.calls.Load())

	_, err := svc.Search(context.Background(), "ab", 5)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), emb.calls.Load())
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	t.Parallel()
	emb := &fakeEmbedder{embedFn: func(string) ([]float32, error) { return nil, errors.New("timeout") }}
	svc := NewRetrievalService(seededStore(t), emb, testEngine(), nil, zap.NewNop())

	_, err := svc.Search(context.Background(), "fiebre", 5)
	var retrievalErr *RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "embed", retrievalErr.Op)
}
