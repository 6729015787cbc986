package service

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"vademecum/internal/models"
	"vademecum/internal/repository"
	"vademecum/pkg/config"
)

// vectorFor derives a stable non-zero vector from text.
func vectorFor(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{float32(sum%97) + 1, float32(sum%89) + 1, float32(len(text)%13) + 1}
}

type fakeEmbedder struct {
	calls   atomic.Int32
	mu      sync.Mutex
	texts   []string
	embedFn func(text string) ([]float32, error)
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	return vectorFor(text), nil
}

type fakeExtractor struct {
	text string
}

func (f fakeExtractor) ExtractText([]byte) string {
	return f.text
}

// stubStore serves fixed answers for code paths the memory store cannot shape.
type stubStore struct {
	findExactFn   func(name string) (*models.Medication, error)
	findNearestFn func(vector []float32, k int) ([]models.ScoredMedication, error)
	upsertFn      func(med *models.Medication) error
}

var _ repository.MedicationStore = (*stubStore)(nil)

func (s *stubStore) Upsert(_ context.Context, med *models.Medication) error {
	if s.upsertFn != nil {
		return s.upsertFn(med)
	}
	return nil
}

func (s *stubStore) FindExact(_ context.Context, name string) (*models.Medication, error) {
	if s.findExactFn != nil {
		return s.findExactFn(name)
	}
	return nil, repository.ErrNotFound
}

func (s *stubStore) FindNearest(_ context.Context, vector []float32, k int) ([]models.ScoredMedication, error) {
	if s.findNearestFn != nil {
		return s.findNearestFn(vector, k)
	}
	return nil, nil
}

func (s *stubStore) Count(context.Context) (int, error) {
	return 0, nil
}

type fakeResolver struct {
	records map[string]*models.Medication
	err     error
}

func (f *fakeResolver) GetMedication(_ context.Context, name string) (*models.Medication, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	med, ok := f.records[strings.ToLower(name)]
	return med, ok, nil
}

func testEngine() *config.EngineConfig {
	e := config.DefaultEngine()
	return &e
}
