package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"vademecum/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryMedicationRepository keeps records in process for the lifetime of a
// `serve` run and backs the service and API tests.
type MemoryMedicationRepository struct {
	mu      sync.RWMutex
	records map[string]*models.Medication
	logger  *zap.Logger
}

func NewMemoryMedicationRepository(logger *zap.Logger) *MemoryMedicationRepository {
	return &MemoryMedicationRepository{
		records: make(map[string]*models.Medication),
		logger:  logger,
	}
}

func (r *MemoryMedicationRepository) Upsert(_ context.Context, med *models.Medication) error {
	key := med.NameKey()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[key]; ok {
		med.ID = existing.ID
		med.CreatedAt = existing.CreatedAt
	} else {
		if med.ID == uuid.Nil {
			med.ID = uuid.New()
		}
		if med.CreatedAt.IsZero() {
			med.CreatedAt = time.Now().UTC()
		}
	}
	r.records[key] = med.Clone()
	return nil
}

func (r *MemoryMedicationRepository) FindExact(_ context.Context, name string) (*models.Medication, error) {
	key := models.NameKey(name)
	lowered := strings.ToLower(strings.TrimSpace(name))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if med, ok := r.records[key]; ok {
		return med.Clone(), nil
	}
	for _, k := range r.sortedKeys() {
		for _, commercial := range r.records[k].CommercialNames {
			if strings.ToLower(strings.TrimSpace(commercial)) == lowered {
				return r.records[k].Clone(), nil
			}
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryMedicationRepository) FindNearest(_ context.Context, vector []float32, k int) ([]models.ScoredMedication, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]models.ScoredMedication, 0, len(r.records))
	for _, key := range r.sortedKeys() {
		med := r.records[key]
		if med.Embedding == nil {
			continue
		}
		results = append(results, models.ScoredMedication{
			Medication: med.Clone(),
			Similarity: cosineSimilarity(vector, med.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (r *MemoryMedicationRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// sortedKeys must be called with the lock held.
func (r *MemoryMedicationRepository) sortedKeys() []string {
	keys := make([]string, 0, len(r.records))
	for k := range r.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
