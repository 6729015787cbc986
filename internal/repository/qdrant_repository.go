package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vademecum/internal/models"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
)

const (
	payloadRecord  = "record"
	payloadNameKey = "name_key"
	payloadNames   = "names"

	exactScrollLimit = 16
)

// pointNamespace derives stable point IDs from name keys so re-ingestion
// overwrites the same point.
var pointNamespace = uuid.MustParse("6f1c7a8e-3b52-4d0e-9a51-0c9d1f4b2e77")

type QdrantOptions struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	VectorSize uint64
}

// QdrantMedicationRepository keeps one point per medication. The record
// itself travels in the payload as JSON next to the lookup keys.
type QdrantMedicationRepository struct {
	client     *qdrant.Client
	collection string
	vectorSize uint64
	logger     *zap.Logger
}

func NewQdrantMedicationRepository(ctx context.Context, opts QdrantOptions, logger *zap.Logger) (*QdrantMedicationRepository, error) {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Port == 0 {
		opts.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		APIKey: opts.APIKey,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: create client: %w", err)
	}

	r := &QdrantMedicationRepository{
		client:     client,
		collection: opts.Collection,
		vectorSize: opts.VectorSize,
		logger:     logger,
	}
	if err := r.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("Qdrant collection ready",
		zap.String("collection", opts.Collection),
		zap.Uint64("vector_size", opts.VectorSize))
	return r, nil
}

func (r *QdrantMedicationRepository) ensureCollection(ctx context.Context) error {
	exists, err := r.client.CollectionExists(ctx, r.collection)
	if err != nil {
		return fmt.Errorf("qdrant: check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     r.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %q: %w", r.collection, err)
	}
	return nil
}

func (r *QdrantMedicationRepository) Upsert(ctx context.Context, med *models.Medication) error {
	if med.Embedding == nil {
		return ErrMissingEmbedding
	}

	key := med.NameKey()
	pointID := PointID(key)

	existing, err := r.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: r.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(pointID.String())},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant: get %q: %w", med.GenericName, err)
	}

	med.ID = pointID
	if len(existing) > 0 {
		if prev, err := decodeRecord(existing[0].GetPayload()); err == nil {
			med.CreatedAt = prev.CreatedAt
		}
	}
	if med.CreatedAt.IsZero() {
		med.CreatedAt = time.Now().UTC()
	}

	payload, err := recordPayload(med)
	if err != nil {
		return err
	}

	_, err = r.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: r.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(pointID.String()),
			Vectors: qdrant.NewVectors(med.Embedding...),
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert %q: %w", med.GenericName, err)
	}
	return nil
}

func (r *QdrantMedicationRepository) FindExact(ctx context.Context, name string) (*models.Medication, error) {
	key := models.NameKey(name)
	lowered := strings.ToLower(strings.TrimSpace(name))

	points, err := r.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: r.collection,
		Filter: &qdrant.Filter{
			Should: []*qdrant.Condition{
				qdrant.NewMatch(payloadNameKey, key),
				qdrant.NewMatch(payloadNames, lowered),
			},
		},
		Limit:       qdrant.PtrOf(uint32(exactScrollLimit)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: find %q: %w", name, err)
	}

	var fallback *models.Medication
	for _, p := range points {
		med, err := decodeRecord(p.GetPayload())
		if err != nil {
			r.logger.Warn("Skipping undecodable point", zap.Error(err))
			continue
		}
		if med.NameKey() == key {
			return med, nil
		}
		if fallback == nil || med.NameKey() < fallback.NameKey() {
			fallback = med
		}
	}
	if fallback == nil {
		return nil, ErrNotFound
	}
	return fallback, nil
}

func (r *QdrantMedicationRepository) FindNearest(ctx context.Context, vector []float32, k int) ([]models.ScoredMedication, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, nil
	}

	limit := uint64(k)
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query: %w", err)
	}

	results := make([]models.ScoredMedication, 0, len(points))
	for _, p := range points {
		med, err := decodeRecord(p.GetPayload())
		if err != nil {
			r.logger.Warn("Skipping undecodable point", zap.Error(err))
			continue
		}
		results = append(results, models.ScoredMedication{
			Medication: med,
			Similarity: float64(p.GetScore()),
		})
	}
	return results, nil
}

func (r *QdrantMedicationRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: r.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count: %w", err)
	}
	return int(n), nil
}

func (r *QdrantMedicationRepository) Close() error {
	return r.client.Close()
}

// PointID is the deterministic point ID for a name key.
func PointID(nameKey string) uuid.UUID {
	return uuid.NewSHA1(pointNamespace, []byte(nameKey))
}

func recordPayload(med *models.Medication) (map[string]*qdrant.Value, error) {
	record, err := json.Marshal(med)
	if err != nil {
		return nil, fmt.Errorf("marshal %q: %w", med.GenericName, err)
	}

	names := make([]any, 0, len(med.CommercialNames))
	for _, n := range med.CommercialNames {
		names = append(names, strings.ToLower(strings.TrimSpace(n)))
	}

	return qdrant.NewValueMap(map[string]any{
		payloadRecord:  string(record),
		payloadNameKey: med.NameKey(),
		payloadNames:   names,
	}), nil
}

func decodeRecord(payload map[string]*qdrant.Value) (*models.Medication, error) {
	raw, ok := payload[payloadRecord]
	if !ok {
		return nil, fmt.Errorf("payload has no %q field", payloadRecord)
	}
	var med models.Medication
	if err := json.Unmarshal([]byte(raw.GetStringValue()), &med); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &med, nil
}
