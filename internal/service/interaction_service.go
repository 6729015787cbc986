package service

import (
	"context"
	"strings"

	"vademecum/internal/models"
	"vademecum/pkg/config"

	"go.uber.org/zap"
)

type medicationResolver interface {
	GetMedication(ctx context.Context, name string) (*models.Medication, bool, error)
}

// InteractionService cross-matches the declared interaction partners of each
// resolved medication against the other names of the same request.
type InteractionService struct {
	resolver medicationResolver
	engine   *config.EngineConfig
	logger   *zap.Logger
}

func NewInteractionService(resolver medicationResolver, engine *config.EngineConfig, logger *zap.Logger) *InteractionService {
	return &InteractionService{
		resolver: resolver,
		engine:   engine,
		logger:   logger,
	}
}

// CheckInteractions needs at least two names. Each interacting pair is
// reported once, whichever side declared it.
func (s *InteractionService) CheckInteractions(ctx context.Context, names []string) ([]models.InteractionAlert, error) {
	names, err := validateNames(names, 2)
	if err != nil {
		return nil, err
	}

	records, err := s.resolve(ctx, names)
	if err != nil {
		return nil, err
	}

	alerts := s.cross(names, records)
	s.logger.Info("Interaction check completed",
		zap.Strings("medications", names),
		zap.Int("alerts", len(alerts)),
	)
	return alerts, nil
}

// resolve returns one entry per name; unresolved names leave a nil entry.
func (s *InteractionService) resolve(ctx context.Context, names []string) ([]*models.Medication, error) {
	records := make([]*models.Medication, len(names))
	for i, name := range names {
		med, found, err := s.resolver.GetMedication(ctx, name)
		if err != nil {
			return nil, err
		}
		if found {
			records[i] = med
		}
	}
	return records, nil
}

func (s *InteractionService) cross(names []string, records []*models.Medication) []models.InteractionAlert {
	seen := make(map[string]struct{})
	var alerts []models.InteractionAlert

	for i, med := range records {
		if med == nil {
			continue
		}
		for _, interaction := range med.Metadata.Interactions {
			partner := strings.ToLower(strings.TrimSpace(interaction.PartnerDrug))
			if partner == "" {
				continue
			}
			for j, other := range names {
				if i == j || !s.matches(partner, other, records[j]) {
					continue
				}

				key := pairKey(names[i], other)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}

				severity := interaction.Severity
				if severity == "" {
					severity = s.engine.DefaultSeverity
				}
				alerts = append(alerts, models.InteractionAlert{
					DrugA:    names[i],
					DrugB:    other,
					Effect:   interaction.Effect,
					Severity: severity,
				})
			}
		}
	}
	return alerts
}

// matches compares a lowercased partner against another requested name by
// substring in either direction. With alias matching enabled the generic and
// commercial names of the other record count too.
func (s *InteractionService) matches(partner, other string, otherRecord *models.Medication) bool {
	if containsEither(partner, strings.ToLower(other)) {
		return true
	}
	if !s.engine.InteractionAliases || otherRecord == nil {
		return false
	}

	aliases := append([]string{otherRecord.GenericName}, otherRecord.CommercialNames...)
	for _, alias := range aliases {
		if containsEither(partner, strings.ToLower(strings.TrimSpace(alias))) {
			return true
		}
	}
	return false
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func pairKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}
