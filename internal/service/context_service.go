package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const interactionAlertsHeader = "## ALERTAS DE INTERACCIONES"

// ContextService renders grounding text for the note-generation workflow:
// one block per resolved medication, then the interaction alerts.
type ContextService struct {
	interactions *InteractionService
	logger       *zap.Logger
}

func NewContextService(interactions *InteractionService, logger *zap.Logger) *ContextService {
	return &ContextService{
		interactions: interactions,
		logger:       logger,
	}
}

// BuildContext resolves every name once. Unresolved names are left out and
// alerts are only computed for two or more names.
func (s *ContextService) BuildContext(ctx context.Context, names []string) (string, error) {
	names, err := validateNames(names, 1)
	if err != nil {
		return "", err
	}

	records, err := s.interactions.resolve(ctx, names)
	if err != nil {
		return "", err
	}

	var blocks []string
	for _, med := range records {
		if med == nil {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("## %s\n%s", med.GenericName, med.Content))
	}

	alerts := 0
	if len(names) >= 2 {
		found := s.interactions.cross(names, records)
		if len(found) > 0 {
			blocks = append(blocks, interactionAlertsHeader)
			for _, a := range found {
				blocks = append(blocks, fmt.Sprintf("⚠️ %s + %s: %s (severidad: %s)", a.DrugA, a.DrugB, a.Effect, a.Severity))
			}
		}
		alerts = len(found)
	}

	s.logger.Info("Context built",
		zap.Int("requested", len(names)),
		zap.Int("blocks", len(blocks)),
		zap.Int("alerts", alerts),
	)
	return strings.Join(blocks, "\n"), nil
}
