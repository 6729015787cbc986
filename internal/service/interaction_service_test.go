package service

import (
	"context"
	"errors"
	"testing"

	"vademecum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestInteractions(records map[string]*models.Medication) *InteractionService {
	return NewInteractionService(&fakeResolver{records: records}, testEngine(), zap.NewNop())
}

func TestCheckInteractions_OneSidedDeclarationReportedOnce(t *testing.T) {
	t.Parallel()
	svc := newTestInteractions(map[string]*models.Medication{
		"warfarina": {GenericName: "Warfarina", Metadata: models.Metadata{Interactions: []models.Interaction{
			{PartnerDrug: "Amiodarona", Effect: "aumenta el INR", Severity: "grave"},
		}}},
		"amiodarona": {GenericName: "Amiodarona"},
	})

	alerts, err := svc.CheckInteractions(context.Background(), []string{"Warfarina", "Amiodarona"})
	require.NoError(t, err)
	assert.Equal(t, []models.InteractionAlert{
		{DrugA: "Warfarina", DrugB: "Amiodarona", Effect: "aumenta el INR", Severity: "grave"},
	}, alerts)
}

func TestCheckInteractions_MutualDeclarationDeduplicated(t *testing.T) {
	t.Parallel()
	svc := newTestInteractions(map[string]*models.Medication{
		"ibuprofeno": {GenericName: "Ibuprofeno", Metadata: models.Metadata{Interactions: []models.Interaction{
			{PartnerDrug: "Aspirina", Effect: "riesgo de sangrado"},
		}}},
		"aspirina": {GenericName: "Aspirina", Metadata: models.Metadata{Interactions: []models.Interaction{
			{PartnerDrug: "ibuprofeno", Effect: "reduce el efecto antiagregante"},
		}}},
	})

	alerts, err := svc.CheckInteractions(context.Background(), []string{"Ibuprofeno", "Aspirina"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Ibuprofeno", alerts[0].DrugA)
	assert.Equal(t, "Aspirina", alerts[0].DrugB)
	assert.Equal(t, "moderada", alerts[0].Severity)
}

func TestCheckInteractions_SubstringBothDirections(t *testing.T) {
	t.Parallel()
	svc := newTestInteractions(map[string]*models.Medication{
		"litio": {GenericName: "Litio", Metadata: models.Metadata{Interactions: []models.Interaction{
			{PartnerDrug: "diuréticos tiazídicos", Effect: "toxicidad por litio"},
			{PartnerDrug: "AINE", Effect: "aumenta litemia"},
		}}},
	})

	alerts, err := svc.CheckInteractions(context.Background(), []string{"Litio", "Tiazídicos", "aine"})
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Tiazídicos", alerts[0].DrugB)
	assert.Equal(t, "aine", alerts[1].DrugB)
}

func TestCheckInteractions_UnresolvedSkipped(t *testing.T) {
	t.Parallel()
	svc := newTestInteractions(map[string]*models.Medication{
		"aspirina": {GenericName: "Aspirina"},
	})

	alerts, err := svc.CheckInteractions(context.Background(), []string{"Desconocido", "Aspirina"})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckInteractions_AliasMatching(t *testing.T) {
	t.Parallel()
	records := map[string]*models.Medication{
		"warfarina": {GenericName: "Warfarina", Metadata: models.Metadata{Interactions: []models.Interaction{
			{PartnerDrug: "Ácido acetilsalicílico", Effect: "riesgo hemorrágico"},
		}}},
		"bayaspirina": {GenericName: "Ácido acetilsalicílico", CommercialNames: []string{"Bayaspirina"}},
	}
	names := []string{"Warfarina", "Bayaspirina"}

	plain, err := newTestInteractions(records).CheckInteractions(context.Background(), names)
	require.NoError(t, err)
	assert.Empty(t, plain)

	engine := testEngine()
	engine.InteractionAliases = true
	aliased, err := NewInteractionService(&fakeResolver{records: records}, engine, zap.NewNop()).
		CheckInteractions(context.Background(), names)
	require.NoError(t, err)
	require.Len(t, aliased, 1)
	assert.Equal(t, "Bayaspirina", aliased[0].DrugB)
}

func TestCheckInteractions_InputGuards(t *testing.T) {
	t.Parallel()
	resolver := &fakeResolver{err: errors.New("must not be called")}
	svc := NewInteractionService(resolver, testEngine(), zap.NewNop())

	for _, names := range [][]string{nil, {"onlyone"}, {"Ibuprofeno", "  "}} {
		_, err := svc.CheckInteractions(context.Background(), names)
		assert.ErrorIs(t, err, ErrInvalidInput, "%v", names)
	}
}

func TestCheckInteractions_ResolverFailurePropagates(t *testing.T) {
	t.Parallel()
	cause := &RetrievalError{Op: "embed", Err: errors.New("timeout")}
	svc := NewInteractionService(&fakeResolver{err: cause}, testEngine(), zap.NewNop())

	_, err := svc.CheckInteractions(context.Background(), []string{"A1", "B2"})
	assert.ErrorIs(t, err, cause)
}
