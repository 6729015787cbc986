package parser

import (
	"strings"
	"testing"

	"vademecum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ibuprofenSection = `IBUPROFENO
Nombres comerciales: Advil, Motrin
Principio activo: ibuprofeno
Grupo terapéutico: Antiinflamatorio no esteroideo
Indicaciones:
- Dolor leve a moderado
- Fiebre
Posología adultos: 400 mg cada 8 horas
Dosis niños: 10 mg/kg cada 8 horas
Contraindicaciones:
• Úlcera péptica activa
• Insuficiencia renal grave
Interacciones:
Aspirina: riesgo de sangrado
Warfarina – aumenta el riesgo hemorrágico (grave)
Litio - aumenta niveles plasmáticos
Reacciones adversas: dispepsia; náuseas
Embarazo y lactancia: evitar en el tercer trimestre`

const aspirinSection = `ASPIRINA
Indicaciones: dolor, fiebre y prevención cardiovascular
Contraindicaciones: alergia a salicilatos`

func newTestParser() *Parser {
	return New(Options{}, zap.NewNop())
}

func TestSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		count int
		first string
	}{
		{
			name:  "splits at headers after blank lines",
			text:  "Guía de referencia farmacológica, edición de prueba.\n\n" + ibuprofenSection + "\n\n" + aspirinSection + "\n",
			count: 2,
			first: "IBUPROFENO",
		},
		{
			name:  "drops sections under the minimum length",
			text:  ibuprofenSection + "\n\nXYZ ABC\nbreve\n",
			count: 1,
			first: "IBUPROFENO",
		},
		{
			name:  "header without preceding blank line does not split",
			text:  "PARACETAMOL\nIndicaciones: fiebre y dolor leve en adultos\nNOTA IMPORTANTE\nNo superar cuatro gramos diarios.",
			count: 1,
			first: "PARACETAMOL",
		},
		{
			name:  "uppercase label is not a header",
			text:  "PARACETAMOL\nIndicaciones: fiebre y dolor leve\n\nCONTRAINDICACIONES\nInsuficiencia hepática grave y alcoholismo",
			count: 1,
			first: "PARACETAMOL",
		},
		{
			name:  "crlf line endings",
			text:  strings.ReplaceAll(ibuprofenSection+"\n\n"+aspirinSection, "\n", "\r\n"),
			count: 2,
			first: "IBUPROFENO",
		},
		{
			name:  "empty text",
			text:  "",
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sections := newTestParser().Segment(tt.text)
			require.Len(t, sections, tt.count)
			if tt.count > 0 {
				assert.Equal(t, tt.first, firstLine(sections[0]))
			}
		})
	}
}

func TestParse_ExtractsFields(t *testing.T) {
	t.Parallel()

	meds := newTestParser().Parse(ibuprofenSection)
	require.Len(t, meds, 1)
	med := meds[0]

	assert.Equal(t, "Ibuprofeno", med.GenericName)
	assert.Equal(t, []string{"Advil", "Motrin"}, med.CommercialNames)
	assert.Equal(t, "ibuprofeno", med.ActiveIngredient)
	assert.Equal(t, "Antiinflamatorio no esteroideo", med.TherapeuticGroup)

	md := med.Metadata
	assert.Equal(t, []string{"Dolor leve a moderado", "Fiebre"}, md.Indications)
	assert.Equal(t, "400 mg cada 8 horas", md.DosingAdult)
	assert.Equal(t, "10 mg/kg cada 8 horas", md.DosingPediatric)
	assert.Empty(t, md.DosingGeriatric)
	assert.Equal(t, []string{"Úlcera péptica activa", "Insuficiencia renal grave"}, md.Contraindications)
	assert.Equal(t, []string{"dispepsia", "náuseas"}, md.AdverseEffects)
	assert.Equal(t, "evitar en el tercer trimestre", md.PregnancyLactation)
	assert.Equal(t, []models.Interaction{
		{PartnerDrug: "Aspirina", Effect: "riesgo de sangrado"},
		{PartnerDrug: "Warfarina", Effect: "aumenta el riesgo hemorrágico", Severity: "grave"},
		{PartnerDrug: "Litio", Effect: "aumenta niveles plasmáticos"},
	}, md.Interactions)
	assert.Empty(t, md.Presentations)
	assert.Empty(t, md.Pharmacokinetics)
}

func TestParse_MissingFieldsAreEmpty(t *testing.T) {
	t.Parallel()

	meds := newTestParser().Parse("ÁCIDO ACETILSALICÍLICO\nTexto libre sin etiquetas reconocibles para ningún campo.")
	require.Len(t, meds, 1)

	assert.Equal(t, "Ácido acetilsalicílico", meds[0].GenericName)
	assert.Empty(t, meds[0].CommercialNames)
	assert.Empty(t, meds[0].Metadata.Interactions)
	assert.Equal(t, "Medicamento: Ácido acetilsalicílico", meds[0].Content)
}

func TestParse_ShortNameDiscarded(t *testing.T) {
	t.Parallel()

	meds := newTestParser().Parse("ab\n" + strings.Repeat("texto de relleno ", 5))
	assert.Empty(t, meds)
}

func TestBuildContent_FixedOrder(t *testing.T) {
	t.Parallel()

	want := "Medicamento: Ibuprofeno" +
		"\n\nIndicaciones: Dolor leve a moderado; Fiebre" +
		"\n\nPosología adultos: 400 mg cada 8 horas" +
		"\n\nPosología pediátrica: 10 mg/kg cada 8 horas" +
		"\n\nContraindicaciones: Úlcera péptica activa; Insuficiencia renal grave" +
		"\n\nInteracciones: Aspirina: riesgo de sangrado; Warfarina: aumenta el riesgo hemorrágico (grave); Litio: aumenta niveles plasmáticos" +
		"\n\nEfectos adversos: dispepsia; náuseas" +
		"\n\nEmbarazo y lactancia: evitar en el tercer trimestre"

	first := newTestParser().Parse(ibuprofenSection)
	second := newTestParser().Parse(ibuprofenSection)
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	assert.Equal(t, want, first[0].Content)
	assert.Equal(t, first[0].Content, second[0].Content)
}

func TestSplitInteractions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want []models.Interaction
	}{
		{
			name: "colon wins over hyphen",
			body: "Co-trimoxazol: hiperpotasemia",
			want: []models.Interaction{{PartnerDrug: "Co-trimoxazol", Effect: "hiperpotasemia"}},
		},
		{
			name: "bracketed severity",
			body: "• Metotrexato: toxicidad aumentada [Contraindicada]",
			want: []models.Interaction{{PartnerDrug: "Metotrexato", Effect: "toxicidad aumentada", Severity: "contraindicada"}},
		},
		{
			name: "semicolon stays in the effect",
			body: "Warfarina: aumenta el riesgo de sangrado; evitar uso concomitante",
			want: []models.Interaction{{PartnerDrug: "Warfarina", Effect: "aumenta el riesgo de sangrado; evitar uso concomitante"}},
		},
		{
			name: "bare severity marker kept as effect",
			body: "Metotrexato: (grave)",
			want: []models.Interaction{{PartnerDrug: "Metotrexato", Effect: "(grave)", Severity: "grave"}},
		},
		{
			name: "lines without separator are skipped",
			body: "No se han descrito interacciones relevantes",
			want: nil,
		},
		{
			name: "missing effect is skipped",
			body: "Digoxina:",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, splitInteractions(tt.body))
		})
	}
}

func TestParse_InteractionEffectKeepsSemicolonClause(t *testing.T) {
	t.Parallel()

	section := "WARFARINA\n" +
		"Indicaciones: profilaxis de tromboembolismo venoso\n" +
		"Interacciones: Aspirina: aumenta el riesgo de sangrado; evitar uso concomitante\n"

	meds := newTestParser().Parse(section)
	require.Len(t, meds, 1)
	assert.Equal(t, []models.Interaction{
		{PartnerDrug: "Aspirina", Effect: "aumenta el riesgo de sangrado; evitar uso concomitante"},
	}, meds[0].Metadata.Interactions)
}

func TestSplitList_DropsShortFragments(t *testing.T) {
	t.Parallel()

	got := splitList("- cefalea\n- a\n• mareo; ok; rash cutáneo")
	assert.Equal(t, []string{"cefalea", "mareo", "rash cutáneo"}, got)
}
