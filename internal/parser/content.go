package parser

import (
	"strings"

	"vademecum/internal/models"
)

// BuildContent renders the text that gets embedded for a record. Paragraph
// order is fixed so unchanged source text always yields the same input.
func BuildContent(m *models.Medication) string {
	var b strings.Builder
	b.WriteString("Medicamento: ")
	b.WriteString(m.GenericName)

	paragraph := func(title, text string) {
		if text == "" {
			return
		}
		b.WriteString("\n\n")
		b.WriteString(title)
		b.WriteString(": ")
		b.WriteString(text)
	}

	md := m.Metadata
	paragraph("Indicaciones", strings.Join(md.Indications, "; "))
	paragraph("Posología adultos", md.DosingAdult)
	paragraph("Posología pediátrica", md.DosingPediatric)
	paragraph("Contraindicaciones", strings.Join(md.Contraindications, "; "))
	paragraph("Interacciones", formatInteractions(md.Interactions))
	paragraph("Efectos adversos", strings.Join(md.AdverseEffects, "; "))
	paragraph("Embarazo y lactancia", md.PregnancyLactation)

	return b.String()
}

func formatInteractions(interactions []models.Interaction) string {
	parts := make([]string, 0, len(interactions))
	for _, in := range interactions {
		s := in.PartnerDrug + ": " + in.Effect
		if in.Severity != "" {
			s += " (" + in.Severity + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "; ")
}
