package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// DefaultSeverity is assigned to interactions whose source text carries no severity.
const DefaultSeverity = "moderada"

type Interaction struct {
	PartnerDrug string `json:"partnerDrug"`
	Effect      string `json:"effect"`
	Severity    string `json:"severity,omitempty"`
}

// Metadata holds the structured fields extracted from a reference document section.
// Absent fields stay empty; absence is never an error.
type Metadata struct {
	Presentations          []string      `json:"presentations"`
	DosingAdult            string        `json:"dosingAdult,omitempty"`
	DosingPediatric        string        `json:"dosingPediatric,omitempty"`
	DosingGeriatric        string        `json:"dosingGeriatric,omitempty"`
	Contraindications      []string      `json:"contraindications"`
	Interactions           []Interaction `json:"interactions"`
	AdverseEffects         []string      `json:"adverseEffects"`
	PregnancyLactation     string        `json:"pregnancyLactation,omitempty"`
	Indications            []string      `json:"indications"`
	RoutesOfAdministration []string      `json:"routesOfAdministration"`
	Pharmacokinetics       string        `json:"pharmacokinetics,omitempty"`
}

type Medication struct {
	ID               uuid.UUID `db:"id" json:"id"`
	GenericName      string    `db:"generic_name" json:"genericName"`
	CommercialNames  []string  `db:"commercial_names" json:"commercialNames"`
	ActiveIngredient string    `db:"active_ingredient" json:"activeIngredient,omitempty"`
	TherapeuticGroup string    `db:"therapeutic_group" json:"therapeuticGroup,omitempty"`
	Content          string    `db:"content" json:"content"`
	Metadata         Metadata  `db:"metadata" json:"metadata"`
	Embedding        []float32 `db:"embedding" json:"-"` // nil until the first successful embedding call
	Source           string    `db:"source" json:"source"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// NameKey is the uniqueness key of a generic name: lowercase, inner whitespace
// collapsed, surrounding punctuation dropped.
func (m *Medication) NameKey() string {
	return NameKey(m.GenericName)
}

// Clone returns a deep copy so stores never share slices with callers.
func (m *Medication) Clone() *Medication {
	c := *m
	c.CommercialNames = append([]string(nil), m.CommercialNames...)
	c.Embedding = append([]float32(nil), m.Embedding...)
	c.Metadata.Presentations = append([]string(nil), m.Metadata.Presentations...)
	c.Metadata.Contraindications = append([]string(nil), m.Metadata.Contraindications...)
	c.Metadata.Interactions = append([]Interaction(nil), m.Metadata.Interactions...)
	c.Metadata.AdverseEffects = append([]string(nil), m.Metadata.AdverseEffects...)
	c.Metadata.Indications = append([]string(nil), m.Metadata.Indications...)
	c.Metadata.RoutesOfAdministration = append([]string(nil), m.Metadata.RoutesOfAdministration...)
	return &c
}

// ScoredMedication pairs a record with its cosine similarity to a query vector.
type ScoredMedication struct {
	Medication *Medication
	Similarity float64
}

// InteractionAlert is one interacting pair found among a set of medication names.
type InteractionAlert struct {
	DrugA    string `json:"drugA"`
	DrugB    string `json:"drugB"`
	Effect   string `json:"effect"`
	Severity string `json:"severity"`
}

func NameKey(name string) string {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	return strings.TrimFunc(key, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// DisplayName lowercases a name and capitalises its first letter.
func DisplayName(name string) string {
	runes := []rune(strings.ToLower(strings.TrimSpace(name)))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
