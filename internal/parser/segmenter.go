// Package parser turns extracted reference text into candidate medication
// records. Segmentation and field extraction are heuristics over loosely
// structured prose: every field is optional and a miss is never an error.
package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"vademecum/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultMinSectionLength = 50
	DefaultMinNameLength    = 3
)

var (
	headerLine  = regexp.MustCompile(`^\p{Lu}[\p{Lu}\d\s,.()/+\-]*$`)
	headerWords = regexp.MustCompile(`\p{Lu}{3,}`)
)

type Options struct {
	MinSectionLength int
	MinNameLength    int
}

type Parser struct {
	minSectionLength int
	minNameLength    int
	logger           *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Parser {
	if opts.MinSectionLength <= 0 {
		opts.MinSectionLength = DefaultMinSectionLength
	}
	if opts.MinNameLength <= 0 {
		opts.MinNameLength = DefaultMinNameLength
	}
	return &Parser{
		minSectionLength: opts.MinSectionLength,
		minNameLength:    opts.MinNameLength,
		logger:           logger,
	}
}

// Parse segments text and extracts one candidate record per surviving section.
// Candidates carry no ID, embedding, source or timestamps.
func (p *Parser) Parse(text string) []*models.Medication {
	sections := p.Segment(text)
	candidates := make([]*models.Medication, 0, len(sections))
	for _, section := range sections {
		med, ok := p.parseSection(section)
		if !ok {
			continue
		}
		candidates = append(candidates, med)
	}
	p.logger.Debug("Text parsed",
		zap.Int("sections", len(sections)),
		zap.Int("candidates", len(candidates)))
	return candidates
}

// Segment splits text at all-caps header lines that follow a blank line (or
// open the text) and drops sections shorter than the minimum length.
func (p *Parser) Segment(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		sections []string
		current  []string
		headers  int
	)
	prevBlank := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if prevBlank && isHeader(trimmed) {
			// Text ahead of the first header is a preamble, not an entry.
			if headers > 0 {
				sections = append(sections, strings.Join(current, "\n"))
			}
			current = nil
			headers++
		}
		current = append(current, line)
		prevBlank = trimmed == ""
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}

	kept := sections[:0]
	for _, s := range sections {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) < p.minSectionLength {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func (p *Parser) parseSection(section string) (*models.Medication, bool) {
	name := firstLine(section)
	if utf8.RuneCountInString(name) < p.minNameLength {
		return nil, false
	}

	fields := extractFields(section)
	med := &models.Medication{
		GenericName:      models.DisplayName(name),
		CommercialNames:  splitNames(fields[fieldCommercialNames]),
		ActiveIngredient: collapse(fields[fieldActiveIngredient]),
		TherapeuticGroup: collapse(fields[fieldTherapeuticGroup]),
		Metadata: models.Metadata{
			Presentations:          splitList(fields[fieldPresentations]),
			DosingAdult:            collapse(fields[fieldDosingAdult]),
			DosingPediatric:        collapse(fields[fieldDosingPediatric]),
			DosingGeriatric:        collapse(fields[fieldDosingGeriatric]),
			Contraindications:      splitList(fields[fieldContraindications]),
			Interactions:           splitInteractions(fields[fieldInteractions]),
			AdverseEffects:         splitList(fields[fieldAdverseEffects]),
			PregnancyLactation:     collapse(fields[fieldPregnancyLactation]),
			Indications:            splitList(fields[fieldIndications]),
			RoutesOfAdministration: splitNames(fields[fieldRoutes]),
			Pharmacokinetics:       collapse(fields[fieldPharmacokinetics]),
		},
	}
	med.Content = BuildContent(med)
	return med, true
}

func isHeader(line string) bool {
	if line == "" || !headerLine.MatchString(line) || !headerWords.MatchString(line) {
		return false
	}
	return !isLabel(line)
}

func firstLine(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
