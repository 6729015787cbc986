package parser

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"vademecum/internal/models"
)

const (
	fieldIndications        = "indications"
	fieldContraindications  = "contraindications"
	fieldAdverseEffects     = "adverse_effects"
	fieldDosingAdult        = "dosing_adult"
	fieldDosingPediatric    = "dosing_pediatric"
	fieldDosingGeriatric    = "dosing_geriatric"
	fieldPregnancyLactation = "pregnancy_lactation"
	fieldInteractions       = "interactions"
	fieldCommercialNames    = "commercial_names"
	fieldActiveIngredient   = "active_ingredient"
	fieldTherapeuticGroup   = "therapeutic_group"
	fieldPresentations      = "presentations"
	fieldRoutes             = "routes"
	fieldPharmacokinetics   = "pharmacokinetics"

	minFragmentLength = 3
)

type fieldRule struct {
	field   string
	pattern *regexp.Regexp
}

// label matches a labelled paragraph opening at the start of a line and ending
// with a colon or the end of the line.
func label(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)^[ \t]*(?:` + alternatives + `)[ \t]*(?::|$)`)
}

// fieldRules is ordered; a label matched by two rules at the same offset
// belongs to the longer match.
var fieldRules = []fieldRule{
	{fieldContraindications, label(`contraindicaci[oó]n(?:es)?`)},
	{fieldIndications, label(`indicaci[oó]n(?:es)?(?:\s+terap[eé]uticas?)?`)},
	{fieldAdverseEffects, label(`(?:reacciones|efectos)\s+(?:adversos|adversas|secundarios|indeseables)`)},
	{fieldDosingPediatric, label(`(?:posolog[ií]a|dosis|dosificaci[oó]n)\s+(?:en\s+|para\s+)?(?:ni[nñ]os|pedi[aá]trica|pediatr[ií]a)`)},
	{fieldDosingGeriatric, label(`(?:posolog[ií]a|dosis|dosificaci[oó]n)\s+(?:en\s+|para\s+)?(?:ancianos|adultos\s+mayores|geri[aá]trica|geriatr[ií]a)`)},
	{fieldDosingAdult, label(`(?:posolog[ií]a|dosis|dosificaci[oó]n)(?:\s+(?:en\s+|para\s+)?adultos)?`)},
	{fieldPregnancyLactation, label(`embarazo(?:\s+y\s+lactancia)?|lactancia|embarazo\s*/\s*lactancia`)},
	{fieldInteractions, label(`interacciones(?:\s+medicamentosas)?`)},
	{fieldCommercialNames, label(`nombres?\s+comerciales?|marcas?\s+comerciales?`)},
	{fieldActiveIngredient, label(`principios?\s+activos?`)},
	{fieldTherapeuticGroup, label(`grupo\s+terap[eé]utico|clase\s+terap[eé]utica`)},
	{fieldPresentations, label(`presentaci[oó]n(?:es)?|formas?\s+farmac[eé]uticas?`)},
	{fieldRoutes, label(`v[ií]as?\s+de\s+administraci[oó]n`)},
	{fieldPharmacokinetics, label(`farmacocin[eé]tica`)},
}

var (
	listSeparator      = regexp.MustCompile(`\n|[•·▪●◦;]|\s[-–—]\s`)
	nameSeparator      = regexp.MustCompile(`\n|[•·▪●◦;,]|\s[-–—]\s`)
	interactionBullets = regexp.MustCompile(`\n|[•·▪●◦]`)
	severityMarker     = regexp.MustCompile(`(?i)\s*[(\[]\s*(leve|moderada|grave|severa|contraindicad[ao])\s*[)\]]\s*\.?\s*$`)
)

type labelMatch struct {
	field      string
	start, end int
}

// extractFields returns the body of the first occurrence of each labelled
// paragraph. A body runs up to the next recognised label or the end of section.
func extractFields(section string) map[string]string {
	var matches []labelMatch
	for _, rule := range fieldRules {
		for _, loc := range rule.pattern.FindAllStringIndex(section, -1) {
			matches = append(matches, labelMatch{field: rule.field, start: loc[0], end: loc[1]})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	deduped := matches[:0]
	for _, m := range matches {
		if len(deduped) > 0 && deduped[len(deduped)-1].start == m.start {
			continue
		}
		deduped = append(deduped, m)
	}

	fields := make(map[string]string, len(deduped))
	for i, m := range deduped {
		if _, seen := fields[m.field]; seen {
			continue
		}
		end := len(section)
		if i+1 < len(deduped) {
			end = deduped[i+1].start
		}
		fields[m.field] = strings.TrimSpace(section[m.end:end])
	}
	return fields
}

func isLabel(line string) bool {
	for _, rule := range fieldRules {
		if rule.pattern.MatchString(line) {
			return true
		}
	}
	return false
}

func splitList(body string) []string {
	return splitOn(listSeparator, body)
}

func splitNames(body string) []string {
	return splitOn(nameSeparator, body)
}

func splitOn(sep *regexp.Regexp, body string) []string {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	var items []string
	for _, fragment := range sep.Split(body, -1) {
		item := collapse(trimBullet(fragment))
		item = strings.TrimRight(item, ".")
		if utf8.RuneCountInString(item) < minFragmentLength {
			continue
		}
		items = append(items, item)
	}
	return items
}

func trimBullet(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "-–—*•·▪●◦ \t")
}

// splitInteractions reads one "partner: effect" pair per line or bullet; a
// semicolon stays inside the effect. The separator preference is colon, then
// en/em dash, then hyphen.
func splitInteractions(body string) []models.Interaction {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	var out []models.Interaction
	for _, line := range interactionBullets.Split(body, -1) {
		line = trimBullet(line)
		partner, effect, ok := splitPair(line)
		if !ok {
			continue
		}
		interaction := models.Interaction{PartnerDrug: partner, Effect: effect}
		if loc := severityMarker.FindStringSubmatchIndex(effect); loc != nil {
			interaction.Severity = strings.ToLower(effect[loc[2]:loc[3]])
			// A bare marker stays as the effect.
			if stripped := strings.TrimSpace(effect[:loc[0]]); stripped != "" {
				interaction.Effect = stripped
			}
		}
		out = append(out, interaction)
	}
	return out
}

func splitPair(line string) (string, string, bool) {
	for _, sep := range []string{":", "–", "—", " - ", "-"} {
		idx := strings.Index(line, sep)
		if idx < 0 {
			continue
		}
		partner := collapse(line[:idx])
		effect := collapse(line[idx+len(sep):])
		if partner == "" || effect == "" {
			return "", "", false
		}
		return partner, effect, true
	}
	return "", "", false
}
