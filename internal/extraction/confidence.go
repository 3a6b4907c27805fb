package extraction

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// minMatchConfidence drops matches that are probably not fields
const minMatchConfidence = 0.3

// FieldMatch is a labelled value together with where it was found and how
// much the extractor trusts it. Offsets refer to the SSN-masked text.
type FieldMatch struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// ParseWithConfidence returns every labelled match scoring above 0.3,
// highest confidence first. Matches with equal confidence keep text order
// within a layout.
func (e *Extractor) ParseWithConfidence(text string) []FieldMatch {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	masked, _ := MaskSSNs(text)

	var results []FieldMatch
	for _, p := range labelPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(masked, -1) {
			name, value := matchGroups(p, masked, loc)
			if name == "" || value == "" {
				continue
			}
			confidence := MatchConfidence(name, value)
			if confidence <= minMatchConfidence {
				continue
			}
			results = append(results, FieldMatch{
				Name:       name,
				Value:      value,
				Start:      loc[0],
				End:        loc[1],
				Confidence: confidence,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

func matchGroups(p labelPattern, text string, loc []int) (string, string) {
	group := func(n int) string {
		if loc[2*n] < 0 {
			return ""
		}
		return text[loc[2*n]:loc[2*n+1]]
	}
	if p.checkbox {
		value := "unchecked"
		if strings.TrimSpace(group(1)) != "" {
			value = "checked"
		}
		return NormalizeName(group(2)), value
	}
	return NormalizeName(group(1)), strings.TrimSpace(group(2))
}

// MatchConfidence scores a labelled match from the shape of its name and
// value. The result is clamped to [0, 1].
func MatchConfidence(name, value string) float64 {
	confidence := 0.5

	nameLen := utf8.RuneCountInString(name)
	valueLen := utf8.RuneCountInString(value)

	if nameLen > 2 && nameLen < 50 {
		confidence += 0.1
	}
	if valueLen > 1 && valueLen < 200 {
		confidence += 0.1
	}

	lower := strings.ToLower(name)
	for _, word := range commonFieldWords {
		if strings.Contains(lower, word) {
			confidence += 0.2
			break
		}
	}

	if valueLen > 200 {
		confidence -= 0.2
	}

	return min(1.0, max(0.0, confidence))
}
