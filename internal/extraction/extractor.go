package extraction

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxValueLength rejects values that are more likely prose than a field
	DefaultMaxValueLength = 500

	// maxOptionLength bounds checkbox labels to exclude accidental matches
	maxOptionLength = 100

	// dateContextWindow is how far back a date label may start
	dateContextWindow = 50

	SelectedOptionsField   = "Selected Options"
	UnselectedOptionsField = "Unselected Options"
)

// Extractor turns free-form document text into typed fields
type Extractor struct {
	maxValueLength int
}

// NewExtractor creates an extractor with default limits
func NewExtractor() *Extractor {
	return &Extractor{maxValueLength: DefaultMaxValueLength}
}

// NewExtractorWithLimit creates an extractor with a custom value length limit
func NewExtractorWithLimit(maxValueLength int) *Extractor {
	if maxValueLength <= 0 {
		maxValueLength = DefaultMaxValueLength
	}
	return &Extractor{maxValueLength: maxValueLength}
}

// Extract scans text for labelled values, contact details, identifiers,
// dated labels and checkbox selections. It never fails: text without any
// recognizable structure yields an empty map.
func (e *Extractor) Extract(text string) *FieldMap {
	fields := NewFieldMap()
	if strings.TrimSpace(text) == "" {
		return fields
	}

	masked, ssns := MaskSSNs(text)

	e.extractLabelled(masked, fields)
	e.extractSpecial(masked, ssns, fields)
	e.extractCheckboxes(masked, fields)

	return fields
}

// MaskSSNs replaces every SSN-shaped number with XXX-XX-dddd and returns the
// masked text along with the masked values in order of appearance. A match
// counts only when no digit sits directly before or after it.
func MaskSSNs(text string) (string, []string) {
	var (
		found []string
		b     strings.Builder
		last  int
	)
	for _, loc := range ssnPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if (start > 0 && isDigit(text[start-1])) || (end < len(text) && isDigit(text[end])) {
			continue
		}
		masked := maskSSN(text[start:end])
		found = append(found, masked)
		b.WriteString(text[last:start])
		b.WriteString(masked)
		last = end
	}
	if last == 0 {
		return text, found
	}
	b.WriteString(text[last:])
	return b.String(), found
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func maskSSN(ssn string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ssn)
	if len(digits) < 4 {
		return "XXX-XX-XXXX"
	}
	return "XXX-XX-" + digits[len(digits)-4:]
}

func (e *Extractor) extractLabelled(text string, fields *FieldMap) {
	for _, p := range labelPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			name, value, ok := e.labelledPair(p, m)
			if !ok {
				continue
			}
			fields.Set(name, value)
		}
	}
}

// labelledPair converts one pattern match into a field, applying the
// acceptance rules shared by every layout.
func (e *Extractor) labelledPair(p labelPattern, m []string) (string, TypedValue, bool) {
	if p.checkbox {
		label := NormalizeName(m[2])
		if utf8.RuneCountInString(label) >= maxOptionLength || !ValidName(label) {
			return "", TypedValue{}, false
		}
		checked := strings.TrimSpace(m[1]) != ""
		return label, Boolean(checked), true
	}

	name := NormalizeName(m[1])
	value := strings.TrimSpace(m[2])
	if value == "" || utf8.RuneCountInString(value) > e.maxValueLength {
		return "", TypedValue{}, false
	}
	if !ValidName(name) {
		return "", TypedValue{}, false
	}
	return name, InferValue(value), true
}

func (e *Extractor) extractSpecial(text string, ssns []string, fields *FieldMap) {
	setIndexed(fields, "Email", emailPattern.FindAllString(text, -1))
	setIndexed(fields, "Phone", phonePattern.FindAllString(text, -1))
	setIndexed(fields, "SSN", ssns)

	for _, re := range dateScanners {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			label := dateLabelBefore(text, loc[0])
			if label == "" {
				continue
			}
			fields.Set(label+" Date", Date(text[loc[0]:loc[1]]))
		}
	}
}

// setIndexed stores a single value under the bare name and several values
// under "<name> 1", "<name> 2", ...
func setIndexed(fields *FieldMap, name string, values []string) {
	switch len(values) {
	case 0:
	case 1:
		fields.Set(name, Text(values[0]))
	default:
		for i, v := range values {
			fields.Set(fmt.Sprintf("%s %d", name, i+1), Text(v))
		}
	}
}

// dateLabelBefore finds the one- or two-word label that precedes a date.
// Connective words are dropped so "Date of" resolves to "Date".
func dateLabelBefore(text string, start int) string {
	from := max(0, start-dateContextWindow)
	context := strings.TrimSpace(text[from:start])
	m := dateLabel.FindStringSubmatch(context)
	if m == nil {
		return ""
	}

	var words []string
	for _, w := range strings.Fields(m[1]) {
		if !dateLabelSkip[strings.ToLower(w)] {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

func (e *Extractor) extractCheckboxes(text string, fields *FieldMap) {
	var checked, unchecked []string
	for _, marker := range checkboxMarkers {
		for _, m := range marker.re.FindAllStringSubmatch(text, -1) {
			item := strings.TrimSpace(m[1])
			if item == "" || utf8.RuneCountInString(item) >= maxOptionLength {
				continue
			}
			if marker.checked {
				checked = append(checked, item)
			} else {
				unchecked = append(unchecked, item)
			}
		}
	}
	if len(checked) > 0 {
		fields.Set(SelectedOptionsField, List(checked))
	}
	if len(unchecked) > 0 {
		fields.Set(UnselectedOptionsField, List(unchecked))
	}
}
