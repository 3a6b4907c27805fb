package extraction

import "regexp"

// labelPattern is one label/value layout. Group 1 is the label and group 2
// the value, except for checkbox layouts where group 1 is the mark.
type labelPattern struct {
	name     string
	re       *regexp.Regexp
	checkbox bool
}

// labelPatterns run in order; later layouts overwrite earlier ones under the
// same name. Labels never cross a line break.
var labelPatterns = []labelPattern{
	{name: "colon", re: regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z0-9 \t\-_/()]+?):[ \t]*([^\n]+)$`)},
	// a dash needs a space on at least one side so hyphenated words stay whole
	{name: "dash", re: regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z0-9 \t_]+?)(?:[ \t]*[-–—][ \t]+|[ \t]+[-–—][ \t]*)([^\n]+)$`)},
	{name: "equals", re: regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z0-9 \t_]+?)[ \t]*=[ \t]*([^\n]+)$`)},
	{name: "caps", re: regexp.MustCompile(`(?m)^([A-Z][A-Z0-9 \t]+):[ \t]*([^\n]+)$`)},
	{name: "numbered", re: regexp.MustCompile(`(?m)^\d+\.[ \t]*([A-Za-z][A-Za-z0-9 \t]+?):[ \t]*([^\n]+)$`)},
	{name: "checkbox", re: regexp.MustCompile(`(?m)\[([xX✓✔]|[ \t]?)\][ \t]*([^\n]+)$`), checkbox: true},
}

var (
	currencyPrefix = regexp.MustCompile(`^(?:\$[\d,]+(?:\.\d{2})?|\d+(?:,\d{3})*(?:\.\d{2})?[ \t]*(?:USD|EUR|GBP|dollars?))`)

	// anchored forms used by the value cascade
	datePrefixes = []*regexp.Regexp{
		regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
		regexp.MustCompile(`^\d{4}[/-]\d{1,2}[/-]\d{1,2}`),
		regexp.MustCompile(`(?i)^(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}`),
		regexp.MustCompile(`(?i)^\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}`),
	}

	// word-bounded forms used when scanning free text
	dateScanners = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`),
		regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[ \t]+\d{1,2},?[ \t]+\d{4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}[ \t]+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[ \t]+\d{4}\b`),
	}

	integerValue = regexp.MustCompile(`^-?\d+$`)
	floatValue   = regexp.MustCompile(`^-?\d*\.\d+$`)

	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?1[-. \t]?)?\(?\d{3}\)?[-. \t]?\d{3}[-. \t]?\d{4}\b`)
	// digit boundaries are checked by MaskSSNs; letters and underscores may
	// touch the number
	ssnPattern = regexp.MustCompile(`\d{3}[- \t]?\d{2}[- \t]?\d{4}`)

	// one or two words at the end of the text preceding a date
	dateLabel = regexp.MustCompile(`([A-Za-z]+(?:[ \t]+[A-Za-z]+)?)[ \t]*[:\-]?[ \t]*$`)

	nonAmount = regexp.MustCompile(`[^\d.]`)
)

// checkboxMarker recognizes one family of selection marks
type checkboxMarker struct {
	re      *regexp.Regexp
	checked bool
}

var checkboxMarkers = []checkboxMarker{
	{re: regexp.MustCompile(`\[[xX✓✔]\][ \t]*([^\n]+)`), checked: true},
	{re: regexp.MustCompile(`\[[ \t]*\][ \t]*([^\n]+)`), checked: false},
	{re: regexp.MustCompile(`☑[ \t]*([^\n]+)`), checked: true},
	{re: regexp.MustCompile(`☐[ \t]*([^\n]+)`), checked: false},
	{re: regexp.MustCompile(`\([xX✓✔]\)[ \t]*([^\n]+)`), checked: true},
	{re: regexp.MustCompile(`\([ \t]*\)[ \t]*([^\n]+)`), checked: false},
}

var booleanTokens = map[string]bool{
	"yes":   true,
	"y":     true,
	"true":  true,
	"no":    false,
	"n":     false,
	"false": false,
}

// dateLabelSkip are words that never name a date on their own
var dateLabelSkip = map[string]bool{
	"on":  true,
	"of":  true,
	"the": true,
	"at":  true,
	"by":  true,
}

// commonFieldWords raise the confidence of a labelled match
var commonFieldWords = []string{
	"name", "date", "address", "phone", "email", "ssn", "dob",
	"number", "amount", "total", "id", "signature", "account",
}
