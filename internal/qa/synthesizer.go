package qa

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-form-agent/internal/extraction"
	"github.com/a3tai/mcp-form-agent/internal/retrieval"
)

// NoAnswer is returned when no context was found
const NoAnswer = "I couldn't find relevant information to answer this question."

// Intent is the question category that picks an answer template
type Intent string

const (
	IntentWhat     Intent = "what"
	IntentQuantity Intent = "quantity"
	IntentWho      Intent = "who"
	IntentWhen     Intent = "when"
	IntentWhere    Intent = "where"
	IntentGeneric  Intent = "generic"
)

// intentTriggers is checked in order; the first intent with a trigger
// contained in the lower-cased question wins
var intentTriggers = []struct {
	intent   Intent
	triggers []string
}{
	{IntentWhat, []string{"what is", "what's", "what are"}},
	{IntentQuantity, []string{"how much", "how many", "total", "sum", "amount"}},
	{IntentWho, []string{"who", "whose"}},
	{IntentWhen, []string{"when", "date"}},
	{IntentWhere, []string{"where", "address", "location"}},
}

var (
	subjectPatterns = []*regexp.Regexp{
		regexp.MustCompile(`what is (?:the )?(.+?)(?:\?|$)`),
		regexp.MustCompile(`what's (?:the )?(.+?)(?:\?|$)`),
		regexp.MustCompile(`what are (?:the )?(.+?)(?:\?|$)`),
	}
	amountPattern = regexp.MustCompile(`\$?[\d,]+(?:\.\d{2})?`)
	datePatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`),
		regexp.MustCompile(`\d{4}[/-]\d{1,2}[/-]\d{1,2}`),
		regexp.MustCompile(`(?i)(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}`),
	}

	nameKeywords     = []string{"name", "applicant", "employee", "patient", "customer", "client"}
	locationKeywords = []string{"address", "location", "city", "state", "zip", "street"}
)

// DetectIntent classifies a question by its trigger words
func DetectIntent(question string) Intent {
	q := strings.ToLower(question)
	for _, it := range intentTriggers {
		if containsAny(q, it.triggers) {
			return it.intent
		}
	}
	return IntentGeneric
}

// Synthesizer turns retrieved context into a templated answer
type Synthesizer struct{}

// Synthesize answers a question from context and, for single documents,
// the document's fields. Multi-document answers pass nil fields.
func (Synthesizer) Synthesize(question, context string, fields *extraction.FieldMap) (string, float64) {
	if context == "" {
		return NoAnswer, 0.0
	}

	q := strings.ToLower(question)
	switch DetectIntent(q) {
	case IntentWhat:
		return answerWhat(q, context, fields)
	case IntentQuantity:
		return answerQuantity(q, context)
	case IntentWho:
		return answerKeyword(context, fields, nameKeywords)
	case IntentWhen:
		return answerWhen(context, fields)
	case IntentWhere:
		return answerKeyword(context, fields, locationKeywords)
	}
	return "Based on the form: " + retrieval.Truncate(context, 300) + "...", 0.6
}

func fallback(context string) (string, float64) {
	return "Based on the form: " + retrieval.Truncate(context, 200), 0.5
}

func answerWhat(q, context string, fields *extraction.FieldMap) (string, float64) {
	var subject string
	for _, p := range subjectPatterns {
		if m := p.FindStringSubmatch(q); m != nil {
			subject = strings.TrimSpace(m[1])
			break
		}
	}

	if subject != "" {
		for name, value := range fields.All() {
			lower := strings.ToLower(name)
			if strings.Contains(lower, subject) || strings.Contains(subject, lower) {
				return "The " + name + " is: " + value.String(), 0.9
			}
		}
	}

	for _, line := range strings.Split(context, "\n") {
		if strings.Contains(line, ":") {
			return strings.TrimSpace(line), 0.7
		}
	}
	return retrieval.Truncate(context, 200), 0.5
}

func answerQuantity(q, context string) (string, float64) {
	tokens := amountPattern.FindAllString(context, -1)
	if len(tokens) > 0 {
		if strings.Contains(q, "total") {
			for _, line := range strings.Split(context, "\n") {
				if strings.Contains(strings.ToLower(line), "total") {
					return strings.TrimSpace(line), 0.85
				}
			}
		}

		var (
			best  float64
			found bool
		)
		for _, tok := range tokens {
			n, err := strconv.ParseFloat(strings.NewReplacer("$", "", ",", "").Replace(tok), 64)
			if err != nil {
				continue
			}
			if !found || n > best {
				best, found = n, true
			}
		}
		if found {
			return "The amount is: " + Money(best), 0.7
		}
	}
	return fallback(context)
}

func answerKeyword(context string, fields *extraction.FieldMap, keywords []string) (string, float64) {
	for name, value := range fields.All() {
		if containsAny(strings.ToLower(name), keywords) {
			return "The " + name + " is: " + value.String(), 0.9
		}
	}
	for _, line := range strings.Split(context, "\n") {
		if containsAny(strings.ToLower(line), keywords) {
			return strings.TrimSpace(line), 0.7
		}
	}
	return fallback(context)
}

func answerWhen(context string, fields *extraction.FieldMap) (string, float64) {
	for _, p := range datePatterns {
		if m := p.FindString(context); m != "" {
			return "The date is: " + m, 0.8
		}
	}
	for name, value := range fields.All() {
		if strings.Contains(strings.ToLower(name), "date") {
			return "The " + name + " is: " + value.String(), 0.9
		}
	}
	return fallback(context)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
