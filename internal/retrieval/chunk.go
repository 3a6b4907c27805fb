package retrieval

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the target size of raw-text chunks in runes
const DefaultChunkSize = 300

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	sentenceBreak  = regexp.MustCompile(`[.!?\n]+`)
)

// Chunk splits text into paragraphs, breaking paragraphs longer than size
// into runs of whole sentences that fit within size.
func Chunk(text string, size int) []string {
	var chunks []string
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= size {
			chunks = append(chunks, para)
			continue
		}

		current := ""
		for _, sentence := range splitSentences(para) {
			switch {
			case current == "":
				current = sentence
			case utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence) <= size:
				current += " " + sentence
			default:
				chunks = append(chunks, current)
				current = sentence
			}
		}
		if current != "" {
			chunks = append(chunks, current)
		}
	}
	return chunks
}

// abbreviations end with a period that does not end a sentence
var abbreviations = map[string]bool{
	"mr.": true, "mrs.": true, "ms.": true, "dr.": true, "prof.": true,
	"sr.": true, "jr.": true, "vs.": true, "etc.": true, "e.g.": true, "i.e.": true,
	"inc.": true, "ltd.": true, "co.": true, "corp.": true,
	"jan.": true, "feb.": true, "mar.": true, "apr.": true, "jun.": true, "jul.": true,
	"aug.": true, "sep.": true, "oct.": true, "nov.": true, "dec.": true,
	"st.": true, "rd.": true, "ave.": true, "blvd.": true,
	"no.": true, "vol.": true, "pp.": true, "pg.": true,
}

// splitSentences cuts after sentence punctuation that is followed by
// whitespace, keeping the punctuation with its sentence. Periods closing an
// abbreviation or a single capital initial do not cut.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && !periodEndsSentence(runes, i) {
			continue
		}
		out = append(out, string(runes[start:i+1]))
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
		start = i + 1
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// periodEndsSentence reports whether the period at i closes a sentence
func periodEndsSentence(runes []rune, i int) bool {
	// the word before the period, dots included so "e.g." is one word
	start := i
	for start > 0 && (unicode.IsLetter(runes[start-1]) || runes[start-1] == '.') {
		start--
	}
	if start == i {
		return true
	}
	word := runes[start:i]
	if len(word) == 1 && unicode.IsUpper(word[0]) {
		return false
	}
	return !abbreviations[strings.ToLower(string(runes[start:i+1]))]
}

// paragraphs splits on blank lines and drops empty parts
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// snippetSentences splits on runs of sentence punctuation and newlines
func snippetSentences(text string) []string {
	return sentenceBreak.Split(text, -1)
}
