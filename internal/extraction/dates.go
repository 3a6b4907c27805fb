package extraction

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; month-first wins over day-first
var dateLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
	"2006-1-2",
	"2006/1/2",
	"2/1/2006",
	"2-1-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// NormalizeDate parses s with the known layouts and returns it as YYYY-MM-DD
func NormalizeDate(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}
