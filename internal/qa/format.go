package qa

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money renders an amount as $#,###.##
func Money(amount float64) string {
	// a Printer is not safe for concurrent use
	p := message.NewPrinter(language.English)
	if amount < 0 {
		return "-$" + p.Sprintf("%.2f", -amount)
	}
	return "$" + p.Sprintf("%.2f", amount)
}
