package stats

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// minimumGrouping lists languages whose numbers only get a grouping
// separator from five integer digits on, so 9000 stays "9000".
var minimumGrouping = map[string]int{
	"hu": 2,
	"es": 2,
	"pl": 2,
}

// Formatter renders amounts with the digit grouping of a locale.
type Formatter struct {
	p           *message.Printer
	minGrouping int
}

func NewFormatter(lang string) Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Hungarian
	}
	base, _ := tag.Base()
	return Formatter{p: message.NewPrinter(tag), minGrouping: minimumGrouping[base.String()]}
}

// Amount keeps up to three fraction digits and appends the currency sign.
func (f Formatter) Amount(v float64) string {
	opts := []number.Option{number.MaxFractionDigits(3)}
	if f.minGrouping > 1 && math.Abs(v) < math.Pow10(2+f.minGrouping) {
		opts = append(opts, number.NoSeparator())
	}
	return f.p.Sprintf("%v$", number.Decimal(v, opts...))
}
