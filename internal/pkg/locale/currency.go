// internal/pkg/locale/currency.go
package locale

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

// Currency describes how an amount is displayed for one currency code.
// Pattern contains {symbol} and {value}; value is formatted with two
// decimals and comma thousands separators.
type Currency struct {
	Code    string
	Name    string
	Symbol  string
	Pattern string
}

// SupportedCurrencies in display order.
var SupportedCurrencies = []string{"USD", "EUR", "MXN", "MDH"}

var currencies = map[string]Currency{
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$", Pattern: "{symbol}{value}"},
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€", Pattern: "{value} {symbol}"},
	"MXN": {Code: "MXN", Name: "Peso mexicano", Symbol: "$", Pattern: "{symbol}{value} MXN"},
	"MDH": {Code: "MDH", Name: "Moroccan Dirham", Symbol: "د.م.", Pattern: "{value} {symbol}"},
}

// LookupCurrency returns the currency for code, or USD when unknown.
func LookupCurrency(code string) Currency {
	if c, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c
	}
	return currencies[DefaultCurrency]
}

// IsSupportedCurrency reports whether code is a known currency.
func IsSupportedCurrency(code string) bool {
	_, ok := currencies[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Format renders amount rounded to two places, e.g. "$1,234.50".
func (c Currency) Format(amount decimal.Decimal) string {
	return strings.NewReplacer("{symbol}", c.Symbol, "{value}", groupThousands(amount.StringFixed(2))).
		Replace(c.Pattern)
}

// Display returns "{code} • {name}".
func (c Currency) Display() string {
	return c.Code + " • " + c.Name
}

// ParseAmount reads a money amount as printed on spreadsheets and price
// lists, ignoring currency symbols, codes and thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no amount in %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
