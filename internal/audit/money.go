package audit

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var rupeeLocale = language.MustParse("en-IN")

// Amount is a monetary value in rupees. It decodes from a JSON number or a
// numeric string, since NUMERIC columns have been serialized both ways.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse amount %s: %w", b, err)
	}
	*a = Amount(f)
	return nil
}

// String formats the amount as rupees with Indian digit grouping.
func (a Amount) String() string {
	return FormatRupees(float64(a))
}

// FormatRupees renders v as "₹1,500" or "₹99.5".
func FormatRupees(v float64) string {
	p := message.NewPrinter(rupeeLocale)
	return "₹" + p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
}
