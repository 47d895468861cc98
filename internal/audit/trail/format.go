package trail

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dateLayouts are tried in order when rendering stored dates.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, time.DateOnly}

// formatDate renders an ISO date as "2 Jan 2025". Anything unparseable is
// returned unchanged.
func formatDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2 Jan 2006")
		}
	}
	return s
}

// titleWords turns "general_trustee" or "paymentMode" into "General Trustee"
// and "Payment Mode".
func titleWords(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ':
			b.WriteRune(' ')
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return cases.Title(language.English).String(strings.Join(strings.Fields(b.String()), " "))
}

// jsonText renders v as compact JSON for generic diffs.
func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(b)
}

// plainText stringifies a loosely decoded JSON value for the timeline.
// Objects and arrays become JSON; everything else is printed as-is.
func plainText(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return jsonText(v)
	}
}
