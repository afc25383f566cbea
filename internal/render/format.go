package render

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Currency formats v as Colombian pesos: "$" prefix, "." thousands
// separator, "," before decimals, which are shown only when non-zero (at
// most two). 3000000 -> "$3.000.000", -1234.5 -> "-$1.234,5".
func Currency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	cents := int64(math.Round(math.Abs(v) * 100))
	neg := v < 0 && cents != 0

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	b.WriteString(groupThousands(strconv.FormatInt(cents/100, 10)))

	if rem := cents % 100; rem != 0 {
		frac := strconv.FormatInt(rem, 10)
		if rem < 10 {
			frac = "0" + frac
		}
		b.WriteByte(',')
		b.WriteString(strings.TrimRight(frac, "0"))
	}
	return b.String()
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Percent prints the shortest decimal form followed by "%": 50 -> "50%".
func Percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// dateLayouts are the shapes the finance API has been seen to send.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

// Date renders an API date as d/m/yyyy. Values in no known layout are
// returned unchanged.
func Date(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return strconv.Itoa(t.Day()) + "/" + strconv.Itoa(int(t.Month())) + "/" + strconv.Itoa(t.Year())
		}
	}
	return s
}
