package table

import (
	"strconv"
	"strings"
)

// InferKind picks the narrowest kind that fits every non-empty sample:
// Integer ⊂ Real ⊂ Text.
func InferKind(samples []string) Kind {
	kind := Integer
	seen := false
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seen = true
		if kind == Integer {
			if _, err := strconv.ParseInt(s, 10, 64); err == nil {
				continue
			}
			kind = Real
		}
		if kind == Real {
			if _, err := strconv.ParseFloat(normalizeDecimal(s), 64); err == nil {
				continue
			}
			kind = Text
		}
		if kind == Text {
			break
		}
	}
	if !seen {
		return Text
	}
	return kind
}

// ParseValue parses a raw string into a Value of the given kind. Empty
// strings become missing values; unparseable numbers do too, rather than
// silently coercing to zero.
func ParseValue(raw string, kind Kind) Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Missing(kind)
	}
	switch kind {
	case Integer:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Missing(kind)
		}
		return Int(i)
	case Real:
		f, err := strconv.ParseFloat(normalizeDecimal(raw), 64)
		if err != nil {
			return Missing(kind)
		}
		return Float(f)
	default:
		return String(CleanText(raw))
	}
}

// Norwegian extracts use comma as the decimal separator.
func normalizeDecimal(s string) string {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}
