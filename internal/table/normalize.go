package table

import (
	"regexp"
	"strconv"
	"strings"
)

// Spreadsheet exports store some special characters as XML entities,
// e.g. "_x0032_025" for "2025" and "_x0031_5-24_x0020_år" for "15-24 år".
var xmlEntityRe = regexp.MustCompile(`_x([0-9A-Fa-f]{4})_`)

// DecodeXMLEntities replaces "_xHHHH_" escapes with the corresponding
// Unicode character.
func DecodeXMLEntities(s string) string {
	if !strings.Contains(s, "_x") {
		return s
	}
	return xmlEntityRe.ReplaceAllStringFunc(s, func(m string) string {
		code, err := strconv.ParseUint(m[2:6], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(code))
	})
}

// NormalizeWhitespace collapses repeated whitespace and removes the space
// before a hyphen that age-group labels pick up on export ("60 -74" → "60-74").
func NormalizeWhitespace(s string) string {
	normalized := strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(normalized, " -", "-")
}

// CleanText applies entity decoding and whitespace normalization in one pass.
// Providers run this over every text value at load time so the inference
// stages compare like with like.
func CleanText(s string) string {
	return NormalizeWhitespace(DecodeXMLEntities(s))
}
