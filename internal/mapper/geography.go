package mapper

import "strings"

// Domain is the statistical domain a table belongs to, derived from the
// table-code prefix. The domain disambiguates geographic columns: an
// employment table's municipality column means workplace, a population
// table's means residence.
type Domain string

const (
	DomainUnknown    Domain = ""
	DomainPopulation Domain = "befolkning"
	DomainEmployment Domain = "sysselsetting"
	DomainEducation  Domain = "utdanning"
	DomainIndustry   Domain = "næring"
	DomainElection   Domain = "valg"
)

// DomainFromTableCode maps a table code like "OK-SYS001" to its domain.
func DomainFromTableCode(code string) Domain {
	switch {
	case strings.HasPrefix(code, "OK-BEF"):
		return DomainPopulation
	case strings.HasPrefix(code, "OK-SYS"):
		return DomainEmployment
	case strings.HasPrefix(code, "OK-UTD"):
		return DomainEducation
	case strings.HasPrefix(code, "OK-NAE"):
		return DomainIndustry
	case strings.HasPrefix(code, "OK-VAL"):
		return DomainElection
	default:
		return DomainUnknown
	}
}

// GeoSuggestion is a role-disambiguated canonical naming proposal for a
// geographic input column.
type GeoSuggestion struct {
	CodeColumn  string
	LabelColumn string
	Reasoning   []string
}

var workTokens = []string{"arb", "arbeid", "work", "job", "sysselset"}
var homeTokens = []string{"bo", "bost", "home", "resident", "bosatt"}

// LooksGeographic reports whether a column name reads as a geographic unit.
func LooksGeographic(name string) bool {
	lower := strings.ToLower(name)
	for _, token := range []string{"krets", "delbydel", "bydel", "geografi", "geo", "kommune", "fylke"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// SuggestGeographicColumn proposes canonical code and label column names for
// a geographic input column, disambiguated by level and by role (workplace
// vs residence) using the column name and the table's domain.
func SuggestGeographicColumn(inputColumn string, domain Domain) GeoSuggestion {
	lower := strings.ToLower(inputColumn)

	isWork := containsAny(lower, workTokens)
	isHome := containsAny(lower, homeTokens)
	isGrunnkrets := strings.Contains(lower, "krets") || strings.Contains(lower, "gkrets")
	isDelbydel := strings.Contains(lower, "delbydel")
	isBydel := strings.Contains(lower, "bydel") && !isDelbydel

	var s GeoSuggestion
	switch {
	case isGrunnkrets:
		s.CodeColumn, s.LabelColumn = "grunnkrets_", "grunnkrets"
		s.Reasoning = append(s.Reasoning, "basic statistical unit level detected from column name")
	case isDelbydel:
		s.CodeColumn, s.LabelColumn = "delbydel_", "delbydel"
		s.Reasoning = append(s.Reasoning, "sub-district level detected from column name")
	case isWork:
		s.CodeColumn, s.LabelColumn = "arbeidssted_", "arbeidssted"
		s.Reasoning = append(s.Reasoning, "workplace detected from column name")
	case isHome || domain == DomainPopulation || domain == DomainElection:
		s.CodeColumn, s.LabelColumn = "bosted_", "bosted"
		if isHome {
			s.Reasoning = append(s.Reasoning, "residence detected from column name")
		}
		if domain == DomainPopulation || domain == DomainElection {
			s.Reasoning = append(s.Reasoning, "domain '"+string(domain)+"' implies residence data")
		}
	case isBydel:
		s.CodeColumn, s.LabelColumn = "bydel_", "bydel"
		s.Reasoning = append(s.Reasoning, "district level, domain does not imply residence")
	default:
		s.CodeColumn, s.LabelColumn = "geografi_", "geografi"
		s.Reasoning = append(s.Reasoning, "generic geographic column")
	}
	return s
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
