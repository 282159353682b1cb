package services

import (
	"strings"
	"unicode"

	"github.com/ugel06/registry/types"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lowercases value and strips combining marks, so "María" and
// "maria" compare equal.
func fold(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func filterInstitutions(institutions []types.Institution, term string) []types.Institution {
	term = fold(term)
	if term == "" {
		return institutions
	}

	matched := make([]types.Institution, 0, len(institutions))
	for _, institution := range institutions {
		if matchesInstitution(institution, term) {
			matched = append(matched, institution)
		}
	}
	return matched
}

func matchesInstitution(institution types.Institution, foldedTerm string) bool {
	for _, field := range []string{
		institution.Name,
		institution.DirectorName,
		institution.NationalID,
		institution.Phone,
		institution.Email,
	} {
		if strings.Contains(fold(field), foldedTerm) {
			return true
		}
	}
	return false
}
