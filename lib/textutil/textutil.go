package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// FuzzyMatchName is MatchName with an edit-distance tolerance, for link
// labels that providers reword slightly ("View Reports", "Credit-Report").
// A matcher is considered hit when it appears as a substring or when the
// whole normalized name is within `tolerance` edits of it.
func FuzzyMatchName(name string, matchers []string, tolerance int) bool {
	if MatchName(name, matchers) {
		return true
	}
	normalized := NormalizeName(name)
	for _, m := range matchers {
		if matchr.Levenshtein(normalized, m) <= tolerance {
			return true
		}
	}
	return false
}
