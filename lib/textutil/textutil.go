package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var separatorRegex = regexp.MustCompile(`[\s'’\-_.]+`)

var stripAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName lowercases name, strips accents and removes whitespace and
// punctuation separators so that "Les P'Tits Cag" and "LES PTITS CAG" compare
// equal.
func NormalizeName(name string) string {
	stripped, _, err := transform.String(stripAccents, name)
	if err == nil {
		name = stripped
	}
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = separatorRegex.ReplaceAllString(name, "")
	return name
}

// MatchName returns true if the normalized name contains one of the
// normalized matchers.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		m = NormalizeName(m)
		if m == "" {
			continue
		}
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
