// Package names turns noisy display names into structured names and derives
// username candidates from them.
package names

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// StructuredName is a display name reduced to first, optional second and last
// tokens. First and Last are never empty on a value returned by Canonicalize.
type StructuredName struct {
	First  string
	Second string
	Last   string
}

var accentFolder = strings.NewReplacer(
	"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a",
	"è", "e", "é", "e", "ê", "e", "ë", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i",
	"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o",
	"ù", "u", "ú", "u", "û", "u", "ü", "u",
	"ý", "y", "ÿ", "y",
	"ß", "ss",
	"ñ", "n",
)

var (
	parenthesized   = regexp.MustCompile(`\([^()]*\)`)
	disallowedChars = regexp.MustCompile(`[^a-z -]`)
	titles          = regexp.MustCompile(`\b(mr|miss|mrs|phd|prof|professor|md|dr|mba)\b`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	tokenSeparator  = regexp.MustCompile(`[\s-]+`)
)

// Clean lower-cases and folds a raw display name down to letters, spaces and
// hyphens, dropping parenthesized text and honorifics.
func Clean(raw string) string {
	name := strings.ToLower(norm.NFC.String(raw))
	name = accentFolder.Replace(name)
	name = parenthesized.ReplaceAllString(name, "")
	name = disallowedChars.ReplaceAllString(name, "")
	name = titles.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Canonicalize structures a raw display name. The boolean is false when the
// name has fewer than two usable tokens.
func Canonicalize(raw string) (StructuredName, bool) {
	var tokens []string
	for _, tok := range tokenSeparator.Split(Clean(raw), -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) < 2 {
		return StructuredName{}, false
	}

	n := StructuredName{First: tokens[0], Last: tokens[len(tokens)-1]}
	if len(tokens) > 2 {
		// middle and maiden names usually sit right before the surname
		n.Second = tokens[len(tokens)-2]
	}
	if n.First == "" || n.Last == "" {
		return StructuredName{}, false
	}
	return n, true
}
