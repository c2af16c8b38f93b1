// Package normalize canonicalizes free-text company names into comparable
// token strings.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes lists business-entity terms stripped from the end of a name.
// Terms are in their post-punctuation form ("S.A." becomes "sa") and are
// matched as whole trailing tokens, longest first.
var legalSuffixes = [][]string{
	{"gmbh", "co", "kg"},
	{"sdn", "bhd"},
	{"pty", "ltd"},
	{"pte", "ltd"},
	{"co", "ltd"},
	{"s", "a"},
	{"n", "v"},
	{"b", "v"},
	{"incorporated"},
	{"corporation"},
	{"company"},
	{"limited"},
	{"gmbh"},
	{"mbh"},
	{"sarl"},
	{"corp"},
	{"pllc"},
	{"inc"},
	{"ltd"},
	{"llc"},
	{"llp"},
	{"plc"},
	{"oyj"},
	{"spa"},
	{"srl"},
	{"asa"},
	{"bhd"},
	{"pty"},
	{"ag"},
	{"kg"},
	{"sa"},
	{"se"},
	{"nv"},
	{"bv"},
	{"ab"},
	{"as"},
	{"oy"},
	{"kk"},
	{"lp"},
	{"co"},
}

// stopwords are generic corporate words removed anywhere in the name.
var stopwords = map[string]struct{}{
	"holding":       {},
	"holdings":      {},
	"co":            {},
	"se":            {},
	"ua":            {},
	"corporation":   {},
	"international": {},
	"group":         {},
	"groep":         {},
	"investments":   {},
	"acquisition":   {},
}

var punctRe = regexp.MustCompile(`[^\w\s]`)

// Name standardizes a company name for matching by:
//  1. Lowercasing
//  2. Transliterating to ASCII (diacritics decomposed, other non-ASCII dropped)
//  3. Stripping punctuation
//  4. Removing trailing legal-entity suffixes (Inc, GmbH, Ltd, ...)
//  5. Removing generic corporate words (holding, group, ...) anywhere
//
// Steps 4 and 5 repeat until neither removes a token, so Name is idempotent.
// The result may be empty.
func Name(raw string) string {
	s := strings.ToLower(raw)
	s = strings.ToLower(ASCII(s))
	s = punctRe.ReplaceAllString(s, "")

	tokens := strings.Fields(s)
	for {
		n := len(tokens)
		tokens = trimLegalSuffixes(tokens)
		tokens = dropStopwords(tokens)
		if len(tokens) == n {
			break
		}
	}
	return strings.Join(tokens, " ")
}

// ASCII decomposes s (NFKD), drops combining marks and removes any rune
// outside the ASCII range.
func ASCII(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		// The chain only removes runes; fall back to a plain filter.
		var sb strings.Builder
		for _, r := range s {
			if r <= unicode.MaxASCII {
				sb.WriteRune(r)
			}
		}
		return sb.String()
	}
	return out
}

func trimLegalSuffixes(tokens []string) []string {
	for {
		matched := false
		for _, term := range legalSuffixes {
			if hasTokenSuffix(tokens, term) {
				tokens = tokens[:len(tokens)-len(term)]
				matched = true
				break
			}
		}
		if !matched {
			return tokens
		}
	}
}

func hasTokenSuffix(tokens, term []string) bool {
	if len(term) > len(tokens) {
		return false
	}
	tail := tokens[len(tokens)-len(term):]
	for i := range term {
		if tail[i] != term[i] {
			return false
		}
	}
	return true
}

func dropStopwords(tokens []string) []string {
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, ok := stopwords[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}
