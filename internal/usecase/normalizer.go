package usecase

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex patterns for performance
var (
	multiplySignRegex           = regexp.MustCompile(`[×✕*]`)
	nonAlphanumericOrSpaceRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	digitLetterRegex            = regexp.MustCompile(`(\d)([a-z])`)
	letterDigitRegex            = regexp.MustCompile(`([a-z])(\d)`)
	whitespaceRunRegex          = regexp.MustCompile(`\s+`)
)

// unitRewrites standardizes unit and quantity abbreviations. Applied to
// whole tokens only, after digit/letter boundaries have been split, so
// "500gr" has already become "500 gr" by the time the rewrite runs.
var unitRewrites = map[string]string{
	"gr":   "g",     // grams
	"lt":   "l",     // liters
	"adet": "ad",    // piece/count
	"pkt":  "paket", // package
}

// stopTokens are brand/legal suffixes that carry no matching signal.
// "gida" covers "gıda" after diacritic folding.
var stopTokens = map[string]bool{
	"inc":    true,
	"ltd":    true,
	"co":     true,
	"gida":   true,
	"market": true,
}

// asciiFold decomposes accented characters and strips the combining marks,
// leaving the closest ASCII base form (ç→c, ö→o, ş→s, ü→u, ğ→g).
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// dotlessFold handles the Turkish dotless ı, which has no Unicode
// decomposition and would otherwise survive the ASCII fold.
var dotlessFold = strings.NewReplacer("ı", "i", "İ", "i")

// NormalizeName turns a raw product name into its canonical token string:
// lowercased, diacritic-folded, unit-standardized, digit/letter boundaries
// split, stop tokens removed, and finally the tokens sorted alphabetically.
// The token sort makes word order irrelevant for equivalence, so
// "süt 1 litre" and "1 litre süt" normalize identically.
//
// Returns ok=false when the input is blank or nothing survives cleanup.
// The function is pure, deterministic, and idempotent.
func NormalizeName(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}

	// Case folding with Turkish dotted/dotless I semantics
	name := strings.ToLowerSpecial(unicode.TurkishCase, raw)

	// Fold diacritics to their ASCII base form
	name = dotlessFold.Replace(name)
	if folded, _, err := transform.String(asciiFold, name); err == nil {
		name = folded
	}

	// Standardize multiplication sign variants before the charset filter
	// drops them ("2×500" and "2x500" must normalize identically)
	name = multiplySignRegex.ReplaceAllString(name, "x")

	// Drop everything outside [a-z0-9 ]
	name = nonAlphanumericOrSpaceRegex.ReplaceAllString(name, "")

	// Insert a space at digit/letter boundaries: "500ml" -> "500 ml",
	// "2x500ml" -> "2 x 500 ml" (the two passes compose)
	name = digitLetterRegex.ReplaceAllString(name, "$1 $2")
	name = letterDigitRegex.ReplaceAllString(name, "$1 $2")

	// Token-level unit rewrites and stop token removal
	tokens := strings.Fields(name)
	kept := tokens[:0]
	for _, token := range tokens {
		if rewritten, ok := unitRewrites[token]; ok {
			token = rewritten
		}
		if stopTokens[token] {
			continue
		}
		kept = append(kept, token)
	}

	if len(kept) == 0 {
		return "", false
	}

	// Sort tokens for order-insensitive equivalence
	sort.Strings(kept)

	return strings.Join(kept, " "), true
}

// collapseWhitespace squeezes whitespace runs into single spaces.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRunRegex.ReplaceAllString(s, " "))
}
