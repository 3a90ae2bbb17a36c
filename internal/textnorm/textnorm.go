// Package textnorm canonicalizes raw chat text before parsing. Normalize is
// the total, I/O-free entry point of the pipeline; Fold is the heavier,
// matching-only canonicalization used by the contact resolver.
package textnorm

import (
	"strings"
	"unicode"
)

// digitFold maps Arabic-Indic (U+0660..U+0669) and Extended Arabic-Indic
// (U+06F0..U+06F9) digits to their ASCII counterparts.
var digitFold = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
}

// Normalize replaces localized digit glyphs with ASCII digits and trims
// surrounding whitespace. Everything else passes through unchanged.
func Normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if d, ok := digitFold[r]; ok {
			return d
		}
		return r
	}, text)
	return strings.TrimSpace(mapped)
}

// letterFold unifies Arabic letter variants that spell the same name:
// hamza-carrying alef forms, taa marbuta and alef maqsura.
var letterFold = map[rune]rune{
	'أ': 'ا', 'إ': 'ا', 'آ': 'ا', 'ٱ': 'ا',
	'ة': 'ه',
	'ى': 'ي',
	'ؤ': 'و',
	'ئ': 'ي',
}

// Fold canonicalizes text for fuzzy matching: digits to ASCII, letters
// lower-cased, Arabic diacritics and tatweel removed, letter variants
// unified, punctuation dropped, whitespace collapsed to single spaces.
// Folded text is for comparison only and is never stored.
func Fold(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case r >= 0x064B && r <= 0x0652: // tashkeel
			continue
		case r == 0x0640: // tatweel
			continue
		}
		if d, ok := digitFold[r]; ok {
			r = d
		}
		if l, ok := letterFold[r]; ok {
			r = l
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
