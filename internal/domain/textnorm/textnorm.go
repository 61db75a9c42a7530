// Package textnorm canonicalizes Latin and Arabic text so that case,
// diacritics, letter variants and digit scripts compare deterministically.
package textnorm

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// MinWordLength is the shortest word (in runes) that takes part in search.
const MinWordLength = 2

// letterVariants folds Arabic letter variants onto one canonical letter.
var letterVariants = map[rune]rune{
	'آ': 'ا', // alef with madda
	'أ': 'ا', // alef with hamza above
	'إ': 'ا', // alef with hamza below
	'ٱ': 'ا', // alef wasla
	'ى': 'ي', // alef maksura
	'ی': 'ي', // farsi yeh
	'ئ': 'ي', // yeh with hamza
	'ؤ': 'و', // waw with hamza
	'ة': 'ه', // ta marbuta
}

// stripped reports runes dropped entirely: standalone hamza, harakat,
// superscript alef and tatweel.
func stripped(r rune) bool {
	switch {
	case r == '\u0621', r == '\u0640', r == '\u0670':
		return true
	case r >= '\u064B' && r <= '\u065F':
		return true
	}
	return false
}

func foldLetter(r rune) rune {
	if v, ok := letterVariants[r]; ok {
		return v
	}
	return r
}

// NormalizeText lower-cases text, folds Arabic letter variants, removes
// diacritics and collapses whitespace runs into single spaces.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	// Casers and transform chains keep internal state, so they are built per call.
	lower := cases.Lower(language.Und).String(text)
	t := transform.Chain(runes.Map(foldLetter), runes.Remove(runes.Predicate(stripped)))
	out, _, err := transform.String(t, lower)
	if err != nil {
		out = lower
	}
	return strings.Join(strings.Fields(out), " ")
}

// NormalizeNumbers maps Arabic-Indic and Extended Arabic-Indic digits to ASCII.
func NormalizeNumbers(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, text)
}

// Normalize applies NormalizeNumbers then NormalizeText.
func Normalize(text string) string {
	return NormalizeText(NormalizeNumbers(text))
}

// Words returns the normalized words of text that are at least
// MinWordLength runes long. Shorter words are dropped.
func Words(text string) []string {
	fields := strings.Fields(Normalize(text))
	words := fields[:0]
	for _, w := range fields {
		if utf8.RuneCountInString(w) >= MinWordLength {
			words = append(words, w)
		}
	}
	return words
}
