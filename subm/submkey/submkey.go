// Package submkey derives the duplicate-detection key of a submission.
//
// Two entries with the same student name, surname and guardian phone
// number map to the same key regardless of letter case, surrounding or
// repeated whitespace and phone formatting.
package submkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const Prefix = "subm_"

// Derive is total: empty inputs give empty segments.
//
// Segments are joined with '_' and spaces or punctuation inside a name
// also become '_', so the split between name and surname is lost: name
// "berg" with surname "van der" and name "der berg" with surname "van"
// share a key for the same phone. Such a pair is rejected as a duplicate.
func Derive(name, surname, phone string) string {
	return Prefix + normalizeName(surname) + "_" + normalizeName(name) + "_" + digitsOnly(phone)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName lower-cases with Turkish rules and collapses whitespace,
// without replacing any characters. Admin search uses it too.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	s = cases.Lower(language.Turkish).String(s)
	return strings.Join(strings.Fields(s), " ")
}

func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		if isKeyRune(r) {
			return r
		}
		return '_'
	}, NormalizeName(s))
}

func isKeyRune(r rune) bool {
	if r < unicode.MaxASCII {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	switch r {
	case 'ç', 'ğ', 'ı', 'ö', 'ş', 'ü', 'Ç', 'Ğ', 'İ', 'Ö', 'Ş', 'Ü':
		return true
	}
	return false
}
