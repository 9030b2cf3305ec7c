// Package natsort produces comparison keys for filenames so that series
// and volume listings sort in human-expected order instead of
// byte-lexicographic order.
//
// Two key flavors are provided. NaturalKey treats embedded digit runs as
// numbers, so "vol2.pdf" sorts before "vol10.pdf". LocaleKey additionally
// understands Japanese kana: names without digits are ordered by the
// standard gojuon table, with hiragana and katakana forms of the same
// sound treated as equal.
//
// Keys are plain strings whose ordinary comparison reproduces the intended
// order, which makes them suitable for precomputed database sort columns.
package natsort

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// numWidth is the zero-padded width of encoded digit runs. Runs longer
// than this compare lexically, which never happens for real filenames.
const numWidth = 20

// NaturalKey returns a sort key for s where digit runs compare by numeric
// value and text runs compare case-insensitively. Pure and deterministic;
// the empty string maps to itself.
func NaturalKey(s string) string {
	var b strings.Builder
	b.Grow(len(s) + numWidth)

	runes := []rune(s)
	i := 0
	for i < len(runes) {
		if isASCIIDigit(runes[i]) {
			j := i
			for j < len(runes) && isASCIIDigit(runes[j]) {
				j++
			}
			writeNumber(&b, string(runes[i:j]))
			i = j
			continue
		}
		j := i
		for j < len(runes) && !isASCIIDigit(runes[j]) {
			j++
		}
		b.WriteString(strings.ToLower(string(runes[i:j])))
		i = j
	}
	return b.String()
}

// LocaleKey returns a kana-aware sort key for s. The input is first
// compatibility-normalized (NFKC) and lower-cased. Names containing any
// digit fall back entirely to NaturalKey: mixed numeric/kana names are
// numeric-dominant. Otherwise each kana rune maps to its gojuon bucket
// and every other rune passes through unchanged.
func LocaleKey(s string) string {
	folded := strings.ToLower(norm.NFKC.String(s))

	if strings.ContainsFunc(folded, unicode.IsDigit) {
		return NaturalKey(folded)
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if frag, ok := kanaBuckets[r]; ok {
			b.WriteString(frag)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NaturalLess reports whether a orders before b under natural comparison.
func NaturalLess(a, b string) bool {
	return NaturalKey(a) < NaturalKey(b)
}

// LocaleLess reports whether a orders before b under kana-aware comparison.
func LocaleLess(a, b string) bool {
	return LocaleKey(a) < LocaleKey(b)
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// writeNumber encodes a digit run as a fixed-width zero-padded component.
// Leading zeros are dropped first so "002" and "2" produce the same key.
func writeNumber(b *strings.Builder, digits string) {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	if len(trimmed) >= numWidth {
		b.WriteString(trimmed)
		return
	}
	for i := len(trimmed); i < numWidth; i++ {
		b.WriteByte('0')
	}
	b.WriteString(trimmed)
}
