package natsort

import "fmt"

// kanaOrder lists kana in gojuon order, one group per sort bucket. Rows
// follow a<k<s<t<n<h<m<y<r<w with voiced and semi-voiced variants placed
// immediately after their unvoiced base. Small kana share the bucket of
// their full-size counterpart, a deliberate simplification carried over
// from the original ordering table. Only hiragana appear here; katakana
// forms are derived by codepoint offset so both scripts land in the same
// bucket.
var kanaOrder = [][]rune{
	{'ぁ', 'あ'},
	{'ぃ', 'い'},
	{'ぅ', 'う'},
	{'ゔ'},
	{'ぇ', 'え'},
	{'ぉ', 'お'},
	{'か'},
	{'が'},
	{'き'},
	{'ぎ'},
	{'く'},
	{'ぐ'},
	{'け'},
	{'げ'},
	{'こ'},
	{'ご'},
	{'さ'},
	{'ざ'},
	{'し'},
	{'じ'},
	{'す'},
	{'ず'},
	{'せ'},
	{'ぜ'},
	{'そ'},
	{'ぞ'},
	{'た'},
	{'だ'},
	{'ち'},
	{'ぢ'},
	{'っ', 'つ'},
	{'づ'},
	{'て'},
	{'で'},
	{'と'},
	{'ど'},
	{'な'},
	{'に'},
	{'ぬ'},
	{'ね'},
	{'の'},
	{'は'},
	{'ば'},
	{'ぱ'},
	{'ひ'},
	{'び'},
	{'ぴ'},
	{'ふ'},
	{'ぶ'},
	{'ぷ'},
	{'へ'},
	{'べ'},
	{'ぺ'},
	{'ほ'},
	{'ぼ'},
	{'ぽ'},
	{'ま'},
	{'み'},
	{'む'},
	{'め'},
	{'も'},
	{'ゃ', 'や'},
	{'ゅ', 'ゆ'},
	{'ょ', 'よ'},
	{'ら'},
	{'り'},
	{'る'},
	{'れ'},
	{'ろ'},
	{'ゎ', 'わ'},
	{'ゐ'},
	{'ゑ'},
	{'を'},
	{'ん'},
}

// hiragana U+3041..U+3096 maps to katakana U+30A1..U+30F6 by this offset.
const katakanaOffset = 0x60

// kanaBuckets maps every kana rune to its bucket fragment. Fragments are
// two-digit decimal strings, so plain string comparison of concatenated
// fragments reproduces gojuon order.
var kanaBuckets = buildKanaBuckets()

func buildKanaBuckets() map[rune]string {
	m := make(map[rune]string, len(kanaOrder)*4)
	for i, group := range kanaOrder {
		frag := fmt.Sprintf("%02d", i)
		for _, r := range group {
			m[r] = frag
			m[r+katakanaOffset] = frag
		}
	}
	// Small ka/ke exist only in katakana.
	m['ヵ'] = m['か']
	m['ヶ'] = m['け']
	return m
}
