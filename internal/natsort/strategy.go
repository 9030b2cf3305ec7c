package natsort

import (
	"sort"
	"strings"
)

// Strategy IDs, stable across releases since they appear in config.
const (
	SortNatural = 0 // digit runs compare numerically
	SortLocale  = 1 // kana-aware, numeric-dominant fallback
	SortLexical = 2 // plain case-folded string order
)

// Strategy sorts a slice of names into display order. Implementations
// must not modify the input slice.
type Strategy interface {
	// Sort returns the names in display order, leaving the input intact.
	Sort(names []string) []string
	// Name returns a human-readable strategy name.
	Name() string
	// ID returns the stable strategy identifier.
	ID() int
}

type keyStrategy struct {
	name string
	id   int
	key  func(string) string
}

func (s *keyStrategy) Sort(names []string) []string {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool {
		return s.key(sorted[i]) < s.key(sorted[j])
	})
	return sorted
}

func (s *keyStrategy) Name() string { return s.name }

func (s *keyStrategy) ID() int { return s.id }

// GetStrategy returns the strategy for the given ID, defaulting to
// natural sort for unknown IDs.
func GetStrategy(id int) Strategy {
	switch id {
	case SortLocale:
		return &keyStrategy{name: "locale", id: SortLocale, key: LocaleKey}
	case SortLexical:
		return &keyStrategy{name: "lexical", id: SortLexical, key: lexicalKey}
	default:
		return &keyStrategy{name: "natural", id: SortNatural, key: NaturalKey}
	}
}

// StrategyByName returns the strategy named by s ("natural", "locale",
// "lexical"), defaulting to natural sort for unknown names.
func StrategyByName(s string) Strategy {
	switch s {
	case "locale":
		return GetStrategy(SortLocale)
	case "lexical":
		return GetStrategy(SortLexical)
	default:
		return GetStrategy(SortNatural)
	}
}

func lexicalKey(s string) string {
	return strings.ToLower(s)
}
