package natsort

import (
	"reflect"
	"testing"
)

func TestGetStrategy(t *testing.T) {
	tests := []struct {
		id       int
		wantName string
		wantID   int
	}{
		{SortNatural, "natural", SortNatural},
		{SortLocale, "locale", SortLocale},
		{SortLexical, "lexical", SortLexical},
		{99, "natural", SortNatural},
	}
	for _, tt := range tests {
		s := GetStrategy(tt.id)
		if s.Name() != tt.wantName {
			t.Errorf("GetStrategy(%d).Name() = %q, want %q", tt.id, s.Name(), tt.wantName)
		}
		if s.ID() != tt.wantID {
			t.Errorf("GetStrategy(%d).ID() = %d, want %d", tt.id, s.ID(), tt.wantID)
		}
	}
}

func TestStrategyByName(t *testing.T) {
	if StrategyByName("locale").ID() != SortLocale {
		t.Errorf("StrategyByName(locale) wrong strategy")
	}
	if StrategyByName("bogus").ID() != SortNatural {
		t.Errorf("unknown name should default to natural")
	}
}

func TestStrategySort(t *testing.T) {
	s := GetStrategy(SortNatural)

	t.Run("Sort", func(t *testing.T) {
		got := s.Sort([]string{"vol10.pdf", "vol1.pdf", "vol2.pdf"})
		want := []string{"vol1.pdf", "vol2.pdf", "vol10.pdf"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Sort() = %v, want %v", got, want)
		}
	})

	t.Run("ImmutableInput", func(t *testing.T) {
		input := []string{"b", "a"}
		s.Sort(input)
		if !reflect.DeepEqual(input, []string{"b", "a"}) {
			t.Errorf("Sort() modified its input: %v", input)
		}
	})

	t.Run("EmptySlice", func(t *testing.T) {
		if got := s.Sort(nil); len(got) != 0 {
			t.Errorf("Sort(nil) = %v, want empty", got)
		}
	})
}

func TestLexicalStrategy(t *testing.T) {
	got := GetStrategy(SortLexical).Sort([]string{"file10", "file2"})
	// Lexical order ignores numeric value.
	want := []string{"file10", "file2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}
