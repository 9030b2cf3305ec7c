package pdfrender

import (
	"math"
	"testing"
)

func TestFitScale(t *testing.T) {
	tests := []struct {
		name     string
		viewW    int
		viewH    int
		pageW    float64
		pageH    float64
		fit      bool
		expected float64
	}{
		{
			name:  "fit tall page to wide viewport",
			viewW: 1920, viewH: 1080,
			pageW: 595, pageH: 842,
			fit:      true,
			expected: float64(1080) / 842 * 0.98,
		},
		{
			name:  "fit wide page to narrow viewport",
			viewW: 600, viewH: 2000,
			pageW: 595, pageH: 842,
			fit:      true,
			expected: float64(600) / 595 * 0.98,
		},
		{
			name:  "fit disabled uses fixed scale",
			viewW: 1920, viewH: 1080,
			pageW: 595, pageH: 842,
			fit:      false,
			expected: DefaultPageScale,
		},
		{
			name:  "degenerate viewport falls back",
			viewW: 0, viewH: 1080,
			pageW: 595, pageH: 842,
			fit:      true,
			expected: DefaultPageScale,
		},
		{
			name:  "degenerate page falls back",
			viewW: 1920, viewH: 1080,
			pageW: 0, pageH: 0,
			fit:      true,
			expected: DefaultPageScale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitScale(tt.viewW, tt.viewH, tt.pageW, tt.pageH, tt.fit)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("FitScale() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScaleToDPI(t *testing.T) {
	tests := []struct {
		scale    float64
		expected int
	}{
		{1.0, 72},
		{1.5, 108},
		{ThumbnailScale, 14},
		{0.001, 1},
	}
	for _, tt := range tests {
		if got := scaleToDPI(tt.scale); got != tt.expected {
			t.Errorf("scaleToDPI(%v) = %d, want %d", tt.scale, got, tt.expected)
		}
	}
}

func TestParsePdfinfo(t *testing.T) {
	out := `Title:          Vol 1
Producer:       ImageMagick
Pages:          180
Encrypted:      no
Page size:      595.28 x 841.89 pts (A4)
File size:      10485760 bytes
`
	pages, w, h := parsePdfinfo(out)
	if pages != 180 {
		t.Errorf("pages = %d, want 180", pages)
	}
	if w != 595.28 || h != 841.89 {
		t.Errorf("page size = %v x %v, want 595.28 x 841.89", w, h)
	}
}

func TestParsePdfinfoEmpty(t *testing.T) {
	pages, w, h := parsePdfinfo("garbage output\nwith no fields")
	if pages != 0 || w != 0 || h != 0 {
		t.Errorf("expected zero values, got %d, %v, %v", pages, w, h)
	}
}
