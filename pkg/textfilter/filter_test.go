package textfilter

import (
	"testing"

	"github.com/jwebster45206/gatekeeper/pkg/gm"
)

func TestInjectionFilter_Apply(t *testing.T) {
	filter := NewInjectionFilter()

	tests := []struct {
		name     string
		input    string
		rating   string
		expected string
	}{
		{
			name:     "softens at PG",
			input:    "What the hell is he hiding?",
			rating:   gm.RatingPG,
			expected: "What the heck is he hiding?",
		},
		{
			name:     "passes through at R",
			input:    "What the hell is he hiding?",
			rating:   gm.RatingR,
			expected: "What the hell is he hiding?",
		},
		{
			name:     "preserves uppercase",
			input:    "DAMN the storm",
			rating:   gm.RatingG,
			expected: "DANG the storm",
		},
		{
			name:     "preserves title case",
			input:    "Hell waits below",
			rating:   gm.RatingPG13,
			expected: "Heck waits below",
		},
		{
			name:     "word boundaries respected",
			input:    "a classical assassination plot",
			rating:   gm.RatingPG,
			expected: "a classical assassination plot",
		},
		{
			name:     "multiple words",
			input:    "this damn crap again",
			rating:   gm.RatingPG,
			expected: "this dang crud again",
		},
		{
			name:     "empty input",
			input:    "",
			rating:   gm.RatingG,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Apply(tt.input, tt.rating)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestShouldFilter(t *testing.T) {
	tests := []struct {
		rating   string
		expected bool
	}{
		{gm.RatingG, true},
		{gm.RatingPG, true},
		{gm.RatingPG13, true},
		{"pg13", true},
		{" pg-13 ", true},
		{gm.RatingR, false},
		{"", false},
		{"NC-17", false},
	}

	for _, tt := range tests {
		if got := ShouldFilter(tt.rating); got != tt.expected {
			t.Errorf("ShouldFilter(%q) = %v, expected %v", tt.rating, got, tt.expected)
		}
	}
}
