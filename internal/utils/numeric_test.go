package utils

import (
	"math"
	"testing"
)

func TestExtractDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{
			name:  "Plain number",
			input: "120.5",
			want:  120.5,
			ok:    true,
		},
		{
			name:  "Number with unit",
			input: "120.5 m²",
			want:  120.5,
			ok:    true,
		},
		{
			name:  "Comma decimal separator",
			input: "80,25",
			want:  80.25,
			ok:    true,
		},
		{
			name:  "Comma separator with unit",
			input: "80,25 m2",
			want:  80.25,
			ok:    true,
		},
		{
			name:  "Negative number",
			input: "-3.5",
			want:  -3.5,
			ok:    true,
		},
		{
			name:  "Integer",
			input: "42",
			want:  42,
			ok:    true,
		},
		{
			name:  "First number wins",
			input: "between 10.5 and 20.5",
			want:  10.5,
			ok:    true,
		},
		{
			name:  "No number",
			input: "not a number",
			ok:    false,
		},
		{
			name:  "Empty string",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractDecimal(tt.input)
			if ok != tt.ok {
				t.Fatalf("ExtractDecimal(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ExtractDecimal(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
