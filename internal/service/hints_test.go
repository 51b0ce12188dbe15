package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchCategoryHint(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "Vietnamese door",
			question: "Có bao nhiêu cửa?",
			want:     "Doors",
		},
		{
			name:     "Vietnamese window beats door",
			question: "Có bao nhiêu cửa sổ trong tòa nhà?",
			want:     "Windows",
		},
		{
			name:     "English window beats door",
			question: "list every window and door frame",
			want:     "Windows",
		},
		{
			name:     "case insensitive",
			question: "How many WALLS are there?",
			want:     "Walls",
		},
		{
			name:     "room",
			question: "what rooms are on level 3",
			want:     "Rooms",
		},
		{
			name:     "no match",
			question: "what is the project schedule?",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCategoryHint(tt.question))
		})
	}
}
