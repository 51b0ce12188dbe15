package utils

import (
	"testing"
)

func TestParseAIJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name:  "Pure JSON",
			input: `{"task": "count", "category": "Doors"}`,
			want: map[string]interface{}{
				"task":     "count",
				"category": "Doors",
			},
			wantErr: false,
		},
		{
			name: "JSON in markdown code block",
			input: "```json\n" +
				`{"task": "list", "limit": 20}` + "\n```",
			want: map[string]interface{}{
				"task":  "list",
				"limit": float64(20),
			},
			wantErr: false,
		},
		{
			name: "JSON in plain code block",
			input: "```\n" +
				`{"in_scope": true}` + "\n```",
			want: map[string]interface{}{
				"in_scope": true,
			},
			wantErr: false,
		},
		{
			name:  "JSON with surrounding text",
			input: `Here is the classification: {"task": "sum_area", "category": "Rooms"} hope that helps!`,
			want: map[string]interface{}{
				"task":     "sum_area",
				"category": "Rooms",
			},
			wantErr: false,
		},
		{
			name:  "JSON with trailing comma",
			input: `{"task": "count", "limit": 20,}`,
			want: map[string]interface{}{
				"task":  "count",
				"limit": float64(20),
			},
			wantErr: false,
		},
		{
			name:  "Braces inside string values",
			input: `The answer: {"notes": "uses {curly} braces", "task": "list"}`,
			want: map[string]interface{}{
				"notes": "uses {curly} braces",
				"task":  "list",
			},
			wantErr: false,
		},
		{
			name:  "Vietnamese content",
			input: `{"category": "Cửa sổ", "notes": "câu hỏi về cửa sổ"}`,
			want: map[string]interface{}{
				"category": "Cửa sổ",
				"notes":    "câu hỏi về cửa sổ",
			},
			wantErr: false,
		},
		{
			name:    "Empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "Whitespace only",
			input:   "   \n\t  ",
			wantErr: true,
		},
		{
			name:    "No JSON at all",
			input:   "I could not classify this question.",
			wantErr: true,
		},
		{
			name:    "Unbalanced braces",
			input:   `{"task": "count"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			err := ParseAIJSON(tt.input, &got)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAIJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			for key, want := range tt.want {
				if got[key] != want {
					t.Errorf("ParseAIJSON() key %q = %v, want %v", key, got[key], want)
				}
			}
		})
	}
}

func TestParseAIJSON_IntoStruct(t *testing.T) {
	type inference struct {
		Task     string `json:"task"`
		Category string `json:"category"`
		Limit    int    `json:"limit"`
	}

	var out inference
	input := "Sure! ```json\n{\"task\": \"count\", \"category\": \"Doors\", \"limit\": 20}\n```"
	if err := ParseAIJSON(input, &out); err != nil {
		t.Fatalf("ParseAIJSON() error = %v", err)
	}
	if out.Task != "count" || out.Category != "Doors" || out.Limit != 20 {
		t.Errorf("ParseAIJSON() = %+v", out)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "Shorter than limit",
			input:  "short",
			maxLen: 10,
			want:   "short",
		},
		{
			name:   "Exactly at limit",
			input:  "1234567890",
			maxLen: 10,
			want:   "1234567890",
		},
		{
			name:   "Longer than limit",
			input:  "12345678901",
			maxLen: 10,
			want:   "1234567890...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString() = %q, want %q", got, tt.want)
			}
		})
	}
}
