package service

import "strings"

// hintRule is one literal substring rule. Exclusions let a broad term like
// "cửa" (door) step aside for the more specific "cửa sổ" (window).
type hintRule struct {
	match    []string
	exclude  []string
	category string
}

// categoryHints is evaluated in order; the first matching rule wins.
var categoryHints = []hintRule{
	{match: []string{"cửa sổ", "window"}, category: "Windows"},
	{match: []string{"cửa", "door"}, exclude: []string{"cửa sổ", "window"}, category: "Doors"},
	{match: []string{"tường", "wall"}, category: "Walls"},
	{match: []string{"sàn", "floor slab", "slab"}, category: "Floors"},
	{match: []string{"trần", "ceiling"}, category: "Ceilings"},
	{match: []string{"cầu thang", "stair"}, category: "Stairs"},
	{match: []string{"cột", "column"}, category: "Structural Columns"},
	{match: []string{"ống gió", "duct"}, category: "Ducts"},
	{match: []string{"ống nước", "pipe"}, category: "Pipes"},
	{match: []string{"thang máy", "elevator", "lift"}, category: "Mechanical Equipment"},
	{match: []string{"phòng", "room"}, category: "Rooms"},
	{match: []string{"nội thất", "furniture"}, category: "Furniture"},
}

// MatchCategoryHint applies the lexical rules to a question and returns a
// candidate category, or "" when no rule matches. It never consults the
// dataset, so callers must ignore hints absent from the live catalog.
func MatchCategoryHint(question string) string {
	q := strings.ToLower(question)

	for _, rule := range categoryHints {
		excluded := false
		for _, term := range rule.exclude {
			if strings.Contains(q, term) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		for _, term := range rule.match {
			if strings.Contains(q, term) {
				return rule.category
			}
		}
	}
	return ""
}
