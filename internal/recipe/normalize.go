package recipe

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// Ingredients flattens the positional slots into an ordered ingredient list.
// Slots whose ingredient is blank after trimming are skipped; a missing measure
// becomes "". Order follows slot index. The recipe itself is not modified.
func Ingredients(r *Recipe) []Ingredient {
	if r == nil {
		return nil
	}

	out := make([]Ingredient, 0, MaxSlots)
	for _, slot := range r.Slots {
		name := strings.TrimSpace(slot.Ingredient)
		if name == "" {
			continue
		}
		out = append(out, Ingredient{
			Name:    name,
			Measure: strings.TrimSpace(slot.Measure),
		})
	}
	return out
}

// NormalizeTerm trims and collapses internal whitespace in a user search term.
// Case is preserved; the recipe API matches case-insensitively.
func NormalizeTerm(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// TagList splits the raw comma-separated tag string.
func TagList(r *Recipe) []string {
	if r == nil || strings.TrimSpace(r.Tags) == "" {
		return nil
	}
	parts := strings.Split(r.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
