package recipe

import (
	"fmt"
	"strings"
)

// Markdown renders a recipe as a markdown document. The web detail view
// converts it to HTML and `larder show` renders it for the terminal.
func Markdown(r *Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Name)

	var meta []string
	if r.Category != "" {
		meta = append(meta, "**Category:** "+r.Category)
	}
	if r.Area != "" {
		meta = append(meta, "**Cuisine:** "+r.Area)
	}
	if tags := TagList(r); len(tags) > 0 {
		meta = append(meta, "**Tags:** "+strings.Join(tags, ", "))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n\n")
	}

	if ingredients := Ingredients(r); len(ingredients) > 0 {
		b.WriteString("## Ingredients\n\n")
		for _, ing := range ingredients {
			if ing.Measure != "" {
				fmt.Fprintf(&b, "- %s %s\n", ing.Measure, ing.Name)
			} else {
				fmt.Fprintf(&b, "- %s\n", ing.Name)
			}
		}
		b.WriteString("\n")
	}

	if instructions := strings.TrimSpace(r.Instructions); instructions != "" {
		b.WriteString("## Instructions\n\n")
		// The API separates steps with CRLF; markdown needs blank lines between paragraphs
		for _, para := range splitParagraphs(instructions) {
			b.WriteString(para)
			b.WriteString("\n\n")
		}
	}

	if r.Video != "" {
		fmt.Fprintf(&b, "[Watch the video](%s)\n", r.Video)
	}

	return b.String()
}

func splitParagraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
