// Package export writes the cookbook to files and reads JSON exports back.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hpungsan/larder/internal/recipe"
)

// Format is a cookbook file encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Extension returns the file extension (with dot) written for the format.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatXLSX:
		return ".xlsx"
	default:
		return ".txt"
	}
}

// ContentType returns the MIME type used when the format is served as a download.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// FormatForPath picks the encoding from a file name: .json and .xlsx map to
// their formats, anything else is text.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatText
	}
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, true
	case "json":
		return FormatJSON, true
	case "xlsx", "excel":
		return FormatXLSX, true
	default:
		return "", false
	}
}

// Encode writes entries to w in the given format.
func Encode(w io.Writer, format Format, entries []recipe.Recipe, now time.Time) error {
	switch format {
	case FormatJSON:
		return encodeJSON(w, entries)
	case FormatXLSX:
		return encodeXLSX(w, entries)
	default:
		return encodeText(w, entries, now)
	}
}

const rule = "========================================"

func encodeText(w io.Writer, entries []recipe.Recipe, now time.Time) error {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString("  MY COOKBOOK\n")
	fmt.Fprintf(&b, "  Exported %s, %d %s\n", now.Format("January 2, 2006"), len(entries), plural(len(entries), "recipe", "recipes"))
	b.WriteString(rule + "\n\n")

	for i := range entries {
		r := &entries[i]
		title := fmt.Sprintf("%d. %s", i+1, r.Name)
		b.WriteString(title + "\n")
		b.WriteString(strings.Repeat("-", len([]rune(title))) + "\n")
		fmt.Fprintf(&b, "Category: %s\n", orNA(r.Category))
		fmt.Fprintf(&b, "Cuisine:  %s\n\n", orNA(r.Area))

		b.WriteString("Ingredients:\n")
		ingredients := recipe.Ingredients(r)
		if len(ingredients) == 0 {
			b.WriteString("  (none listed)\n")
		}
		for _, ing := range ingredients {
			if ing.Measure != "" {
				fmt.Fprintf(&b, "  - %s %s\n", ing.Measure, ing.Name)
			} else {
				fmt.Fprintf(&b, "  - %s\n", ing.Name)
			}
		}

		b.WriteString("\nInstructions:\n")
		if instructions := strings.TrimSpace(r.Instructions); instructions != "" {
			b.WriteString(strings.ReplaceAll(instructions, "\r\n", "\n"))
			b.WriteString("\n")
		} else {
			b.WriteString("  (none listed)\n")
		}

		if r.Video != "" {
			fmt.Fprintf(&b, "\nVideo: %s\n", r.Video)
		}
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	b.WriteString("  End of cookbook. Happy cooking!\n")
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func encodeJSON(w io.Writer, entries []recipe.Recipe) error {
	records := make([]recipe.ExportRecord, 0, len(entries))
	for i := range entries {
		records = append(records, recipe.ToExportRecord(&entries[i]))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// xlsxSheet is the single sheet of a spreadsheet export.
const xlsxSheet = "Cookbook"

var xlsxHeader = []interface{}{"id", "name", "category", "area", "ingredients", "instructions", "thumbnail", "video"}

func encodeXLSX(w io.Writer, entries []recipe.Recipe) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", xlsxHeader); err != nil {
		return err
	}
	for i := range entries {
		r := &entries[i]
		row := []interface{}{
			r.ID, r.Name, r.Category, r.Area,
			ingredientLines(r), r.Instructions, r.Thumbnail, r.Video,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// ingredientLines joins normalized ingredients one per line for a spreadsheet cell.
func ingredientLines(r *recipe.Recipe) string {
	ingredients := recipe.Ingredients(r)
	lines := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		lines = append(lines, strings.TrimSpace(ing.Measure+" "+ing.Name))
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
