package export

import (
	"context"
	"time"
)

// Filter describes one file type offered by a destination picker.
type Filter struct {
	Description string
	Extension   string
}

// Filters are the file types offered when asking for an export destination.
var Filters = []Filter{
	{Description: "Text document", Extension: ".txt"},
	{Description: "JSON document", Extension: ".json"},
	{Description: "Excel workbook", Extension: ".xlsx"},
}

// Picker asks where an export should be written. Implementations return a
// Cancelled error (errors.NewCancelled) when the user backs out.
type Picker interface {
	Pick(ctx context.Context, suggestedName string, filters []Filter) (string, error)
}

// PickerFunc adapts a function to the Picker interface.
type PickerFunc func(ctx context.Context, suggestedName string, filters []Filter) (string, error)

// Pick calls f.
func (f PickerFunc) Pick(ctx context.Context, suggestedName string, filters []Filter) (string, error) {
	return f(ctx, suggestedName, filters)
}

// FixedPath is a Picker that always answers with the same path.
// It serves non-interactive callers (`larder export --path`, the MCP tool).
type FixedPath string

// Pick returns the fixed path.
func (p FixedPath) Pick(context.Context, string, []Filter) (string, error) {
	return string(p), nil
}

// SuggestedName is the default file name offered to a picker.
func SuggestedName(now time.Time) string {
	return "my-cookbook-" + now.Format("2006-01-02") + ".txt"
}

// FallbackName is the date-stamped name used when no picker is available.
func FallbackName(now time.Time) string {
	return "cookbook-" + now.Format("2006-01-02") + ".txt"
}
