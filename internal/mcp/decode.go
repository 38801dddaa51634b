package mcp

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// decode maps tool arguments onto a typed request. Arguments that don't fit
// the request shape (a number where a string is expected, say) are reported
// back by field name.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			return out, fmt.Errorf("argument %q must be a %s", typeErr.Field, typeErr.Type.String())
		}
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	return out, nil
}
