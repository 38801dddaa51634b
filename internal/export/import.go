package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/recipe"
)

// maxImportBytes bounds how much of an import file is read.
const maxImportBytes = 16 << 20

// Adder receives imported recipes. *cookbook.Store satisfies it.
type Adder interface {
	Add(ctx context.Context, r recipe.Recipe) (bool, error)
}

// ImportOutput is the result of an import.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one record that could not be imported.
type ImportError struct {
	Index   int    `json:"index"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// Import reads a JSON export and adds each record to the cookbook in file
// order. Records already saved are skipped; records without id or name are
// reported in Errors. A storage failure stops the import.
func Import(ctx context.Context, cfg *config.Config, path string, into Adder) (*ImportOutput, error) {
	if err := ValidatePath(path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) || errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, err := Decode(io.LimitReader(file, maxImportBytes))
	if err != nil {
		return nil, err
	}

	out := &ImportOutput{Errors: []ImportError{}}
	for i := range records {
		if ctx.Err() != nil {
			return out, errors.NewCancelled("import")
		}

		rec := &records[i]
		if rec.ID == "" || rec.Name == "" {
			out.Errors = append(out.Errors, ImportError{
				Index:   i,
				ID:      rec.ID,
				Name:    rec.Name,
				Message: "record needs both id and name",
			})
			continue
		}

		added, err := into.Add(ctx, rec.ToRecipe())
		if err != nil {
			return out, err
		}
		if added {
			out.Imported++
		} else {
			out.Skipped++
		}
	}
	return out, nil
}

// Decode parses a JSON export document.
func Decode(r io.Reader) ([]recipe.ExportRecord, error) {
	var records []recipe.ExportRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("not a cookbook JSON export: %v", err))
	}
	return records, nil
}
