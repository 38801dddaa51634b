package export

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/recipe"
)

// Output is the result of an export.
type Output struct {
	Path       string `json:"path,omitempty"`
	Format     Format `json:"format,omitempty"`
	Count      int    `json:"count"`
	Cancelled  bool   `json:"cancelled,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
	ExportedAt int64  `json:"exported_at,omitempty"`
}

// Export writes entries to a file. With a picker, the picked path decides the
// location and (by extension) the format; a cancelled pick returns an Output
// with Cancelled set and no error. Without a picker the text format is written
// to the exports directory under a date-stamped name.
//
// An empty cookbook is rejected before any picker is consulted.
func Export(ctx context.Context, cfg *config.Config, entries []recipe.Recipe, picker Picker) (*Output, error) {
	if len(entries) == 0 {
		return nil, errors.NewEmptyCookbook()
	}

	now := time.Now()
	exportsDir, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}

	out := &Output{Count: len(entries)}
	var path string
	if picker == nil {
		path = filepath.Join(exportsDir, FallbackName(now))
		out.Fallback = true
	} else {
		picked, err := picker.Pick(ctx, SuggestedName(now), Filters)
		if err != nil {
			if errors.Is(err, errors.ErrCancelled) {
				return &Output{Count: len(entries), Cancelled: true}, nil
			}
			return nil, err
		}
		path = resolvePicked(picked, exportsDir)
		if path == "" {
			return &Output{Count: len(entries), Cancelled: true}, nil
		}
	}

	format := FormatForPath(path)
	if !writeExtensions[strings.ToLower(filepath.Ext(path))] {
		path += format.Extension()
	}

	if err := ValidatePath(path, PathCheckWrite, cfg); err != nil {
		return nil, err
	}

	if err := writeAtomic(ctx, path, func(w io.Writer) error {
		return Encode(w, format, entries, now)
	}); err != nil {
		return nil, err
	}

	out.Path = path
	out.Format = format
	out.ExportedAt = now.Unix()
	return out, nil
}

// resolvePicked places bare file names in the exports directory.
func resolvePicked(picked, exportsDir string) string {
	picked = strings.TrimSpace(picked)
	if picked == "" {
		return ""
	}
	if !filepath.IsAbs(picked) && filepath.Dir(picked) == "." {
		return filepath.Join(exportsDir, picked)
	}
	return picked
}

// writeAtomic writes through a temp file in the destination directory and
// renames it into place, so an existing file survives a failed export.
func writeAtomic(ctx context.Context, path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidRequest) {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if err := write(file); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to encode export: %w", err))
	}

	if ctx.Err() != nil {
		return errors.NewCancelled("export")
	}

	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if isSymlink(path) {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	// On Windows os.Rename fails when the destination exists; keep the old file.
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new name or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
