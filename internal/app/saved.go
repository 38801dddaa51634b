package app

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/export"
	"github.com/hpungsan/larder/internal/recipe"
)

// SaveRecipe adds a recipe to the cookbook. Saving a recipe that is already
// there is not an error: added is false and an info notice is queued.
func (c *Controller) SaveRecipe(ctx context.Context, id string) (r recipe.Recipe, added bool, err error) {
	r, err = c.resolve(ctx, id)
	if err != nil {
		return recipe.Recipe{}, false, err
	}

	added, err = c.cookbook.Add(ctx, r)
	if err != nil {
		c.logger.Warn("saving recipe failed", zap.String("id", r.ID), zap.Error(err))
		c.notify(NoticeError, "Could not save to your cookbook. Please try again.")
		return r, false, err
	}
	if !added {
		c.notify(NoticeInfo, errors.NewAlreadySaved(r.ID, r.Name).Message)
		return r, false, nil
	}

	c.notify(NoticeSuccess, fmt.Sprintf("%s saved to your cookbook", r.Name))
	return r, true, nil
}

// RemoveRecipe deletes a saved recipe. An unknown id changes nothing.
func (c *Controller) RemoveRecipe(ctx context.Context, id string) (bool, error) {
	removed, err := c.cookbook.Remove(ctx, id)
	if err != nil {
		c.logger.Warn("removing recipe failed", zap.String("id", id), zap.Error(err))
		c.notify(NoticeError, "Could not update your cookbook. Please try again.")
		return false, err
	}
	if removed {
		c.notify(NoticeSuccess, "Recipe removed from your cookbook")
	}
	return removed, nil
}

// ClearCookbook removes every saved recipe. It requires confirmed to be true.
func (c *Controller) ClearCookbook(ctx context.Context, confirmed bool) (int, error) {
	n, err := c.cookbook.Clear(ctx, confirmed)
	if err != nil {
		if !errors.Is(err, errors.ErrConfirmationRequired) {
			c.logger.Warn("clearing cookbook failed", zap.Error(err))
			c.notify(NoticeError, "Could not clear your cookbook. Please try again.")
		}
		return 0, err
	}
	c.notify(NoticeSuccess, "Cookbook cleared")
	return n, nil
}

// Export writes the cookbook to a file chosen by picker, or to the dated
// fallback file when picker is nil. A cancelled pick is a silent no-op.
func (c *Controller) Export(ctx context.Context, picker export.Picker) (*export.Output, error) {
	out, err := export.Export(ctx, c.cfg, c.cookbook.Entries(), picker)
	if err != nil {
		c.reportExportFailure(err)
		return nil, err
	}
	if out.Cancelled {
		return out, nil
	}

	c.logger.Info("cookbook exported", zap.String("path", out.Path), zap.Int("count", out.Count))
	c.notify(NoticeSuccess, fmt.Sprintf("Exported %d %s to %s", out.Count, recipesWord(out.Count), out.Path))
	return out, nil
}

// Download is an encoded cookbook ready to be sent as an attachment.
type Download struct {
	Name        string
	ContentType string
	Body        []byte
}

// ExportDownload encodes the cookbook for a browser download. The text
// encoding uses the dated fallback name.
func (c *Controller) ExportDownload(format export.Format) (*Download, error) {
	entries := c.cookbook.Entries()
	if len(entries) == 0 {
		err := errors.NewEmptyCookbook()
		c.reportExportFailure(err)
		return nil, err
	}

	now := c.now()
	var buf bytes.Buffer
	if err := export.Encode(&buf, format, entries, now); err != nil {
		wrapped := errors.NewInternal(fmt.Errorf("encode export: %w", err))
		c.reportExportFailure(wrapped)
		return nil, wrapped
	}

	name := downloadName(format, now)
	c.notify(NoticeSuccess, fmt.Sprintf("Exported %d %s", len(entries), recipesWord(len(entries))))
	return &Download{Name: name, ContentType: format.ContentType(), Body: buf.Bytes()}, nil
}

// Import adds the recipes in a JSON export to the cookbook.
func (c *Controller) Import(ctx context.Context, path string) (*export.ImportOutput, error) {
	out, err := export.Import(ctx, c.cfg, path, c.cookbook)
	if err != nil {
		c.logger.Warn("import failed", zap.String("path", path), zap.Error(err))
		c.notify(NoticeError, errors.As(err).Message)
		return out, err
	}

	msg := fmt.Sprintf("Imported %d %s", out.Imported, recipesWord(out.Imported))
	if out.Skipped > 0 {
		msg += fmt.Sprintf(" (%d already saved)", out.Skipped)
	}
	c.notify(NoticeSuccess, msg)
	return out, nil
}

func (c *Controller) reportExportFailure(err error) {
	if errors.Is(err, errors.ErrEmptyCookbook) {
		c.notify(NoticeWarning, "Your cookbook is empty. Save some recipes first!")
		return
	}
	c.logger.Warn("export failed", zap.Error(err))
	c.notify(NoticeError, "Export failed: "+errors.As(err).Message)
}

func downloadName(format export.Format, now time.Time) string {
	if format == export.FormatText {
		return export.FallbackName(now)
	}
	return "cookbook-" + now.Format("2006-01-02") + format.Extension()
}

func recipesWord(n int) string {
	if n == 1 {
		return "recipe"
	}
	return "recipes"
}
