package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/mealdb"
	"github.com/hpungsan/larder/internal/recipe"
)

const (
	msgBlankTerm       = "Please enter a search term"
	msgNoSearchResults = "No recipes found. Try a different search term."
	msgNoCategoryItems = "No recipes found in this category."
)

// Search looks recipes up by name or by ingredient. A blank term only queues
// a warning notice; no request is made and the results pane is untouched.
func (c *Controller) Search(ctx context.Context, term string, mode SearchMode) error {
	term = recipe.NormalizeTerm(term)
	if term == "" {
		c.notify(NoticeWarning, msgBlankTerm)
		return errors.NewInvalidRequest("search term is required")
	}
	if mode == "" {
		mode = SearchByName
	}

	ticket := c.begin(func(s *State) {
		s.ActiveCategory = ""
		s.Query = term
		s.Mode = mode
	})

	var (
		results []recipe.Recipe
		total   int
		err     error
	)
	switch mode {
	case SearchByIngredient:
		results, total, err = c.browse(ctx, c.source.FilterByIngredient(ctx, term), "")
	default:
		res := c.source.Search(ctx, term)
		results, err = res.Items, res.Err
		total = len(results)
	}
	if err != nil {
		return c.fail(ticket, "search", err, "Failed to search recipes. Please try again.")
	}

	c.finish(ticket, func(s *State) {
		if len(results) == 0 {
			s.Phase = PhaseEmpty
			s.Message = msgNoSearchResults
			return
		}
		s.Phase = PhaseResults
		s.Results = results
		s.Total = total
		s.Truncated = total > len(results)
		if mode == SearchByIngredient {
			s.Title = fmt.Sprintf("Recipes with %q (%s)", term, countLabel(len(results), total))
		} else {
			s.Title = fmt.Sprintf("Search Results for %q (%s)", term, countLabel(len(results), total))
		}
	})
	c.logger.Debug("search complete",
		zap.String("term", term), zap.String("mode", string(mode)), zap.Int("results", len(results)))
	return nil
}

// SelectCategory browses a category. Selecting the active category again
// deselects it: the pane returns to idle and nothing is fetched.
func (c *Controller) SelectCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewInvalidRequest("category is required")
	}

	if c.deselect(name) {
		return nil
	}
	return c.BrowseCategory(ctx, name)
}

// BrowseCategory loads a category even when it is already active.
func (c *Controller) BrowseCategory(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.NewInvalidRequest("category is required")
	}

	ticket := c.begin(func(s *State) {
		s.ActiveCategory = name
		s.Query = ""
		s.Mode = ""
	})

	results, total, err := c.browse(ctx, c.source.FilterByCategory(ctx, name), name)
	if err != nil {
		return c.fail(ticket, "browse", err, fmt.Sprintf("Failed to load %s recipes. Please try again.", name))
	}

	c.finish(ticket, func(s *State) {
		if len(results) == 0 {
			s.Phase = PhaseEmpty
			s.Message = msgNoCategoryItems
			return
		}
		s.Phase = PhaseResults
		s.Results = results
		s.Total = total
		s.Truncated = total > len(results)
		s.Title = fmt.Sprintf("%s Recipes (%s)", name, countLabel(len(results), total))
	})
	c.logger.Debug("category loaded",
		zap.String("category", name), zap.Int("results", len(results)), zap.Int("total", total))
	return nil
}

// deselect clears the active category if it equals name. Any request still in
// flight is invalidated.
func (c *Controller) deselect(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.ActiveCategory != name {
		return false
	}
	c.seq++
	c.state.ActiveCategory = ""
	c.state.Phase = PhaseIdle
	c.state.Loading = false
	c.state.Title = ""
	c.state.Message = ""
	c.state.Results = nil
	c.state.Total = 0
	c.state.Truncated = false
	return true
}

// browse turns a filter listing into full recipes: it fetches details for at
// most detailLimit entries in parallel, drops ids the API no longer knows and
// fills in a blank category with the one being browsed. Any failed lookup
// fails the whole batch. total is the listing size when it was capped and the
// number of recipes returned otherwise.
func (c *Controller) browse(ctx context.Context, listing mealdb.Result[recipe.Summary], category string) ([]recipe.Recipe, int, error) {
	switch listing.Status {
	case mealdb.StatusFailed:
		return nil, 0, listing.Err
	case mealdb.StatusEmpty:
		return []recipe.Recipe{}, 0, nil
	}

	total := len(listing.Items)
	batch := listing.Items
	if len(batch) > c.detailLimit {
		batch = batch[:c.detailLimit]
	}

	lookups := make([]mealdb.Result[recipe.Recipe], len(batch))
	g, gctx := errgroup.WithContext(ctx)
	for i := range batch {
		g.Go(func() error {
			res := c.source.Lookup(gctx, batch[i].ID)
			lookups[i] = res
			if res.Status == mealdb.StatusFailed {
				return res.Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, total, err
	}

	results := make([]recipe.Recipe, 0, len(batch))
	for _, res := range lookups {
		if r, ok := res.First(); ok {
			results = append(results, r.WithCategory(category))
		}
	}
	if total <= c.detailLimit {
		total = len(results)
	}
	return results, total, nil
}

// fail moves the pane to the error phase and queues an error notice.
// Cancellation by the caller is not reported to the user.
func (c *Controller) fail(ticket uint64, op string, err error, msg string) error {
	if errors.Is(err, errors.ErrCancelled) {
		c.finish(ticket, func(s *State) { s.Phase = PhaseIdle })
		return err
	}

	c.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
	c.finish(ticket, func(s *State) {
		s.Phase = PhaseError
		s.Message = msg
		c.pushNotice(NoticeError, msg)
	})
	return err
}

// LoadCategories fetches the category list shown as browse tiles.
func (c *Controller) LoadCategories(ctx context.Context) ([]recipe.Category, error) {
	res := c.source.Categories(ctx)
	if res.Status == mealdb.StatusFailed {
		if !errors.Is(res.Err, errors.ErrCancelled) {
			c.logger.Warn("loading categories failed", zap.Error(res.Err))
			c.notify(NoticeError, "Failed to load categories.")
		}
		return nil, res.Err
	}

	c.mu.Lock()
	c.state.Categories = res.Items
	c.mu.Unlock()
	return res.Items, nil
}

func countLabel(shown, total int) string {
	if total > shown {
		return fmt.Sprintf("showing %d of %d recipes", shown, total)
	}
	if shown == 1 {
		return "1 recipe found"
	}
	return fmt.Sprintf("%d recipes found", shown)
}
