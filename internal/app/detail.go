package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/mealdb"
	"github.com/hpungsan/larder/internal/recipe"
)

// OpenRecipe shows a recipe in the detail view. It is resolved from the
// current results first, then the cookbook, then the remote source.
func (c *Controller) OpenRecipe(ctx context.Context, id string) (recipe.Recipe, error) {
	r, err := c.resolve(ctx, id)
	if err != nil {
		return recipe.Recipe{}, err
	}

	c.mu.Lock()
	c.state.Detail = &r
	c.mu.Unlock()
	return r, nil
}

// CloseRecipe closes the detail view.
func (c *Controller) CloseRecipe() {
	c.mu.Lock()
	c.state.Detail = nil
	c.mu.Unlock()
}

// Random opens a random recipe in the detail view.
func (c *Controller) Random(ctx context.Context) (recipe.Recipe, error) {
	res := c.source.Random(ctx)
	r, ok := res.First()
	if !ok {
		err := res.Err
		if err == nil {
			err = errors.NewNotFound("random")
		}
		c.reportLookupFailure("random", err)
		return recipe.Recipe{}, err
	}

	c.mu.Lock()
	c.state.Detail = &r
	c.mu.Unlock()
	return r, nil
}

// resolve finds a recipe by id without touching the detail view.
func (c *Controller) resolve(ctx context.Context, id string) (recipe.Recipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return recipe.Recipe{}, errors.NewInvalidRequest("recipe id is required")
	}

	if r, ok := c.fromState(id); ok {
		return r, nil
	}
	if r, ok := c.cookbook.Get(id); ok {
		return r, nil
	}

	res := c.source.Lookup(ctx, id)
	switch res.Status {
	case mealdb.StatusFound:
		r, _ := res.First()
		return r, nil
	case mealdb.StatusEmpty:
		err := errors.NewNotFound(id)
		c.reportLookupFailure("lookup", err)
		return recipe.Recipe{}, err
	default:
		c.reportLookupFailure("lookup", res.Err)
		return recipe.Recipe{}, res.Err
	}
}

// fromState looks for id in the open detail view and the current results.
func (c *Controller) fromState(id string) (recipe.Recipe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Detail != nil && c.state.Detail.ID == id {
		return *c.state.Detail, true
	}
	for i := range c.state.Results {
		if c.state.Results[i].ID == id {
			return c.state.Results[i], true
		}
	}
	return recipe.Recipe{}, false
}

func (c *Controller) reportLookupFailure(op string, err error) {
	switch {
	case errors.Is(err, errors.ErrCancelled):
		return
	case errors.Is(err, errors.ErrNotFound):
		c.notify(NoticeError, "Recipe not found.")
	default:
		c.logger.Warn("recipe lookup failed", zap.String("op", op), zap.Error(err))
		c.notify(NoticeError, "Failed to load recipe details. Please try again.")
	}
}
