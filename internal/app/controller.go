package app

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/cookbook"
	"github.com/hpungsan/larder/internal/logging"
	"github.com/hpungsan/larder/internal/mealdb"
	"github.com/hpungsan/larder/internal/recipe"
)

// DefaultDetailLimit caps how many full recipes a category or ingredient
// browse fetches when the configuration does not say otherwise.
const DefaultDetailLimit = 20

// maxNotices bounds the pending notice queue; the oldest are dropped first.
const maxNotices = 20

// Source is the remote recipe API. *mealdb.Client satisfies it.
type Source interface {
	Search(ctx context.Context, term string) mealdb.Result[recipe.Recipe]
	Lookup(ctx context.Context, id string) mealdb.Result[recipe.Recipe]
	Random(ctx context.Context) mealdb.Result[recipe.Recipe]
	Categories(ctx context.Context) mealdb.Result[recipe.Category]
	FilterByCategory(ctx context.Context, category string) mealdb.Result[recipe.Summary]
	FilterByIngredient(ctx context.Context, ingredient string) mealdb.Result[recipe.Summary]
}

// Controller owns the application state. Remote I/O always runs outside the
// lock and state changes only after an action's I/O has completed.
type Controller struct {
	source   Source
	cookbook *cookbook.Store
	cfg      *config.Config
	logger   *zap.Logger

	detailLimit int

	mu    sync.Mutex
	state State
	// seq identifies the newest results request; responses carrying an
	// older ticket are discarded.
	seq uint64
	now func() time.Time
}

// New creates a controller over a recipe source and a loaded cookbook.
func New(source Source, store *cookbook.Store, cfg *config.Config, logger *zap.Logger) *Controller {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	limit := cfg.CategoryDetailLimit
	if limit <= 0 {
		limit = DefaultDetailLimit
	}
	return &Controller{
		source:      source,
		cookbook:    store,
		cfg:         cfg,
		logger:      logging.OrNop(logger),
		detailLimit: limit,
		state:       State{Phase: PhaseIdle},
		now:         time.Now,
	}
}

// Snapshot returns a copy of the current state, pending notices included.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	s := c.state.clone()
	c.mu.Unlock()

	s.Cookbook = c.cookbook.Entries()
	return s
}

// Present returns the state for rendering and drops the notices it carries.
func (c *Controller) Present() State {
	c.mu.Lock()
	s := c.state.clone()
	c.state.Notices = nil
	c.mu.Unlock()

	s.Cookbook = c.cookbook.Entries()
	return s
}

// TakeNotices drains and returns the pending notices.
func (c *Controller) TakeNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.state.Notices
	c.state.Notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// SavedRecipes returns the cookbook in insertion order.
func (c *Controller) SavedRecipes() []recipe.Recipe {
	return c.cookbook.Entries()
}

// ToggleSidebar flips the cookbook sidebar and returns the new value.
func (c *Controller) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SidebarOpen = !c.state.SidebarOpen
	return c.state.SidebarOpen
}

// notify queues a notice. Callers must not hold mu.
func (c *Controller) notify(level NoticeLevel, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushNotice(level, msg)
}

// pushNotice must be called with mu held.
func (c *Controller) pushNotice(level NoticeLevel, msg string) {
	c.state.Notices = append(c.state.Notices, Notice{
		ID:      ulid.Make().String(),
		Level:   level,
		Message: msg,
		At:      c.now(),
	})
	if over := len(c.state.Notices) - maxNotices; over > 0 {
		c.state.Notices = append([]Notice{}, c.state.Notices[over:]...)
	}
}

// begin moves the results pane into loading and returns the request ticket.
func (c *Controller) begin(prepare func(s *State)) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.state.Phase = PhaseLoading
	c.state.Loading = true
	c.state.Title = ""
	c.state.Message = ""
	c.state.Results = nil
	c.state.Total = 0
	c.state.Truncated = false
	if prepare != nil {
		prepare(&c.state)
	}
	return c.seq
}

// finish applies a response if its ticket is still current and reports
// whether it was applied.
func (c *Controller) finish(ticket uint64, apply func(s *State)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ticket != c.seq {
		c.logger.Debug("discarding stale response", zap.Uint64("ticket", ticket), zap.Uint64("current", c.seq))
		return false
	}
	c.state.Loading = false
	apply(&c.state)
	return true
}
