package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/logging"
	"github.com/hpungsan/larder/internal/recipe"
)

// maxErrorBody bounds how much of a non-2xx response body is kept for the error message.
const maxErrorBody = 4096

// Client talks to a TheMealDB-compatible JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a per-request timeout. Zero leaves the transport defaults in charge.
// It applies to a copy of the HTTP client, so a client passed to WithHTTPClient
// is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logging.OrNop(logger) }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// mealsEnvelope is the response shape of search, lookup, random and filter endpoints.
// A null or absent "meals" field means no results.
type mealsEnvelope[T any] struct {
	Meals []T `json:"meals"`
}

type categoriesEnvelope struct {
	Categories []recipe.Category `json:"categories"`
}

// Search finds recipes whose name matches term (search.php?s=).
func (c *Client) Search(ctx context.Context, term string) Result[recipe.Recipe] {
	return fetchMeals[recipe.Recipe](ctx, c, "search", "search.php", url.Values{"s": {term}})
}

// Lookup fetches one full recipe by id (lookup.php?i=).
// An unknown id yields an empty result, not a failure.
func (c *Client) Lookup(ctx context.Context, id string) Result[recipe.Recipe] {
	return fetchMeals[recipe.Recipe](ctx, c, "lookup", "lookup.php", url.Values{"i": {id}})
}

// Random fetches a single random recipe (random.php).
func (c *Client) Random(ctx context.Context) Result[recipe.Recipe] {
	return fetchMeals[recipe.Recipe](ctx, c, "random", "random.php", nil)
}

// FilterByCategory lists id/name/thumbnail summaries in a category (filter.php?c=).
func (c *Client) FilterByCategory(ctx context.Context, category string) Result[recipe.Summary] {
	return fetchMeals[recipe.Summary](ctx, c, "filter_category", "filter.php", url.Values{"c": {category}})
}

// FilterByIngredient lists summaries of recipes using an ingredient (filter.php?i=).
func (c *Client) FilterByIngredient(ctx context.Context, ingredient string) Result[recipe.Summary] {
	return fetchMeals[recipe.Summary](ctx, c, "filter_ingredient", "filter.php", url.Values{"i": {ingredient}})
}

// Categories lists all categories (categories.php).
func (c *Client) Categories(ctx context.Context) Result[recipe.Category] {
	var env categoriesEnvelope
	if err := c.getJSON(ctx, "categories", "categories.php", nil, &env); err != nil {
		return Failed[recipe.Category](err)
	}
	return Found(env.Categories)
}

func fetchMeals[T any](ctx context.Context, c *Client, op, endpoint string, query url.Values) Result[T] {
	var env mealsEnvelope[T]
	if err := c.getJSON(ctx, op, endpoint, query, &env); err != nil {
		return Failed[T](err)
	}
	return Found(env.Meals)
}

// getJSON performs a GET and decodes the JSON body into out.
// Any transport error, non-2xx status or undecodable body is an upstream failure.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, query url.Values, out any) error {
	u := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelled(op)
		}
		c.logger.Warn("recipe api request failed", zap.String("op", op), zap.Error(err))
		return errors.NewUpstreamFailed(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		c.logger.Warn("recipe api returned error status",
			zap.String("op", op), zap.Int("status", resp.StatusCode))
		return errors.NewUpstreamFailed(op, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("recipe api returned undecodable body", zap.String("op", op), zap.Error(err))
		return errors.NewUpstreamFailed(op, fmt.Errorf("decode response: %w", err))
	}

	c.logger.Debug("recipe api request",
		zap.String("op", op), zap.Duration("took", time.Since(start)))
	return nil
}
