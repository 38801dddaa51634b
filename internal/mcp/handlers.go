package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/larder/internal/app"
	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/export"
	"github.com/hpungsan/larder/internal/recipe"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	ctrl *app.Controller
	cfg  *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctrl *app.Controller, cfg *config.Config) *Handlers {
	return &Handlers{ctrl: ctrl, cfg: cfg}
}

// Request types for each tool

// SearchRequest represents the arguments for recipe_search.
type SearchRequest struct {
	Query string `json:"query"`
	By    string `json:"by,omitempty"`
}

// IDRequest represents the arguments for tools addressing one recipe.
type IDRequest struct {
	ID string `json:"id"`
}

// BrowseRequest represents the arguments for category_browse.
type BrowseRequest struct {
	Name string `json:"name"`
}

// ClearRequest represents the arguments for cookbook_clear.
type ClearRequest struct {
	Confirm bool `json:"confirm"`
}

// ExportRequest represents the arguments for cookbook_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for cookbook_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// Output types

// RecipeSummary is the compact recipe view used in listings.
type RecipeSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Area      string `json:"area,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Saved     bool   `json:"saved"`
}

// RecipeDetail is the full recipe view.
type RecipeDetail struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Category     string              `json:"category,omitempty"`
	Area         string              `json:"area,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Ingredients  []recipe.Ingredient `json:"ingredients"`
	Instructions string              `json:"instructions,omitempty"`
	Thumbnail    string              `json:"thumbnail,omitempty"`
	Video        string              `json:"video,omitempty"`
	Source       string              `json:"source,omitempty"`
	Saved        bool                `json:"saved"`
}

// ResultsOutput is the results pane after a search or browse.
type ResultsOutput struct {
	Title     string          `json:"title,omitempty"`
	Message   string          `json:"message,omitempty"`
	Total     int             `json:"total"`
	Truncated bool            `json:"truncated"`
	Recipes   []RecipeSummary `json:"recipes"`
}

// CookbookOutput lists the saved recipes.
type CookbookOutput struct {
	Count   int             `json:"count"`
	Recipes []RecipeSummary `json:"recipes"`
}

// Handler implementations

// HandleSearch handles the recipe_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	mode, ok := app.ParseSearchMode(input.By)
	if !ok {
		return errorResult(errors.NewInvalidRequest("by must be one of: name, ingredient")), nil
	}

	if err := h.ctrl.Search(ctx, input.Query, mode); err != nil {
		h.ctrl.TakeNotices()
		return errorResult(err), nil
	}
	return successResult(h.results())
}

// HandleLookup handles the recipe_lookup tool call.
func (h *Handlers) HandleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	r, err := h.ctrl.OpenRecipe(ctx, input.ID)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(h.detail(r))
}

// HandleRandom handles the recipe_random tool call.
func (h *Handlers) HandleRandom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := h.ctrl.Random(ctx)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(h.detail(r))
}

// HandleCategoryList handles the category_list tool call.
func (h *Handlers) HandleCategoryList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	categories, err := h.ctrl.LoadCategories(ctx)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return successResult(map[string]any{"count": len(names), "categories": names})
}

// HandleCategoryBrowse handles the category_browse tool call.
func (h *Handlers) HandleCategoryBrowse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BrowseRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.ctrl.BrowseCategory(ctx, input.Name); err != nil {
		h.ctrl.TakeNotices()
		return errorResult(err), nil
	}
	return successResult(h.results())
}

// HandleCookbookList handles the cookbook_list tool call.
func (h *Handlers) HandleCookbookList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	saved := h.ctrl.SavedRecipes()
	out := CookbookOutput{Count: len(saved), Recipes: make([]RecipeSummary, 0, len(saved))}
	for _, r := range saved {
		s := summarize(r)
		s.Saved = true
		out.Recipes = append(out.Recipes, s)
	}
	return successResult(out)
}

// HandleSave handles the cookbook_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.ID) == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	r, added, err := h.ctrl.SaveRecipe(ctx, input.ID)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{
		"id":    r.ID,
		"name":  r.Name,
		"added": added,
		"count": len(h.ctrl.SavedRecipes()),
	})
}

// HandleRemove handles the cookbook_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	removed, err := h.ctrl.RemoveRecipe(ctx, input.ID)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"id": input.ID, "removed": removed})
}

// HandleClear handles the cookbook_clear tool call.
func (h *Handlers) HandleClear(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ClearRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n, err := h.ctrl.ClearCookbook(ctx, input.Confirm)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"removed": n})
}

// HandleExport handles the cookbook_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var picker export.Picker
	if path := strings.TrimSpace(input.Path); path != "" {
		picker = export.FixedPath(path)
	}

	out, err := h.ctrl.Export(ctx, picker)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleImport handles the cookbook_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return errorResult(errors.NewInvalidRequest("path is required")), nil
	}

	out, err := h.ctrl.Import(ctx, input.Path)
	h.ctrl.TakeNotices()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// results drains the pending notices and describes the results pane.
func (h *Handlers) results() ResultsOutput {
	state := h.ctrl.Present()
	out := ResultsOutput{
		Title:     state.Title,
		Message:   state.Message,
		Total:     state.Total,
		Truncated: state.Truncated,
		Recipes:   make([]RecipeSummary, 0, len(state.Results)),
	}
	for _, r := range state.Results {
		s := summarize(r)
		s.Saved = state.IsSaved(r.ID)
		out.Recipes = append(out.Recipes, s)
	}
	return out
}

func (h *Handlers) detail(r recipe.Recipe) RecipeDetail {
	return RecipeDetail{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Area:         r.Area,
		Tags:         recipe.TagList(&r),
		Ingredients:  recipe.Ingredients(&r),
		Instructions: r.Instructions,
		Thumbnail:    r.Thumbnail,
		Video:        r.Video,
		Source:       r.Source,
		Saved:        h.ctrl.Snapshot().IsSaved(r.ID),
	}
}

func summarize(r recipe.Recipe) RecipeSummary {
	return RecipeSummary{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		Area:      r.Area,
		Thumbnail: r.Thumbnail,
	}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var lErr *errors.LarderError
	if stderrors.As(err, &lErr) {
		message := lErr.Message
		// Keep context added by wrappers around the structured error
		if outer := err.Error(); outer != lErr.Error() {
			message = strings.Replace(outer, lErr.Error(), lErr.Message, 1)
		}
		errorObj := map[string]any{
			"code":    lErr.Code,
			"message": message,
			"status":  lErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if lErr.Code != errors.ErrInternal && lErr.Details != nil {
			errorObj["details"] = lErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
