package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/larder/internal/app"
	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/cookbook"
	"github.com/hpungsan/larder/internal/db"
	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/mealdb"
)

// fakeMealDB answers the handful of endpoints the tools use.
func fakeMealDB(t *testing.T, lookups *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/search.php":
			if strings.EqualFold(q.Get("s"), "chicken") {
				fmt.Fprint(w, `{"meals":[
					{"idMeal":"52795","strMeal":"Chicken Handi","strCategory":"Chicken","strArea":"Indian"},
					{"idMeal":"52831","strMeal":"Chicken Karaage","strCategory":"Chicken","strArea":"Japanese"},
					{"idMeal":"52956","strMeal":"Chicken Congee","strCategory":"Chicken","strArea":"Chinese"}
				]}`)
				return
			}
			fmt.Fprint(w, `{"meals":null}`)
		case "/lookup.php":
			lookups.Add(1)
			if q.Get("i") == "0" {
				fmt.Fprint(w, `{"meals":null}`)
				return
			}
			fmt.Fprintf(w, `{"meals":[{"idMeal":%q,"strMeal":"Dish %s","strTags":"Quick,Easy","strIngredient1":"Rice","strMeasure1":"1 cup"}]}`, q.Get("i"), q.Get("i"))
		case "/filter.php":
			switch {
			case q.Get("c") == "Seafood":
				items := make([]string, 0, 25)
				for i := 1; i <= 25; i++ {
					items = append(items, fmt.Sprintf(`{"idMeal":"%d","strMeal":"Fish %d"}`, 100+i, i))
				}
				fmt.Fprintf(w, `{"meals":[%s]}`, strings.Join(items, ","))
			case q.Get("i") == "salmon":
				fmt.Fprint(w, `{"meals":[{"idMeal":"201","strMeal":"Salmon Bake"},{"idMeal":"202","strMeal":"Salmon Rolls"}]}`)
			default:
				fmt.Fprint(w, `{"meals":null}`)
			}
		case "/categories.php":
			fmt.Fprint(w, `{"categories":[{"idCategory":"1","strCategory":"Beef"},{"idCategory":"2","strCategory":"Seafood"}]}`)
		case "/random.php":
			fmt.Fprint(w, `{"meals":[{"idMeal":"7","strMeal":"Pancakes"}]}`)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testSetup wires handlers over a fake recipe API and a temporary database.
func testSetup(t *testing.T) (*Handlers, *config.Config, *atomic.Int32) {
	t.Helper()

	var lookups atomic.Int32
	srv := fakeMealDB(t, &lookups)

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	store := cookbook.Open(context.Background(), db.NewKV(database), nil)
	ctrl := app.New(mealdb.New(srv.URL), store, cfg, nil)
	return NewHandlers(ctrl, cfg), cfg, &lookups
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func TestHandleSearch(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantCount int
		wantTitle string
		errorCode string
	}{
		{
			name:      "by name",
			args:      map[string]any{"query": "chicken"},
			wantCount: 3,
			wantTitle: `Search Results for "chicken" (3 recipes found)`,
		},
		{
			name:      "term is normalized",
			args:      map[string]any{"query": "  Chicken  "},
			wantCount: 3,
		},
		{
			name:      "by ingredient",
			args:      map[string]any{"query": "salmon", "by": "ingredient"},
			wantCount: 2,
			wantTitle: `Recipes with "salmon" (2 recipes found)`,
		},
		{
			name:      "no results",
			args:      map[string]any{"query": "zzzznoresult"},
			wantCount: 0,
		},
		{
			name:      "blank query",
			args:      map[string]any{"query": "   "},
			errorCode: "INVALID_REQUEST",
		},
		{
			name:      "unknown mode",
			args:      map[string]any{"query": "chicken", "by": "colour"},
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleSearch(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.errorCode != "" {
				if !result.IsError {
					t.Fatalf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}

			out := parseOutput(t, result)
			recipes := out["recipes"].([]any)
			if len(recipes) != tt.wantCount {
				t.Errorf("recipes = %d, want %d", len(recipes), tt.wantCount)
			}
			if tt.wantTitle != "" && out["title"] != tt.wantTitle {
				t.Errorf("title = %v, want %q", out["title"], tt.wantTitle)
			}
			if tt.wantCount == 0 && out["message"] == "" {
				t.Error("expected an empty-results message")
			}
		})
	}
}

func TestHandleCategoryBrowse_Capped(t *testing.T) {
	h, _, lookups := testSetup(t)
	ctx := context.Background()

	// Browsing twice reloads rather than toggling off.
	for i := 0; i < 2; i++ {
		result, err := h.HandleCategoryBrowse(ctx, makeRequest(map[string]any{"name": "Seafood"}))
		if err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		out := parseOutput(t, result)

		if got := len(out["recipes"].([]any)); got != 20 {
			t.Fatalf("recipes = %d, want 20", got)
		}
		if out["total"].(float64) != 25 || out["truncated"] != true {
			t.Errorf("total = %v truncated = %v, want 25 true", out["total"], out["truncated"])
		}
		first := out["recipes"].([]any)[0].(map[string]any)
		if first["category"] != "Seafood" {
			t.Errorf("category = %v, want backfilled Seafood", first["category"])
		}
	}

	if got := lookups.Load(); got != 40 {
		t.Errorf("lookups = %d, want 40", got)
	}
}

func TestHandleCategoryList(t *testing.T) {
	h, _, _ := testSetup(t)

	result, err := h.HandleCategoryList(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	if out["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", out["count"])
	}
}

func TestHandleLookup(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	result, err := h.HandleLookup(ctx, makeRequest(map[string]any{"id": "42"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	if out["name"] != "Dish 42" {
		t.Errorf("name = %v, want Dish 42", out["name"])
	}
	ingredients := out["ingredients"].([]any)
	if len(ingredients) != 1 || ingredients[0].(map[string]any)["measure"] != "1 cup" {
		t.Errorf("ingredients = %v", ingredients)
	}
	if tags := out["tags"].([]any); len(tags) != 2 {
		t.Errorf("tags = %v, want 2", tags)
	}

	result, _ = h.HandleLookup(ctx, makeRequest(map[string]any{"id": "0"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleLookup(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestHandleRandom(t *testing.T) {
	h, _, _ := testSetup(t)

	result, err := h.HandleRandom(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if out := parseOutput(t, result); out["id"] != "7" {
		t.Errorf("id = %v, want 7", out["id"])
	}
}

func TestHandleCookbookLifecycle(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	// Search first so the save resolves from the results
	if _, err := h.HandleSearch(ctx, makeRequest(map[string]any{"query": "chicken"})); err != nil {
		t.Fatalf("search: %v", err)
	}

	out := parseOutput(t, mustCall(t, h.HandleSave, map[string]any{"id": "52795"}))
	if out["added"] != true {
		t.Errorf("added = %v, want true", out["added"])
	}

	out = parseOutput(t, mustCall(t, h.HandleSave, map[string]any{"id": "52795"}))
	if out["added"] != false || out["count"].(float64) != 1 {
		t.Errorf("duplicate save = %v, want added=false count=1", out)
	}

	parseOutput(t, mustCall(t, h.HandleSave, map[string]any{"id": "99"}))

	out = parseOutput(t, mustCall(t, h.HandleCookbookList, nil))
	if out["count"].(float64) != 2 {
		t.Fatalf("count = %v, want 2", out["count"])
	}
	recipes := out["recipes"].([]any)
	if recipes[0].(map[string]any)["id"] != "52795" || recipes[1].(map[string]any)["id"] != "99" {
		t.Errorf("cookbook order = %v", recipes)
	}

	out = parseOutput(t, mustCall(t, h.HandleRemove, map[string]any{"id": "nope"}))
	if out["removed"] != false {
		t.Errorf("removed unknown = %v, want false", out["removed"])
	}

	assertErrorCode(t, mustCall(t, h.HandleClear, map[string]any{"confirm": false}), "CONFIRMATION_REQUIRED")

	out = parseOutput(t, mustCall(t, h.HandleClear, map[string]any{"confirm": true}))
	if out["removed"].(float64) != 2 {
		t.Errorf("cleared = %v, want 2", out["removed"])
	}

	out = parseOutput(t, mustCall(t, h.HandleCookbookList, nil))
	if out["count"].(float64) != 0 {
		t.Errorf("count after clear = %v, want 0", out["count"])
	}
}

func TestHandleExportImport(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	assertErrorCode(t, mustCall(t, h.HandleExport, map[string]any{}), "EMPTY_COOKBOOK")

	if _, err := h.HandleSave(ctx, makeRequest(map[string]any{"id": "11"})); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := h.HandleSave(ctx, makeRequest(map[string]any{"id": "12"})); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(t.TempDir(), "cookbook.json")
	out := parseOutput(t, mustCall(t, h.HandleExport, map[string]any{"path": path}))
	if out["count"].(float64) != 2 || out["format"] != "json" {
		t.Fatalf("export output = %v", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// Importing into the same cookbook skips both
	out = parseOutput(t, mustCall(t, h.HandleImport, map[string]any{"path": path}))
	if out["imported"].(float64) != 0 || out["skipped"].(float64) != 2 {
		t.Errorf("import output = %v, want 0 imported, 2 skipped", out)
	}

	// A fresh cookbook takes them all
	fresh, _, _ := testSetup(t)
	out = parseOutput(t, mustCall(t, fresh.HandleImport, map[string]any{"path": path}))
	if out["imported"].(float64) != 2 {
		t.Errorf("imported = %v, want 2", out["imported"])
	}

	assertErrorCode(t, mustCall(t, h.HandleImport, map[string]any{"path": filepath.Join(t.TempDir(), "missing.json")}), "FILE_NOT_FOUND")
	assertErrorCode(t, mustCall(t, h.HandleImport, map[string]any{}), "INVALID_REQUEST")
}

func TestServerRegistration(t *testing.T) {
	h, cfg, _ := testSetup(t)

	s := NewServer(h.ctrl, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"recipe_search",
		"recipe_lookup",
		"recipe_random",
		"category_list",
		"category_browse",
		"cookbook_list",
		"cookbook_save",
		"cookbook_remove",
		"cookbook_clear",
		"cookbook_export",
		"cookbook_import",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	h, cfg, _ := testSetup(t)

	cfg.DisabledTools = []string{"cookbook_clear", "cookbook_import", "cookbook_clear"}
	s := NewServer(h.ctrl, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 9 {
		t.Errorf("registered tool count = %d, want 9", len(tools))
	}
	for _, name := range []string{"cookbook_clear", "cookbook_import"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	h, cfg, _ := testSetup(t)

	cfg.DisabledTypes = []string{"cookbook"}
	s := NewServer(h.ctrl, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 5 {
		t.Errorf("registered tool count = %d, want 5", len(tools))
	}
	for name := range tools {
		if GetTypeForTool(name) == "cookbook" {
			t.Errorf("tool %q of disabled type should not be registered", name)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	h, cfg, _ := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(h.ctrl, cfg, "test")
	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"cookbook_clear", "recipe_random"}, 0},
		{"one unknown", []string{"cookbook_clear", "pantry_stock"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	if unknown := ValidateDisabledTypes([]string{"recipe", "cookbook"}); len(unknown) != 0 {
		t.Errorf("unexpected unknown types: %v", unknown)
	}
	if unknown := ValidateDisabledTypes([]string{"pantry"}); len(unknown) != 1 {
		t.Errorf("unknown types = %v, want [pantry]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 11 {
		t.Errorf("AllToolNames() returned %d names, want 11", len(names))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	lErr := errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied"))
	lErr.Details = map[string]any{"path": "/tmp/secret.db"}

	errObj := errorPayload(t, errorResult(lErr))
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("records[2]: %w", errors.NewNotFound("52772"))

	errObj := errorPayload(t, errorResult(wrapped))
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrNotFound)
	}
	msg := errObj["message"].(string)
	if !strings.Contains(msg, "records[2]") || strings.Contains(msg, "NOT_FOUND:") {
		t.Errorf("message = %q, want wrapper context without the code prefix", msg)
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	errObj := errorPayload(t, errorResult(fmt.Errorf("boom")))
	if errObj["message"] != "an internal error occurred" {
		t.Errorf("message = %v", errObj["message"])
	}
}

// Helper functions

func mustCall(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := handler(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func errorPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error result %s, got success: %s", expectedCode, extractErrorMessage(result))
		return
	}
	if code := errorPayload(t, result)["code"]; code != expectedCode {
		t.Errorf("got error code %v, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}

func TestDecode_TypeMismatchNamesField(t *testing.T) {
	_, err := decode[SearchRequest](makeRequest(map[string]any{"query": 42}))
	if err == nil {
		t.Fatal("expected error for numeric query")
	}
	if !strings.Contains(err.Error(), `"query"`) || !strings.Contains(err.Error(), "string") {
		t.Errorf("error = %q, want field name and expected type", err.Error())
	}

	got, err := decode[SearchRequest](makeRequest(map[string]any{"query": "beef", "by": "name"}))
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if got.Query != "beef" || got.By != "name" {
		t.Errorf("decode() = %+v", got)
	}
}
