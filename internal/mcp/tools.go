package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchToolDef = mcp.NewTool("recipe_search",
	mcp.WithDescription("Search recipes by name, or by main ingredient. Ingredient searches fetch full details for at most category_detail_limit recipes."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search term, e.g. \"chicken\"")),
	mcp.WithString("by", mcp.Description("What the term matches: name (default) or ingredient"), mcp.Enum("name", "ingredient")),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(true),
)

var lookupToolDef = mcp.NewTool("recipe_lookup",
	mcp.WithDescription("Fetch one recipe with its ingredients and instructions. Saved recipes are answered from the cookbook."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id (idMeal)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var randomToolDef = mcp.NewTool("recipe_random",
	mcp.WithDescription("Fetch one random recipe."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithOpenWorldHintAnnotation(true),
)

var categoryListToolDef = mcp.NewTool("category_list",
	mcp.WithDescription("List recipe categories."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var categoryBrowseToolDef = mcp.NewTool("category_browse",
	mcp.WithDescription("List recipes in a category with full details, capped at category_detail_limit."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Category name as returned by category_list, e.g. \"Seafood\"")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var cookbookListToolDef = mcp.NewTool("cookbook_list",
	mcp.WithDescription("List saved recipes in the order they were saved."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var saveToolDef = mcp.NewTool("cookbook_save",
	mcp.WithDescription("Save a recipe to the cookbook. Saving a recipe twice is a no-op reported as added=false."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id (idMeal)")),
	mcp.WithIdempotentHintAnnotation(true),
)

var removeToolDef = mcp.NewTool("cookbook_remove",
	mcp.WithDescription("Remove a recipe from the cookbook."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id (idMeal)")),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithIdempotentHintAnnotation(true),
)

var clearToolDef = mcp.NewTool("cookbook_clear",
	mcp.WithDescription("Remove every saved recipe. Requires confirm=true."),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to clear the cookbook")),
	mcp.WithDestructiveHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("cookbook_export",
	mcp.WithDescription("Write the cookbook to a file. The extension picks the format (.txt, .json, .xlsx). Without a path a dated text file is written to ~/.larder/exports."),
	mcp.WithString("path", mcp.Description("Destination file, absolute or a bare name inside ~/.larder/exports")),
)

var importToolDef = mcp.NewTool("cookbook_import",
	mcp.WithDescription("Add the recipes from a JSON cookbook export. Recipes already saved are skipped. The export format has no video, tags or source link, so imported recipes come back without them."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Path to a .json export")),
)
