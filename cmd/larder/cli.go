package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/app"
	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/errors"
	"github.com/hpungsan/larder/internal/export"
	"github.com/hpungsan/larder/internal/recipe"
	"github.com/hpungsan/larder/internal/web"
)

// Interactive hooks, replaced in tests.
var (
	interactive  = isTerminal
	confirm      = promptConfirm
	exportPicker = func() export.Picker { return export.PickerFunc(promptExportPath) }
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(ctrl *app.Controller, cfg *config.Config, logger *zap.Logger) *cli.App {
	cliApp := &cli.App{
		Name:    "larder",
		Usage:   "Recipe finder and personal cookbook",
		Version: Version,
		Commands: []*cli.Command{
			searchCmd(ctrl),
			categoriesCmd(ctrl),
			browseCmd(ctrl),
			showCmd(ctrl),
			randomCmd(ctrl),
			savedCmd(ctrl),
			saveCmd(ctrl),
			removeCmd(ctrl),
			clearCmd(ctrl),
			exportCmd(ctrl),
			importCmd(ctrl),
			serveCmd(ctrl, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// listingOutput is the JSON shape printed by search and browse.
type listingOutput struct {
	Title     string         `json:"title,omitempty"`
	Message   string         `json:"message,omitempty"`
	Total     int            `json:"total"`
	Truncated bool           `json:"truncated"`
	Recipes   []recipeOutput `json:"recipes"`
}

type recipeOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Area     string `json:"area,omitempty"`
	Saved    bool   `json:"saved,omitempty"`
}

// searchCmd creates the search command.
func searchCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search recipes by name or ingredient",
		ArgsUsage: "<term>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "by", Aliases: []string{"b"}, Value: "name", Usage: "Match on: name|ingredient"},
		},
		Action: func(c *cli.Context) error {
			mode, ok := app.ParseSearchMode(c.String("by"))
			if !ok {
				return outputError(errors.NewInvalidRequest("--by must be one of: name, ingredient"))
			}

			term := strings.Join(c.Args().Slice(), " ")
			if err := ctrl.Search(c.Context, term, mode); err != nil {
				return outputError(err)
			}
			return outputJSON(listing(ctrl.Present()))
		},
	}
}

// categoriesCmd creates the categories command.
func categoriesCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List recipe categories",
		Action: func(c *cli.Context) error {
			categories, err := ctrl.LoadCategories(c.Context)
			if err != nil {
				return outputError(err)
			}
			names := make([]string, 0, len(categories))
			for _, cat := range categories {
				names = append(names, cat.Name)
			}
			return outputJSON(map[string]any{"count": len(names), "categories": names})
		},
	}
}

// browseCmd creates the browse command.
func browseCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Usage:     "List the recipes in a category",
		ArgsUsage: "<category>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("category is required"))
			}
			if err := ctrl.BrowseCategory(c.Context, c.Args().First()); err != nil {
				return outputError(err)
			}
			return outputJSON(listing(ctrl.Present()))
		},
	}
}

// showCmd creates the show command.
func showCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a recipe with ingredients and instructions",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the raw recipe record"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("recipe id is required"))
			}
			r, err := ctrl.OpenRecipe(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return printRecipe(r, c.Bool("json"))
		},
	}
}

// randomCmd creates the random command.
func randomCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Show a random recipe",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the raw recipe record"},
		},
		Action: func(c *cli.Context) error {
			r, err := ctrl.Random(c.Context)
			if err != nil {
				return outputError(err)
			}
			return printRecipe(r, c.Bool("json"))
		},
	}
}

// savedCmd creates the saved command.
func savedCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "List saved recipes",
		Action: func(c *cli.Context) error {
			saved := ctrl.SavedRecipes()
			out := make([]recipeOutput, 0, len(saved))
			for _, r := range saved {
				out = append(out, recipeOutput{ID: r.ID, Name: r.Name, Category: r.Category, Area: r.Area, Saved: true})
			}
			return outputJSON(map[string]any{"count": len(out), "recipes": out})
		},
	}
}

// saveCmd creates the save command.
func saveCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save a recipe to the cookbook",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("recipe id is required"))
			}
			r, added, err := ctrl.SaveRecipe(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": r.ID, "name": r.Name, "added": added})
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a recipe from the cookbook",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("recipe id is required"))
			}
			id := c.Args().First()
			removed, err := ctrl.RemoveRecipe(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"id": id, "removed": removed})
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Remove every saved recipe",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			confirmed := c.Bool("yes")
			if !confirmed && interactive() {
				n := len(ctrl.SavedRecipes())
				ok, err := confirm(fmt.Sprintf("Remove all %d saved recipes", n))
				if err != nil {
					return outputError(err)
				}
				if !ok {
					return outputJSON(map[string]any{"removed": 0, "cancelled": true})
				}
				confirmed = true
			}

			n, err := ctrl.ClearCookbook(c.Context, confirmed)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"removed": n})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the cookbook to a .txt, .json or .xlsx file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Destination file (default: prompt, or ~/.larder/exports/cookbook-<date>.txt)"},
		},
		Action: func(c *cli.Context) error {
			var picker export.Picker
			switch {
			case c.String("path") != "":
				picker = export.FixedPath(c.String("path"))
			case interactive():
				picker = exportPicker()
			}

			output, err := ctrl.Export(c.Context, picker)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(ctrl *app.Controller) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Add the recipes from a JSON export to the cookbook (video, tags and source are not part of the export)",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("path is required"))
			}
			output, err := ctrl.Import(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(ctrl *app.Controller, cfg *config.Config, logger *zap.Logger) *cli.Command {
	bind, port := "127.0.0.1", 8484
	if cfg != nil {
		bind, port = cfg.WebBind, cfg.WebPort
	}
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: bind, Usage: "Address to listen on"},
			&cli.IntFlag{Name: "port", Value: port, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(ctrl, logger, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, logger)
		},
	}
}

// Helper functions

func listing(state app.State) listingOutput {
	out := listingOutput{
		Title:     state.Title,
		Message:   state.Message,
		Total:     state.Total,
		Truncated: state.Truncated,
		Recipes:   make([]recipeOutput, 0, len(state.Results)),
	}
	for _, r := range state.Results {
		out.Recipes = append(out.Recipes, recipeOutput{
			ID:       r.ID,
			Name:     r.Name,
			Category: r.Category,
			Area:     r.Area,
			Saved:    state.IsSaved(r.ID),
		})
	}
	return out
}

// printRecipe writes the recipe as JSON or as rendered markdown.
func printRecipe(r recipe.Recipe, raw bool) error {
	if raw {
		return outputJSON(r)
	}
	if err := renderMarkdown(os.Stdout, recipe.Markdown(&r)); err != nil {
		return outputError(errors.NewInternal(err))
	}
	return nil
}

// renderMarkdown styles md for the terminal, falling back to plain text
// when stdout is not a terminal.
func renderMarkdown(w io.Writer, md string) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	lErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", lErr.Code, lErr.Message), 1)
}

// promptConfirm asks a yes/no question on the terminal.
func promptConfirm(label string) (bool, error) {
	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := p.Run(); err != nil {
		if err == promptui.ErrAbort {
			return false, nil
		}
		if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
			return false, errors.NewCancelled("confirmation")
		}
		return false, errors.NewInternal(fmt.Errorf("confirmation prompt: %w", err))
	}
	return true, nil
}

// promptExportPath asks for a format and a file name. The name defaults to
// the suggested one with the chosen extension.
func promptExportPath(_ context.Context, suggestedName string, filters []export.Filter) (string, error) {
	labels := make([]string, 0, len(filters))
	for _, f := range filters {
		labels = append(labels, fmt.Sprintf("%s (%s)", f.Description, f.Extension))
	}

	formatPrompt := promptui.Select{
		Label: "Export format",
		Items: labels,
	}
	idx, _, err := formatPrompt.Run()
	if err != nil {
		return "", promptError("export", err)
	}

	base := strings.TrimSuffix(suggestedName, ".txt")
	namePrompt := promptui.Prompt{
		Label:     "File name (bare names go to ~/.larder/exports)",
		Default:   base + filters[idx].Extension,
		AllowEdit: true,
	}
	name, err := namePrompt.Run()
	if err != nil {
		return "", promptError("export", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewCancelled("export")
	}
	if !strings.ContainsAny(name, `/\`) {
		name = export.SanitizeForFilename(name)
	}
	return name, nil
}

func promptError(op string, err error) error {
	if err == promptui.ErrInterrupt || err == promptui.ErrEOF || err == promptui.ErrAbort {
		return errors.NewCancelled(op)
	}
	return errors.NewInternal(fmt.Errorf("%s prompt: %w", op, err))
}
