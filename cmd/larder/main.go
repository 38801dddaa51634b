package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/larder/internal/app"
	"github.com/hpungsan/larder/internal/config"
	"github.com/hpungsan/larder/internal/cookbook"
	"github.com/hpungsan/larder/internal/db"
	"github.com/hpungsan/larder/internal/logging"
	"github.com/hpungsan/larder/internal/mcp"
	"github.com/hpungsan/larder/internal/mealdb"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"search": true, "categories": true, "browse": true,
	"show": true, "random": true,
	"saved": true, "save": true, "remove": true, "clear": true,
	"export": true, "import": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _                _
  | |   __ _ _ _ __| |___ _ _
  | |__/ _' | '_/ _' / -_) '_|
  |____\__,_|_| \__,_\___|_|

  Recipe finder and personal cookbook

  Usage: larder <command> [options]
         larder serve          (web UI on http://127.0.0.1:8484)
         larder --help

  MCP server mode requires piped input.`)
}

// runtimeDeps is everything a command needs once startup has finished.
type runtimeDeps struct {
	db     *sql.DB
	cfg    *config.Config
	logger *zap.Logger
	ctrl   *app.Controller
}

// setup loads configuration, opens the database and wires the controller.
func setup(baseDir string) (*runtimeDeps, error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled_types", zap.Strings("types", unknown))
	}

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	store := cookbook.Open(context.Background(), db.NewKV(database), logger)
	client := mealdb.New(cfg.APIBaseURL,
		mealdb.WithTimeout(time.Duration(cfg.HTTPTimeoutSeconds)*time.Second),
		mealdb.WithLogger(logger),
	)

	return &runtimeDeps{
		db:     database,
		cfg:    cfg,
		logger: logger,
		ctrl:   app.New(client, store, cfg, logger),
	}, nil
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		cliApp := newCLIApp(nil, nil, nil)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'larder --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	deps, err := setup(filepath.Join(homeDir, ".larder"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer deps.db.Close()
	defer func() { _ = deps.logger.Sync() }()

	if isCLIMode() {
		cliApp := newCLIApp(deps.ctrl, deps.cfg, deps.logger)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// MCP server mode (default)
	if err := mcp.Run(deps.ctrl, deps.cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
