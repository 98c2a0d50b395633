package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"planweave/internal/cli"
	"planweave/internal/config"
	"planweave/internal/events"
	"planweave/internal/logging"
	"planweave/internal/oracle"
	"planweave/internal/planner"
	"planweave/internal/storage"
	"planweave/internal/strategy"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path"`
	Store   string `help:"Storage file path (overrides config)." type:"path"`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Init       cli.InitCmd       `cmd:"" help:"Initialize planweave storage."`
	Run        cli.RunCmd        `cmd:"" help:"Run the planner on a request file."`
	Replan     cli.ReplanCmd     `cmd:"" help:"Re-run an existing plan."`
	Show       cli.ShowCmd       `cmd:"" help:"Show a plan, or list all plans."`
	Decide     cli.DecideCmd     `cmd:"" help:"Accept or decline a plan."`
	History    cli.HistoryCmd    `cmd:"" help:"List a plan's version history."`
	Restore    cli.RestoreCmd    `cmd:"" help:"Restore a plan to an earlier version."`
	Strategies cli.StrategiesCmd `cmd:"" help:"List available planning strategies."`
	Doctor     cli.DoctorCmd     `cmd:"" help:"Run health checks."`
	Backup     struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a store backup."`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore the store from a backup."`
	} `cmd:"" help:"Manage store backups."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("planweave"),
		kong.Description("AI-assisted weekly planner and scheduling engine"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	configPath := CLI.Config
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if CLI.Store != "" {
		cfg.StorePath = CLI.Store
	}

	logger, err := logging.New(CLI.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Storage backend is picked by file extension
	var store storage.Provider
	if strings.HasSuffix(cfg.StorePath, ".json") {
		store = storage.NewJSONStore(cfg.StorePath)
	} else {
		store = storage.NewSQLiteStore(cfg.StorePath)
	}
	defer func() { _ = store.Close() }()

	registry := strategy.NewRegistry(cfg.DefaultStrategy, cfg.BlockMinutes, logger)
	generator := planner.NewGenerator(registry, logger)

	var client *oracle.Client
	if cfg.Oracle.URL != "" {
		client = oracle.NewClient(cfg.Oracle.URL, cfg.Oracle.AuthToken, cfg.Oracle.Timeout())
	}
	source := oracle.NewOrchestrator(client, generator, logger)

	bus := events.NewBus(16)
	audit := events.NewAuditLogger(bus, logger)
	defer audit.Close()

	service := planner.NewService(store, store, source, generator, bus, logger)

	appCtx := &cli.Context{
		Store:    store,
		Service:  service,
		Registry: registry,
		Config:   cfg,
		Logger:   logger,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
