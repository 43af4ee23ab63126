package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/taskboard/internal/client"
	"github.com/tgienger/taskboard/internal/config"
	"github.com/tgienger/taskboard/internal/logger"
	"github.com/tgienger/taskboard/internal/state"
	"github.com/tgienger/taskboard/internal/ui"
	"go.uber.org/zap"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", config.Path("taskboard.yaml"), "path to the YAML config file")
	apiURL := flag.String("api", "", "task API base URL (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("taskboard %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.Client.APIURL = *apiURL
	}

	// The terminal belongs to the UI, so logs only go to a file when one is configured
	log := zap.NewNop()
	if cfg.Log.File != "" {
		if log, err = logger.NewFile(cfg.Log.File); err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer log.Sync()

	notices := ui.NewNotices()
	store := state.New(
		client.New(cfg.Client.APIURL),
		state.WithNotifier(ui.Notify(notices)),
		state.WithLogger(log),
	)
	log.Info("starting", zap.String("api", cfg.Client.APIURL), zap.String("version", version))

	// Create and run the application
	app := ui.NewApp(store, notices)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}
