package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/tgienger/taskboard/internal/api"
	"github.com/tgienger/taskboard/internal/config"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/logger"
	"github.com/tgienger/taskboard/internal/metrics"
	"github.com/tgienger/taskboard/internal/tasks"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// backend is a record store the server can health-check and close
type backend interface {
	tasks.Store
	api.Pinger
	Close() error
}

func main() {
	configPath := flag.String("config", config.Path("taskboard.yaml"), "path to the YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("taskboardd %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := openStore(context.Background(), cfg.DB)
	if err != nil {
		log.Fatal("DB initialization failed", zap.String("driver", cfg.DB.Driver), zap.Error(err))
	}
	log.Info("DB ready", zap.String("driver", cfg.DB.Driver))

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	handler := api.NewTaskHandler(tasks.NewService(store), log, m)
	router := api.NewRouter(handler, store, log, m, api.RouterConfig{
		Development: cfg.Development(),
		CORSOrigin:  cfg.Server.CORSOrigin,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start failed", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info("Graceful shutdown initiated...")
				return shutdown(ctx, srv, store)
			},
		},
	)

	exitCode := <-wait
	log.Info("server exited", zap.Int("code", exitCode))
	_ = log.Sync()
	os.Exit(exitCode)
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type closer interface {
	Close() error
}

// shutdown stops the server, then closes the store even if the server did not drain in time
func shutdown(ctx context.Context, srv shutdowner, store closer) error {
	return errors.Join(srv.Shutdown(ctx), store.Close())
}

// openStore opens the configured record store
func openStore(ctx context.Context, cfg config.DBConfig) (backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := db.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		path := cfg.Path
		if path == "" {
			p, err := db.DefaultPath()
			if err != nil {
				return nil, err
			}
			path = p
		}
		sqlite, err := db.Open(path)
		if err != nil {
			return nil, err
		}
		return sqlite, nil
	}
}
