package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hylla/tix/internal/adapters/storage/sqlite"
	"github.com/hylla/tix/internal/app"
	"github.com/hylla/tix/internal/config"
	"github.com/hylla/tix/internal/platform"
)

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	memory     bool
}

// defaultGlobalOptions seeds flag defaults from TIX_* env vars.
func defaultGlobalOptions() globalOptions {
	opts := globalOptions{appName: "tix", devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("TIX_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("TIX_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	return opts
}

// resolvedPaths couples platform paths with the effective config and db paths.
type resolvedPaths struct {
	platform.Paths
	configPath   string
	dbPath       string
	dbOverridden bool
}

func resolvePaths(opts globalOptions) (resolvedPaths, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return resolvedPaths{}, err
	}
	out := resolvedPaths{Paths: paths, configPath: opts.configPath, dbPath: opts.dbPath}
	if out.configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TIX_CONFIG")); envPath != "" {
			out.configPath = envPath
		} else {
			out.configPath = paths.ConfigPath
		}
	}
	out.dbOverridden = strings.TrimSpace(out.dbPath) != ""
	if !out.dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TIX_DB_PATH")); envPath != "" {
			out.dbPath = envPath
			out.dbOverridden = true
		} else {
			out.dbPath = paths.DBPath
		}
	}
	return out, nil
}

// runtime bundles everything one command flow needs.
type runtime struct {
	opts   globalOptions
	paths  resolvedPaths
	cfg    config.Config
	logger *runtimeLogger
	repo   *sqlite.Repository
	store  *app.Store
}

// openRuntime loads config, configures logging, opens storage, and loads the store.
func openRuntime(ctx context.Context, opts globalOptions, command string, stderr io.Writer) (*runtime, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.configPath, config.Default(paths.dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", paths.configPath, err)
	}
	if paths.dbOverridden {
		cfg.Database.Path = paths.dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		logger.SetConsoleEnabled(false)
	}
	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command, "memory", opts.memory)
	logger.Debug("runtime paths resolved", "config_path", paths.configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	var repo *sqlite.Repository
	if opts.memory {
		logger.Info("opening in-memory sqlite repository")
		repo, err = sqlite.OpenInMemory()
	} else {
		logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
		repo, err = sqlite.Open(cfg.Database.Path)
	}
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}

	store := app.NewStore(repo, app.StoreOptions{
		Key:            cfg.Storage.Key,
		OnStorageError: logger.StorageErrorHook(cfg.Storage.Key),
	})
	loaded := store.Load(ctx)
	logger.Info("ticket store loaded", "key", cfg.Storage.Key, "tickets", len(loaded))

	return &runtime{
		opts:   opts,
		paths:  paths,
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		store:  store,
	}, nil
}

// Close releases storage and the dev log sink.
func (r *runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.repo != nil {
		if err := r.repo.Close(); err != nil {
			r.logger.Warn("sqlite close failed", "db_path", r.cfg.Database.Path, "err", err)
			errs = append(errs, fmt.Errorf("close sqlite repository: %w", err))
		}
	}
	if err := r.logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close runtime log sink: %w", err))
	}
	return errors.Join(errs...)
}

// parseBoolEnv reads a boolean env var; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
