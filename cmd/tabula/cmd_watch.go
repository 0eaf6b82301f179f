package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/hlop3z/tabula/internal/cli"
	"github.com/hlop3z/tabula/pkg/tabula"
)

const watchDebounce = 300 * time.Millisecond

// watchCmd re-ensures tables whenever the config file changes.
func watchCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-ensure changed tables whenever the config file changes",
		Long: `Ensure every declared table, then watch the config file. On each change the
declarations are reloaded and only tables whose declaration changed are
reconciled. Tables removed from the file are forgotten, not dropped.

With --metrics-addr, Prometheus metrics are served at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.path == "" {
				return fmt.Errorf("watch needs a config file; %s not found", configFile)
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}

			client, err := newClient(cmd.Context(), cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			w := &watcher{
				path:    cfg.path,
				client:  client,
				printer: cli.New(cmd.OutOrStdout()),
				logger:  logger,
				tables:  cfg.Tables,
			}

			if cfg.MetricsAddr != "" {
				srv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux(client), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
					}
				}()
				defer srv.Close()
				logger.Info("serving metrics", "addr", cfg.MetricsAddr)
			}

			return w.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	return cmd
}

func metricsMux(client *tabula.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", client.MetricsHandler())
	return mux
}

// watcher reloads declarations from path and reconciles changed tables.
type watcher struct {
	path    string
	client  *tabula.Client
	printer *cli.Printer
	logger  *slog.Logger
	tables  tabula.Declarations
}

// run ensures everything once, then reacts to file changes until ctx ends.
// The directory is watched so editors that save by renaming are seen.
func (w *watcher) run(ctx context.Context) error {
	w.reconcile(ctx, true)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching", "path", w.path)

	target := filepath.Clean(w.path)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.Now()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= watchDebounce {
				pending = time.Time{}
				w.reload(ctx)
			}
		}
	}
}

// reload re-reads the declarations. A broken file is reported and the
// previous declarations stay in effect.
func (w *watcher) reload(ctx context.Context) {
	decls, err := readDeclarations(w.path)
	if err != nil {
		w.printer.Print(w.printer.FormatError(err))
		return
	}

	if _, err := w.client.Declare(decls); err != nil {
		w.printer.Print(w.printer.FormatError(err))
		return
	}

	keep := make(map[string]bool, len(decls))
	for _, d := range decls {
		keep[d.Name] = true
	}
	for _, d := range w.tables {
		if !keep[d.Name] {
			w.client.Forget(d.Name)
			w.logger.Info("table no longer declared", "table", d.Name)
		}
	}
	w.tables = decls

	w.reconcile(ctx, false)
}

// reconcile ensures all tables on the first pass and changed ones after.
func (w *watcher) reconcile(ctx context.Context, all bool) {
	var (
		applied map[string][]tabula.Operation
		err     error
	)
	if all {
		applied, err = w.client.EnsureAll(ctx)
	} else {
		applied, err = w.client.EnsureChanged(ctx)
	}

	for _, table := range w.client.Tables() {
		if ops, ok := applied[table]; ok && len(ops) > 0 {
			w.printer.Print(w.printer.FormatApplied(table, ops))
		}
	}
	if err != nil {
		printError(w.printer, err)
	}
}

// readDeclarations reads only the tables section of a config file.
func readDeclarations(path string) (tabula.Declarations, error) {
	var cfg Config
	if err := readConfigFile(path, &cfg); err != nil {
		return nil, err
	}
	return cfg.Tables, nil
}
