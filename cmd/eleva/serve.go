package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TarekRaafat/eleva"
	"github.com/TarekRaafat/eleva/internal/config"
	"github.com/TarekRaafat/eleva/internal/preview"
	"github.com/TarekRaafat/eleva/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		addr string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the component preview server",
		Long: `Start the preview server.

Every *.html file in the component directory is registered as a
component and served rendered. File edits are pushed to connected
browsers over a websocket.

Examples:
  eleva serve
  eleva serve --addr=0.0.0.0:8080
  eleva serve --dir=./components`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, dir)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from eleva.yaml)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Component directory (default from eleva.yaml)")

	return cmd
}

func runServe(addr, dir string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if dir != "" {
		cfg.ComponentDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	app := eleva.New("preview", eleva.WithLogger(logger))
	names, err := preview.LoadComponents(app, cfg.ComponentDir)
	if err != nil {
		return err
	}
	logger.Info("components loaded", "dir", cfg.ComponentDir, "count", len(names))

	srv := preview.NewServer(app, cfg, logger)
	stopMetrics := middleware.ObserveApp(app)
	defer stopMetrics()
	stopUpdates := srv.ObserveUpdates()
	defer stopUpdates()

	watcher, err := config.NewWatcher(cfg.ComponentDir, cfg.WatchDebounce)
	if err != nil {
		return err
	}
	defer watcher.Close()
	watcher.OnChange(func(paths []string) {
		logger.Info("components changed", "paths", paths)
		if _, err := preview.LoadComponents(app, cfg.ComponentDir); err != nil {
			logger.Error("reload failed", "error", err)
			srv.Hub().NotifyError(err.Error())
			return
		}
		names := changedComponents(paths)
		if len(names) == 0 {
			srv.Hub().NotifyReload()
			return
		}
		for _, name := range names {
			srv.Broadcast(name)
		}
	})
	watcher.Start()

	return srv.ListenAndServe()
}

// changedComponents maps changed template paths to component names. A
// non-template path yields none, which falls back to a full reload.
func changedComponents(paths []string) []string {
	var names []string
	for _, p := range paths {
		if !strings.HasSuffix(p, ".html") {
			return nil
		}
		names = append(names, strings.TrimSuffix(filepath.Base(p), ".html"))
	}
	return names
}
