// proxy-pulse is a realtime telemetry monitor for remote proxy daemons.
//
// It attaches to a Clash-family engine over websocket push channels, or
// to a Surge engine by polling its REST API, smooths and buffers the
// incoming metrics, and surfaces them through an interactive TUI and an
// optional local status API.
//
// Usage:
//
//	proxy-pulse [flags]
//
// Flags:
//
//	-config string   Path to configuration file (default: ~/.config/proxy-pulse/config.yaml)
//	-backend string  Named backend from the config (default: first entry)
//	-tui             Launch the interactive dashboard (default when stdout is a TTY)
//	-headless        Run without the dashboard; use with -serve or api.enabled
//	-serve string    Bind address for the status API (overrides config)
//	-verbose         Enable verbose logging
//	-version         Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"gitlab.com/tinyland/lab/proxy-pulse/api"
	"gitlab.com/tinyland/lab/proxy-pulse/config"
	"gitlab.com/tinyland/lab/proxy-pulse/display/tui"
	"gitlab.com/tinyland/lab/proxy-pulse/monitor"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file (default: ~/.config/proxy-pulse/config.yaml)")
		backendName = flag.String("backend", "", "Named backend from the config (default: first entry)")
		runTUI      = flag.Bool("tui", false, "Launch the interactive dashboard (default when stdout is a TTY)")
		headless    = flag.Bool("headless", false, "Run without the dashboard")
		serveAddr   = flag.String("serve", "", "Bind address for the status API (overrides config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("proxy-pulse %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	backend, err := cfg.Backend(*backendName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	profile, err := backend.Profile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: backend %q: %v\n", backend.Name, err)
		os.Exit(1)
	}

	mon := monitor.New(monitor.Options{
		Logger:    logger,
		RecentCap: cfg.Display.RecentConnections,
	})
	if err := mon.StartMonitoring(profile); err != nil {
		fmt.Fprintf(os.Stderr, "monitor: %v\n", err)
		os.Exit(1)
	}
	defer mon.StopMonitoring()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiErr := startAPI(ctx, cfg, *serveAddr, mon, logger)

	interactive := *runTUI || (!*headless && term.IsTerminal(os.Stdout.Fd()))
	if interactive {
		program := tea.NewProgram(tui.NewModel(mon),
			tea.WithAltScreen(),
			tea.WithReportFocus(),
			tea.WithContext(ctx),
		)
		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if apiErr == nil {
		logger.Warn("running headless without the status API; nothing to serve")
	}

	<-ctx.Done()
}

// startAPI launches the status API listener when enabled by flag or
// config. It returns a channel carrying the server result, or nil when
// the API is disabled.
func startAPI(ctx context.Context, cfg *config.Config, override string, mon *monitor.Monitor, logger *slog.Logger) <-chan error {
	addr := override
	if addr == "" && cfg.API.Enabled {
		addr = cfg.API.Listen
	}
	if addr == "" {
		return nil
	}

	server := api.New(addr, mon.Current, logger)
	errCh := make(chan error, 1)
	go func() {
		err := server.ListenAndServe(ctx)
		if err != nil {
			logger.Error("status api failed", "error", err)
		}
		errCh <- err
	}()
	return errCh
}
