package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/syslog-sniffer/internal/duckdb"
	"github.com/tinytelemetry/syslog-sniffer/internal/httpserver"
	"github.com/tinytelemetry/syslog-sniffer/internal/model"
	"github.com/tinytelemetry/syslog-sniffer/internal/report"
	"github.com/tinytelemetry/syslog-sniffer/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

// runSniffer captures for the configured duration and writes JSON summaries
// to stdout. Diagnostics go to stderr.
func runSniffer(cfg appConfig) error {
	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Set up context and signal handling before opening the capture
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}
		fmt.Fprintln(os.Stderr, "\nStopping capture... (press Ctrl+C again to force)")
		cancel()

		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nForce shutdown.")
		case <-deadline.C:
			fmt.Fprintln(os.Stderr, "Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	source, captureName, err := openCaptureSource(ctx, buildCapturePlugins(capturePluginConfig(cfg)))
	if err != nil {
		return err
	}
	defer source.Close()

	latest := &report.Latest{}
	sinks := []model.SnapshotSink{report.NewJSONSink(os.Stdout), latest}

	// Keep history nil unless enabled so the API reports it as unavailable.
	var history httpserver.HistoryStore
	if cfg.HistoryEnabled {
		store, err := duckdb.NewStore(cfg.QueryTimeout)
		if err != nil {
			return fmt.Errorf("failed to initialize window history: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
		history = store
	}

	sched := scheduler.New(scheduler.Config{
		TotalDuration:  uint64(cfg.Interval),
		Periodic:       cfg.Periodic,
		FlushFrequency: uint64(cfg.Frequency),
	}, source, report.NewMulti(logger, sinks...), scheduler.WithLogger(logger))

	var apiServer *httpserver.Server
	if cfg.APIEnabled {
		apiServer = httpserver.NewServer(cfg.APIAddr, sched, latest, history)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	if cfg.Banner {
		printStartupBanner(os.Stderr, cfg, captureName, source.LinkDescription(), apiServer)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Capture loop; finishing it ends the run.
	g.Go(func() error {
		defer cancel()
		sched.Run(gctx)
		return nil
	})

	// Stop serving the API as soon as the run is over.
	g.Go(func() error {
		<-gctx.Done()
		if apiServer == nil {
			return nil
		}
		return apiServer.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Warn("sniffer: shutdown finished with error", "error", err)
	}

	counters := sched.Counters()
	logger.Info("sniffer: capture finished",
		"frames", counters.Frames,
		"parsed", counters.Parsed,
		"unparsed", counters.Unparsed,
		"errors", counters.Errors,
		"emissions", counters.Emissions,
	)
	return nil
}

func newLogger(w io.Writer, cfg appConfig) (*slog.Logger, error) {
	level, err := determineLogLevel(cfg.Debug, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func printStartupBanner(w io.Writer, cfg appConfig, captureName, linkDescription string, apiServer *httpserver.Server) {
	fmt.Fprintln(w, renderStartupBanner(cfg, captureName, linkDescription, apiServer))
}

func renderStartupBanner(cfg appConfig, captureName, linkDescription string, apiServer *httpserver.Server) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╔═╗╦ ╦╔═╗╦  ╔═╗╔═╗  ╔═╗╔╗╔╦╔═╗╔═╗╔═╗╦═╗
    ╚═╗╚╦╝╚═╗║  ║ ║║ ╦  ╚═╗║║║║╠╣ ╠╣ ║╣ ╠╦╝
    ╚═╝ ╩ ╚═╝╩═╝╚═╝╚═╝  ╚═╝╝╚╝╩╚  ╚  ╚═╝╩╚═`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Capture
	lines = append(lines, bold.Render("    Capture"))
	lines = append(lines, "")

	switch captureName {
	case captureModePcap:
		lines = append(lines, fmt.Sprintf("    %s  Interface      %s", check, cyan.Render(cfg.Interface)))
	case captureModeFile:
		lines = append(lines, fmt.Sprintf("    %s  Pcap File      %s", check, cyan.Render(shortenPath(cfg.PcapFile))))
	case captureModeUDP:
		lines = append(lines, fmt.Sprintf("    %s  UDP Socket     %s", check, cyan.Render(cfg.UDPAddr)))
	}
	lines = append(lines, fmt.Sprintf("    %s  Filter         %s", check, dim.Render(fmt.Sprintf("udp port %d", cfg.Port))))
	lines = append(lines, fmt.Sprintf("    %s  Datalink       %s", check, dim.Render(linkDescription)))
	lines = append(lines, "")

	// Reporting
	lines = append(lines, bold.Render("    Reporting"))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  Duration       %s", check, dim.Render(fmt.Sprintf("%ds", cfg.Interval))))
	if cfg.Periodic {
		lines = append(lines, fmt.Sprintf("    %s  Periodic       %s", check, dim.Render(fmt.Sprintf("every %ds", cfg.Frequency))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Periodic       %s", dot, dim.Render("disabled")))
	}
	if cfg.HistoryEnabled {
		lines = append(lines, fmt.Sprintf("    %s  History        %s", check, dim.Render("in-memory")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  History        %s", dot, dim.Render("disabled")))
	}
	if apiServer != nil {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(apiServer.Addr())))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop early"))
	lines = append(lines, "")

	return strings.Join(lines, "\n")
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
