package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"

	"netdiag/internal/bluetooth"
	"netdiag/internal/config"
	"netdiag/internal/discovery"
	"netdiag/internal/eventlog"
	"netdiag/internal/identity"
	"netdiag/internal/portscan"
	"netdiag/internal/probe"
	"netdiag/internal/tui"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "netdiag",
		Level:           log.WarnLevel,
	})
	log.SetDefault(logger)

	path := config.Path()
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("Failed to load configuration", "path", path, "error", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("Unknown log level, keeping warn", "level", cfg.LogLevel)
	}

	events, err := eventlog.Open(afero.NewOsFs(), cfg.LogFile)
	if err != nil {
		logger.Fatal("Cannot open event log", "path", cfg.LogFile, "error", err)
	}

	scanner := portscan.NewScanner(cfg.Scan.Timeout, cfg.Scan.Workers)
	scanner.Logger = logger

	prober := probe.NewProber(cfg.Probe.Timeout)
	prober.Logger = logger

	actions := tui.Actions{
		Identity: identity.NewReporter(cfg.PublicIPURL, cfg.PublicIPTimeout, logger),
		Ports:    scanner,
		LAN: &discovery.Discoverer{Config: discovery.ScanConfig{
			Wait:    cfg.Discovery.Wait,
			Promisc: cfg.Discovery.Promiscuous,
			Logger:  logger,
		}},
		HTTP:      prober,
		Bluetooth: bluetooth.New(runtime.GOOS, bluetooth.ExecRunner{}, cfg.Bluetooth.Timeout, logger),
		Events:    events,
	}

	menu := tui.NewMenu(actions, os.Stdin, os.Stdout)
	menu.Spinner = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	if err := menu.Run(context.Background()); err != nil {
		logger.Error("Menu stopped", "error", err)
		os.Exit(1)
	}
}
