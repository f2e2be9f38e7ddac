// Package cmd parses the global options and the mode tokens and hands
// the resolved mode to the core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"rdesk/config"
	"rdesk/internal/core"
	"rdesk/internal/engine"
	rderr "rdesk/internal/errors"
	"rdesk/internal/mode"
	"rdesk/internal/ui"
	"rdesk/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X rdesk/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout receives --version, --help and --dry-run output.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// Execute parses args and runs the resolved mode until its frame closes
// or ctx is done.
//
// Global options must come before the mode token; everything from the
// first mode token on belongs to the mode.
func Execute(ctx context.Context, args []string) error {
	globals, rest := splitArgs(args)

	fs := flag.NewFlagSet("rdesk", flag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)

	var (
		verbose    int
		configPath string
		logFile    string
		headless   bool
		dryRun     bool
		showVer    bool
		showHelp   bool
	)
	fs.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.StringVar(&configPath, "config", "", "Config file (default "+config.DefaultConfigPath+")")
	fs.StringVar(&logFile, "log-file", "", "Append log output to this file")
	fs.BoolVar(&headless, "headless", false, "Run without a terminal UI")
	fs.BoolVar(&dryRun, "dry-run", false, "Resolve the mode and validate the config, then exit")
	fs.BoolVar(&showVer, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(globals); err != nil {
		return &rderr.ArgumentError{
			Args: args,
			Err:  fmt.Errorf("%w: %v", rderr.ErrUnknownCommand, err),
		}
	}
	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVer {
		fmt.Fprintf(stdout, "rdesk %s\n", version)
		return nil
	}
	modeArgs := make([]string, 0, fs.NArg()+len(rest))
	modeArgs = append(modeArgs, fs.Args()...)
	modeArgs = append(modeArgs, rest...)

	// ── configuration ────────────────────────────────────────────
	cfg := config.Default()
	if err := config.LoadFile(configPath, cfg); err != nil {
		return err
	}
	config.LoadFromEnv(cfg)
	if fs.Changed("verbose") {
		cfg.Verbose = int(util.LogNormal) + verbose
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if headless {
		cfg.Headless = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── logging ──────────────────────────────────────────────────
	useTerminal := !cfg.Headless && isTerminal(os.Stdin) && isTerminal(os.Stdout)
	if useTerminal && cfg.LogFile == "" && !dryRun {
		// stderr shares the screen with the terminal frame.
		cfg.LogFile = filepath.Join(config.DefaultRuntimeDir(), "rdesk", "rdesk.log")
	}
	logger := util.NewLogger(cfg.Verbose)
	if cfg.LogFile != "" {
		if err := logger.OpenLogFile(cfg.LogFile); err != nil {
			return err
		}
		defer logger.Close() //nolint:errcheck
	}

	// ── mode ─────────────────────────────────────────────────────
	m, err := mode.Resolve(modeArgs)
	if err != nil {
		logger.Error("wrong command: %v", modeArgs)
		return err
	}
	if dryRun {
		fmt.Fprintf(stdout, "mode: %s\n", m)
		return nil
	}

	// ── run ──────────────────────────────────────────────────────
	var frame engine.Frame
	if useTerminal {
		frame = ui.NewTerminal(ui.Options{PollTick: cfg.PollInterval, Logger: logger})
	} else {
		frame = ui.NewHeadless(logger)
	}

	app, err := core.Build(ctx, core.Options{
		Config:  cfg,
		Logger:  logger,
		Frame:   frame,
		Version: version,
	})
	if err != nil {
		return err
	}
	return app.Run(ctx, m)
}

// ── helpers ──────────────────────────────────────────────────────────

// splitArgs cuts args at the first mode token.
func splitArgs(args []string) (globals, rest []string) {
	for i, a := range args {
		if mode.IsModeFlag(a) {
			return args[:i], args[i:]
		}
	}
	return args, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(stdout, `rdesk – remote desktop client v%s

Usage:
  rdesk [options]                                   Main window
  rdesk [options] --install                         Installer
  rdesk [options] --cm                              Connection manager
  rdesk [options] --connect <id> [password] [...]   Remote desktop session
  rdesk [options] --file-transfer <id> [password]   File transfer session
  rdesk [options] --port-forward <id> [password]    Port forward session
  rdesk [options] --rdp <id> [password]             RDP session
  rdesk [options] --play <recording>                Replay a recorded session

Options:
`, version)
	fs.SetOutput(stdout)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}
