// Command docsync keeps code snippets in documentation in sync with the
// source files they are taken from.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/dshills/docsync/internal/config"
	"github.com/dshills/docsync/internal/logger"
	"github.com/dshills/docsync/internal/pipeline"
	"github.com/dshills/docsync/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// Results go to stdout; logs, errors and summaries go to stderr
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// errReported marks a failed run whose errors were already printed
var errReported = errors.New("run failed")

// errUsage marks invalid flag combinations
var errUsage = errors.New("usage")

// Globals are the flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)"`
	Config    string `name:"config" short:"c" type:"existingfile" help:"YAML configuration file"`
	Workers   int    `name:"workers" short:"j" help:"Concurrent file workers (default: number of CPUs)"`
	DB        string `name:"db" type:"path" help:"Record runs in this SQLite database"`
}

// CLI defines the command-line interface for docsync.
var CLI struct {
	Globals

	Collect CollectCmd `cmd:"" help:"Collect marked blocks from source files"`
	Replace ReplaceCmd `cmd:"" help:"Replace documentation regions with collected blocks"`
	Serve   ServeCmd   `cmd:"" help:"Serve the engine as MCP tools over stdio"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// app is the state shared by commands after flags and configuration are resolved
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	log      *slog.Logger
}

// setup initialises logging, loads the configuration and builds the pipeline
func (g *Globals) setup() (*app, error) {
	level, err := logger.ParseLevel(g.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	logger.Init(logger.Config{Level: level, Format: g.LogFormat, Output: stderr})

	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Workers != 0 {
		cfg.Workers = g.Workers
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
	}
	syn, err := cfg.CompileSyntax()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg: cfg,
		pipeline: pipeline.New(&pipeline.Config{
			Workers:     cfg.EffectiveWorkers(),
			MaxFileSize: cfg.MaxFileSize,
			Walker:      cfg.Walker,
			Syntax:      syn,
			Logger:      logger.ForComponent("pipeline"),
		}),
		log: logger.ForComponent("cli"),
	}, nil
}

// openStore opens the run database when --db is set
func (g *Globals) openStore() (storage.Storage, error) {
	if g.DB == "" {
		return nil, nil
	}
	store, err := storage.NewSQLiteStorage(g.DB)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "docsync %s\n", version)
	fmt.Fprintf(stdout, "Build Time: %s\n", buildTime)
	fmt.Fprintf(stdout, "Build Mode: %s\n", storage.BuildMode)
	fmt.Fprintf(stdout, "SQLite Driver: %s\n", storage.DriverName)
	fmt.Fprintf(stdout, "Schema Version: %s\n", storage.CurrentSchemaVersion)
	return nil
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, errUsage):
		return exitUsage
	default:
		return exitFailed
	}
}

func main() {
	parser, err := kong.New(&CLI,
		kong.Name("docsync"),
		kong.Description("Keep documentation snippets in sync with source code"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docsync: %v\n", err)
		os.Exit(exitUsage)
	}

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.Errorf("%s", err)
		os.Exit(exitUsage)
	}

	err = ctx.Run(&CLI.Globals)
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "docsync: %v\n", err)
	}
	os.Exit(exitCode(err))
}
