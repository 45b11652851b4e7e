package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"hello-mcp-go/internal/config"
	"hello-mcp-go/internal/greeting"
	"hello-mcp-go/internal/server"
)

type options struct {
	configPath string
	transport  string
	addr       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "hello-mcp",
		Short: "Greeting tools served over the Model Context Protocol",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the greeting settings file (YAML or JSON)")
	flags.StringVar(&opts.transport, "transport", config.TransportStdio, "Transport to serve on: stdio or http")
	flags.StringVar(&opts.addr, "addr", ":8080", "Listen address for the http transport")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("hello-mcp version %s\n", version))

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the greeting tools (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "languages",
		Short: "Print the configured language table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanguages(cmd, opts)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hello-mcp version %s\n", version)
		},
	})

	return root
}

// loadConfig merges environment settings with any flags set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("config") {
		cfg.Path = opts.configPath
	}
	if flags.Changed("transport") {
		cfg.Transport = opts.transport
	}
	if flags.Changed("addr") {
		cfg.Addr = opts.addr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.WarnLevel
	}

	// Stdout carries protocol frames in stdio mode, so logs go to stderr.
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		errLogger := newLogger("error")
		errLogger.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	logger := newLogger(cfg.LogLevel)

	svc := greeting.NewService(config.LoadGreeting(cfg.Path, logger))

	serverCfg := server.DefaultConfig()
	serverCfg.ServerInfo.Version = version
	serverCfg.LogLevel = cfg.LogLevel

	srv, err := server.New(serverCfg, svc, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create server")
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer srv.Shutdown(context.Background())

	switch cfg.Transport {
	case config.TransportHTTP:
		err = srv.ListenAndServe(ctx, cfg.Addr)
	default:
		err = srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
	if err != nil {
		logger.Error().Err(err).Str("transport", cfg.Transport).Msg("Server failed")
		return err
	}
	return nil
}

func runLanguages(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	svc := greeting.NewService(config.LoadGreeting(cfg.Path, logger))
	table := svc.Languages()

	out := cmd.OutOrStdout()
	for _, code := range table.Codes() {
		word, _ := table.Lookup(code)
		fmt.Fprintf(out, "%s\t%s\n", code, word)
	}
	return nil
}
