/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/suparena/entityfile"
	"github.com/suparena/entityfile/config"
	"github.com/suparena/entityfile/console"
	"github.com/suparena/entityfile/errors"
)

var (
	configPath string
	filePath   string
	backend    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "entityfile [command]",
	Short: "entityfile - console over a JSON-persisted object registry",
	Long: `entityfile manages BaseModel, User, State, City, Amenity, Place and Review
records from an interactive console. Every change is written to a single JSON
snapshot (file.json by default) and reloaded on the next start.

Run without arguments to start the console; pass a command to run it once:

  entityfile create User
  echo 'User.count()' | entityfile`,
	Version:       entityfile.GetVersionInfo().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(cmd); err != nil {
			return err
		}
		level, err := cfg.Level()
		if err != nil {
			return err
		}
		return initLogger(level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default entityfile.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "snapshot file for the file backend (default file.json)")
	rootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", "snapshot backend: file, dynamodb or memory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies the command-line flags on top of config.Load.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("file") {
		c.File = filePath
	}
	if cmd.Flags().Changed("backend") {
		c.Backend = backend
	}
	if verbose {
		c.LogLevel = zapcore.DebugLevel.String()
	}
	return c, c.Validate()
}

func initLogger(level zapcore.Level) error {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	var err error
	logger, err = zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	objects, err := entityfile.Open(ctx, entityfile.DefaultBackends(), cfg, logger)
	if err != nil {
		if !errors.IsCorruptDocument(err) {
			return err
		}
		// Start empty; the next save replaces the unreadable snapshot.
		logger.Warn("ignoring unreadable snapshot", zap.Error(err))
	}

	it := console.NewInterpreter(console.NewService(objects), cmd.OutOrStdout(),
		console.WithInterpreterLogger(logger))

	if len(args) > 0 {
		_, err := it.ExecuteLine(ctx, strings.Join(args, " "))
		return err
	}
	if err := it.Run(ctx, cmd.InOrStdin()); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
