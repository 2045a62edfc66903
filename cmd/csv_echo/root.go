package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/DjordjeVuckovic/csv-echo/internal/apperr"
	"github.com/DjordjeVuckovic/csv-echo/internal/config"
	"github.com/DjordjeVuckovic/csv-echo/internal/emitter"
	"github.com/DjordjeVuckovic/csv-echo/internal/reader"
	"github.com/DjordjeVuckovic/csv-echo/pkg/config/env"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultEnvPath = ".env"

type app struct {
	stdout io.Writer
	level  *slog.LevelVar
	logger *slog.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	level := &slog.LevelVar{}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())

	return &app{
		stdout: stdout,
		level:  level,
		logger: logger,
	}
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "csv-echo FILE --column NAME",
		Short: "Stream a CSV column with semi-random timing",
		Long: `csv-echo prints the values of one CSV column to standard output,
one per line, pausing a random interval between lines to simulate a live log feed.

Settings may also come from CSV_ECHO_* environment variables (optionally loaded
from a .env file, see ENV_PATH) or from a YAML profile given with --profile.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return apperr.NewValidation(fmt.Sprintf("expected exactly one CSV file argument, got %d", len(args)))
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.LoadDotEnv(defaultEnvPath); err != nil {
				return err
			}

			cfg, err := config.Load(args[0], cmd.Flags())
			if err != nil {
				return err
			}
			a.level.Set(cfg.LogLevel)

			return a.echo(cmd.Context(), cfg)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.NewValidationWrap("invalid arguments", err)
	})
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func (a *app) echo(ctx context.Context, cfg *config.Config) error {
	policy, err := cfg.DelayPolicy()
	if err != nil {
		return err
	}

	file, err := os.Open(cfg.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &apperr.FileNotFoundError{Path: cfg.Path, Err: err}
		}
		return fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	defer file.Close()

	e := emitter.New(reader.NewCSVReader(file), a.stdout, cfg.Column,
		emitter.WithDelayPolicy(policy),
		emitter.WithMissingPolicy(cfg.OnMissing),
		emitter.WithLogger(a.logger.With("file", cfg.Path)),
	)

	_, err = e.Run(ctx)
	return err
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	slog.SetDefault(a.logger)

	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	code := apperr.ExitCode(err)

	var ve *apperr.ValidationError
	switch {
	case err == nil:
	case apperr.IsConsumerDisconnected(err):
		a.logger.Debug("Output consumer disconnected, stopping")
	case errors.Is(err, context.Canceled):
		a.logger.Debug("Interrupted, stopping")
	case errors.As(err, &ve):
		fmt.Fprintf(stderr, "Error: %s\nRun '%s --help' for usage.\n", ve.Error(), cmd.Name())
	default:
		a.logger.Error("csv-echo failed", "error", err)
	}

	return code
}
