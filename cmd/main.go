package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"syncshield/internal/application"
	"syncshield/internal/config"
	"syncshield/internal/server"
	"syncshield/pkg/contextx"
	"syncshield/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Default().Error("application failed", logx.Error(err))
		os.Exit(1) //nolint:gocritic
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	root := &cobra.Command{
		Use:           "syncshield",
		Short:         "Bid admission guard and cross-platform budget optimizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.AddCommand(serve, newReportCommand(), newImportCostsCommand())

	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bid API, the reallocation loop and the operator bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}

			if err := app.Run(ctx); err != nil {
				return fmt.Errorf("app.Run: %w", err)
			}

			logger(ctx).Info("application stopped")

			return nil
		},
	}
}

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print one efficiency report as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			report, err := app.Report(ctx)
			if err != nil {
				return fmt.Errorf("app.Report: %w", err)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			if err := encoder.Encode(server.NewRESTEfficiencyReport(report)); err != nil {
				return fmt.Errorf("encoder.Encode: %w", err)
			}

			return nil
		},
	}
}

func newImportCostsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-costs <file>",
		Short: "Load platform costs and daily budgets from a YAML file into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close(ctx)

			n, err := app.ImportCosts(ctx, args[0])
			if err != nil {
				return fmt.Errorf("app.ImportCosts: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d platforms\n", n)

			return nil
		},
	}
}

// bootstrap loads the configuration and installs the tint logger. Logs go
// to stderr so command output stays parseable.
func bootstrap(ctx context.Context) (context.Context, *application.Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return ctx, nil, fmt.Errorf("config.Load: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		return ctx, nil, fmt.Errorf("level.UnmarshalText: %w", err)
	}

	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
	})).With(slog.String("app", cfg.App.Name))

	slog.SetDefault(log)

	return contextx.WithLogger(ctx, log), application.New(cfg), nil
}

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
