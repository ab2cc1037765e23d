package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/envprobe/internal/app"
	"github.com/hamed0406/envprobe/internal/collector"
	"github.com/hamed0406/envprobe/internal/config"
	"github.com/hamed0406/envprobe/internal/domain"
	"github.com/hamed0406/envprobe/internal/logging"
	"github.com/hamed0406/envprobe/internal/notify"
	"github.com/hamed0406/envprobe/internal/report"
	"github.com/hamed0406/envprobe/internal/telemetry"
)

var version = "0.1.0"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envprobe",
		Short: "envprobe: probe this machine and deliver a device report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("log", "l", "", "Set log level. Available: debug, info, warn, error")
	cmd.PersistentFlags().String("config", "", "probe tuning YAML file (overrides PROBE_CONFIG)")

	cmd.PersistentPreRun = func(c *cobra.Command, args []string) {
		if path, _ := c.Flags().GetString("config"); path != "" {
			_ = os.Setenv("PROBE_CONFIG", path)
		}
		if level, _ := c.Flags().GetString("log"); level != "" {
			_ = os.Setenv("LOG_LEVEL", level)
		}
	}

	cmd.AddCommand(newCollectCmd())
	cmd.AddCommand(newSignalsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newCollectCmd() *cobra.Command {
	var (
		target string
		noSend bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Probe the local host, print the report and deliver it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Dir:     cfg.LogDir,
				File:    "cli.log",
				Level:   cfg.LogLevel,
				Console: consoleFor(cfg.LogLevel, cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), app.Timeout(cfg))
			defer cancel()

			shutdownTracing, err := telemetry.Setup(ctx, "envprobe-cli", cfg.OTLPEndpoint)
			if err != nil {
				logger.Warn("tracing_disabled", zap.Error(err))
			}
			defer shutdownTracing(context.Background())

			var sink notify.Sink = notify.Disabled{}
			if !noSend {
				sink = app.Sink(cfg)
			}
			c := app.NewCollector(cfg, logger, sink)

			res, err := c.Collect(ctx, collector.Request{
				Target:  domain.TargetID(target),
				Consent: true, // the operator runs this on their own machine
				Sources: app.HostSources(cfg),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(out, res.Text)
			if !noSend {
				if res.Outcome.OK {
					fmt.Fprintln(cmd.ErrOrStderr(), "✔ delivered to", target)
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), "⚠ not delivered:", res.Outcome.Detail)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "delivery target (Telegram chat id)")
	cmd.Flags().BoolVar(&noSend, "no-send", false, "print the report without delivering it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured report as JSON")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newSignalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "List the signals a report contains, in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range report.Declared {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "envprobe", version)
		},
	}
}

// consoleFor echoes log lines to the terminal only when a level was asked for.
func consoleFor(level string, w io.Writer) io.Writer {
	if level == "" || level == "info" {
		return nil
	}
	return w
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✖", err)
		os.Exit(1)
	}
}
