package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manvalan/fdc-railway-engine/app"
	"github.com/manvalan/fdc-railway-engine/core/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Detect and resolve conflicts in the network's timetable",
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg, networkPath)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck
	svc.StartMetrics(ctx)

	trains, err := svc.Doc.TrainList()
	if err != nil {
		return err
	}
	if len(trains) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no timetabled trains in document")
		return nil
	}

	conflicts := svc.Pipeline.DetectConflicts(trains)
	fmt.Fprintf(cmd.OutOrStdout(), "%d trains, %d conflicts\n", len(trains), len(conflicts))
	if len(conflicts) == 0 {
		return nil
	}

	report := svc.Pipeline.ResolveLocally(trains)
	fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
	if report.State == resolver.StateExhausted {
		for _, c := range report.Residual {
			fmt.Fprintf(cmd.OutOrStdout(), "  residual: %s\n", c)
		}
	}
	for id, delay := range report.Delayed {
		fmt.Fprintf(cmd.OutOrStdout(), "  delayed %s by %s\n", id, delay)
	}
	return ctx.Err()
}
