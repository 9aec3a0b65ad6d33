package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/manvalan/fdc-railway-engine/app"
	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/schedule"
)

var (
	insertLine     string
	insertCategory string
	insertFrom     string
	insertTo       string
	insertEvery    int
	insertCode     int
	insertOracle   bool
)

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "Generate a cadenced batch for a line and fit it into the timetable",
	RunE:  runInsert,
}

func init() {
	insertCmd.Flags().StringVar(&insertLine, "line", "", "line id to generate services for")
	insertCmd.Flags().StringVar(&insertCategory, "category", "regional",
		"service category ("+strings.Join(schedule.Categories(), ", ")+")")
	insertCmd.Flags().StringVar(&insertFrom, "from", "06:00", "first departure (HH:MM)")
	insertCmd.Flags().StringVar(&insertTo, "to", "22:00", "last departure (HH:MM)")
	insertCmd.Flags().IntVar(&insertEvery, "every", 60, "cadence in minutes")
	insertCmd.Flags().IntVar(&insertCode, "first-code", 0, "train code of the first service")
	insertCmd.Flags().BoolVar(&insertOracle, "oracle", false, "consult the external optimizer")
	_ = insertCmd.MarkFlagRequired("line")
	rootCmd.AddCommand(insertCmd)
}

func runInsert(cmd *cobra.Command, args []string) error {
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
	go svc.WatchProgress(ctx)

	line, ok := svc.Doc.Line(insertLine)
	if !ok {
		return fmt.Errorf("line %q not found in %s", insertLine, networkPath)
	}
	first, err := parseClockFlag(insertFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	last, err := parseClockFlag(insertTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	gen, err := schedule.NewGenerator(line, insertCategory, insertCode)
	if err != nil {
		return err
	}
	batch, err := gen.Batch(first, last, time.Duration(insertEvery)*time.Minute)
	if err != nil {
		return err
	}

	existing, err := svc.Doc.TrainList()
	if err != nil {
		return err
	}

	res, err := svc.Pipeline.Execute(ctx, batch, existing, insertOracle)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: inserted %d services on %s\n", res.RunID, len(batch), line.Name)
	fmt.Fprintf(out, "  baseline conflicts: %d\n", res.BaselineConflicts)
	fmt.Fprintf(out, "  residual conflicts: %d\n", res.ResidualConflicts)
	if res.OracleApplied {
		fmt.Fprintln(out, "  oracle proposal applied")
	}
	for _, c := range res.DisplayResidual() {
		fmt.Fprintf(out, "  residual: %s\n", c)
	}
	return nil
}

func parseClockFlag(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock time %q", s)
	}
	return model.NormalizeClock(t), nil
}
