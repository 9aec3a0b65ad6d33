package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manvalan/fdc-railway-engine/app"
	"github.com/manvalan/fdc-railway-engine/core/schedule"
)

var (
	genLine     string
	genCategory string
	genFrom     string
	genTo       string
	genEvery    int
	genCode     int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Emit generated services for a line as JSON, without scheduling them",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genLine, "line", "", "line id to generate services for")
	generateCmd.Flags().StringVar(&genCategory, "category", "regional",
		"service category ("+strings.Join(schedule.Categories(), ", ")+")")
	generateCmd.Flags().StringVar(&genFrom, "from", "06:00", "first departure (HH:MM)")
	generateCmd.Flags().StringVar(&genTo, "to", "22:00", "last departure (HH:MM)")
	generateCmd.Flags().IntVar(&genEvery, "every", 60, "cadence in minutes")
	generateCmd.Flags().IntVar(&genCode, "first-code", 0, "train code of the first service")
	_ = generateCmd.MarkFlagRequired("line")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg, networkPath)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	line, ok := svc.Doc.Line(genLine)
	if !ok {
		return fmt.Errorf("line %q not found in %s", genLine, networkPath)
	}
	first, err := parseClockFlag(genFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	last, err := parseClockFlag(genTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	gen, err := schedule.NewGenerator(line, genCategory, genCode)
	if err != nil {
		return err
	}
	trains, err := gen.Batch(first, last, time.Duration(genEvery)*time.Minute)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(trains)
}
