package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"market-confluence/src/helpers"
	"market-confluence/src/models"

	"github.com/spf13/cobra"
)

var (
	outlookAt   string
	outlookDays int
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "List the notable macro closing days ahead",
	RunE:  runOutlook,
}

func init() {
	outlookCmd.Flags().StringVar(&outlookAt, "at", "", "start instant (RFC3339 or unix seconds)")
	outlookCmd.Flags().IntVar(&outlookDays, "days", 0, "horizon in calendar days (config value when 0)")
	rootCmd.AddCommand(outlookCmd)
}

// -----------------------------------------------------------------------------

func runOutlook(cmd *cobra.Command, args []string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	at, err := helpers.ParseInstant(outlookAt, time.Now())
	if err != nil {
		return err
	}

	horizon := outlookDays
	if horizon <= 0 {
		horizon = a.params().MacroHorizonDays
	}
	days, err := a.engine.MacroOutlook(at, horizon)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tIMPACT\tSCORE\tCYCLES")
	for _, d := range days {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.DateKey, d.ImpactLevel, d.ConfluenceScore, strings.Join(models.Labels(d.ClosingCycles), " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(days) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No notable macro days in the next %d days\n", horizon)
	}
	return nil
}
