package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"market-confluence/src/models"

	"github.com/spf13/cobra"
)

var (
	eventsLimit int
	eventsKind  string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the most recent journaled confluence events",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "maximum number of events")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "only this kind (phase_change, cluster_escalated, intraday_confluence, macro_confluence)")
	rootCmd.AddCommand(eventsCmd)
}

// -----------------------------------------------------------------------------

func runEvents(cmd *cobra.Command, args []string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	store, err := a.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("event journal is disabled (storage.db_type is none)")
	}
	defer store.Close()

	events, err := store.RecentEvents(eventsLimit, models.EventKind(eventsKind))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OCCURRED\tKIND\tIMPACT\tTIMEFRAMES\tMESSAGE")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ev.OccurredAt.Format("2006-01-02 15:04:05Z07:00"), ev.Kind, ev.Impact, strings.Join(ev.Timeframes, ","), ev.Message)
	}
	return w.Flush()
}
