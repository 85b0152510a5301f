package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"conferencecompanion/internal/domain"
)

var eventsJSONOut bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the event catalog",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the events of the catalog",
	Long: `List the events of the configured catalog. The active event is marked
with an asterisk.

Examples:
  companion events list
  companion events list --json`,
	RunE: runEventsList,
}

func init() {
	eventsListCmd.Flags().BoolVar(&eventsJSONOut, "json", false, "print JSON instead of a table")
	eventsCmd.AddCommand(eventsListCmd)
}

func runEventsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	events, err := a.loadEvents(cmd.Context())
	if err != nil {
		return err
	}
	if eventsJSONOut {
		return writeJSON(cmd.OutOrStdout(), events)
	}
	return writeEventsTable(cmd.OutOrStdout(), events, a.events.Snapshot().ActiveEventID)
}

func writeEventsTable(out io.Writer, events []domain.ConferenceEvent, activeID string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tDATES\tDAYS\tSPEAKERS")
	for _, ev := range events {
		mark := ""
		if ev.ID == activeID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s..%s\t%d\t%d\n", mark, ev.ID, ev.Name, ev.StartDate, ev.EndDate, len(ev.Days), len(ev.Speakers))
	}
	return tw.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
