package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/warmline/internal/config"
	"github.com/soyeahso/warmline/internal/store"
	"github.com/spf13/cobra"
)

var errJournalDisabled = errors.New("journal is disabled (journal.enabled: false)")

func newJournalCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "journal [conference]",
		Short: "List journaled call events",
		Long:  "List call lifecycle events, oldest first. With a conference name, only that call's events are shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conference := ""
			if len(args) == 1 {
				conference = args[0]
			}

			db, err := openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := store.NewSQLiteJournal(db).List(cmd.Context(), conference, limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			return printEvents(cmd.OutOrStdout(), events)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of events (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print events as JSON")

	cmd.AddCommand(newJournalPruneCmd())
	return cmd
}

func newJournalPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journaled events older than a duration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			db, err := openJournal()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := store.NewSQLiteJournal(db).Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d event(s)\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the oldest event to keep")
	return cmd
}

func openJournal() (*store.DB, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, errJournalDisabled
	}
	return store.Open(paths.JournalPath(cfg), log)
}

func printEvents(w io.Writer, events []store.CallEvent) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No events.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tCONFERENCE\tAI CALL\tEVENT\tDETAIL")
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			ev.At.Local().Format(time.DateTime), dash(ev.Conference), dash(ev.AICallID), ev.Event, dash(ev.Detail))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
