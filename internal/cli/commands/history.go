package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/redduck/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent operations from the catalog",
		Long: `List recent operations recorded in the operation catalog:
queries, imports, exports, backups, and maintenance runs.`,
		Example: `  # Last 20 operations
  redduck history

  # Everything
  redduck history --limit 0

  # Recorded backups
  redduck history backups`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum operations to show (0 for all)")

	cmd.AddCommand(newHistoryBackupsCommand())

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ops, err := cmdCtx.History.RecentOperations(limit)
	if err != nil {
		return err
	}

	if cmdCtx.Cfg.Format == "json" {
		return renderOperationsJSON(cmd.OutOrStdout(), ops)
	}
	return renderOperationsTable(cmd.OutOrStdout(), ops)
}

func renderOperationsJSON(w io.Writer, ops []*history.Operation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ops)
}

func renderOperationsTable(w io.Writer, ops []*history.Operation) error {
	if len(ops) == 0 {
		_, _ = fmt.Fprintln(w, "(no operations recorded)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"When", "Command", "Detail", "Status", "Duration"})

	for _, op := range ops {
		duration := ""
		if op.CompletedAt != nil {
			duration = (time.Duration(op.DurationMS) * time.Millisecond).String()
		}
		t.AppendRow(table.Row{
			humanize.Time(op.StartedAt),
			op.Command,
			op.Detail,
			string(op.Status),
			duration,
		})
	}
	t.Render()

	return nil
}

func newHistoryBackupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List recorded backups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			backups, err := cmdCtx.History.Backups()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if cmdCtx.Cfg.Format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(backups)
			}

			if len(backups) == 0 {
				_, _ = fmt.Fprintln(w, "(no backups recorded)")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"When", "Path", "Format"})
			for _, b := range backups {
				t.AppendRow(table.Row{humanize.Time(b.CreatedAt), b.Path, b.Format})
			}
			t.Render()
			return nil
		},
	}
}
