package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables in the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return renderTableList(cmd.Context(), cmd.OutOrStdout(), cmdCtx, cmdCtx.Cfg.Format)
		},
	}
}

func renderTableList(ctx context.Context, w io.Writer, cmdCtx *CommandContext, format string) error {
	tables, err := cmdCtx.Controller.Tables(ctx)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	}

	if len(tables) == 0 {
		_, _ = fmt.Fprintln(w, "(no tables)")
		return nil
	}
	for _, name := range tables {
		_, _ = fmt.Fprintln(w, name)
	}
	return nil
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema and row count for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return renderSchema(cmd.Context(), cmd.OutOrStdout(), cmdCtx, args[0], cmdCtx.Cfg.Format)
		},
	}
}

func renderSchema(ctx context.Context, w io.Writer, cmdCtx *CommandContext, tableName, format string) error {
	meta, err := cmdCtx.Controller.Metadata(ctx, tableName)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	_, _ = fmt.Fprintf(w, "Table: %s.%s (%d rows)\n", meta.Schema, meta.Name, meta.RowCount)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Nullable"})

	for _, col := range meta.Columns {
		nullable := "YES"
		if !col.Nullable {
			nullable = "NO"
		}
		t.AppendRow(table.Row{col.Name, col.Type, nullable})
	}
	t.Render()

	return nil
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count <table>",
		Short: "Count rows in a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			count, err := cmdCtx.Controller.Count(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}
