package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext, format string) error {
	ctx := cmd.Context()
	ctrl := cmdCtx.Controller

	// Keep readline history next to the operation catalog
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.HistoryPath), "query_history")

	// Get table names for completion
	completer := newTableCompleter(ctx, cmdCtx)

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "redduck> ",
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "redduck REPL (database: %s)\n", ctrl.Path())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("redduck> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleDotCommand(ctx, cmd, cmdCtx, line, format); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("    ...> ")
			continue
		}
		rl.SetPrompt("redduck> ")

		// Execute query
		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeAndRenderQuery(ctx, cmd, cmdCtx, query, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// executeAndRenderQuery executes a query and renders results, properly closing rows with defer.
func executeAndRenderQuery(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, query, format string) error {
	rows, err := cmdCtx.Controller.Query(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, cmdCtx *CommandContext, line, format string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".tables":
		if err := renderTableList(ctx, cmd.OutOrStdout(), cmdCtx, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return true
		}
		if err := renderSchema(ctx, cmd.OutOrStdout(), cmdCtx, parts[1], format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List all tables
  .schema <name>  Show schema for a table
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for table names.
func newTableCompleter(ctx context.Context, cmdCtx *CommandContext) *readline.PrefixCompleter {
	tables, err := cmdCtx.Controller.Tables(ctx)
	if err != nil {
		return readline.NewPrefixCompleter()
	}

	var items []readline.PrefixCompleterInterface
	for _, name := range tables {
		items = append(items, readline.PcItem(name))
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
