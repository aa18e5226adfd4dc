package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewVacuumCommand creates the vacuum command.
func NewVacuumCommand() *cobra.Command {
	var checkpoint bool

	cmd := &cobra.Command{
		Use:   "vacuum",
		Short: "Reclaim free space in the database",
		Long: `Run VACUUM to reclaim free space. With --checkpoint, also force
a CHECKPOINT to flush the write-ahead log into the main file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVacuum(cmd, checkpoint)
		},
	}

	cmd.Flags().BoolVar(&checkpoint, "checkpoint", false, "Also run CHECKPOINT after vacuuming")

	return cmd
}

func runVacuum(cmd *cobra.Command, checkpoint bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return cmdCtx.Record("vacuum", "", func() error {
		ctx := cmd.Context()
		if err := cmdCtx.Controller.Vacuum(ctx); err != nil {
			return err
		}
		if checkpoint {
			if err := cmdCtx.Controller.Checkpoint(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "Vacuum complete")
		if !cmdCtx.Controller.InMemory() {
			if size, err := cmdCtx.Controller.FileSize(); err == nil {
				_, _ = fmt.Fprintf(out, "Database file size: %s\n", humanize.Bytes(uint64(size)))
			}
		}
		return nil
	})
}
