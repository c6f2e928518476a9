package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ivoronin/dupekeeper/internal/quarantine"
)

// newUndoCmd creates the undo subcommand.
func newUndoCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo [BATCH_DIR]",
		Short: "Restore the files of a quarantine batch",
		Long: `Moves every quarantined file of a batch back to where it was found.
Without BATCH_DIR the most recent batch under the quarantine root is used.

Deleted files cannot be restored. A file whose original path is taken again
is restored next to it as "name (restored N).ext".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			mgr := quarantine.NewManager(afero.NewOsFs(), cfg.QuarantineRoot, log)

			var dir string
			if len(args) == 1 {
				dir, err = filepath.Abs(args[0])
			} else {
				dir, err = mgr.Latest()
			}
			if err != nil {
				return err
			}

			res, err := mgr.Undo(dir)
			if err != nil {
				return fmt.Errorf("undo %s: %w", dir, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d files from %s\n", color.GreenString("Restored"), res.Restored, dir)
			if res.Errors > 0 {
				return fmt.Errorf("%d files could not be restored, see %s", res.Errors, filepath.Join(dir, "actions.log"))
			}
			return nil
		},
	}
}

// newBatchesCmd creates the batches subcommand.
func newBatchesCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batches",
		Short: "List quarantine batches, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			batches, err := quarantine.NewManager(afero.NewOsFs(), cfg.QuarantineRoot, log).List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(batches) == 0 {
				fmt.Fprintf(out, "No batches in %s\n", cfg.QuarantineRoot)
				return nil
			}

			gray := color.New(color.FgHiBlack).SprintFunc()
			for _, b := range batches {
				fmt.Fprintf(out, "%s  %d operations", color.CyanString(filepath.Base(b.Dir)), b.Operations)
				if m := b.Manifest; m != nil {
					fmt.Fprintf(out, "  %s  %s", m.Mode, gray(m.ScanRoot))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
