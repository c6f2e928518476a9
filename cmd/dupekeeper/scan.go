package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ivoronin/dupekeeper/internal/config"
	"github.com/ivoronin/dupekeeper/internal/engine"
	"github.com/ivoronin/dupekeeper/internal/progress"
	"github.com/ivoronin/dupekeeper/internal/quarantine"
	"github.com/ivoronin/dupekeeper/internal/report"
	"github.com/ivoronin/dupekeeper/internal/types"
)

const resolveNone = "none"

// scanOptions holds CLI flags for the scan command that are not config keys.
type scanOptions struct {
	reportFile string
	resolve    string
	yes        bool
	noProgress bool
	verbose    bool
	groups     []int // 1-based group numbers to resolve; empty means all
}

// newScanCmd creates the scan subcommand.
func newScanCmd(g *globalOptions) *cobra.Command {
	opts := &scanOptions{resolve: resolveNone}
	d := engine.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "scan ROOT",
		Short: "Find duplicate files under ROOT",
		Long: `Scans ROOT for files with identical content and the same name (case-insensitive).
In each group the copy in the oldest directory is kept.

With --perceptual, images and videos that look alike are grouped as well,
regardless of name.

Use --resolve quarantine to move redundant copies into a new batch under the
quarantine root (reversible with "dupekeeper undo"), or --resolve delete --yes
to remove them permanently. Groups are numbered as they are listed; --group N
(repeatable) limits resolution to the chosen groups.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, g, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringP(config.KeyMinSize, "m", "0", "Minimum file size (e.g., 100, 1K, 10M, 1G)")
	f.StringSlice(config.KeyIncludeExt, d.IncludeExts, "Only scan these extensions")
	f.StringSlice(config.KeyExcludeExt, d.ExcludeExts, "Never scan these extensions")
	f.StringSlice(config.KeyInclude, d.IncludeGlobs, "Glob patterns a file name must match")
	f.StringSliceP(config.KeyExclude, "e", d.ExcludeGlobs, "Glob patterns to exclude")
	f.Bool(config.KeyPerceptual, d.Perceptual, "Also group visually similar images and videos")
	f.String(config.KeyMetric, d.Metric, "Perceptual hash (ahash, phash)")
	f.Int(config.KeyThreshold, d.Threshold, "Maximum Hamming distance for similar media (0-64)")
	f.IntP(config.KeyWorkers, "w", d.Workers, "Number of parallel hashing workers")
	f.String(config.KeyDigest, d.Digest, "Content digest (sha256, blake3)")
	f.String(config.KeyCacheFile, d.CacheFile, "Path to hash cache file (enables caching)")

	f.StringVar(&opts.reportFile, "report", "", "Write a CSV report of all groups to this file")
	f.StringVar(&opts.resolve, "resolve", opts.resolve, "What to do with redundant copies (none, quarantine, delete)")
	f.BoolVarP(&opts.yes, "yes", "y", false, "Confirm --resolve delete")
	f.BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Show individual file operations")
	f.IntSliceVarP(&opts.groups, "group", "g", nil, "Resolve only group N as numbered in the listing (repeatable)")

	return cmd
}

// parseResolve validates --resolve. An empty mode means report only.
func parseResolve(s string, yes bool) (quarantine.Mode, error) {
	if s == resolveNone || s == "" {
		return "", nil
	}
	mode, err := quarantine.ParseMode(s)
	if err != nil {
		return "", err
	}
	if mode == quarantine.ModeDelete && !yes {
		return "", errors.New("--resolve delete removes files permanently; add --yes to confirm")
	}
	return mode, nil
}

// drainErrors logs non-fatal errors until errs is closed.
func drainErrors(errs <-chan error, log zerolog.Logger, done chan<- struct{}) {
	for err := range errs {
		log.Warn().Err(err).Msg("skipped")
	}
	close(done)
}

// runScan executes the scan pipeline: scan → group → report → resolve.
func runScan(cmd *cobra.Command, g *globalOptions, rootArg string, opts *scanOptions) error {
	cfg, log, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}

	mode, err := parseResolve(opts.resolve, opts.yes)
	if err != nil {
		return err
	}
	if len(opts.groups) > 0 && mode == "" {
		return errors.New("--group requires --resolve")
	}

	root, err := filepath.Abs(rootArg)
	if err != nil {
		return err
	}
	engOpts, err := cfg.Options(root)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	showProgress := !opts.noProgress
	out := cmd.OutOrStdout()
	sink := newConsoleSink(out, showProgress && isTerminal(out))
	reporter := progress.NewReporter(showProgress)

	errs := make(chan error, 100)
	drained := make(chan struct{})
	go drainErrors(errs, log, drained)

	eng, err := engine.New(engine.Config{
		Options:          engOpts,
		Sink:             sink,
		Progress:         reporter,
		Errors:           errs,
		Log:              log,
		ShowScanProgress: showProgress,
	})
	if err != nil {
		close(errs)
		return err
	}

	summary, runErr := eng.Run(ctx)
	reporter.Close()
	close(errs)
	<-drained
	if runErr != nil {
		return runErr
	}
	sink.printSummary()

	if opts.reportFile != "" {
		if err := writeReport(opts.reportFile, sink); err != nil {
			return err
		}
	}

	if mode == "" || len(sink.groups) == 0 {
		return nil
	}
	if summary.Cancelled {
		fmt.Fprintln(out, color.YellowString("Not resolving duplicates of a cancelled scan"))
		return nil
	}

	selected, err := selectGroups(sink.groups, opts.groups)
	if err != nil {
		return err
	}

	mgr := quarantine.NewManager(afero.NewOsFs(), engOpts.QuarantineRoot, log)
	return resolveGroups(ctx, mgr, engOpts.Root, mode, out, selected, opts.verbose)
}

// selectGroups picks groups by their 1-based listing number, in listing order.
// No numbers selects every group.
func selectGroups(groups []types.DuplicateGroup, numbers []int) ([]types.DuplicateGroup, error) {
	if len(numbers) == 0 {
		return groups, nil
	}
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > len(groups) {
			return nil, fmt.Errorf("--group %d: scan found %d groups", n, len(groups))
		}
		want[n] = true
	}
	selected := make([]types.DuplicateGroup, 0, len(want))
	for i, g := range groups {
		if want[i+1] {
			selected = append(selected, g)
		}
	}
	return selected, nil
}

func writeReport(path string, sink *consoleSink) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.WriteCSV(f, sink.groups); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// resolveGroups opens one batch and resolves the given groups in order.
// An interrupt stops between groups; rows already written stay valid.
func resolveGroups(ctx context.Context, mgr *quarantine.Manager, scanRoot string, mode quarantine.Mode, out io.Writer, groups []types.DuplicateGroup, verbose bool) (err error) {
	batch, err := mgr.Open(scanRoot, mode)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := batch.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close batch: %w", cerr)
		}
	}()

	red := color.New(color.FgRed).SprintFunc()

	var resolved, failed int
	var bytes int64
	for _, g := range groups {
		if ctx.Err() != nil {
			fmt.Fprintln(out, color.YellowString("Resolution interrupted"))
			break
		}
		results, err := batch.Resolve(g)
		for i := range results {
			r := &results[i]
			switch r.Action {
			case quarantine.ActionFailed:
				failed++
				fmt.Fprintln(out, red(r.String()))
			default:
				resolved++
				bytes += r.Size
				if verbose {
					fmt.Fprintln(out, r.String())
				}
			}
		}
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}

	fmt.Fprintf(out, "Resolved %d files (%s) in %s batch %s", resolved, humanize.IBytes(uint64(bytes)), batch.Mode(), batch.Dir())
	if failed > 0 {
		fmt.Fprintf(out, ", %s", red(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintln(out)
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && isatty.IsTerminal(f.Fd())
}
