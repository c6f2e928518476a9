package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/ivoronin/dupekeeper/internal/engine"
	"github.com/ivoronin/dupekeeper/internal/types"
)

// clearLine erases a progress bar drawn on the same terminal line.
const clearLine = "\r\033[K"

// consoleSink prints groups as they arrive and keeps them for resolution.
type consoleSink struct {
	w     io.Writer
	clear bool // Progress bar active; clear its line before printing

	groups  []types.DuplicateGroup
	summary engine.Summary
}

func newConsoleSink(w io.Writer, clear bool) *consoleSink {
	return &consoleSink{w: w, clear: clear}
}

func (s *consoleSink) Group(g types.DuplicateGroup) {
	s.groups = append(s.groups, g)

	if s.clear {
		fmt.Fprint(s.w, clearLine)
	}
	kind := color.New(color.FgCyan).SprintFunc()
	keep := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(s.w, "[%d] %s %s %s\n", len(s.groups), kind(g.Kind().String()), gray(g.Key.String()), humanize.IBytes(uint64(g.Size)))
	fmt.Fprintf(s.w, "  keep %s\n", keep(g.Keep.Path))
	for _, p := range g.OtherPaths() {
		fmt.Fprintf(s.w, "  dup  %s\n", p)
	}
}

func (s *consoleSink) Done(sum engine.Summary) {
	s.summary = sum
}

// printSummary writes the scan totals and any capability notices.
func (s *consoleSink) printSummary() {
	sum := s.summary
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, n := range sum.Notices {
		fmt.Fprintf(s.w, "%s %s\n", yellow("note:"), n)
	}
	if sum.Cancelled {
		fmt.Fprintln(s.w, yellow("Scan cancelled, results are partial"))
	}
	fmt.Fprintf(s.w, "Found %d duplicate groups (%d redundant files), %s reclaimable in %.1fs\n",
		sum.Groups, sum.DuplicateFiles, humanize.IBytes(uint64(sum.DuplicateBytes)), sum.Elapsed.Seconds())
}
