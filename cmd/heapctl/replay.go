package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/replay"
	"github.com/joshuapare/heapkit/internal/trace"
)

func init() {
	rootCmd.AddCommand(newReplayCmd())
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace>",
		Short: "Run a trace and print allocator statistics",
		Long: `The replay command runs every op of a trace against a fresh allocator,
verifying payload contents before each free, and prints the final statistics.

Example:
  heapctl replay workload.trace
  heapctl replay workload.trace --region file --path heap.bin
  heapctl replay workload.trace --limit 1048576 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args[0])
		},
	}
}

// ReplayReport is the output of replay.
type ReplayReport struct {
	Trace     string      `json:"trace"`
	Region    string      `json:"region"`
	Ops       int         `json:"ops"`
	Allocs    int         `json:"allocs"`
	Frees     int         `json:"frees"`
	Checks    int         `json:"checks"`
	LiveBytes int         `json:"live_bytes"`
	PeakBytes int         `json:"peak_bytes"`
	Stats     alloc.Stats `json:"stats"`
}

func runReplay(ctx context.Context, path string) error {
	return withReplay(ctx, path, func(rep *ReplayReport, _ *alloc.Allocator) error {
		if cfg.JSON {
			return printJSON(rep)
		}

		s := rep.Stats
		printInfo("Trace:        %s (%d ops)\n", rep.Trace, rep.Ops)
		printInfo("Region:       %s, %d units (%d bytes)\n", rep.Region, s.RegionUnits, s.RegionUnits*8)
		printInfo("Allocs/Frees: %d / %d (%d checks)\n", rep.Allocs, rep.Frees, rep.Checks)
		printInfo("Live bytes:   %d (peak %d)\n", rep.LiveBytes, rep.PeakBytes)
		printInfo("In use:       %d units\n", s.InUseUnits)
		printInfo("Free:         %d units in %d blocks\n", s.FreeUnits, s.FreeBlocks)
		printInfo("Growths:      %d (%d units, %d refused)\n", s.GrowCalls, s.GrowUnits, s.GrowFailures)
		printInfo("Splits:       %d, exact fits %d\n", s.Splits, s.ExactFits)
		printInfo("Coalesces:    %d forward, %d backward\n", s.CoalesceForward, s.CoalesceBackward)
		printInfo("Scan steps:   %d\n", s.ScanSteps)
		return nil
	})
}

// withReplay parses and runs the trace at path, then calls fn while the
// allocator's region is still open. The region is closed (and flushed, for
// file regions) before withReplay returns.
func withReplay(ctx context.Context, path string, fn func(*ReplayReport, *alloc.Allocator) error) error {
	script, err := trace.ParseFile(path)
	if err != nil {
		return err
	}

	s, err := openHeap(cfg)
	if err != nil {
		return err
	}

	res, err := replay.Run(ctx, s.a, script)
	if err == nil {
		err = fn(&ReplayReport{
			Trace:     path,
			Region:    cfg.Region,
			Ops:       len(script.Ops),
			Allocs:    res.Allocs,
			Frees:     res.Frees,
			Checks:    res.Checks,
			LiveBytes: res.LiveBytes,
			PeakBytes: res.PeakBytes,
			Stats:     s.a.Stats(),
		}, s.a)
	}
	return errors.Join(err, s.close(ctx))
}
