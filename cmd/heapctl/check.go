package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <trace>",
		Short: "Run a trace and verify free-list invariants",
		Long: `The check command runs a trace and then verifies the free list:
address order with a single wrap, no adjacent free blocks, every block inside
the region, and free plus in-use units equal to the region size. It exits
non-zero on any violation.

Example:
  heapctl check workload.trace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), args[0])
		},
	}
}

// CheckReport is the output of check.
type CheckReport struct {
	Trace      string `json:"trace"`
	OK         bool   `json:"ok"`
	FreeBlocks int    `json:"free_blocks"`
	Error      string `json:"error,omitempty"`
}

func runCheck(ctx context.Context, path string) error {
	return withReplay(ctx, path, func(rep *ReplayReport, a *alloc.Allocator) error {
		checkErr := a.Check()
		out := CheckReport{
			Trace:      path,
			OK:         checkErr == nil,
			FreeBlocks: rep.Stats.FreeBlocks,
		}
		if checkErr != nil {
			out.Error = checkErr.Error()
		}

		if cfg.JSON {
			if err := printJSON(out); err != nil {
				return err
			}
		} else if checkErr == nil {
			printInfo("OK: %s (%d ops, %d free blocks)\n", path, rep.Ops, out.FreeBlocks)
		}

		if checkErr != nil {
			return fmt.Errorf("check failed: %w", checkErr)
		}
		return nil
	})
}
