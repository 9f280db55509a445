package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/format"
)

func init() {
	rootCmd.AddCommand(newFreelistCmd())
}

func newFreelistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "freelist <trace>",
		Short: "Run a trace and print the resulting free list",
		Long: `The freelist command runs a trace and prints every free block in list
order, starting after the sentinel. The block the next search starts after is
marked with '*'.

Example:
  heapctl freelist workload.trace
  heapctl freelist workload.trace --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreelist(cmd.Context(), args[0])
		},
	}
}

// FreeBlockInfo is one free block as printed by freelist.
type FreeBlockInfo struct {
	Ref    uint32 `json:"ref"`
	Offset int    `json:"offset"`
	Units  uint32 `json:"units"`
	Bytes  int    `json:"bytes"`
	Cursor bool   `json:"cursor,omitempty"`
}

func runFreelist(ctx context.Context, path string) error {
	return withReplay(ctx, path, func(_ *ReplayReport, a *alloc.Allocator) error {
		blocks := freeBlockInfos(a)

		if cfg.JSON {
			return printJSON(blocks)
		}

		printInfo("%-10s %-12s %-10s %s\n", "REF", "OFFSET", "UNITS", "BYTES")
		for _, b := range blocks {
			mark := ""
			if b.Cursor {
				mark = " *"
			}
			printInfo("%-10d %#-12x %-10d %d%s\n", b.Ref, b.Offset, b.Units, b.Bytes, mark)
		}
		printInfo("%d free blocks\n", len(blocks))
		return nil
	})
}

func freeBlockInfos(a *alloc.Allocator) []FreeBlockInfo {
	cursor := a.Cursor()
	blocks := a.FreeBlocks()
	out := make([]FreeBlockInfo, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, FreeBlockInfo{
			Ref:    uint32(b.Ref),
			Offset: int(b.Ref-1) * format.UnitSize,
			Units:  b.Units,
			Bytes:  int(b.Units) * format.UnitSize,
			Cursor: b.Ref == cursor,
		})
	}
	return out
}
