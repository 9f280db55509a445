package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	cfg    Config
	envErr error
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Replay allocation traces against the heapkit allocator",
	Long: `heapctl runs allocation traces against a next-fit free-list allocator
and reports statistics, the resulting free list, and invariant violations.

Trace format, one op per line:
  alloc <name> <bytes>
  free <name>
  check

Flag defaults can be set with HEAPCTL_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envErr != nil {
			return envErr
		}
		if cfg.Verbose {
			logger.Init(logger.Options{Enabled: true, JSON: cfg.JSON, Level: slog.LevelDebug})
		}
		return nil
	},
}

func init() {
	cfg, envErr = loadConfig()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Region, "region", cfg.Region, "Region backing the heap: mem, anon or file")
	flags.StringVar(&cfg.Path, "path", cfg.Path, "Backing file for --region file")
	flags.IntVar(&cfg.Limit, "limit", cfg.Limit, "Region size cap in bytes (0 = unlimited; mem and file)")
	flags.IntVar(&cfg.Reserve, "reserve", cfg.Reserve, "Address space reserved for --region anon")
	flags.Uint32Var(&cfg.MinGrow, "min-grow", cfg.MinGrow, "Smallest growth request in units")
	flags.BoolVar(&cfg.JSON, "json", cfg.JSON, "Output in JSON format")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Log allocator activity to stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints to stdout
func printInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
