package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memkit/alloc"
	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/internal/report"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	lang    string
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Exercise and inspect memkit allocators",
	Long: `memctl runs allocation workloads against the memkit strategies
(heap, linear, stack, buddy, fallback, pages) and reports the resulting
statistics. It can also print the block layout of a buddy allocator.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.Init(logger.Options{Enabled: true, Level: slog.LevelDebug})
			alloc.SetDebugLog(true)
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log allocator events to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&lang, "lang", "en", "Locale for number formatting (BCP 47)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// newPrinter builds the report printer for the --lang flag.
func newPrinter() (*report.Printer, error) {
	tag, err := report.ParseLang(lang)
	if err != nil {
		return nil, err
	}
	return report.New(tag), nil
}
