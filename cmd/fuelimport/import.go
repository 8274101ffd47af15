package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetops/fuelimport/internal/importer"
)

var importPattern string

func init() {
	importDirCmd.Flags().StringVar(&importPattern, "pattern", "*.csv", "file name pattern to match")
	rootCmd.AddCommand(importCmd, importDirCmd, batchesCmd, versionCmd)
}

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Import one or more transaction export files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		var failed bool
		for _, path := range args {
			fileCtx, cancel := timeoutContext(ctx, app)
			res, err := app.importer.ImportFile(fileCtx, path)
			cancel()
			if err != nil {
				failed = true
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			}
			if res != nil {
				printResult(cmd, res)
			}
		}
		if failed {
			return fmt.Errorf("one or more files failed")
		}
		return nil
	},
}

var importDirCmd = &cobra.Command{
	Use:   "import-dir DIR",
	Short: "Import every matching file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer app.close()

		results, err := app.importer.ImportDir(ctx, args[0], importPattern)
		for _, res := range results {
			printResult(cmd, res)
		}
		return err
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List recent import batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		app, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		batches, err := app.store.RecentBatches(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no import batches")
			return nil
		}
		for _, b := range batches {
			fmt.Fprintf(cmd.OutOrStdout(),
				"%-32s %-24s %-12s %-10s rows=%d ok=%d err=%d dup=%d skip=%d\n",
				b.BatchID, b.FileName, b.Layout, b.Status,
				b.TotalRows, b.SuccessRows, b.ErrorRows, b.DuplicateRows, b.SkippedRows)
		}
		return nil
	},
}

func init() {
	batchesCmd.Flags().Int("limit", 20, "maximum batches to list")
}

func printResult(cmd *cobra.Command, res *importer.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s [%s, %s] total=%d ok=%d err=%d dup=%d skip=%d\n",
		res.FileName, res.Status, res.Layout, res.Encoding,
		res.TotalRows, res.SuccessRows, res.ErrorRows, res.DuplicateRows, res.SkippedRows)
	for _, issue := range res.Errors {
		fmt.Fprintf(out, "  %s\n", issue)
	}
}
