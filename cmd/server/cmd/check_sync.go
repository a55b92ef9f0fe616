package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kabumemo/kabumemo/internal/di"
	"github.com/kabumemo/kabumemo/internal/storage"
	"github.com/spf13/cobra"
)

// errOutOfSync makes the process exit non-zero when drift is found.
var errOutOfSync = errors.New("sqlite mirror is out of sync with the JSON files")

var checkSyncVerbose bool

var checkSyncCmd = &cobra.Command{
	Use:   "check-sync",
	Short: "Compare the JSON files with the SQLite mirror",
	Long: `Compare every JSON collection with its SQLite mirror table and report
missing or mismatched records. Exits with status 1 when any difference is found.

The mirror is opened read-only in spirit: nothing is seeded or synchronized.`,
	RunE: runCheckSync,
}

func init() {
	rootCmd.AddCommand(checkSyncCmd)
	checkSyncCmd.Flags().BoolVarP(&checkSyncVerbose, "verbose", "v", false, "list the identifiers of differing records")
}

func runCheckSync(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	container, err := di.OpenStorage(cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer container.Close()

	report, err := container.Repository.CheckSync(context.Background())
	if err != nil {
		return fmt.Errorf("check sync: %w", err)
	}

	printSyncReport(cmd.OutOrStdout(), report, checkSyncVerbose)
	if !report.Clean() {
		return errOutOfSync
	}
	return nil
}

func printSyncReport(w io.Writer, report storage.SyncReport, verbose bool) {
	for _, c := range report.Collections {
		status := "OK"
		if !c.Clean() {
			status = "DIFF"
		}
		fmt.Fprintf(w, "%-20s json=%-5d sqlite=%-5d %s\n", c.Label, c.JSONCount, c.SQLiteCount, status)

		if !verbose || c.Clean() {
			continue
		}
		printIDs(w, "missing in sqlite", c.MissingInSQLite)
		printIDs(w, "missing in json", c.MissingInJSON)
		printIDs(w, "mismatched", c.Mismatched)
	}
}

func printIDs(w io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(ids, ", "))
}
