package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kabumemo/kabumemo/internal/di"
	"github.com/spf13/cobra"
)

var refreshQuotesForce bool

var refreshQuotesCmd = &cobra.Command{
	Use:   "refresh-quotes",
	Short: "Fetch the latest closes for every traded instrument",
	Long: `Refresh stored quotes from the market data provider. Without --force the
refresh is skipped when every stored quote is already dated today.

Example:
  kabumemo refresh-quotes --force`,
	RunE: runRefreshQuotes,
}

func init() {
	rootCmd.AddCommand(refreshQuotesCmd)
	refreshQuotesCmd.Flags().BoolVar(&refreshQuotesForce, "force", false, "refresh even when quotes are current")
}

func runRefreshQuotes(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	container, _, err := di.Wire(cfg, log)
	if err != nil {
		return fmt.Errorf("wire dependencies: %w", err)
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container.OpLock.Lock()
	snap, err := container.QuoteService.Refresh(ctx, refreshQuotesForce)
	container.OpLock.Unlock()
	if err != nil {
		return fmt.Errorf("refresh quotes: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, q := range snap.Records {
		fmt.Fprintf(out, "%-10s %-2s %14.4f %s\n", q.Symbol, q.Market, q.Price, q.Currency)
	}
	fmt.Fprintf(out, "%d quotes as of %s\n", len(snap.Records), snap.AsOf)
	return nil
}
