package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/trogers1052/trading-journal/internal/ledger"
)

var (
	tradesStatus string
	reportJSON   bool
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List journal trades",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false, false)
		if err != nil {
			return err
		}
		defer a.Close()

		trades, err := a.journal.Trades(tradesStatus)
		if err != nil {
			return err
		}
		if reportJSON {
			return writeJSON(cmd.OutOrStdout(), trades)
		}
		return writeTrades(cmd.OutOrStdout(), trades)
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show performance by account and by source",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false, false)
		if err != nil {
			return err
		}
		defer a.Close()

		byAccount := a.journal.AnalyticsByAccount()
		bySource := a.journal.AnalyticsBySource()
		summary := a.journal.Summary()

		if reportJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"accounts":   byAccount,
				"sources":    bySource,
				"summary":    summary,
				"valuations": a.journal.Valuations(),
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "By account")
		writeStats(out, byAccount)
		fmt.Fprintln(out, "\nBy source")
		writeStats(out, bySource)
		fmt.Fprintln(out, "\nOverall")
		return writeStats(out, []ledger.Stats{summary})
	},
}

func init() {
	tradesCmd.Flags().StringVar(&tradesStatus, "status", "", "filter by status (active|closed)")
	rootCmd.PersistentFlags().BoolVar(&reportJSON, "json", false, "print JSON instead of a table")
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTrades(w io.Writer, trades []ledger.TradeView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tACCOUNT\tTICKER\tDIR\tENTRY\tSIZE\tP/L\tP/L %\tDAYS")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			t.ID, t.Status, t.Account, t.Ticker, t.Direction,
			t.EntryPrice.StringFixed(2), t.PositionSize.StringFixed(2),
			t.ProfitLoss.StringFixed(2), t.ProfitLossPercent.StringFixed(2), t.DaysHeld)
	}
	return tw.Flush()
}

func writeStats(w io.Writer, stats []ledger.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTRADES\tWIN %\tTOTAL P/L\tAVG P/L")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			s.Key, s.Trades, s.WinRate.StringFixed(1), s.TotalPL.StringFixed(2), s.AvgPL.StringFixed(2))
	}
	return tw.Flush()
}
