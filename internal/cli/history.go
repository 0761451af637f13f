package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harborwallet/harbor/internal/store"
)

// historyItem is the JSON shape of one history entry.
type historyItem struct {
	Kind       string    `json:"kind"`
	Direction  string    `json:"direction"`
	Mint       string    `json:"mint"`
	AmountSats uint64    `json:"amount_sats"`
	FeeMsats   uint64    `json:"fee_msats"`
	Status     string    `json:"status"`
	Txid       string    `json:"txid,omitempty"`
	Preimage   string    `json:"preimage,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewHistoryCommand creates the history command. It reads straight from
// the database, so it works without a federation runtime.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history",
		Short:         "Show the merged transaction history",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd)
		},
	}
}

func runHistory(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	items, err := db.GetTransactionHistory()
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error())
		return WrapExitError(ExitCommandError, "reading history", err)
	}
	formatter.VerboseLog("Loaded %d history item(s) from %s", len(items), cfg.DBPath())

	if formatter.Format == "json" {
		out := make([]historyItem, 0, len(items))
		for _, it := range items {
			out = append(out, historyItem{
				Kind:       string(it.Kind),
				Direction:  string(it.Direction),
				Mint:       it.Mint.String(),
				AmountSats: it.AmountSats,
				FeeMsats:   it.FeeMsats,
				Status:     it.Status.String(),
				Txid:       it.Txid,
				Preimage:   it.Preimage,
				Timestamp:  it.Timestamp,
			})
		}
		return formatter.Success(out)
	}

	if len(items) == 0 {
		fmt.Fprintln(formatter.Writer, "No transactions yet")
		return nil
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tKIND\tDIRECTION\tMINT\tAMOUNT\tSTATUS\tDETAIL")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d sats\t%s\t%s\n",
			it.Timestamp.Local().Format("2006-01-02 15:04"),
			it.Kind, it.Direction, it.Mint, it.AmountSats, it.Status, historyDetail(it))
	}
	return w.Flush()
}

func historyDetail(it store.TransactionItem) string {
	if it.Txid != "" {
		return "txid=" + it.Txid
	}
	if it.Preimage != "" {
		return "preimage=" + it.Preimage
	}
	return ""
}
