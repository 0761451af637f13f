package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harborwallet/harbor/internal/fedclient"
	"github.com/harborwallet/harbor/internal/metadata"
	"github.com/harborwallet/harbor/internal/wallet"
)

// NewRunCommand creates the run command: start the wallet core and stream
// its notifications to stdout until interrupted.
func NewRunCommand(rootOpts *RootOptions, factory fedclient.Factory) *cobra.Command {
	return &cobra.Command{
		Use:           "run",
		Short:         "Run the wallet and stream notifications",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWallet(rootOpts, factory, cmd)
		},
	}
}

func runWallet(opts *RootOptions, factory fedclient.Factory, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if factory == nil {
		err := NewExitError(ExitCommandError, "no federation runtime in this build")
		_ = formatter.Error(ErrCodeNoRuntime, err.Message)
		return err
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

	// The config file wins over whatever the flags were last set to.
	profile, err := db.GetProfile()
	if err != nil {
		return WrapExitError(ExitCommandError, "reading profile", err)
	}
	if profile != nil {
		if err := db.SetOnchainReceiveEnabled(cfg.OnchainReceiveEnabled); err != nil {
			return WrapExitError(ExitCommandError, "applying config", err)
		}
		if err := db.SetTorEnabled(cfg.TorEnabled); err != nil {
			return WrapExitError(ExitCommandError, "applying config", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe := wallet.NewPipe()
	core, err := wallet.NewCore(ctx, db, factory, pipe, metadata.NewCache())
	if err != nil {
		return WrapExitError(ExitCommandError, "starting wallet core", err)
	}
	defer core.Close()

	formatter.VerboseLog("Wallet running with %d federation(s), %d cashu mint(s)",
		len(core.Federations()), len(core.CashuMints()))
	core.Balances(ctx)

	for {
		m, ok := pipe.Next(ctx)
		if !ok {
			return nil
		}
		printMsg(formatter, m)
	}
}

// printMsg renders one notification. JSON mode emits one envelope per
// message; text mode prints a short human line.
func printMsg(f *OutputFormatter, m wallet.Msg) {
	if f.Format == "json" {
		_ = f.Success(map[string]any{
			"type":    fmt.Sprintf("%T", m.Payload),
			"payload": m.Payload,
		})
		return
	}
	fmt.Fprintln(f.Writer, renderPayload(m.Payload))
}

func renderPayload(p wallet.Payload) string {
	switch v := p.(type) {
	case wallet.Sending:
		return "sending payment"
	case wallet.SendSuccess:
		if v.Txid != "" {
			return "payment sent, txid " + v.Txid
		}
		return "payment sent"
	case wallet.SendFailure:
		return "payment failed: " + v.Reason
	case wallet.ReceiveGenerating:
		return "generating receive request"
	case wallet.ReceiveInvoiceGenerated:
		return "invoice ready: " + v.Invoice.Encoded
	case wallet.ReceiveAddressGenerated:
		return "deposit address: " + v.Address
	case wallet.ReceiveSuccess:
		return "payment received"
	case wallet.ReceiveFailed:
		return "receive failed: " + v.Reason
	case wallet.TransferFailure:
		return "transfer failed: " + v.Reason
	case wallet.MintBalanceUpdated:
		return fmt.Sprintf("balance of %s: %d sats", v.Mint, v.BalanceSats)
	case wallet.TransactionHistoryUpdated:
		return fmt.Sprintf("history updated, %d item(s)", len(v.Items))
	case wallet.StatusUpdate:
		return v.Message
	case wallet.AddMintSuccess:
		return "joined mint " + v.Mint.String()
	case wallet.AddMintFailed:
		return "joining mint failed: " + v.Reason
	default:
		return fmt.Sprintf("%T%+v", p, p)
	}
}
