package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// mintEntry is the JSON shape of one known mint.
type mintEntry struct {
	Kind string `json:"kind"` // "fedimint" | "cashu"
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// NewMintsCommand creates the mints command listing the federations and
// Cashu mints the wallet is a member of. Reads straight from the
// database, so it works without a federation runtime.
func NewMintsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "mints",
		Short:         "List joined federations and Cashu mints",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMints(rootOpts, cmd)
		},
	}
}

func runMints(opts *RootOptions, cmd *cobra.Command) error {
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

	federations, err := db.ListFederations()
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error())
		return WrapExitError(ExitCommandError, "listing federations", err)
	}
	cashuMints, err := db.ListCashuMints()
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error())
		return WrapExitError(ExitCommandError, "listing cashu mints", err)
	}

	entries := make([]mintEntry, 0, len(federations)+len(cashuMints))
	for _, id := range federations {
		entry := mintEntry{Kind: "fedimint", ID: id}
		if meta, err := db.GetFederationMetadata(id); err == nil && meta != nil {
			entry.Name = meta.Name
		}
		entries = append(entries, entry)
	}
	for _, url := range cashuMints {
		entries = append(entries, mintEntry{Kind: "cashu", ID: url})
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No mints joined")
		return nil
	}

	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tID\tNAME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Kind, e.ID, e.Name)
	}
	return w.Flush()
}
