package version

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thesecretlab-dev/multitoken/consts"
	"github.com/thesecretlab-dev/multitoken/storage"
)

// Loader reads the contract record of the configured ledger.
type Loader func(ctx context.Context) (storage.ContractInfo, error)

// NewCommand prints the binary version. With --ledger it also prints the
// contract record the ledger was initialized with, so a store written by an
// older binary can be spotted.
func NewCommand(load Loader) *cobra.Command {
	var ledger bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Prints out the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s@%s\n", consts.Name, consts.Version)
			if !ledger {
				return nil
			}
			info, err := load(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not read contract record: %w", err)
			}
			fmt.Fprintf(out, "ledger: %s@%s\n", info.Name, info.Version)
			if info.Name != consts.Name || info.Version != consts.Version {
				fmt.Fprintln(out, "ledger was initialized by a different build")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&ledger, "ledger", false, "also print the contract record stored in the ledger")
	return cmd
}
