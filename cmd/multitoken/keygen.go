package main

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ava-labs/hypersdk/auth"
	"github.com/ava-labs/hypersdk/crypto/ed25519"
	"github.com/spf13/cobra"

	"github.com/thesecretlab-dev/multitoken/genesis"
	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/vm"
)

type keygenOutput struct {
	PrivateKey string           `json:"privateKey"`
	PublicKey  string           `json:"publicKey"`
	Identity   string           `json:"identity"`
	Genesis    *genesis.Genesis `json:"genesis"`
}

func newKeygenCommand() *cobra.Command {
	var (
		hrp  string
		name string
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generates an ed25519 key and a genesis owned by its identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if hrp == "" {
				cfg, err := vm.LoadConfig(configPath)
				if err != nil {
					return err
				}
				hrp = cfg.IdentityHRP
			}
			if hrp == "" {
				return errors.New("keygen needs an identity hrp, set --hrp or identityHrp")
			}

			priv, err := ed25519.GeneratePrivateKey()
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}
			pub := priv.PublicKey()
			id, err := identity.FromAddress(hrp, auth.NewED25519Address(pub))
			if err != nil {
				return err
			}
			owner := id.String()
			return writeJSON(cmd.OutOrStdout(), keygenOutput{
				PrivateKey: hex.EncodeToString(priv[:]),
				PublicKey:  hex.EncodeToString(pub[:]),
				Identity:   owner,
				Genesis: &genesis.Genesis{
					Name:   name,
					Owner:  &owner,
					Minter: &owner,
				},
			})
		},
	}
	cmd.Flags().StringVar(&hrp, "hrp", "", "bech32 human readable part of the identity")
	cmd.Flags().StringVar(&name, "name", "", "collection name written into the genesis")
	return cmd
}
