package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/thesecretlab-dev/multitoken/actions"
	"github.com/thesecretlab-dev/multitoken/genesis"
	"github.com/thesecretlab-dev/multitoken/vm"
)

func newInitCommand() *cobra.Command {
	var (
		genesisPath string
		sender      string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Creates the collection from a genesis file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var b []byte
			if genesisPath != "" {
				var err error
				if b, err = os.ReadFile(genesisPath); err != nil {
					return err
				}
			}
			g, err := genesis.Load(b)
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			cfg, err := s.ledger.Initialize(context.Background(), g, sender)
			return errors.Join(err, writeResult(cmd, err, cfg), s.Close())
		},
	}
	cmd.Flags().StringVar(&genesisPath, "genesis", "", "path to the genesis JSON")
	cmd.Flags().StringVar(&sender, "sender", "", "account performing the initialization")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func newExecCommand() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "exec <action> [json]",
		Short: "Executes one action",
		Long:  "Executes one action, for example: exec mint '{\"to\":\"alice\",\"id\":1,\"amount\":5}'",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := actions.New(args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if err := decodeStrict(args[1], a); err != nil {
					return err
				}
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			result, err := s.ledger.Execute(context.Background(), blockEnv(), caller, a)
			return errors.Join(err, writeResult(cmd, err, result), s.Close())
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "account executing the action")
	_ = cmd.MarkFlagRequired("caller")
	addEnvFlags(cmd)
	return cmd
}

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <query> [json]",
		Short: "Answers one read-only query",
		Long:  "Answers one read-only query, for example: query balances_by_owner '{\"owner\":\"alice\",\"limit\":20}'",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if len(args) == 2 {
				raw = []byte(args[1])
			}
			q, err := vm.ParseQuery(args[0], raw)
			if err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			reply, err := s.ledger.Query(context.Background(), blockEnv(), q)
			return errors.Join(err, writeResult(cmd, err, reply), s.Close())
		},
	}
	addEnvFlags(cmd)
	return cmd
}

func writeResult(cmd *cobra.Command, err error, v any) error {
	if err != nil {
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), v)
}
