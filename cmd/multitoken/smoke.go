package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/spf13/cobra"

	"github.com/thesecretlab-dev/multitoken/actions"
	"github.com/thesecretlab-dev/multitoken/genesis"
	"github.com/thesecretlab-dev/multitoken/storage"
	"github.com/thesecretlab-dev/multitoken/vm"
)

var errSmokeFailed = errors.New("smoke run failed")

type Report struct {
	Pass    bool   `json:"pass"`
	Error   string `json:"error,omitempty"`
	Steps   []Step `json:"steps"`
	Summary struct {
		CurrentSupply uint64 `json:"current_supply"`
		Burned        uint64 `json:"burned"`
	} `json:"summary"`
}

type Step struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newSmokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Runs a register, mint, approve, burn, transfer and freeze cycle on an in-memory ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := &Report{}
			if err := runSmoke(context.Background(), report); err != nil {
				report.Error = err.Error()
			} else {
				report.Pass = true
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Pass {
				return errSmokeFailed
			}
			return nil
		},
	}
}

func runSmoke(ctx context.Context, report *Report) error {
	const (
		admin  = "admin"
		holder = "holder"
		other  = "other"
	)
	ledger, err := vm.New(memdb.New(), nil)
	if err != nil {
		return err
	}
	if _, err := ledger.Initialize(ctx, &genesis.Genesis{Name: "smoke"}, admin); err != nil {
		return err
	}
	env := actions.Env{Height: 1, Time: 1}
	never := storage.Never()

	var id uint64
	steps := []struct {
		name      string
		caller    string
		action    func() actions.Action
		wantError error
		detail    string
	}{
		{"register", admin, func() actions.Action { return &actions.Register{} }, nil, "uncapped transferrable token"},
		{"mint", admin, func() actions.Action { return &actions.Mint{To: holder, ID: id, Amount: 10} }, nil, "minted 10 to holder"},
		{"unauthorized_burn", other, func() actions.Action { return &actions.Burn{From: holder, ID: id, Amount: 3} }, storage.ErrUnauthorized, "burn without grant rejected"},
		{"approve_all", holder, func() actions.Action { return &actions.ApproveAll{Operator: other, Expiration: &never} }, nil, "holder approved other"},
		{"operator_burn", other, func() actions.Action { return &actions.Burn{From: holder, ID: id, Amount: 3} }, nil, "other burned 3 for holder"},
		{"transfer_from", other, func() actions.Action { return &actions.TransferFrom{From: holder, To: other, ID: id, Amount: 2} }, nil, "other moved 2 to itself"},
		{"disable_token_minting", admin, func() actions.Action { return &actions.DisableTokenMinting{ID: id} }, nil, "cap frozen"},
		{"mint_after_freeze", admin, func() actions.Action { return &actions.Mint{To: holder, ID: id, Amount: 1} }, storage.ErrCannotExceedMaxSupply, "mint past frozen cap rejected"},
	}
	for _, s := range steps {
		step := Step{Name: s.name}
		result, err := ledger.Execute(ctx, env, s.caller, s.action())
		switch {
		case s.wantError == nil && err != nil:
			step.Error = err.Error()
		case s.wantError != nil && !errors.Is(err, s.wantError):
			step.Error = fmt.Sprintf("expected %v, got %v", s.wantError, err)
		default:
			step.Pass = true
			step.Detail = s.detail
		}
		report.Steps = append(report.Steps, step)
		if !step.Pass {
			return fmt.Errorf("step %s: %s", s.name, step.Error)
		}
		if s.name == "register" {
			if id, err = result.Uint("id"); err != nil {
				return err
			}
		}
	}

	reply, err := ledger.Query(ctx, env, &vm.TokenInfoArgs{ID: id})
	if err != nil {
		return err
	}
	info := reply.(*storage.TokenInfo)
	report.Summary.CurrentSupply = info.CurrentSupply
	report.Summary.Burned = info.Burned
	if info.CurrentSupply != 7 || info.Burned != 3 {
		return fmt.Errorf("unexpected supply: current=%d burned=%d", info.CurrentSupply, info.Burned)
	}
	return nil
}
