package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

const MaxSetMinterSize = 1 + wrappers.BoolLen + wrappers.ShortLen + mconsts.MaxIdentityLen

var _ Action = (*SetMinter)(nil)

// SetMinter hands the minter role to Minter. A nil Minter renounces minting
// for the collection, which cannot be undone.
type SetMinter struct {
	Minter *string `json:"minter,omitempty"`
}

func (*SetMinter) GetTypeID() uint8 {
	return mconsts.SetMinterID
}

func (s *SetMinter) Bytes() []byte {
	return marshal(mconsts.SetMinterID, MaxSetMinterSize, func(p *wrappers.Packer) {
		packOptionalStr(p, s.Minter)
	})
}

func UnmarshalSetMinter(b []byte) (Action, error) {
	s := &SetMinter{}
	if err := unmarshal(mconsts.SetMinterID, "set_minter", b, func(p *wrappers.Packer) {
		s.Minter = unpackOptionalStr(p)
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SetMinter) Execute(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	_ Env,
	actor identity.Identity,
) (*Result, error) {
	cfg, err := AssertMinter(ctx, mu, actor)
	if err != nil {
		return nil, err
	}
	minter, err := identity.ValidateOptional(v, s.Minter)
	if err != nil {
		return nil, err
	}
	cfg.Minter = minter
	if err := storage.PutConfig(ctx, mu, cfg); err != nil {
		return nil, err
	}
	return newResult("update_minter").add("new_minter", optionalString(minter)), nil
}
