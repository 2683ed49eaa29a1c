package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

const MaxSetOwnerSize = 1 + wrappers.BoolLen + wrappers.ShortLen + mconsts.MaxIdentityLen

var _ Action = (*SetOwner)(nil)

// SetOwner hands the collection to Owner. A nil Owner renounces ownership,
// which disables registration for good.
type SetOwner struct {
	Owner *string `json:"owner,omitempty"`
}

func (*SetOwner) GetTypeID() uint8 {
	return mconsts.SetOwnerID
}

func (s *SetOwner) Bytes() []byte {
	return marshal(mconsts.SetOwnerID, MaxSetOwnerSize, func(p *wrappers.Packer) {
		packOptionalStr(p, s.Owner)
	})
}

func UnmarshalSetOwner(b []byte) (Action, error) {
	s := &SetOwner{}
	if err := unmarshal(mconsts.SetOwnerID, "set_owner", b, func(p *wrappers.Packer) {
		s.Owner = unpackOptionalStr(p)
	}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SetOwner) Execute(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	_ Env,
	actor identity.Identity,
) (*Result, error) {
	cfg, err := AssertOwner(ctx, mu, actor)
	if err != nil {
		return nil, err
	}
	owner, err := identity.ValidateOptional(v, s.Owner)
	if err != nil {
		return nil, err
	}
	cfg.Owner = owner
	if err := storage.PutConfig(ctx, mu, cfg); err != nil {
		return nil, err
	}
	return newResult("update_owner").add("new_owner", optionalString(owner)), nil
}
