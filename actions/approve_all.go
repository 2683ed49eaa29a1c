package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

const MaxApproveAllSize = 1 + wrappers.ShortLen + mconsts.MaxIdentityLen +
	wrappers.BoolLen + wrappers.ByteLen + consts.Uint64Len

var _ Action = (*ApproveAll)(nil)

// ApproveAll lets Operator burn and transfer every token of the actor until
// Expiration. A new grant replaces the previous one.
type ApproveAll struct {
	Operator string `json:"operator"`
	// Expiration defaults to never.
	Expiration *storage.Expiration `json:"expiration,omitempty"`
}

func (*ApproveAll) GetTypeID() uint8 {
	return mconsts.ApproveAllID
}

func (a *ApproveAll) Bytes() []byte {
	return marshal(mconsts.ApproveAllID, MaxApproveAllSize, func(p *wrappers.Packer) {
		p.PackStr(a.Operator)
		p.PackBool(a.Expiration != nil)
		if a.Expiration != nil {
			storage.PackExpiration(p, *a.Expiration)
		}
	})
}

func UnmarshalApproveAll(b []byte) (Action, error) {
	a := &ApproveAll{}
	if err := unmarshal(mconsts.ApproveAllID, "approve_all", b, func(p *wrappers.Packer) {
		a.Operator = p.UnpackStr()
		if p.UnpackBool() {
			exp := storage.UnpackExpiration(p)
			a.Expiration = &exp
		}
	}); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *ApproveAll) Execute(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	env Env,
	actor identity.Identity,
) (*Result, error) {
	exp := storage.Never()
	if a.Expiration != nil {
		exp = *a.Expiration
	}
	if err := exp.Verify(); err != nil {
		return nil, err
	}
	operator, err := v.Validate(a.Operator)
	if err != nil {
		return nil, err
	}
	if exp.IsExpired(env.Height, env.Time) {
		return nil, storage.ErrExpired
	}
	if err := storage.PutApproval(ctx, mu, actor, operator, exp); err != nil {
		return nil, err
	}
	return newResult("approve_all").
		add("owner", actor.String()).
		add("operator", operator.String()).
		add("expiration", exp.String()), nil
}
