package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

const MaxRevokeAllSize = 1 + wrappers.ShortLen + mconsts.MaxIdentityLen

var _ Action = (*RevokeAll)(nil)

// RevokeAll drops the grant of the actor to Operator. Revoking a grant that
// does not exist succeeds.
type RevokeAll struct {
	Operator string `json:"operator"`
}

func (*RevokeAll) GetTypeID() uint8 {
	return mconsts.RevokeAllID
}

func (r *RevokeAll) Bytes() []byte {
	return marshal(mconsts.RevokeAllID, MaxRevokeAllSize, func(p *wrappers.Packer) {
		p.PackStr(r.Operator)
	})
}

func UnmarshalRevokeAll(b []byte) (Action, error) {
	r := &RevokeAll{}
	if err := unmarshal(mconsts.RevokeAllID, "revoke_all", b, func(p *wrappers.Packer) {
		r.Operator = p.UnpackStr()
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RevokeAll) Execute(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	_ Env,
	actor identity.Identity,
) (*Result, error) {
	operator, err := v.Validate(r.Operator)
	if err != nil {
		return nil, err
	}
	if _, err := storage.RemoveApproval(ctx, mu, actor, operator); err != nil {
		return nil, err
	}
	return newResult("revoke_all").
		add("owner", actor.String()).
		add("operator", operator.String()), nil
}
