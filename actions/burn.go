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

const MaxBurnSize = 1 + wrappers.ShortLen + mconsts.MaxIdentityLen + consts.Uint64Len*2

var _ Action = (*Burn)(nil)

// Burn destroys Amount tokens of ID held by From. The actor must be From or
// hold an unexpired grant from it.
type Burn struct {
	From   string `json:"from"`
	ID     uint64 `json:"id"`
	Amount uint64 `json:"amount"`
}

func (*Burn) GetTypeID() uint8 {
	return mconsts.BurnID
}

func (b *Burn) Bytes() []byte {
	return marshal(mconsts.BurnID, MaxBurnSize, func(p *wrappers.Packer) {
		p.PackStr(b.From)
		p.PackLong(b.ID)
		p.PackLong(b.Amount)
	})
}

func UnmarshalBurn(bytes []byte) (Action, error) {
	b := &Burn{}
	if err := unmarshal(mconsts.BurnID, "burn", bytes, func(p *wrappers.Packer) {
		b.From = p.UnpackStr()
		b.ID = p.UnpackLong()
		b.Amount = p.UnpackLong()
	}); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Burn) Execute(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	env Env,
	actor identity.Identity,
) (*Result, error) {
	from, err := v.Validate(b.From)
	if err != nil {
		return nil, err
	}
	if err := AssertCanManage(ctx, mu, env, from, actor); err != nil {
		return nil, err
	}
	if b.Amount == 0 {
		return nil, storage.ErrInvalidZeroAmount
	}
	if _, err := storage.GetTokenInfo(ctx, mu, b.ID); err != nil {
		return nil, err
	}
	if _, err := storage.SubBalance(ctx, mu, from, b.ID, b.Amount); err != nil {
		return nil, err
	}
	if _, err := storage.DecreaseCurrentSupply(ctx, mu, b.ID, b.Amount); err != nil {
		return nil, err
	}
	return newResult("burn").
		add("from", from.String()).
		addUint("id", b.ID).
		addUint("amount", b.Amount), nil
}
