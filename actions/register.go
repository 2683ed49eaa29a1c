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

const MaxRegisterSize = 1 + wrappers.BoolLen*3 + consts.Uint64Len

var _ Action = (*Register)(nil)

// Register adds a new token type to the collection. Only the owner may
// register.
type Register struct {
	// MaxSupply caps current plus burned supply. Nil means uncapped.
	MaxSupply *uint64 `json:"max_supply,omitempty"`
	// IsTransferrable defaults to true.
	IsTransferrable *bool `json:"is_transferrable,omitempty"`
}

func (*Register) GetTypeID() uint8 {
	return mconsts.RegisterID
}

func (r *Register) Bytes() []byte {
	return marshal(mconsts.RegisterID, MaxRegisterSize, func(p *wrappers.Packer) {
		packOptionalLong(p, r.MaxSupply)
		packOptionalBool(p, r.IsTransferrable)
	})
}

func UnmarshalRegister(b []byte) (Action, error) {
	r := &Register{}
	if err := unmarshal(mconsts.RegisterID, "register", b, func(p *wrappers.Packer) {
		r.MaxSupply = unpackOptionalLong(p)
		r.IsTransferrable = unpackOptionalBool(p)
	}); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Register) Execute(
	ctx context.Context,
	_ identity.Validator,
	mu state.Mutable,
	_ Env,
	actor identity.Identity,
) (*Result, error) {
	if _, err := AssertOwner(ctx, mu, actor); err != nil {
		return nil, err
	}
	if r.MaxSupply != nil && *r.MaxSupply == 0 {
		return nil, storage.ErrZeroMaxSupply
	}
	id, err := storage.IncreaseRegisteredTokens(ctx, mu)
	if err != nil {
		return nil, err
	}
	info := storage.TokenInfo{
		IsTransferrable: true,
		MaxSupply:       r.MaxSupply,
	}
	if r.IsTransferrable != nil {
		info.IsTransferrable = *r.IsTransferrable
	}
	if err := storage.PutTokenInfo(ctx, mu, id, info); err != nil {
		return nil, err
	}
	return newResult("register").addUint("id", id), nil
}
