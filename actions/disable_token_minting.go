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

const MaxDisableTokenMintingSize = 1 + consts.Uint64Len

var _ Action = (*DisableTokenMinting)(nil)

// DisableTokenMinting freezes the supply cap of ID at its current plus burned
// supply so that no further mint can succeed.
type DisableTokenMinting struct {
	ID uint64 `json:"id"`
}

func (*DisableTokenMinting) GetTypeID() uint8 {
	return mconsts.DisableTokenMintingID
}

func (d *DisableTokenMinting) Bytes() []byte {
	return marshal(mconsts.DisableTokenMintingID, MaxDisableTokenMintingSize, func(p *wrappers.Packer) {
		p.PackLong(d.ID)
	})
}

func UnmarshalDisableTokenMinting(b []byte) (Action, error) {
	d := &DisableTokenMinting{}
	if err := unmarshal(mconsts.DisableTokenMintingID, "disable_token_minting", b, func(p *wrappers.Packer) {
		d.ID = p.UnpackLong()
	}); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DisableTokenMinting) Execute(
	ctx context.Context,
	_ identity.Validator,
	mu state.Mutable,
	_ Env,
	actor identity.Identity,
) (*Result, error) {
	if _, err := AssertMinter(ctx, mu, actor); err != nil {
		return nil, err
	}
	if _, err := storage.FreezeMaxSupply(ctx, mu, d.ID); err != nil {
		return nil, err
	}
	return newResult("disable_token_minting").addUint("id", d.ID), nil
}
