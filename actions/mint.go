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

const MaxMintSize = 1 + wrappers.ShortLen + mconsts.MaxIdentityLen + consts.Uint64Len*2 +
	wrappers.BoolLen + wrappers.IntLen + mconsts.MaxMsgSize

var _ Action = (*Mint)(nil)

// Mint creates Amount tokens of ID in the balance of To. Only the minter may
// mint. When Msg is set the recipient is sent a receive notification.
type Mint struct {
	To     string `json:"to"`
	ID     uint64 `json:"id"`
	Amount uint64 `json:"amount"`
	Msg    []byte `json:"msg,omitempty"`
}

func (*Mint) GetTypeID() uint8 {
	return mconsts.MintID
}

func (m *Mint) Bytes() []byte {
	return marshal(mconsts.MintID, MaxMintSize, func(p *wrappers.Packer) {
		p.PackStr(m.To)
		p.PackLong(m.ID)
		p.PackLong(m.Amount)
		packOptionalBytes(p, m.Msg)
	})
}

func UnmarshalMint(b []byte) (Action, error) {
	m := &Mint{}
	if err := unmarshal(mconsts.MintID, "mint", b, func(p *wrappers.Packer) {
		m.To = p.UnpackStr()
		m.ID = p.UnpackLong()
		m.Amount = p.UnpackLong()
		m.Msg = unpackOptionalBytes(p)
	}); err != nil {
		return nil, err
	}
	if len(m.Msg) > mconsts.MaxMsgSize {
		return nil, ErrMsgTooLarge
	}
	return m, nil
}

func (m *Mint) Execute(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	_ Env,
	actor identity.Identity,
) (*Result, error) {
	if _, err := AssertMinter(ctx, mu, actor); err != nil {
		return nil, err
	}
	if m.Amount == 0 {
		return nil, storage.ErrInvalidZeroAmount
	}
	if len(m.Msg) > mconsts.MaxMsgSize {
		return nil, ErrMsgTooLarge
	}
	to, err := v.Validate(m.To)
	if err != nil {
		return nil, err
	}
	if _, err := storage.IncreaseCurrentSupply(ctx, mu, m.ID, m.Amount); err != nil {
		return nil, err
	}
	if _, err := storage.AddBalance(ctx, mu, to, m.ID, m.Amount); err != nil {
		return nil, err
	}
	result := newResult("mint").
		add("to", to.String()).
		addUint("id", m.ID).
		addUint("amount", m.Amount)
	if m.Msg != nil {
		result.Notification = &ReceiveNotification{
			Recipient: to,
			Operator:  actor,
			ID:        m.ID,
			Amount:    m.Amount,
			Msg:       m.Msg,
		}
	}
	return result, nil
}
