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

const MaxTransferFromSize = 1 + (wrappers.ShortLen+mconsts.MaxIdentityLen)*2 + consts.Uint64Len*2 +
	wrappers.BoolLen + wrappers.IntLen + mconsts.MaxMsgSize

var _ Action = (*TransferFrom)(nil)

// TransferFrom moves Amount tokens of ID from From to To. The actor must be
// From or hold an unexpired grant from it, and the token must be
// transferrable. Supply counters are untouched.
type TransferFrom struct {
	From   string `json:"from"`
	To     string `json:"to"`
	ID     uint64 `json:"id"`
	Amount uint64 `json:"amount"`
	Msg    []byte `json:"msg,omitempty"`
}

func (*TransferFrom) GetTypeID() uint8 {
	return mconsts.TransferFromID
}

func (t *TransferFrom) Bytes() []byte {
	return marshal(mconsts.TransferFromID, MaxTransferFromSize, func(p *wrappers.Packer) {
		p.PackStr(t.From)
		p.PackStr(t.To)
		p.PackLong(t.ID)
		p.PackLong(t.Amount)
		packOptionalBytes(p, t.Msg)
	})
}

func UnmarshalTransferFrom(b []byte) (Action, error) {
	t := &TransferFrom{}
	if err := unmarshal(mconsts.TransferFromID, "transfer_from", b, func(p *wrappers.Packer) {
		t.From = p.UnpackStr()
		t.To = p.UnpackStr()
		t.ID = p.UnpackLong()
		t.Amount = p.UnpackLong()
		t.Msg = unpackOptionalBytes(p)
	}); err != nil {
		return nil, err
	}
	if len(t.Msg) > mconsts.MaxMsgSize {
		return nil, ErrMsgTooLarge
	}
	return t, nil
}

func (t *TransferFrom) Execute(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	env Env,
	actor identity.Identity,
) (*Result, error) {
	from, err := v.Validate(t.From)
	if err != nil {
		return nil, err
	}
	to, err := v.Validate(t.To)
	if err != nil {
		return nil, err
	}
	if len(t.Msg) > mconsts.MaxMsgSize {
		return nil, ErrMsgTooLarge
	}
	if err := AssertCanManage(ctx, mu, env, from, actor); err != nil {
		return nil, err
	}
	info, err := storage.GetTokenInfo(ctx, mu, t.ID)
	if err != nil {
		return nil, err
	}
	if !info.IsTransferrable {
		return nil, &storage.NotTransferableError{ID: t.ID}
	}
	if t.Amount == 0 {
		return nil, storage.ErrInvalidZeroAmount
	}
	if _, err := storage.SubBalance(ctx, mu, from, t.ID, t.Amount); err != nil {
		return nil, err
	}
	if _, err := storage.AddBalance(ctx, mu, to, t.ID, t.Amount); err != nil {
		return nil, err
	}
	result := newResult("transfer").
		add("from", from.String()).
		add("to", to.String()).
		addUint("id", t.ID).
		addUint("amount", t.Amount)
	if t.Msg != nil {
		result.Notification = &ReceiveNotification{
			Recipient: to,
			Operator:  actor,
			From:      from,
			ID:        t.ID,
			Amount:    t.Amount,
			Msg:       t.Msg,
		}
	}
	return result, nil
}
