package actions

import (
	"context"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

const MaxUpdateCollectionDetailsSize = 1 + wrappers.ShortLen*2 + mconsts.MaxNameLen + mconsts.MaxDescriptionLen

var _ Action = (*UpdateCollectionDetails)(nil)

// UpdateCollectionDetails replaces the collection name and description. The
// metadata uri cannot be changed.
type UpdateCollectionDetails struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (*UpdateCollectionDetails) GetTypeID() uint8 {
	return mconsts.UpdateCollectionDetailsID
}

func (u *UpdateCollectionDetails) Bytes() []byte {
	return marshal(mconsts.UpdateCollectionDetailsID, MaxUpdateCollectionDetailsSize, func(p *wrappers.Packer) {
		p.PackStr(u.Name)
		p.PackStr(u.Description)
	})
}

func UnmarshalUpdateCollectionDetails(b []byte) (Action, error) {
	u := &UpdateCollectionDetails{}
	if err := unmarshal(mconsts.UpdateCollectionDetailsID, "update_collection_details", b, func(p *wrappers.Packer) {
		u.Name = p.UnpackStr()
		u.Description = p.UnpackStr()
	}); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *UpdateCollectionDetails) Execute(
	ctx context.Context,
	_ identity.Validator,
	mu state.Mutable,
	_ Env,
	actor identity.Identity,
) (*Result, error) {
	cfg, err := AssertOwner(ctx, mu, actor)
	if err != nil {
		return nil, err
	}
	if len(u.Name) > mconsts.MaxNameLen {
		return nil, ErrNameTooLarge
	}
	if len(u.Description) > mconsts.MaxDescriptionLen {
		return nil, ErrDescTooLarge
	}
	cfg.Name = u.Name
	cfg.Description = u.Description
	if err := storage.PutConfig(ctx, mu, cfg); err != nil {
		return nil, err
	}
	return newResult("update_collection_details"), nil
}
