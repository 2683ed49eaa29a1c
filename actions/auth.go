package actions

import (
	"context"

	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"
)

// AssertOwner fails unless actor is the collection's current owner.
func AssertOwner(ctx context.Context, im state.Immutable, actor identity.Identity) (storage.Config, error) {
	cfg, err := storage.GetConfig(ctx, im)
	if err != nil {
		return storage.Config{}, err
	}
	if cfg.Owner.IsEmpty() {
		return storage.Config{}, storage.ErrNoOwner
	}
	if actor != cfg.Owner {
		return storage.Config{}, storage.ErrNotOwner
	}
	return cfg, nil
}

// AssertMinter fails unless actor is the collection's current minter.
func AssertMinter(ctx context.Context, im state.Immutable, actor identity.Identity) (storage.Config, error) {
	cfg, err := storage.GetConfig(ctx, im)
	if err != nil {
		return storage.Config{}, err
	}
	if cfg.Minter.IsEmpty() {
		return storage.Config{}, storage.ErrNoMinter
	}
	if actor != cfg.Minter {
		return storage.Config{}, storage.ErrNotMinter
	}
	return cfg, nil
}

// AssertCanManage fails unless operator may move owner's tokens: either it is
// the owner itself or it holds a grant that has not expired at env.
func AssertCanManage(ctx context.Context, im state.Immutable, env Env, owner identity.Identity, operator identity.Identity) error {
	if owner == operator {
		return nil
	}
	exp, ok, err := storage.GetApproval(ctx, im, owner, operator)
	if err != nil {
		return err
	}
	if !ok || exp.IsExpired(env.Height, env.Time) {
		return storage.ErrUnauthorized
	}
	return nil
}
