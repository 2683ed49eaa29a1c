package storage

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

// Balance rows are keyed owner first, so the primary range of one owner is
// the by-owner index. The by-token index lives under its own prefix and is
// written and removed together with the primary row. Rows that reach zero are
// deleted along with their index entry.

type BalanceEntry struct {
	Owner  identity.Identity `json:"owner"`
	ID     uint64            `json:"id"`
	Amount uint64            `json:"amount"`
}

func balanceOwnerPrefix(owner identity.Identity) []byte {
	k := make([]byte, 0, 1+consts.Uint16Len+len(owner)+consts.Uint64Len)
	k = append(k, balancePrefix)
	return appendIdentity(k, owner)
}

func BalanceKey(owner identity.Identity, id uint64) []byte {
	return binary.BigEndian.AppendUint64(balanceOwnerPrefix(owner), id)
}

func balanceTokenPrefix(id uint64) []byte {
	k := make([]byte, 1+consts.Uint64Len)
	k[0] = balanceByTokenPrefix
	binary.BigEndian.PutUint64(k[1:], id)
	return k
}

func BalanceByTokenKey(id uint64, owner identity.Identity) []byte {
	return append(balanceTokenPrefix(id), owner...)
}

func GetBalance(ctx context.Context, im state.Immutable, owner identity.Identity, id uint64) (uint64, error) {
	bal, _, err := getBalance(ctx, im, owner, id)
	return bal, err
}

func getBalance(ctx context.Context, im state.Immutable, owner identity.Identity, id uint64) (uint64, bool, error) {
	bal, exists, err := parseUint64(im.GetValue(ctx, BalanceKey(owner, id)))
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInvalidBalance, err)
	}
	return bal, exists, nil
}

func setBalance(ctx context.Context, mu state.Mutable, owner identity.Identity, id uint64, existed bool, balance uint64) error {
	if balance == 0 {
		if !existed {
			return nil
		}
		if err := mu.Remove(ctx, BalanceKey(owner, id)); err != nil {
			return err
		}
		return mu.Remove(ctx, BalanceByTokenKey(id, owner))
	}
	if err := mu.Insert(ctx, BalanceKey(owner, id), database.PackUInt64(balance)); err != nil {
		return err
	}
	if existed {
		return nil
	}
	return mu.Insert(ctx, BalanceByTokenKey(id, owner), indexMarker)
}

func AddBalance(ctx context.Context, mu state.Mutable, owner identity.Identity, id uint64, amount uint64) (uint64, error) {
	bal, exists, err := getBalance(ctx, mu, owner, id)
	if err != nil {
		return 0, err
	}
	nbal, err := smath.Add(bal, amount)
	if err != nil {
		return 0, fmt.Errorf("%w: could not add balance (bal=%d, owner=%s, id=%d, amount=%d)", err, bal, owner, id, amount)
	}
	return nbal, setBalance(ctx, mu, owner, id, exists, nbal)
}

// SubBalance debits owner, failing with InsufficientFundsError when the
// balance does not cover amount.
func SubBalance(ctx context.Context, mu state.Mutable, owner identity.Identity, id uint64, amount uint64) (uint64, error) {
	bal, exists, err := getBalance(ctx, mu, owner, id)
	if err != nil {
		return 0, err
	}
	nbal, err := smath.Sub(bal, amount)
	if err != nil {
		return 0, &InsufficientFundsError{ID: id, Required: amount, Available: bal}
	}
	return nbal, setBalance(ctx, mu, owner, id, exists, nbal)
}

// BalancesByOwner lists the non-zero balances of owner in token id order.
func BalancesByOwner(_ context.Context, r Reader, owner identity.Identity, startAfter *uint64, limit *uint32) ([]BalanceEntry, error) {
	prefix := balanceOwnerPrefix(owner)
	start := prefix
	if startAfter != nil {
		var ok bool
		if start, ok = afterID(prefix, *startAfter); !ok {
			return []BalanceEntry{}, nil
		}
	}
	return collect(r.NewIteratorWithStartAndPrefix(start, prefix), Limit(limit), func(k []byte, v []byte) (BalanceEntry, error) {
		if len(k) != len(prefix)+consts.Uint64Len {
			return BalanceEntry{}, fmt.Errorf("%w: balance key length %d", ErrInvalidKey, len(k))
		}
		amount, err := database.ParseUInt64(v)
		if err != nil {
			return BalanceEntry{}, fmt.Errorf("%w: %w", ErrInvalidBalance, err)
		}
		return BalanceEntry{
			Owner:  owner,
			ID:     binary.BigEndian.Uint64(k[len(prefix):]),
			Amount: amount,
		}, nil
	})
}

// BalancesByID lists the holders of id in identity order.
func BalancesByID(ctx context.Context, r Reader, id uint64, startAfter *identity.Identity, limit *uint32) ([]BalanceEntry, error) {
	prefix := balanceTokenPrefix(id)
	start := prefix
	if startAfter != nil {
		start = afterIdentity(prefix, *startAfter)
	}
	return collect(r.NewIteratorWithStartAndPrefix(start, prefix), Limit(limit), func(k []byte, _ []byte) (BalanceEntry, error) {
		owner := identity.Identity(k[len(prefix):])
		amount, err := GetBalance(ctx, r, owner, id)
		if err != nil {
			return BalanceEntry{}, err
		}
		return BalanceEntry{Owner: owner, ID: id, Amount: amount}, nil
	})
}
