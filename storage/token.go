package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/state"

	smath "github.com/ava-labs/avalanchego/utils/math"
)

const tokenInfoSize = wrappers.BoolLen*2 + consts.Uint64Len*3

// TokenInfo tracks one registered token type. When MaxSupply is set,
// CurrentSupply+Burned never exceeds it.
type TokenInfo struct {
	IsTransferrable bool    `json:"is_transferrable"`
	MaxSupply       *uint64 `json:"max_supply"`
	Burned          uint64  `json:"burned"`
	CurrentSupply   uint64  `json:"current_supply"`
}

// TotalSupply is everything ever minted: outstanding plus burned.
func (t TokenInfo) TotalSupply() (uint64, error) {
	return smath.Add(t.CurrentSupply, t.Burned)
}

type TokenEntry struct {
	ID uint64 `json:"id"`
	TokenInfo
}

func TokenKey(id uint64) []byte {
	k := make([]byte, 1+consts.Uint64Len)
	k[0] = tokenPrefix
	binary.BigEndian.PutUint64(k[1:], id)
	return k
}

func PutTokenInfo(ctx context.Context, mu state.Mutable, id uint64, info TokenInfo) error {
	v, err := pack(tokenInfoSize, func(p *wrappers.Packer) {
		p.PackBool(info.IsTransferrable)
		p.PackBool(info.MaxSupply != nil)
		if info.MaxSupply != nil {
			p.PackLong(*info.MaxSupply)
		} else {
			p.PackLong(0)
		}
		p.PackLong(info.Burned)
		p.PackLong(info.CurrentSupply)
	})
	if err != nil {
		return err
	}
	return mu.Insert(ctx, TokenKey(id), v)
}

// GetTokenInfo loads a registered token, failing with InvalidTokenError when
// id was never registered.
func GetTokenInfo(ctx context.Context, im state.Immutable, id uint64) (TokenInfo, error) {
	v, err := im.GetValue(ctx, TokenKey(id))
	if errors.Is(err, database.ErrNotFound) {
		return TokenInfo{}, &InvalidTokenError{ID: id}
	}
	if err != nil {
		return TokenInfo{}, err
	}
	return parseTokenInfo(v)
}

func parseTokenInfo(v []byte) (TokenInfo, error) {
	var (
		info      TokenInfo
		hasMax    bool
		maxSupply uint64
	)
	if err := unpack(v, func(p *wrappers.Packer) {
		info.IsTransferrable = p.UnpackBool()
		hasMax = p.UnpackBool()
		maxSupply = p.UnpackLong()
		info.Burned = p.UnpackLong()
		info.CurrentSupply = p.UnpackLong()
	}); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %w", ErrInvalidTokenInfo, err)
	}
	if hasMax {
		info.MaxSupply = &maxSupply
	}
	return info, nil
}

// AssertRegistered fails with InvalidTokenError unless id was handed out by
// the registration counter.
func AssertRegistered(ctx context.Context, im state.Immutable, id uint64) error {
	n, err := GetRegisteredTokens(ctx, im)
	if err != nil {
		return err
	}
	if id == 0 || id > n {
		return &InvalidTokenError{ID: id}
	}
	return nil
}

// IncreaseRegisteredTokens bumps the counter and returns the new token id.
// The counter is the only source of token ids.
func IncreaseRegisteredTokens(ctx context.Context, mu state.Mutable) (uint64, error) {
	n, err := GetRegisteredTokens(ctx, mu)
	if err != nil {
		return 0, err
	}
	next, err := smath.Add(n, 1)
	if err != nil {
		return 0, ErrMaximumNumberOfTokens
	}
	return next, PutRegisteredTokens(ctx, mu, next)
}

// IncreaseCurrentSupply adds a minted amount to id, enforcing the max supply.
func IncreaseCurrentSupply(ctx context.Context, mu state.Mutable, id uint64, amount uint64) (TokenInfo, error) {
	if amount == 0 {
		return TokenInfo{}, ErrInvalidZeroAmount
	}
	info, err := GetTokenInfo(ctx, mu, id)
	if err != nil {
		return TokenInfo{}, err
	}
	current, err := smath.Add(info.CurrentSupply, amount)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: could not add supply (current=%d, id=%d, amount=%d)", err, info.CurrentSupply, id, amount)
	}
	total, err := smath.Add(current, info.Burned)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: could not compute total supply (current=%d, burned=%d, id=%d)", err, current, info.Burned, id)
	}
	if info.MaxSupply != nil && total > *info.MaxSupply {
		return TokenInfo{}, fmt.Errorf("%w: id=%d total=%d max=%d", ErrCannotExceedMaxSupply, id, total, *info.MaxSupply)
	}
	info.CurrentSupply = current
	return info, PutTokenInfo(ctx, mu, id, info)
}

// DecreaseCurrentSupply moves a burned amount from outstanding to burned.
// CurrentSupply+Burned is unchanged.
func DecreaseCurrentSupply(ctx context.Context, mu state.Mutable, id uint64, amount uint64) (TokenInfo, error) {
	if amount == 0 {
		return TokenInfo{}, ErrInvalidZeroAmount
	}
	info, err := GetTokenInfo(ctx, mu, id)
	if err != nil {
		return TokenInfo{}, err
	}
	current, err := smath.Sub(info.CurrentSupply, amount)
	if err != nil {
		return TokenInfo{}, &InsufficientFundsError{ID: id, Required: amount, Available: info.CurrentSupply}
	}
	burned, err := smath.Add(info.Burned, amount)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: could not add burned (burned=%d, id=%d, amount=%d)", err, info.Burned, id, amount)
	}
	info.CurrentSupply = current
	info.Burned = burned
	return info, PutTokenInfo(ctx, mu, id, info)
}

// FreezeMaxSupply caps id at everything minted so far, so any further mint
// fails.
func FreezeMaxSupply(ctx context.Context, mu state.Mutable, id uint64) (TokenInfo, error) {
	info, err := GetTokenInfo(ctx, mu, id)
	if err != nil {
		return TokenInfo{}, err
	}
	total, err := info.TotalSupply()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %w", ErrInvalidSupply, err)
	}
	info.MaxSupply = &total
	return info, PutTokenInfo(ctx, mu, id, info)
}

// TokensInfo lists registered tokens in id order, starting after startAfter.
func TokensInfo(_ context.Context, r Reader, startAfter *uint64, limit *uint32) ([]TokenEntry, error) {
	prefix := []byte{tokenPrefix}
	start := prefix
	if startAfter != nil {
		var ok bool
		if start, ok = afterID(prefix, *startAfter); !ok {
			return []TokenEntry{}, nil
		}
	}
	return collect(r.NewIteratorWithStartAndPrefix(start, prefix), Limit(limit), func(k []byte, v []byte) (TokenEntry, error) {
		if len(k) != 1+consts.Uint64Len {
			return TokenEntry{}, fmt.Errorf("%w: token key length %d", ErrInvalidKey, len(k))
		}
		info, err := parseTokenInfo(v)
		if err != nil {
			return TokenEntry{}, err
		}
		return TokenEntry{ID: binary.BigEndian.Uint64(k[1:]), TokenInfo: info}, nil
	})
}
