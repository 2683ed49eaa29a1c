package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/consts"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

// Approval rows are keyed owner first, so the primary range of one owner is
// the by-owner index. The by-operator index mirrors every row. Expired rows
// stay until they are revoked or overwritten.

const expirationSize = wrappers.ByteLen + consts.Uint64Len

// Expiration is the point after which a grant stops counting. Height and
// time are compared against the caller supplied block context.
type Expiration struct {
	Kind uint8
	At   uint64
}

func Never() Expiration {
	return Expiration{Kind: mconsts.ExpirationNever}
}

func AtHeight(height uint64) Expiration {
	return Expiration{Kind: mconsts.ExpirationAtHeight, At: height}
}

// AtTime expires at a unix timestamp in nanoseconds.
func AtTime(nanos uint64) Expiration {
	return Expiration{Kind: mconsts.ExpirationAtTime, At: nanos}
}

// IsExpired reports whether the expiration has been reached at the given
// height and time.
func (e Expiration) IsExpired(height uint64, nanos uint64) bool {
	switch e.Kind {
	case mconsts.ExpirationAtHeight:
		return height >= e.At
	case mconsts.ExpirationAtTime:
		return nanos >= e.At
	default:
		return false
	}
}

func (e Expiration) String() string {
	switch e.Kind {
	case mconsts.ExpirationAtHeight:
		return "expiration height: " + strconv.FormatUint(e.At, 10)
	case mconsts.ExpirationAtTime:
		return "expiration time: " + strconv.FormatUint(e.At, 10)
	default:
		return "expiration: never"
	}
}

func (e Expiration) Verify() error {
	switch e.Kind {
	case mconsts.ExpirationNever, mconsts.ExpirationAtHeight, mconsts.ExpirationAtTime:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidExpiration, e.Kind)
	}
}

type expirationJSON struct {
	AtHeight *uint64   `json:"at_height,omitempty"`
	AtTime   *uint64   `json:"at_time,omitempty"`
	Never    *struct{} `json:"never,omitempty"`
}

func (e Expiration) MarshalJSON() ([]byte, error) {
	var out expirationJSON
	switch e.Kind {
	case mconsts.ExpirationAtHeight:
		out.AtHeight = &e.At
	case mconsts.ExpirationAtTime:
		out.AtTime = &e.At
	default:
		out.Never = &struct{}{}
	}
	return json.Marshal(out)
}

func (e *Expiration) UnmarshalJSON(b []byte) error {
	var in expirationJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	switch {
	case in.AtHeight != nil && in.AtTime == nil && in.Never == nil:
		*e = AtHeight(*in.AtHeight)
	case in.AtTime != nil && in.AtHeight == nil && in.Never == nil:
		*e = AtTime(*in.AtTime)
	case in.Never != nil && in.AtHeight == nil && in.AtTime == nil:
		*e = Never()
	default:
		return fmt.Errorf("%w: exactly one of at_height, at_time or never must be set", ErrInvalidExpiration)
	}
	return nil
}

func PackExpiration(p *wrappers.Packer, e Expiration) {
	p.PackByte(e.Kind)
	p.PackLong(e.At)
}

func UnpackExpiration(p *wrappers.Packer) Expiration {
	return Expiration{Kind: p.UnpackByte(), At: p.UnpackLong()}
}

type Approval struct {
	Owner      identity.Identity `json:"owner"`
	Operator   identity.Identity `json:"operator"`
	Expiration Expiration        `json:"expiration"`
}

func approvalOwnerPrefix(owner identity.Identity) []byte {
	k := make([]byte, 0, 1+consts.Uint16Len+len(owner))
	k = append(k, approvalPrefix)
	return appendIdentity(k, owner)
}

func ApprovalKey(owner identity.Identity, operator identity.Identity) []byte {
	return append(approvalOwnerPrefix(owner), operator...)
}

func approvalOperatorPrefix(operator identity.Identity) []byte {
	k := make([]byte, 0, 1+consts.Uint16Len+len(operator))
	k = append(k, approvalByOperatorPrefix)
	return appendIdentity(k, operator)
}

func ApprovalByOperatorKey(operator identity.Identity, owner identity.Identity) []byte {
	return append(approvalOperatorPrefix(operator), owner...)
}

// GetApproval returns the stored grant of owner to operator, expired or not.
func GetApproval(ctx context.Context, im state.Immutable, owner identity.Identity, operator identity.Identity) (Expiration, bool, error) {
	v, err := im.GetValue(ctx, ApprovalKey(owner, operator))
	if errors.Is(err, database.ErrNotFound) {
		return Expiration{}, false, nil
	}
	if err != nil {
		return Expiration{}, false, err
	}
	exp, err := parseExpiration(v)
	if err != nil {
		return Expiration{}, false, err
	}
	return exp, true, nil
}

func parseExpiration(v []byte) (Expiration, error) {
	var exp Expiration
	if err := unpack(v, func(p *wrappers.Packer) {
		exp = UnpackExpiration(p)
	}); err != nil {
		return Expiration{}, fmt.Errorf("%w: %w", ErrInvalidExpiration, err)
	}
	return exp, exp.Verify()
}

// PutApproval writes or replaces the grant of owner to operator.
func PutApproval(ctx context.Context, mu state.Mutable, owner identity.Identity, operator identity.Identity, exp Expiration) error {
	if err := exp.Verify(); err != nil {
		return err
	}
	v, err := pack(expirationSize, func(p *wrappers.Packer) {
		PackExpiration(p, exp)
	})
	if err != nil {
		return err
	}
	if err := mu.Insert(ctx, ApprovalKey(owner, operator), v); err != nil {
		return err
	}
	return mu.Insert(ctx, ApprovalByOperatorKey(operator, owner), indexMarker)
}

// RemoveApproval deletes the grant of owner to operator. Removing a missing
// grant is not an error; removed reports whether one existed.
func RemoveApproval(ctx context.Context, mu state.Mutable, owner identity.Identity, operator identity.Identity) (bool, error) {
	_, exists, err := GetApproval(ctx, mu, owner, operator)
	if err != nil || !exists {
		return false, err
	}
	if err := mu.Remove(ctx, ApprovalKey(owner, operator)); err != nil {
		return false, err
	}
	return true, mu.Remove(ctx, ApprovalByOperatorKey(operator, owner))
}

// ApprovalsByOwner lists the grants made by owner in operator order.
func ApprovalsByOwner(_ context.Context, r Reader, owner identity.Identity, startAfter *identity.Identity, limit *uint32) ([]Approval, error) {
	prefix := approvalOwnerPrefix(owner)
	start := prefix
	if startAfter != nil {
		start = afterIdentity(prefix, *startAfter)
	}
	return collect(r.NewIteratorWithStartAndPrefix(start, prefix), Limit(limit), func(k []byte, v []byte) (Approval, error) {
		exp, err := parseExpiration(v)
		if err != nil {
			return Approval{}, err
		}
		return Approval{
			Owner:      owner,
			Operator:   identity.Identity(k[len(prefix):]),
			Expiration: exp,
		}, nil
	})
}

// ApprovalsByOperator lists the grants received by operator in owner order.
func ApprovalsByOperator(ctx context.Context, r Reader, operator identity.Identity, startAfter *identity.Identity, limit *uint32) ([]Approval, error) {
	prefix := approvalOperatorPrefix(operator)
	start := prefix
	if startAfter != nil {
		start = afterIdentity(prefix, *startAfter)
	}
	return collect(r.NewIteratorWithStartAndPrefix(start, prefix), Limit(limit), func(k []byte, _ []byte) (Approval, error) {
		owner := identity.Identity(k[len(prefix):])
		exp, exists, err := GetApproval(ctx, r, owner, operator)
		if err != nil {
			return Approval{}, err
		}
		if !exists {
			return Approval{}, fmt.Errorf("%w: dangling operator index %s/%s", ErrInvalidKey, operator, owner)
		}
		return Approval{Owner: owner, Operator: operator, Expiration: exp}, nil
	})
}
