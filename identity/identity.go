// Package identity validates caller supplied account strings and turns them
// into canonical identities used as ledger keys.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/ava-labs/avalanchego/utils/formatting/address"
	"github.com/ava-labs/hypersdk/codec"

	"github.com/thesecretlab-dev/multitoken/consts"
)

var (
	ErrEmptyIdentity   = errors.New("identity is empty")
	ErrIdentityTooLong = errors.New("identity is too long")
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrWrongHRP        = errors.New("identity has unexpected human readable part")
)

// Identity is a canonical account handle. The empty value means "no account"
// wherever an identity is optional.
type Identity string

func (i Identity) String() string {
	return string(i)
}

func (i Identity) IsEmpty() bool {
	return i == ""
}

// Validator normalizes a raw identity string into its canonical form.
type Validator interface {
	Validate(raw string) (Identity, error)
}

var (
	_ Validator = Plain{}
	_ Validator = Bech32{}
)

// Plain accepts any printable string without whitespace. Surrounding
// whitespace is trimmed.
type Plain struct{}

func (Plain) Validate(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	if err := checkLength(s); err != nil {
		return "", err
	}
	for _, r := range s {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalidIdentity, s, r)
		}
	}
	return Identity(s), nil
}

// Bech32 accepts bech32 addresses carrying HRP and re-encodes them so mixed
// or upper case input maps to one identity.
type Bech32 struct {
	HRP string
}

func (b Bech32) Validate(raw string) (Identity, error) {
	s := strings.TrimSpace(raw)
	if err := checkLength(s); err != nil {
		return "", err
	}
	hrp, payload, err := address.ParseBech32(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	if hrp != b.HRP {
		return "", fmt.Errorf("%w: got=%q want=%q", ErrWrongHRP, hrp, b.HRP)
	}
	payload, err = trimPadding(s, hrp, payload)
	if err != nil {
		return "", err
	}
	canonical, err := address.FormatBech32(hrp, payload)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	// Only the case of the input may differ from its re-encoding. Anything
	// else means the padding bits were not zero.
	if canonical != strings.ToLower(s) {
		return "", fmt.Errorf("%w: %q is not canonical", ErrInvalidIdentity, s)
	}
	return Identity(canonical), nil
}

// bech32 strings end in a 6 character checksum.
const bech32ChecksumLen = 6

// trimPadding drops the zero byte ParseBech32 appends when the final 5-bit
// group only partly fills a byte, so the payload is exactly what was encoded.
func trimPadding(s string, hrp string, payload []byte) ([]byte, error) {
	groups := len(s) - len(hrp) - 1 - bech32ChecksumLen
	n := groups * 5 / 8
	if n <= 0 || n > len(payload) {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidIdentity)
	}
	for _, b := range payload[n:] {
		if b != 0 {
			return nil, fmt.Errorf("%w: non-zero padding", ErrInvalidIdentity)
		}
	}
	return payload[:n], nil
}

// FromAddress renders a hypersdk address as a bech32 identity.
func FromAddress(hrp string, addr codec.Address) (Identity, error) {
	s, err := address.FormatBech32(hrp, addr[:])
	if err != nil {
		return "", err
	}
	return Identity(s), nil
}

// New picks the validator matching hrp: bech32 when set, plain otherwise.
func New(hrp string) Validator {
	if hrp == "" {
		return Plain{}
	}
	return Bech32{HRP: hrp}
}

// ValidateOptional validates raw when it is set and maps an absent value to
// the empty identity.
func ValidateOptional(v Validator, raw *string) (Identity, error) {
	if raw == nil {
		return "", nil
	}
	return v.Validate(*raw)
}

func checkLength(s string) error {
	if s == "" {
		return ErrEmptyIdentity
	}
	if len(s) > consts.MaxIdentityLen {
		return fmt.Errorf("%w: %d > %d", ErrIdentityTooLong, len(s), consts.MaxIdentityLen)
	}
	return nil
}
