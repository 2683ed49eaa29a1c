package actions

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
)

var (
	ErrUnmarshalEmpty = errors.New("cannot unmarshal empty bytes as action")
	ErrUnknownAction  = errors.New("unknown action type")
	ErrTrailingBytes  = errors.New("trailing bytes after action")
	ErrMsgTooLarge    = errors.New("msg is too large")
	ErrNameTooLarge   = errors.New("name is too large")
	ErrDescTooLarge   = errors.New("description is too large")
)

// Env is the block context a call executes in. Grants are checked against it;
// nothing in this package advances it.
type Env struct {
	Height uint64 `json:"height"`
	// Time is a unix timestamp in nanoseconds.
	Time uint64 `json:"time"`
}

// Action is one ledger mutation. The set of actions is closed: every
// implementation has a type id in consts and a case in Unmarshal.
type Action interface {
	GetTypeID() uint8
	Bytes() []byte
	// Execute applies the action on behalf of actor. Writes go to mu as they
	// happen; the caller discards mu when an error is returned.
	Execute(ctx context.Context, v identity.Validator, mu state.Mutable, env Env, actor identity.Identity) (*Result, error)
}

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ReceiveNotification asks the host to tell Recipient it received tokens.
// From is empty for mints.
type ReceiveNotification struct {
	Recipient identity.Identity `json:"recipient"`
	Operator  identity.Identity `json:"operator"`
	From      identity.Identity `json:"from,omitempty"`
	ID        uint64            `json:"id"`
	Amount    uint64            `json:"amount"`
	Msg       []byte            `json:"msg"`
}

// Result carries the audit attributes of a committed action and, for mints
// and transfers that asked for it, a receive notification.
type Result struct {
	Attributes   []Attribute          `json:"attributes"`
	Notification *ReceiveNotification `json:"notification,omitempty"`
}

func newResult(action string) *Result {
	return &Result{Attributes: []Attribute{{Key: "action", Value: action}}}
}

func (r *Result) add(key string, value string) *Result {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

func (r *Result) addUint(key string, value uint64) *Result {
	return r.add(key, strconv.FormatUint(value, 10))
}

// Action returns the name of the action that produced r.
func (r *Result) Action() string {
	v, _ := r.Get("action")
	return v
}

func (r *Result) Get(key string) (string, bool) {
	for _, attr := range r.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Uint parses a numeric attribute such as the id returned by register.
func (r *Result) Uint(key string) (uint64, error) {
	v, ok := r.Get(key)
	if !ok {
		return 0, fmt.Errorf("missing attribute %q", key)
	}
	return strconv.ParseUint(v, 10, 64)
}

func optionalString(id identity.Identity) string {
	if id.IsEmpty() {
		return "None"
	}
	return id.String()
}

// ========== Codec ==========

func marshal(typeID uint8, maxSize int, f func(p *wrappers.Packer)) []byte {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, maxSize),
		MaxSize: maxSize,
	}
	p.PackByte(typeID)
	f(p)
	if p.Err != nil {
		panic(p.Err)
	}
	return p.Bytes
}

func unmarshal(typeID uint8, name string, b []byte, f func(p *wrappers.Packer)) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: %s", ErrUnmarshalEmpty, name)
	}
	if b[0] != typeID {
		return fmt.Errorf("unexpected %s typeID: %d != %d", name, b[0], typeID)
	}
	p := &wrappers.Packer{Bytes: b[1:]}
	f(p)
	if p.Err != nil {
		return fmt.Errorf("could not unmarshal %s: %w", name, p.Err)
	}
	if p.Offset != len(p.Bytes) {
		return fmt.Errorf("%w: %s has %d extra bytes", ErrTrailingBytes, name, len(p.Bytes)-p.Offset)
	}
	return nil
}

func packOptionalLong(p *wrappers.Packer, v *uint64) {
	p.PackBool(v != nil)
	if v != nil {
		p.PackLong(*v)
	}
}

func unpackOptionalLong(p *wrappers.Packer) *uint64 {
	if !p.UnpackBool() {
		return nil
	}
	v := p.UnpackLong()
	return &v
}

func packOptionalBool(p *wrappers.Packer, v *bool) {
	p.PackBool(v != nil)
	if v != nil {
		p.PackBool(*v)
	}
}

func unpackOptionalBool(p *wrappers.Packer) *bool {
	if !p.UnpackBool() {
		return nil
	}
	v := p.UnpackBool()
	return &v
}

func packOptionalStr(p *wrappers.Packer, v *string) {
	p.PackBool(v != nil)
	if v != nil {
		p.PackStr(*v)
	}
}

func unpackOptionalStr(p *wrappers.Packer) *string {
	if !p.UnpackBool() {
		return nil
	}
	v := p.UnpackStr()
	return &v
}

func packOptionalBytes(p *wrappers.Packer, v []byte) {
	p.PackBool(v != nil)
	if v != nil {
		p.PackBytes(v)
	}
}

func unpackOptionalBytes(p *wrappers.Packer) []byte {
	if !p.UnpackBool() {
		return nil
	}
	return append([]byte{}, p.UnpackBytes()...)
}
