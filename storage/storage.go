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

	"github.com/thesecretlab-dev/multitoken/identity"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

// State
// 0x3/ (config)
//
//	-> collection config
//
// 0x4/ (counter)
//
//	-> number of registered tokens
//
// 0x5/ (contract)
//
//	-> contract name and version
//
// 0x6/ (token)
//
//	-> [id] => token info
//
// 0x7/ (balance)
//
//	-> [len(owner)|owner][id] => amount
//
// 0x8/ (balance by token)
//
//	-> [id][owner] => marker
//
// 0x9/ (approval)
//
//	-> [len(owner)|owner][operator] => expiration
//
// 0xa/ (approval by operator)
//
//	-> [len(operator)|operator][owner] => marker
//
// Identities that end a key are stored raw so iteration inside a prefix is
// ordered by identity bytes. Identities in the middle of a key are length
// prefixed.
const (
	// 0x0 to 0x2 stay reserved for chain metadata (height, timestamp, fee).
	minimumPrefix byte = 0x3

	configPrefix             byte = minimumPrefix
	counterPrefix            byte = minimumPrefix + 1
	contractPrefix           byte = minimumPrefix + 2
	tokenPrefix              byte = minimumPrefix + 3
	balancePrefix            byte = minimumPrefix + 4
	balanceByTokenPrefix     byte = minimumPrefix + 5
	approvalPrefix           byte = minimumPrefix + 6
	approvalByOperatorPrefix byte = minimumPrefix + 7
)

var indexMarker = []byte{1}

// Reader is the read side needed by listing queries: point reads plus
// prefix-ordered iteration.
type Reader interface {
	state.Immutable
	database.Iteratee
}

var (
	_ state.Mutable = (*View)(nil)
	_ Reader        = (*View)(nil)
)

// View exposes a database as hypersdk state. Every write goes straight to the
// wrapped database, so callers wanting atomicity wrap it in a versiondb.
type View struct {
	database.Iteratee
	db database.Database
}

func NewView(db database.Database) *View {
	return &View{Iteratee: db, db: db}
}

func (v *View) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return v.db.Get(key)
}

func (v *View) Insert(_ context.Context, key []byte, value []byte) error {
	return v.db.Put(key, value)
}

func (v *View) Remove(_ context.Context, key []byte) error {
	return v.db.Delete(key)
}

// ========== Keys ==========

func appendIdentity(k []byte, id identity.Identity) []byte {
	k = binary.BigEndian.AppendUint16(k, uint16(len(id)))
	return append(k, id...)
}

// afterIdentity returns the smallest key strictly greater than every key
// starting with prefix|id where id is the trailing raw component.
func afterIdentity(prefix []byte, id identity.Identity) []byte {
	k := make([]byte, 0, len(prefix)+len(id)+1)
	k = append(k, prefix...)
	k = append(k, id...)
	return append(k, 0)
}

// afterID returns the first key past id in an id-ordered prefix. ok is false
// when id is the largest representable id and nothing can follow it.
func afterID(prefix []byte, id uint64) ([]byte, bool) {
	if id == ^uint64(0) {
		return nil, false
	}
	k := make([]byte, 0, len(prefix)+consts.Uint64Len)
	k = append(k, prefix...)
	return binary.BigEndian.AppendUint64(k, id+1), true
}

// ========== Pagination ==========

// Limit clamps a requested page size into [1, MaxLimit], falling back to
// DefaultLimit when none was requested.
func Limit(limit *uint32) int {
	if limit == nil {
		return int(mconsts.DefaultLimit)
	}
	switch l := *limit; {
	case l < 1:
		return 1
	case l > mconsts.MaxLimit:
		return int(mconsts.MaxLimit)
	default:
		return int(l)
	}
}

func collect[T any](it database.Iterator, limit int, decode func(key []byte, value []byte) (T, error)) ([]T, error) {
	defer it.Release()

	out := make([]T, 0, limit)
	for len(out) < limit && it.Next() {
		v, err := decode(it.Key(), it.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, it.Error()
}

// ========== Encoding ==========

func pack(maxSize int, f func(p *wrappers.Packer)) ([]byte, error) {
	p := &wrappers.Packer{
		Bytes:   make([]byte, 0, maxSize),
		MaxSize: maxSize,
	}
	f(p)
	return p.Bytes, p.Err
}

func unpack(b []byte, f func(p *wrappers.Packer)) error {
	p := &wrappers.Packer{Bytes: b}
	f(p)
	if p.Err != nil {
		return p.Err
	}
	if p.Offset != len(b) {
		return fmt.Errorf("%d trailing bytes", len(b)-p.Offset)
	}
	return nil
}

func parseUint64(v []byte, err error) (uint64, bool, error) {
	if errors.Is(err, database.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	val, err := database.ParseUInt64(v)
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// ========== Config ==========

// Config is the collection singleton. An empty Owner disables registration
// for good, an empty Minter disables minting for good.
type Config struct {
	MetadataURI string            `json:"metadata_uri"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Owner       identity.Identity `json:"owner,omitempty"`
	Minter      identity.Identity `json:"minter,omitempty"`
}

func ConfigKey() []byte {
	return []byte{configPrefix}
}

func PutConfig(ctx context.Context, mu state.Mutable, cfg Config) error {
	size := consts.Uint16Len*5 +
		len(cfg.MetadataURI) + len(cfg.Name) + len(cfg.Description) + len(cfg.Owner) + len(cfg.Minter)
	v, err := pack(size, func(p *wrappers.Packer) {
		p.PackStr(cfg.MetadataURI)
		p.PackStr(cfg.Name)
		p.PackStr(cfg.Description)
		p.PackStr(cfg.Owner.String())
		p.PackStr(cfg.Minter.String())
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return mu.Insert(ctx, ConfigKey(), v)
}

func GetConfig(ctx context.Context, im state.Immutable) (Config, error) {
	v, err := im.GetValue(ctx, ConfigKey())
	if errors.Is(err, database.ErrNotFound) {
		return Config{}, ErrNotInitialized
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := unpack(v, func(p *wrappers.Packer) {
		cfg.MetadataURI = p.UnpackStr()
		cfg.Name = p.UnpackStr()
		cfg.Description = p.UnpackStr()
		cfg.Owner = identity.Identity(p.UnpackStr())
		cfg.Minter = identity.Identity(p.UnpackStr())
	}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// ========== Counter ==========

func CounterKey() []byte {
	return []byte{counterPrefix}
}

func GetRegisteredTokens(ctx context.Context, im state.Immutable) (uint64, error) {
	n, ok, err := parseUint64(im.GetValue(ctx, CounterKey()))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotInitialized
	}
	return n, nil
}

func PutRegisteredTokens(ctx context.Context, mu state.Mutable, n uint64) error {
	return mu.Insert(ctx, CounterKey(), database.PackUInt64(n))
}

// ========== Contract ==========

type ContractInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func ContractKey() []byte {
	return []byte{contractPrefix}
}

func PutContractInfo(ctx context.Context, mu state.Mutable, info ContractInfo) error {
	v, err := pack(consts.Uint16Len*2+len(info.Name)+len(info.Version), func(p *wrappers.Packer) {
		p.PackStr(info.Name)
		p.PackStr(info.Version)
	})
	if err != nil {
		return err
	}
	return mu.Insert(ctx, ContractKey(), v)
}

func GetContractInfo(ctx context.Context, im state.Immutable) (ContractInfo, error) {
	v, err := im.GetValue(ctx, ContractKey())
	if errors.Is(err, database.ErrNotFound) {
		return ContractInfo{}, ErrNotInitialized
	}
	if err != nil {
		return ContractInfo{}, err
	}
	var info ContractInfo
	err = unpack(v, func(p *wrappers.Packer) {
		info.Name = p.UnpackStr()
		info.Version = p.UnpackStr()
	})
	return info, err
}
