package genesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/hypersdk/state"

	"github.com/thesecretlab-dev/multitoken/identity"
	"github.com/thesecretlab-dev/multitoken/storage"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

var ErrInvalidGenesis = errors.New("invalid genesis")

// Genesis describes the collection created when the ledger is initialized.
// Owner and Minter default to the account performing the initialization.
type Genesis struct {
	MetadataURI string  `json:"metadataUri"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Owner       *string `json:"owner,omitempty"`
	Minter      *string `json:"minter,omitempty"`
}

// Load parses a genesis document. An empty document yields an unnamed
// collection.
func Load(genesisBytes []byte) (*Genesis, error) {
	g := &Genesis{}
	if len(genesisBytes) == 0 {
		return g, nil
	}
	if err := json.Unmarshal(genesisBytes, g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGenesis, err)
	}
	return g, nil
}

func (g *Genesis) Verify() error {
	if len(g.MetadataURI) > mconsts.MaxMetadataURILen {
		return fmt.Errorf("%w: metadataUri longer than %d", ErrInvalidGenesis, mconsts.MaxMetadataURILen)
	}
	if len(g.Name) > mconsts.MaxNameLen {
		return fmt.Errorf("%w: name longer than %d", ErrInvalidGenesis, mconsts.MaxNameLen)
	}
	if len(g.Description) > mconsts.MaxDescriptionLen {
		return fmt.Errorf("%w: description longer than %d", ErrInvalidGenesis, mconsts.MaxDescriptionLen)
	}
	return nil
}

// InitializeState writes the collection config, a zero token counter and the
// contract record. It fails if the state already holds a collection.
func (g *Genesis) InitializeState(
	ctx context.Context,
	v identity.Validator,
	mu state.Mutable,
	sender identity.Identity,
) (storage.Config, error) {
	if err := g.Verify(); err != nil {
		return storage.Config{}, err
	}
	if _, err := storage.GetConfig(ctx, mu); err == nil {
		return storage.Config{}, storage.ErrAlreadyInitialized
	} else if !errors.Is(err, storage.ErrNotInitialized) {
		return storage.Config{}, err
	}

	owner, err := withDefault(v, g.Owner, sender)
	if err != nil {
		return storage.Config{}, fmt.Errorf("owner: %w", err)
	}
	minter, err := withDefault(v, g.Minter, sender)
	if err != nil {
		return storage.Config{}, fmt.Errorf("minter: %w", err)
	}
	cfg := storage.Config{
		MetadataURI: g.MetadataURI,
		Name:        g.Name,
		Description: g.Description,
		Owner:       owner,
		Minter:      minter,
	}
	if err := storage.PutConfig(ctx, mu, cfg); err != nil {
		return storage.Config{}, err
	}
	if err := storage.PutRegisteredTokens(ctx, mu, 0); err != nil {
		return storage.Config{}, err
	}
	if err := storage.PutContractInfo(ctx, mu, storage.ContractInfo{
		Name:    mconsts.Name,
		Version: mconsts.Version,
	}); err != nil {
		return storage.Config{}, err
	}
	return cfg, nil
}

func withDefault(v identity.Validator, raw *string, sender identity.Identity) (identity.Identity, error) {
	if raw == nil {
		return sender, nil
	}
	return v.Validate(*raw)
}
