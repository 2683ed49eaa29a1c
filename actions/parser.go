package actions

import (
	"fmt"

	mconsts "github.com/thesecretlab-dev/multitoken/consts"
)

var names = map[uint8]string{
	mconsts.RegisterID:                "register",
	mconsts.MintID:                    "mint",
	mconsts.BurnID:                    "burn",
	mconsts.TransferFromID:            "transfer_from",
	mconsts.ApproveAllID:              "approve_all",
	mconsts.RevokeAllID:               "revoke_all",
	mconsts.SetMinterID:               "set_minter",
	mconsts.DisableTokenMintingID:     "disable_token_minting",
	mconsts.SetOwnerID:                "set_owner",
	mconsts.UpdateCollectionDetailsID: "update_collection_details",
}

// Name returns the wire name of an action type, or "unknown".
func Name(typeID uint8) string {
	if name, ok := names[typeID]; ok {
		return name
	}
	return "unknown"
}

// New returns an empty action for a wire name so it can be filled from JSON.
func New(name string) (Action, error) {
	switch name {
	case "register":
		return &Register{}, nil
	case "mint":
		return &Mint{}, nil
	case "burn":
		return &Burn{}, nil
	case "transfer_from":
		return &TransferFrom{}, nil
	case "approve_all":
		return &ApproveAll{}, nil
	case "revoke_all":
		return &RevokeAll{}, nil
	case "set_minter":
		return &SetMinter{}, nil
	case "disable_token_minting":
		return &DisableTokenMinting{}, nil
	case "set_owner":
		return &SetOwner{}, nil
	case "update_collection_details":
		return &UpdateCollectionDetails{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// Unmarshal decodes an action from its type-prefixed bytes.
func Unmarshal(b []byte) (Action, error) {
	if len(b) == 0 {
		return nil, ErrUnmarshalEmpty
	}
	switch b[0] {
	case mconsts.RegisterID:
		return UnmarshalRegister(b)
	case mconsts.MintID:
		return UnmarshalMint(b)
	case mconsts.BurnID:
		return UnmarshalBurn(b)
	case mconsts.TransferFromID:
		return UnmarshalTransferFrom(b)
	case mconsts.ApproveAllID:
		return UnmarshalApproveAll(b)
	case mconsts.RevokeAllID:
		return UnmarshalRevokeAll(b)
	case mconsts.SetMinterID:
		return UnmarshalSetMinter(b)
	case mconsts.DisableTokenMintingID:
		return UnmarshalDisableTokenMinting(b)
	case mconsts.SetOwnerID:
		return UnmarshalSetOwner(b)
	case mconsts.UpdateCollectionDetailsID:
		return UnmarshalUpdateCollectionDetails(b)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, b[0])
	}
}
