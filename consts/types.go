package consts

const (
	// Action TypeIDs
	RegisterID                uint8 = 0
	MintID                    uint8 = 1
	BurnID                    uint8 = 2
	TransferFromID            uint8 = 3
	ApproveAllID              uint8 = 4
	RevokeAllID               uint8 = 5
	SetMinterID               uint8 = 6
	DisableTokenMintingID     uint8 = 7
	SetOwnerID                uint8 = 8
	UpdateCollectionDetailsID uint8 = 9
)

const (
	// Expiration kinds
	ExpirationNever    uint8 = 0
	ExpirationAtHeight uint8 = 1
	ExpirationAtTime   uint8 = 2
)
