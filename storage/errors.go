package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized        = errors.New("collection is not initialized")
	ErrAlreadyInitialized    = errors.New("collection is already initialized")
	ErrNoOwner               = errors.New("collection ownership has been renounced")
	ErrNotOwner              = errors.New("caller is not the collection's current owner")
	ErrNoMinter              = errors.New("minting has been renounced")
	ErrNotMinter             = errors.New("caller is not the collection's current minter")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrExpired               = errors.New("approval expiration is already expired")
	ErrInvalidZeroAmount     = errors.New("amount is zero")
	ErrZeroMaxSupply         = errors.New("cannot use zero as maximum supply for a token")
	ErrMaximumNumberOfTokens = errors.New("maximum number of tokens has been reached")
	ErrInvalidToken          = errors.New("invalid token")
	ErrCannotExceedMaxSupply = errors.New("cannot exceed max supply")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrNotTransferable       = errors.New("token is not transferable")
	ErrInvalidBalance        = errors.New("invalid balance")
	ErrInvalidSupply         = errors.New("invalid supply")
	ErrInvalidTokenInfo      = errors.New("invalid token info")
	ErrInvalidConfig         = errors.New("invalid collection config")
	ErrInvalidExpiration     = errors.New("invalid expiration")
	ErrInvalidKey            = errors.New("invalid key")
)

// InvalidTokenError reports a token id that was never registered.
type InvalidTokenError struct {
	ID uint64
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("%s: id=%d", ErrInvalidToken, e.ID)
}

func (*InvalidTokenError) Is(target error) bool {
	return target == ErrInvalidToken
}

// InsufficientFundsError reports a debit larger than the available balance.
type InsufficientFundsError struct {
	ID        uint64
	Required  uint64
	Available uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: id=%d required=%d available=%d", ErrInsufficientFunds, e.ID, e.Required, e.Available)
}

func (*InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// NotTransferableError reports a transfer of a token registered as
// non-transferable.
type NotTransferableError struct {
	ID uint64
}

func (e *NotTransferableError) Error() string {
	return fmt.Sprintf("%s: id=%d", ErrNotTransferable, e.ID)
}

func (*NotTransferableError) Is(target error) bool {
	return target == ErrNotTransferable
}
