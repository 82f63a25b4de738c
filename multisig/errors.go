package multisig

import (
	"errors"
	"fmt"

	"github.com/ruteri/multisig-service/cryptoutils"
)

var (
	// ErrNoKeys is returned when a message is created without any assigned key.
	ErrNoKeys = errors.New("message must have at least one assigned key")

	// ErrDuplicateKey is returned when the same public key is assigned twice.
	ErrDuplicateKey = errors.New("duplicate public key in assigned set")

	// ErrInvalidQuorum is returned for a requested signature count below one.
	ErrInvalidQuorum = errors.New("required signature count must be at least 1")

	// ErrKeyNotAssigned is returned when signing with a key outside the message's key set.
	ErrKeyNotAssigned = errors.New("public key is not assigned to this message")

	// ErrNotEnoughSignatures matches *NotEnoughSignaturesError.
	ErrNotEnoughSignatures = errors.New("not enough signatures")

	// ErrInvalidSignature matches *InvalidSignatureError.
	ErrInvalidSignature = errors.New("invalid signature")
)

// NotEnoughSignaturesError reports a quorum shortfall. It is an expected
// outcome while signers are still collecting, not an integrity failure.
type NotEnoughSignaturesError struct {
	Have int
	Need int
}

func (e *NotEnoughSignaturesError) Error() string {
	return fmt.Sprintf("not enough signatures, provided: %d, required: %d", e.Have, e.Need)
}

func (e *NotEnoughSignaturesError) Is(target error) bool {
	return target == ErrNotEnoughSignatures
}

// InvalidSignatureError reports a present signature that failed
// cryptographic verification.
type InvalidSignatureError struct {
	// Index is the binding position of the failing signature.
	Index     int
	PublicKey cryptoutils.PublicKey
	Err       error
}

func (e *InvalidSignatureError) Error() string {
	return fmt.Sprintf("invalid signature at binding %d for key %s: %v", e.Index, e.PublicKey.Address(), e.Err)
}

func (e *InvalidSignatureError) Is(target error) bool {
	return target == ErrInvalidSignature
}

func (e *InvalidSignatureError) Unwrap() error {
	return e.Err
}
