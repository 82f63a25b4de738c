package cryptoutils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/ripemd160"
)

const (
	// AddressVersion is the only accepted leading byte (P2PKH on the main network).
	AddressVersion byte = 0x00

	// KeyHashLen is the size of hash160 output.
	KeyHashLen = 20

	checksumLen = 4
	addressLen  = 1 + KeyHashLen + checksumLen
)

// Address decoding errors. They are reported in the order the checks run:
// encoding, length, version, checksum.
var (
	ErrInvalidEncoding    = errors.New("invalid base58 encoding")
	ErrInvalidLength      = errors.New("invalid address length")
	ErrUnsupportedVersion = errors.New("unsupported address version")
	ErrChecksumMismatch   = errors.New("address checksum mismatch")
)

// KeyHash is hash160 of a compressed public key: RIPEMD160(SHA256(key)).
type KeyHash [KeyHashLen]byte

// String returns hex representation.
func (h KeyHash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 20-byte hash.
func (h KeyHash) Bytes() []byte {
	return h[:]
}

// NewKeyHashFromHex parses a 40-char hex string.
func NewKeyHashFromHex(source string) (KeyHash, error) {
	raw, err := hex.DecodeString(source)
	if err != nil {
		return KeyHash{}, err
	}
	if len(raw) != KeyHashLen {
		return KeyHash{}, errors.New("invalid key hash length")
	}
	var h KeyHash
	copy(h[:], raw)
	return h, nil
}

// Hash160 computes RIPEMD160(SHA256(data)).
func Hash160(data []byte) KeyHash {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])

	var h KeyHash
	copy(h[:], r.Sum(nil))
	return h
}

// EncodeAddress derives the printable address of a public key:
// base58(version || hash160(compressed key) || checksum).
func EncodeAddress(pubkey PublicKey) string {
	keyHash := Hash160(pubkey[:])

	payload := make([]byte, 0, addressLen)
	payload = append(payload, AddressVersion)
	payload = append(payload, keyHash[:]...)
	payload = append(payload, addressChecksum(payload)...)

	return base58.Encode(payload)
}

// DecodeAddress validates an address and returns the key hash it carries.
// The key itself is not recoverable from an address; callers resolve the
// hash against an index of known keys.
func DecodeAddress(address string) (KeyHash, error) {
	// base58.Decode signals a character outside the alphabet with an empty
	// result. A non-empty valid string always decodes to at least one byte.
	decoded := base58.Decode(address)
	if len(decoded) == 0 {
		return KeyHash{}, ErrInvalidEncoding
	}

	if len(decoded) != addressLen {
		return KeyHash{}, ErrInvalidLength
	}

	if decoded[0] != AddressVersion {
		return KeyHash{}, ErrUnsupportedVersion
	}

	body, checksum := decoded[:addressLen-checksumLen], decoded[addressLen-checksumLen:]
	if !bytes.Equal(checksum, addressChecksum(body)) {
		return KeyHash{}, ErrChecksumMismatch
	}

	var keyHash KeyHash
	copy(keyHash[:], body[1:])
	return keyHash, nil
}

// IsAddressError reports whether err is one of the address decoding errors.
func IsAddressError(err error) bool {
	return errors.Is(err, ErrInvalidEncoding) ||
		errors.Is(err, ErrInvalidLength) ||
		errors.Is(err, ErrUnsupportedVersion) ||
		errors.Is(err, ErrChecksumMismatch)
}

// addressChecksum returns the first 4 bytes of SHA256(SHA256(data)).
func addressChecksum(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:checksumLen]
}
