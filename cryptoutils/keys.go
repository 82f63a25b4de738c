package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// PublicKeyLen is the size of a compressed secp256k1 point.
	PublicKeyLen = 33

	// SignatureLen is the size of a compact R||S ECDSA signature.
	SignatureLen = 64
)

var (
	// ErrInvalidPublicKey is returned when bytes do not describe a point on secp256k1.
	ErrInvalidPublicKey = errors.New("invalid secp256k1 public key")

	// ErrInvalidPrivateKey is returned when bytes are not a valid secp256k1 scalar.
	ErrInvalidPrivateKey = errors.New("invalid secp256k1 private key")

	// ErrMalformedSignature is returned for signatures that are not 64 bytes long.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrSignatureMismatch is returned when a signature does not verify under a key.
	ErrSignatureMismatch = errors.New("signature verification failed")
)

// PublicKey is a compressed secp256k1 public key. Two keys are equal exactly
// when their serialized bytes are equal, so the array type compares with ==.
type PublicKey [PublicKeyLen]byte

// NewPublicKey serializes an ECDSA public key in compressed form.
func NewPublicKey(pub *ecdsa.PublicKey) PublicKey {
	var pk PublicKey
	copy(pk[:], crypto.CompressPubkey(pub))
	return pk
}

// NewPublicKeyFromBytes accepts a compressed (33 byte) or uncompressed
// (65 byte) encoding and validates that it is a curve point.
func NewPublicKeyFromBytes(raw []byte) (PublicKey, error) {
	var (
		pub *ecdsa.PublicKey
		err error
	)
	switch len(raw) {
	case PublicKeyLen:
		pub, err = crypto.DecompressPubkey(raw)
	case 65:
		pub, err = crypto.UnmarshalPubkey(raw)
	default:
		return PublicKey{}, fmt.Errorf("%w: unexpected length %d", ErrInvalidPublicKey, len(raw))
	}
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return NewPublicKey(pub), nil
}

// NewPublicKeyFromHex parses a hex encoded key, with or without 0x prefix.
func NewPublicKeyFromHex(source string) (PublicKey, error) {
	if len(source) > 1 && source[0] == '0' && (source[1] == 'x' || source[1] == 'X') {
		source = source[2:]
	}
	raw, err := hex.DecodeString(source)
	if err != nil {
		return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return NewPublicKeyFromBytes(raw)
}

// Bytes returns the compressed encoding.
func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

// String returns hex representation.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

// KeyHash returns hash160 of the compressed key.
func (pk PublicKey) KeyHash() KeyHash {
	return Hash160(pk[:])
}

// Address returns the base58 address of the key.
func (pk PublicKey) Address() string {
	return EncodeAddress(pk)
}

// ECDSA decompresses the key for use with crypto/ecdsa APIs.
func (pk PublicKey) ECDSA() (*ecdsa.PublicKey, error) {
	pub, err := crypto.DecompressPubkey(pk[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return pub, nil
}

// KeyPair is a secp256k1 private scalar together with its public key.
// It is immutable once created.
type KeyPair struct {
	private *ecdsa.PrivateKey
	public  PublicKey
}

// GenerateKeyPair creates a fresh random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewKeyPair(priv), nil
}

// NewKeyPair wraps an existing secp256k1 private key.
func NewKeyPair(priv *ecdsa.PrivateKey) *KeyPair {
	return &KeyPair{
		private: priv,
		public:  NewPublicKey(&priv.PublicKey),
	}
}

// NewKeyPairFromBytes restores a key pair from its 32-byte private scalar.
func NewKeyPairFromBytes(raw []byte) (*KeyPair, error) {
	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return NewKeyPair(priv), nil
}

// PublicKey returns the public half.
func (kp *KeyPair) PublicKey() PublicKey {
	return kp.public
}

// PrivateKeyBytes returns the 32-byte private scalar.
func (kp *KeyPair) PrivateKeyBytes() []byte {
	return crypto.FromECDSA(kp.private)
}

// Address returns the base58 address of the public half.
func (kp *KeyPair) Address() string {
	return kp.public.Address()
}

// Sign hashes content with SHA-256 and signs the digest, returning a
// 64-byte R||S signature.
func (kp *KeyPair) Sign(content []byte) ([]byte, error) {
	digest := ContentDigest(content)
	sig, err := crypto.Sign(digest[:], kp.private)
	if err != nil {
		return nil, fmt.Errorf("failed to sign content: %w", err)
	}
	// drop the recovery id
	return sig[:SignatureLen], nil
}

// ContentDigest is the hash that signatures commit to.
func ContentDigest(content []byte) [32]byte {
	return sha256.Sum256(content)
}

// VerifySignature checks a 64-byte R||S signature over SHA256(content).
func VerifySignature(pubkey PublicKey, content []byte, signature []byte) error {
	if len(signature) != SignatureLen {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, SignatureLen, len(signature))
	}

	digest := ContentDigest(content)
	if !crypto.VerifySignature(pubkey[:], digest[:], signature) {
		return ErrSignatureMismatch
	}
	return nil
}
