package cryptoutils

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPair_SignVerify(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	content := []byte("Hello world!")
	sig, err := kp.Sign(content)
	require.NoError(t, err)
	assert.Len(t, sig, SignatureLen)

	require.NoError(t, VerifySignature(kp.PublicKey(), content, sig))

	// altered content
	err = VerifySignature(kp.PublicKey(), []byte("Hello world?"), sig)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	// other key
	other, err := GenerateKeyPair()
	require.NoError(t, err)
	err = VerifySignature(other.PublicKey(), content, sig)
	assert.ErrorIs(t, err, ErrSignatureMismatch)

	// truncated signature
	err = VerifySignature(kp.PublicKey(), content, sig[:63])
	assert.ErrorIs(t, err, ErrMalformedSignature)
}

func TestKeyPair_RestoreFromBytes(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	restored, err := NewKeyPairFromBytes(kp.PrivateKeyBytes())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), restored.PublicKey())
	assert.Equal(t, kp.Address(), restored.Address())

	_, err = NewKeyPairFromBytes(make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestNewPublicKeyFromBytes(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	ecdsaPub, err := kp.PublicKey().ECDSA()
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     []byte
		wantErr bool
	}{
		{name: "compressed", raw: kp.PublicKey().Bytes()},
		{name: "uncompressed", raw: crypto.FromECDSAPub(ecdsaPub)},
		{name: "empty", raw: nil, wantErr: true},
		{name: "wrong length", raw: make([]byte, 20), wantErr: true},
		{name: "not on curve", raw: append([]byte{0x02}, make([]byte, 32)...), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, err := NewPublicKeyFromBytes(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPublicKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, kp.PublicKey(), pk)
		})
	}
}

func TestNewPublicKeyFromHex(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	pk, err := NewPublicKeyFromHex("0x" + kp.PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), pk)

	_, err = NewPublicKeyFromHex("zz")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}
