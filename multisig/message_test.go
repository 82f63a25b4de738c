package multisig

import (
	"errors"
	"testing"

	"github.com/ruteri/multisig-service/cryptoutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPairs(t *testing.T, n int) []*cryptoutils.KeyPair {
	t.Helper()
	kps := make([]*cryptoutils.KeyPair, n)
	for i := range kps {
		kp, err := cryptoutils.GenerateKeyPair()
		require.NoError(t, err)
		kps[i] = kp
	}
	return kps
}

func publicKeys(kps []*cryptoutils.KeyPair) []cryptoutils.PublicKey {
	keys := make([]cryptoutils.PublicKey, len(kps))
	for i, kp := range kps {
		keys[i] = kp.PublicKey()
	}
	return keys
}

func intPtr(v int) *int {
	return &v
}

func TestNewMessage_Quorum(t *testing.T) {
	keys := publicKeys(generateKeyPairs(t, 3))

	tests := []struct {
		name     string
		keys     []cryptoutils.PublicKey
		required *int
		want     int
		err      error
	}{
		{name: "defaults to all keys", keys: keys, want: 3},
		{name: "explicit quorum", keys: keys, required: intPtr(2), want: 2},
		{name: "quorum equal to keys", keys: keys, required: intPtr(3), want: 3},
		{name: "quorum capped at keys", keys: keys, required: intPtr(10), want: 3},
		{name: "zero quorum", keys: keys, required: intPtr(0), err: ErrInvalidQuorum},
		{name: "negative quorum", keys: keys, required: intPtr(-1), err: ErrInvalidQuorum},
		{name: "no keys", keys: nil, err: ErrNoKeys},
		{name: "duplicate keys", keys: []cryptoutils.PublicKey{keys[0], keys[1], keys[0]}, err: ErrDuplicateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage([]byte("payload"), tt.keys, tt.required)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.RequiredCount())
			assert.Len(t, msg.Bindings(), len(tt.keys))
			assert.Zero(t, msg.SignatureCount())
		})
	}
}

func TestNewMessage_PreservesKeyOrder(t *testing.T) {
	keys := publicKeys(generateKeyPairs(t, 4))
	msg, err := NewMessage([]byte("payload"), keys, nil)
	require.NoError(t, err)

	for i, b := range msg.Bindings() {
		assert.Equal(t, keys[i], b.PublicKey)
		assert.False(t, b.Signed())
	}
}

func TestNewMessage_UniqueIDs(t *testing.T) {
	keys := publicKeys(generateKeyPairs(t, 1))
	a, err := NewMessage([]byte("same"), keys, nil)
	require.NoError(t, err)
	b, err := NewMessage([]byte("same"), keys, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestMessage_SignAndVerify(t *testing.T) {
	kps := generateKeyPairs(t, 3)
	msg, err := NewMessage([]byte("transfer 10 to bob"), publicKeys(kps), intPtr(2))
	require.NoError(t, err)

	err = msg.Verify()
	var notEnough *NotEnoughSignaturesError
	require.ErrorAs(t, err, &notEnough)
	assert.Equal(t, 0, notEnough.Have)
	assert.Equal(t, 2, notEnough.Need)

	require.NoError(t, msg.Sign(kps[0]))
	err = msg.Verify()
	require.ErrorAs(t, err, &notEnough)
	assert.Equal(t, 1, notEnough.Have)
	assert.ErrorIs(t, err, ErrNotEnoughSignatures)

	require.NoError(t, msg.Sign(kps[2]))
	require.NoError(t, msg.Verify())
	assert.Equal(t, 2, msg.SignatureCount())

	bindings := msg.Bindings()
	assert.True(t, bindings[0].Signed())
	assert.False(t, bindings[1].Signed())
	assert.True(t, bindings[2].Signed())
}

func TestMessage_SignIsIdempotent(t *testing.T) {
	kps := generateKeyPairs(t, 2)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), nil)
	require.NoError(t, err)

	added, err := msg.SignWith(kps[0])
	require.NoError(t, err)
	assert.True(t, added)
	first := msg.Bindings()[0].Signature

	added, err = msg.SignWith(kps[0])
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, first, msg.Bindings()[0].Signature)
	assert.Equal(t, 1, msg.SignatureCount())
}

func TestMessage_SignWithUnassignedKey(t *testing.T) {
	kps := generateKeyPairs(t, 3)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps[:2]), nil)
	require.NoError(t, err)

	err = msg.Sign(kps[2])
	require.ErrorIs(t, err, ErrKeyNotAssigned)
	assert.Zero(t, msg.SignatureCount())
}

func TestMessage_VerifyRejectsTamperedSignature(t *testing.T) {
	kps := generateKeyPairs(t, 3)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), intPtr(2))
	require.NoError(t, err)
	for _, kp := range kps {
		require.NoError(t, msg.Sign(kp))
	}
	require.NoError(t, msg.Verify())

	// quorum is met by the other two, but one bad signature still fails
	bindings := msg.Bindings()
	bindings[1].Signature[0] ^= 0xff
	tampered, err := Restore(msg.ID(), msg.Content(), msg.RequiredCount(), bindings, msg.CreatedAt())
	require.NoError(t, err)

	err = tampered.Verify()
	var invalid *InvalidSignatureError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
	assert.Equal(t, kps[1].PublicKey(), invalid.PublicKey)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.ErrorIs(t, err, cryptoutils.ErrSignatureMismatch)
}

func TestMessage_VerifyReportsFirstInvalidSignature(t *testing.T) {
	kps := generateKeyPairs(t, 3)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), nil)
	require.NoError(t, err)
	for _, kp := range kps {
		require.NoError(t, msg.Sign(kp))
	}

	bindings := msg.Bindings()
	bindings[1].Signature = bindings[1].Signature[:10]
	bindings[2].Signature[5] ^= 0x01
	tampered, err := Restore(msg.ID(), msg.Content(), msg.RequiredCount(), bindings, msg.CreatedAt())
	require.NoError(t, err)

	err = tampered.Verify()
	var invalid *InvalidSignatureError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Index)
	assert.ErrorIs(t, err, cryptoutils.ErrMalformedSignature)
}

func TestMessage_CountCheckedBeforeSignatures(t *testing.T) {
	kps := generateKeyPairs(t, 3)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), nil)
	require.NoError(t, err)
	require.NoError(t, msg.Sign(kps[0]))

	bindings := msg.Bindings()
	bindings[0].Signature[0] ^= 0xff
	tampered, err := Restore(msg.ID(), msg.Content(), msg.RequiredCount(), bindings, msg.CreatedAt())
	require.NoError(t, err)

	err = tampered.Verify()
	assert.ErrorIs(t, err, ErrNotEnoughSignatures)
	assert.False(t, errors.Is(err, ErrInvalidSignature))
}

func TestMessage_VerifyIsRepeatable(t *testing.T) {
	kps := generateKeyPairs(t, 2)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), intPtr(1))
	require.NoError(t, err)
	require.NoError(t, msg.Sign(kps[1]))

	before := msg.Bindings()
	for i := 0; i < 3; i++ {
		require.NoError(t, msg.Verify())
	}
	assert.Equal(t, before, msg.Bindings())
}

func TestMessage_AccessorsReturnCopies(t *testing.T) {
	kps := generateKeyPairs(t, 1)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), nil)
	require.NoError(t, err)
	require.NoError(t, msg.Sign(kps[0]))

	content := msg.Content()
	content[0] = 'X'
	assert.Equal(t, []byte("payload"), msg.Content())

	bindings := msg.Bindings()
	bindings[0].Signature[0] ^= 0xff
	require.NoError(t, msg.Verify())

	clone := msg.Clone()
	require.NoError(t, clone.Sign(kps[0]))
	assert.Equal(t, msg.ID(), clone.ID())
	assert.Equal(t, msg.Bindings(), clone.Bindings())
}

func TestRestore_RejectsInvalidState(t *testing.T) {
	kps := generateKeyPairs(t, 2)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), nil)
	require.NoError(t, err)

	_, err = Restore(msg.ID(), msg.Content(), 3, msg.Bindings(), msg.CreatedAt())
	assert.ErrorIs(t, err, ErrInvalidQuorum)

	_, err = Restore(msg.ID(), msg.Content(), 0, msg.Bindings(), msg.CreatedAt())
	assert.ErrorIs(t, err, ErrInvalidQuorum)

	_, err = Restore(msg.ID(), msg.Content(), 1, nil, msg.CreatedAt())
	assert.ErrorIs(t, err, ErrNoKeys)

	dup := Bindings{{PublicKey: kps[0].PublicKey()}, {PublicKey: kps[0].PublicKey()}}
	_, err = Restore(msg.ID(), msg.Content(), 1, dup, msg.CreatedAt())
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestBindings_VerifyRejectsInvalidQuorum(t *testing.T) {
	kps := generateKeyPairs(t, 3)
	msg, err := NewMessage([]byte("payload"), publicKeys(kps), nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		sign     int
		required int
		err      error
	}{
		{name: "zero quorum without signatures", required: 0, err: ErrInvalidQuorum},
		{name: "negative quorum without signatures", required: -5, err: ErrInvalidQuorum},
		{name: "zero quorum with signatures", sign: 3, required: 0, err: ErrInvalidQuorum},
		{name: "quorum of one without signatures", required: 1, err: ErrNotEnoughSignatures},
		{name: "quorum of one with a signature", sign: 1, required: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed := msg.Clone()
			for _, kp := range kps[:tt.sign] {
				require.NoError(t, signed.Sign(kp))
			}

			err := signed.Bindings().Verify(signed.Content(), tt.required)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBindings_VerifyRejectsAlteredContent(t *testing.T) {
	kps := generateKeyPairs(t, 3)
	msg, err := NewMessage([]byte("Hello world!"), publicKeys(kps), nil)
	require.NoError(t, err)
	for _, kp := range kps {
		require.NoError(t, msg.Sign(kp))
	}
	require.NoError(t, msg.Bindings().Verify([]byte("Hello world!"), len(kps)))

	err = msg.Bindings().Verify([]byte("Hello world?"), len(kps))
	var invalid *InvalidSignatureError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, invalid.Index)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.ErrorIs(t, err, cryptoutils.ErrSignatureMismatch)
}
