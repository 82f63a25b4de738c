package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/multisig-service/cryptoutils"
	"github.com/ruteri/multisig-service/datastore"
	"github.com/ruteri/multisig-service/interfaces"
	"github.com/ruteri/multisig-service/metrics"
	"github.com/ruteri/multisig-service/multisig"
	"github.com/ruteri/multisig-service/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	args := m.Called(ctx, id, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockArchive) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	args := m.Called(ctx, data, contentType)
	return args.Get(0).(interfaces.ContentID), args.Error(1)
}

func (m *mockArchive) Available(ctx context.Context) bool { return true }
func (m *mockArchive) Name() string                       { return "mock" }
func (m *mockArchive) LocationURI() string                { return "mock://" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, archive interfaces.StorageBackend) (*Service, *metrics.MultisigMetrics) {
	t.Helper()
	m := metrics.NewMultisigMetrics("test", nil)
	return New(datastore.NewMemoryStore(testLogger()), archive, m, testLogger()), m
}

// setupSigners creates one user per name with one key pair each and
// returns the addresses in order.
func setupSigners(t *testing.T, svc *Service, names ...string) []string {
	t.Helper()
	ctx := context.Background()
	addresses := make([]string, len(names))
	for i, name := range names {
		_, err := svc.CreateUser(ctx, name)
		require.NoError(t, err)
		key, err := svc.GenerateKeyPair(ctx, name)
		require.NoError(t, err)
		addresses[i] = key.Address
	}
	return addresses
}

func intPtr(v int) *int { return &v }

func TestService_Users(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidUserName)

	_, err = svc.CreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "alice")
	assert.ErrorIs(t, err, interfaces.ErrUserExists)

	key, err := svc.GenerateKeyPair(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey.Address(), key.Address)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeysGenerated))

	_, err = svc.GenerateKeyPair(ctx, "bob")
	assert.ErrorIs(t, err, interfaces.ErrUserNotFound)

	user, err := svc.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, user.Keys, 1)
	assert.Equal(t, key.Address, user.Keys[0].Address)

	require.NoError(t, svc.DeleteUser(ctx, "alice"))
	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

// Three signers, quorum of two: the message verifies once two of them sign.
func TestService_CreateSignVerify(t *testing.T) {
	svc, m := newTestService(t, nil)
	ctx := context.Background()
	addrs := setupSigners(t, svc, "alice", "bob", "carol")

	msg, err := svc.CreateMessage(ctx, []byte("release v1.2.0"), addrs, intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, 2, msg.RequiredCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesCreated))

	_, err = svc.VerifyMessage(ctx, msg.ID())
	var notEnough *multisig.NotEnoughSignaturesError
	require.ErrorAs(t, err, &notEnough)
	assert.Equal(t, 0, notEnough.Have)
	assert.Equal(t, 2, notEnough.Need)

	signed, err := svc.SignMessage(ctx, msg.ID(), []string{addrs[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, signed.SignatureCount())

	_, err = svc.VerifyMessage(ctx, msg.ID())
	assert.ErrorIs(t, err, multisig.ErrNotEnoughSignatures)

	signed, err = svc.SignMessage(ctx, msg.ID(), []string{addrs[2], addrs[0]})
	require.NoError(t, err)
	assert.Equal(t, 2, signed.SignatureCount())

	result, err := svc.VerifyMessage(ctx, msg.ID())
	require.NoError(t, err)
	assert.Nil(t, result.ReceiptID)
	assert.Equal(t, 2, result.Message.SignatureCount())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Signatures.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Signatures.WithLabelValues(metrics.OutcomeSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verifications.WithLabelValues(metrics.OutcomeNotEnough)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestService_CreateMessageErrors(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	addrs := setupSigners(t, svc, "alice", "bob")

	unknown, err := cryptoutils.GenerateKeyPair()
	require.NoError(t, err)

	tests := []struct {
		name      string
		addresses []string
		required  *int
		err       error
	}{
		{name: "malformed address", addresses: []string{addrs[0], "badkey"}, err: cryptoutils.ErrInvalidLength},
		{name: "bad characters", addresses: []string{"0OIl"}, err: cryptoutils.ErrInvalidEncoding},
		{name: "unregistered key", addresses: []string{unknown.Address()}, err: interfaces.ErrKeyNotFound},
		{name: "no keys", addresses: nil, err: multisig.ErrNoKeys},
		{name: "duplicate keys", addresses: []string{addrs[0], addrs[0]}, err: multisig.ErrDuplicateKey},
		{name: "zero quorum", addresses: addrs, required: intPtr(0), err: multisig.ErrInvalidQuorum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMessage(ctx, []byte("payload"), tt.addresses, tt.required)
			require.ErrorIs(t, err, tt.err)
		})
	}

	msgs, err := svc.ListMessages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestService_SignMessageIsAtomic(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	addrs := setupSigners(t, svc, "alice", "bob", "mallory")

	msg, err := svc.CreateMessage(ctx, []byte("payload"), addrs[:2], nil)
	require.NoError(t, err)

	// mallory's key exists but is not bound to the message
	_, err = svc.SignMessage(ctx, msg.ID(), []string{addrs[0], addrs[2]})
	require.ErrorIs(t, err, multisig.ErrKeyNotAssigned)

	got, err := svc.GetMessage(ctx, msg.ID())
	require.NoError(t, err)
	assert.Zero(t, got.SignatureCount())

	_, err = svc.SignMessage(ctx, msg.ID(), nil)
	assert.ErrorIs(t, err, ErrNoSigners)

	_, err = svc.SignMessage(ctx, uuid.New(), []string{addrs[0]})
	assert.ErrorIs(t, err, interfaces.ErrMessageNotFound)

	_, err = svc.SignMessage(ctx, msg.ID(), []string{"not-an-address"})
	assert.True(t, cryptoutils.IsAddressError(err))
}

func TestService_VerifyArchivesReceipt(t *testing.T) {
	archive, err := storage.NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)
	svc, m := newTestService(t, archive)
	ctx := context.Background()
	addrs := setupSigners(t, svc, "alice", "bob")

	msg, err := svc.CreateMessage(ctx, []byte("rotate keys"), addrs, intPtr(1))
	require.NoError(t, err)
	_, err = svc.SignMessage(ctx, msg.ID(), addrs[1:])
	require.NoError(t, err)

	result, err := svc.VerifyMessage(ctx, msg.ID())
	require.NoError(t, err)
	require.NotNil(t, result.ReceiptID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReceiptsArchived.WithLabelValues(metrics.OutcomeSuccess)))

	receipt, err := svc.FetchReceipt(ctx, *result.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID(), receipt.MessageID)
	assert.Equal(t, 1, receipt.RequiredCount)
	require.Len(t, receipt.Signers, 1)
	assert.Equal(t, addrs[1], receipt.Signers[0].Address)

	pub, err := cryptoutils.NewPublicKeyFromBytes(receipt.Signers[0].PublicKey)
	require.NoError(t, err)
	require.NoError(t, cryptoutils.VerifySignature(pub, []byte("rotate keys"), receipt.Signers[0].Signature))

	contentID, err := interfaces.NewContentIDFromHex(receipt.ContentID)
	require.NoError(t, err)
	content, err := svc.FetchContent(ctx, contentID)
	require.NoError(t, err)
	assert.Equal(t, []byte("rotate keys"), content)

	_, err = svc.FetchReceipt(ctx, interfaces.ComputeID([]byte("nothing")))
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestService_ArchiveFailureDoesNotFailVerification(t *testing.T) {
	archive := &mockArchive{}
	archive.On("Store", mock.Anything, mock.Anything, interfaces.MessageContentType).
		Return(interfaces.ContentID{}, errors.New("bucket is read-only"))

	svc, m := newTestService(t, archive)
	ctx := context.Background()
	addrs := setupSigners(t, svc, "alice")

	msg, err := svc.CreateMessage(ctx, []byte("payload"), addrs, nil)
	require.NoError(t, err)
	_, err = svc.SignMessage(ctx, msg.ID(), addrs)
	require.NoError(t, err)

	result, err := svc.VerifyMessage(ctx, msg.ID())
	require.NoError(t, err)
	assert.Nil(t, result.ReceiptID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReceiptsArchived.WithLabelValues(metrics.OutcomeError)))
	archive.AssertExpectations(t)
}

func TestService_ReceiptsWithoutArchive(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.FetchReceipt(context.Background(), interfaces.ContentID{})
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestService_DeleteMessage(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	addrs := setupSigners(t, svc, "alice")

	msg, err := svc.CreateMessage(ctx, []byte("payload"), addrs, nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMessage(ctx, msg.ID()))
	_, err = svc.GetMessage(ctx, msg.ID())
	assert.ErrorIs(t, err, interfaces.ErrMessageNotFound)
	assert.ErrorIs(t, svc.DeleteMessage(ctx, msg.ID()), interfaces.ErrMessageNotFound)
}
