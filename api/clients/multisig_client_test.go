package clients

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/multisig-service/datastore"
	"github.com/ruteri/multisig-service/httpserver"
	"github.com/ruteri/multisig-service/service"
	"github.com/ruteri/multisig-service/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *MultisigClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	archive, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	svc := service.New(datastore.NewMemoryStore(logger), archive, nil, logger)
	r := chi.NewRouter()
	httpserver.NewHandler(svc, 0, logger).RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return NewMultisigClient(ts.URL + "/")
}

func TestMultisigClient_Flow(t *testing.T) {
	ctx := context.Background()
	c := newTestAPI(t)

	var addresses []string
	for _, name := range []string{"alice", "bob"} {
		_, err := c.CreateUser(ctx, name)
		require.NoError(t, err)
		key, err := c.GenerateKeyPair(ctx, name)
		require.NoError(t, err)
		addresses = append(addresses, key.Address)
	}

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	msg, err := c.CreateMessage(ctx, []byte("transfer 10"), addresses, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, msg.RequiredSignatureCount)

	_, err = c.VerifyMessage(ctx, msg.ID)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, apiErr.Have)
	assert.Equal(t, 0, *apiErr.Have)
	assert.Equal(t, 2, *apiErr.Need)

	signed, err := c.SignMessage(ctx, msg.ID, addresses[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, signed.SignatureCount)

	_, err = c.VerifyMessage(ctx, msg.ID)
	assert.True(t, IsStatus(err, http.StatusConflict))

	_, err = c.SignMessage(ctx, msg.ID, addresses[1:])
	require.NoError(t, err)

	verified, err := c.VerifyMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.NotEmpty(t, verified.ReceiptID)

	receipt, err := c.GetReceipt(ctx, verified.ReceiptID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, receipt.MessageID)
	assert.Len(t, receipt.Signers, 2)

	content, err := c.GetContent(ctx, receipt.ContentID)
	require.NoError(t, err)
	assert.Equal(t, []byte("transfer 10"), content)

	decoded, err := c.DecodeAddress(ctx, addresses[0])
	require.NoError(t, err)
	assert.Len(t, decoded.KeyHash, 40)

	require.NoError(t, c.DeleteMessage(ctx, msg.ID))
	_, err = c.GetMessage(ctx, msg.ID)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestMultisigClient_Errors(t *testing.T) {
	ctx := context.Background()
	c := newTestAPI(t)

	_, err := c.GetUser(ctx, "nobody")
	assert.True(t, IsStatus(err, http.StatusNotFound))

	_, err = c.CreateMessage(ctx, []byte("x"), []string{"badkey"}, nil)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "400")

	_, err = c.CreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = c.CreateUser(ctx, "alice")
	assert.True(t, IsStatus(err, http.StatusConflict))
}

func TestMultisigClient_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewMultisigClient(ts.URL).ListUsers(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
}
