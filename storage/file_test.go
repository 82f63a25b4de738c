package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/multisig-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_StoreFetch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := NewFileBackend(dir, discardLogger())
	require.NoError(t, err)
	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "file://"+dir, backend.LocationURI())

	data := []byte(`{"message_id":"6f1c","required":2}`)
	id, err := backend.Store(ctx, data, interfaces.ReceiptType)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeID(data), id)
	assert.FileExists(t, filepath.Join(dir, "receipts", id.String()))

	// storing the same bytes again is a no-op
	again, err := backend.Store(ctx, data, interfaces.ReceiptType)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	got, err := backend.Fetch(ctx, id, interfaces.ReceiptType)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// content types are separate namespaces
	_, err = backend.Fetch(ctx, id, interfaces.MessageContentType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackend_DetectsModifiedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend, err := NewFileBackend(dir, discardLogger())
	require.NoError(t, err)

	id, err := backend.Store(ctx, []byte("transfer 10"), interfaces.MessageContentType)
	require.NoError(t, err)

	path := filepath.Join(dir, "contents", id.String())
	require.NoError(t, os.WriteFile(path, []byte("transfer 99"), 0644))

	_, err = backend.Fetch(ctx, id, interfaces.MessageContentType)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackend_Unavailable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "archive")
	backend, err := NewFileBackend(dir, discardLogger())
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	assert.False(t, backend.Available(context.Background()))
}
