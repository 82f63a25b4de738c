package interfaces

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentID(t *testing.T) {
	id := ComputeID([]byte("Hello world!"))
	assert.Equal(t, "c0535e4be2b79ffd93291305436bf889314e4a3faec05ecffcbb7df31ad9e51a", id.String())

	parsed, err := NewContentIDFromHex(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = NewContentIDFromHex("0x" + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	fromBytes, err := NewContentIDFromBytes(id.Bytes())
	require.NoError(t, err)
	assert.Equal(t, id, fromBytes)
}

func TestContentID_Invalid(t *testing.T) {
	for _, input := range []string{"", "xyz", "abcd", strings.Repeat("ab", 33)} {
		_, err := NewContentIDFromHex(input)
		assert.ErrorIs(t, err, ErrInvalidContentID, input)
	}

	_, err := NewContentIDFromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, ErrInvalidContentID)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "content", MessageContentType.String())
	assert.Equal(t, "receipt", ReceiptType.String())
	assert.Equal(t, "contents", MessageContentType.Dir())
	assert.Equal(t, "receipts", ReceiptType.Dir())
	assert.Equal(t, "unknown", ContentType(42).String())
}
