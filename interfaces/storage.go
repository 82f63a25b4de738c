package interfaces

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ContentID addresses archived blobs: the SHA-256 of the stored bytes.
type ContentID [sha256.Size]byte

// ErrInvalidContentID is returned when a content id cannot be parsed.
var ErrInvalidContentID = errors.New("invalid content id")

func NewContentIDFromBytes(source []byte) (ContentID, error) {
	var id ContentID
	if len(source) != len(id) {
		return id, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidContentID, len(source), len(id))
	}
	copy(id[:], source)
	return id, nil
}

// NewContentIDFromHex parses the hex form produced by String. A 0x prefix
// is accepted.
func NewContentIDFromHex(source string) (ContentID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(source, "0x"))
	if err != nil {
		return ContentID{}, fmt.Errorf("%w: %v", ErrInvalidContentID, err)
	}
	return NewContentIDFromBytes(raw)
}

func ComputeID(data []byte) ContentID {
	return sha256.Sum256(data)
}

func (id ContentID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ContentID) Bytes() []byte {
	return id[:]
}

// ContentType indicates storage namespace.
type ContentType int

const (
	// MessageContentType for the signed bytes of a verified message
	MessageContentType ContentType = iota
	// ReceiptType for verification receipts
	ReceiptType
)

// String returns type name.
func (ct ContentType) String() string {
	switch ct {
	case MessageContentType:
		return "content"
	case ReceiptType:
		return "receipt"
	default:
		return "unknown"
	}
}

// Dir returns the plural namespace used for paths and object keys.
func (ct ContentType) Dir() string {
	switch ct {
	case MessageContentType:
		return "contents"
	case ReceiptType:
		return "receipts"
	default:
		return "unknown"
	}
}

var (
	// ErrContentNotFound is returned when requested content cannot be found in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	// URIs must follow the format: [scheme]://[auth@]host[:port][/path][?params]
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// StorageBackend provides content-addressed data storage.
type StorageBackend interface {
	// Fetch retrieves data by content ID and type.
	Fetch(ctx context.Context, id ContentID, contentType ContentType) ([]byte, error)

	// Store saves data and returns its content ID.
	Store(ctx context.Context, data []byte, contentType ContentType) (ContentID, error)

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}

// StorageBackendFactory creates storage backends.
type StorageBackendFactory interface {
	// StorageBackendFor creates backend from URI.
	// Supports file://, s3://, ipfs://, vault://
	StorageBackendFor(locationURI string) (StorageBackend, error)

	// CreateMultiBackend creates aggregated storage backend.
	CreateMultiBackend(locationURIs []string) (StorageBackend, error)
}
