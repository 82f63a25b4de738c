package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/cryptoutils"
	"github.com/ruteri/multisig-service/multisig"
)

var (
	// ErrUserExists is returned when creating a user whose name is taken.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned for an unknown user id or name.
	ErrUserNotFound = errors.New("user not found")

	// ErrKeyNotFound is returned when no registered key matches a key hash.
	ErrKeyNotFound = errors.New("key not found")

	// ErrMessageExists is returned when inserting a message whose id is taken.
	ErrMessageExists = errors.New("message already exists")

	// ErrMessageNotFound is returned for an unknown message id.
	ErrMessageNotFound = errors.New("message not found")
)

// User owns zero or more generated key pairs.
type User struct {
	ID        uuid.UUID
	Name      string
	Keys      []UserKey
	CreatedAt time.Time
}

// UserKey is the public half of a key pair owned by a user.
type UserKey struct {
	Address   string
	PublicKey cryptoutils.PublicKey
}

// UserStore manages users and their key pairs.
type UserStore interface {
	CreateUser(ctx context.Context, name string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByName(ctx context.Context, name string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)

	// DeleteUser removes the user and all its keys from the key index.
	// Messages that bind those keys are left untouched.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// AddKeyPair attaches kp to the user and indexes it by key hash.
	AddKeyPair(ctx context.Context, userID uuid.UUID, kp *cryptoutils.KeyPair) error
}

// KeyResolver looks keys up by the 20-byte hash an address decodes to.
type KeyResolver interface {
	ResolvePublicKey(ctx context.Context, keyHash cryptoutils.KeyHash) (cryptoutils.PublicKey, error)
	ResolveKeyPair(ctx context.Context, keyHash cryptoutils.KeyHash) (*cryptoutils.KeyPair, error)
}

// MessageModifier mutates a message under exclusive access. Returning an
// error discards every change it made.
type MessageModifier func(msg *multisig.Message) error

// MessageStore persists multisig messages. Returned messages are copies;
// changes only take effect through UpdateMessage.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *multisig.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*multisig.Message, error)
	ListMessages(ctx context.Context) ([]*multisig.Message, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error

	// UpdateMessage applies modify to message id while holding that message
	// exclusively, and returns the resulting state. Updates of different
	// messages do not block each other.
	UpdateMessage(ctx context.Context, id uuid.UUID, modify MessageModifier) (*multisig.Message, error)
}

// Store combines the key registry and message store.
type Store interface {
	UserStore
	KeyResolver
	MessageStore

	Close() error
}
