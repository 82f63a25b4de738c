package multisig

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/cryptoutils"
)

// Message is the aggregate root: immutable content, a fixed key set and
// quorum, and the signatures collected so far.
//
// A Message performs no locking. Stores hand out copies and apply mutations
// under exclusive per-message access.
type Message struct {
	id            uuid.UUID
	content       []byte
	requiredCount int
	bindings      Bindings
	createdAt     time.Time
}

// NewMessage creates a message with one binding per key. When required is
// nil every assigned key must sign; otherwise the quorum is required capped
// at the number of keys.
func NewMessage(content []byte, keys []cryptoutils.PublicKey, required *int) (*Message, error) {
	bindings, err := NewBindings(keys)
	if err != nil {
		return nil, err
	}

	requiredCount := len(bindings)
	if required != nil {
		if *required < 1 {
			return nil, ErrInvalidQuorum
		}
		requiredCount = min(*required, len(bindings))
	}

	return &Message{
		id:            uuid.New(),
		content:       bytes.Clone(content),
		requiredCount: requiredCount,
		bindings:      bindings,
		createdAt:     time.Now().UTC(),
	}, nil
}

// Restore rebuilds a message from persisted state, enforcing the same
// invariants as NewMessage.
func Restore(id uuid.UUID, content []byte, requiredCount int, bindings Bindings, createdAt time.Time) (*Message, error) {
	keys := make([]cryptoutils.PublicKey, len(bindings))
	for i, b := range bindings {
		keys[i] = b.PublicKey
	}
	if _, err := NewBindings(keys); err != nil {
		return nil, err
	}
	if requiredCount < 1 || requiredCount > len(bindings) {
		return nil, fmt.Errorf("%w: %d of %d keys", ErrInvalidQuorum, requiredCount, len(bindings))
	}

	return &Message{
		id:            id,
		content:       bytes.Clone(content),
		requiredCount: requiredCount,
		bindings:      bindings.Clone(),
		createdAt:     createdAt,
	}, nil
}

func (m *Message) ID() uuid.UUID {
	return m.id
}

// Content returns a copy of the signed bytes.
func (m *Message) Content() []byte {
	return bytes.Clone(m.content)
}

// ContentDigest is the SHA-256 every signature commits to.
func (m *Message) ContentDigest() [32]byte {
	return cryptoutils.ContentDigest(m.content)
}

func (m *Message) RequiredCount() int {
	return m.requiredCount
}

func (m *Message) CreatedAt() time.Time {
	return m.createdAt
}

// Bindings returns a copy of the key/signature set.
func (m *Message) Bindings() Bindings {
	return m.bindings.Clone()
}

func (m *Message) SignatureCount() int {
	return m.bindings.SignatureCount()
}

// Sign adds kp's signature. Re-signing with the same key succeeds without
// changing state; a key outside the message's set fails with
// ErrKeyNotAssigned.
func (m *Message) Sign(kp *cryptoutils.KeyPair) error {
	_, err := m.bindings.Sign(m.content, kp)
	return err
}

// SignWith is Sign that also reports whether a new signature was stored.
func (m *Message) SignWith(kp *cryptoutils.KeyPair) (bool, error) {
	return m.bindings.Sign(m.content, kp)
}

// Verify checks the quorum and every present signature. It does not change
// the message and returns the same result for the same bindings.
func (m *Message) Verify() error {
	return m.bindings.Verify(m.content, m.requiredCount)
}

// Clone returns a deep copy.
func (m *Message) Clone() *Message {
	return &Message{
		id:            m.id,
		content:       bytes.Clone(m.content),
		requiredCount: m.requiredCount,
		bindings:      m.bindings.Clone(),
		createdAt:     m.createdAt,
	}
}
