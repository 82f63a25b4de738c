package datastore

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/cryptoutils"
	"github.com/ruteri/multisig-service/interfaces"
	"github.com/ruteri/multisig-service/multisig"
)

type memoryUser struct {
	user interfaces.User
	keys []cryptoutils.KeyHash
}

type memoryMessage struct {
	mu  sync.Mutex
	msg *multisig.Message
}

// MemoryStore keeps users, keys and messages in process memory.
//
// Membership of each collection is guarded by its own RW mutex. Every
// message additionally carries a mutex held for the duration of an update,
// so concurrent signing of one message is serialized while different
// messages proceed in parallel.
type MemoryStore struct {
	log *slog.Logger

	usersMu sync.RWMutex
	users   map[uuid.UUID]*memoryUser
	byName  map[string]uuid.UUID
	keys    map[cryptoutils.KeyHash]*cryptoutils.KeyPair

	messagesMu sync.RWMutex
	messages   map[uuid.UUID]*memoryMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(log *slog.Logger) *MemoryStore {
	return &MemoryStore{
		log:      log,
		users:    make(map[uuid.UUID]*memoryUser),
		byName:   make(map[string]uuid.UUID),
		keys:     make(map[cryptoutils.KeyHash]*cryptoutils.KeyPair),
		messages: make(map[uuid.UUID]*memoryMessage),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, name string) (*interfaces.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, ok := s.byName[name]; ok {
		return nil, interfaces.ErrUserExists
	}

	u := &memoryUser{
		user: interfaces.User{
			ID:        uuid.New(),
			Name:      name,
			CreatedAt: time.Now().UTC(),
		},
	}
	s.users[u.user.ID] = u
	s.byName[name] = u.user.ID

	s.log.Debug("created user", "user", name, "id", u.user.ID)
	return copyUser(&u.user), nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*interfaces.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, interfaces.ErrUserNotFound
	}
	return copyUser(&u.user), nil
}

func (s *MemoryStore) GetUserByName(ctx context.Context, name string) (*interfaces.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, interfaces.ErrUserNotFound
	}
	return copyUser(&s.users[id].user), nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]*interfaces.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	users := make([]*interfaces.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(&u.user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return interfaces.ErrUserNotFound
	}
	for _, kh := range u.keys {
		delete(s.keys, kh)
	}
	delete(s.byName, u.user.Name)
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) AddKeyPair(ctx context.Context, userID uuid.UUID, kp *cryptoutils.KeyPair) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return interfaces.ErrUserNotFound
	}

	kh := kp.PublicKey().KeyHash()
	s.keys[kh] = kp
	u.keys = append(u.keys, kh)
	u.user.Keys = append(u.user.Keys, interfaces.UserKey{
		Address:   kp.Address(),
		PublicKey: kp.PublicKey(),
	})
	return nil
}

func (s *MemoryStore) ResolvePublicKey(ctx context.Context, keyHash cryptoutils.KeyHash) (cryptoutils.PublicKey, error) {
	kp, err := s.ResolveKeyPair(ctx, keyHash)
	if err != nil {
		return cryptoutils.PublicKey{}, err
	}
	return kp.PublicKey(), nil
}

func (s *MemoryStore) ResolveKeyPair(ctx context.Context, keyHash cryptoutils.KeyHash) (*cryptoutils.KeyPair, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	kp, ok := s.keys[keyHash]
	if !ok {
		return nil, interfaces.ErrKeyNotFound
	}
	return kp, nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, msg *multisig.Message) error {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()

	if _, ok := s.messages[msg.ID()]; ok {
		return interfaces.ErrMessageExists
	}
	s.messages[msg.ID()] = &memoryMessage{msg: msg.Clone()}
	return nil
}

func (s *MemoryStore) GetMessage(ctx context.Context, id uuid.UUID) (*multisig.Message, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.msg.Clone(), nil
}

func (s *MemoryStore) ListMessages(ctx context.Context) ([]*multisig.Message, error) {
	s.messagesMu.RLock()
	entries := make([]*memoryMessage, 0, len(s.messages))
	for _, e := range s.messages {
		entries = append(entries, e)
	}
	s.messagesMu.RUnlock()

	msgs := make([]*multisig.Message, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		msgs = append(msgs, e.msg.Clone())
		e.mu.Unlock()
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt().Before(msgs[j].CreatedAt()) })
	return msgs, nil
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	s.messagesMu.Lock()
	defer s.messagesMu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return interfaces.ErrMessageNotFound
	}
	delete(s.messages, id)
	return nil
}

// UpdateMessage runs modify on a copy of the message and stores the copy
// only when modify succeeds.
func (s *MemoryStore) UpdateMessage(ctx context.Context, id uuid.UUID, modify interfaces.MessageModifier) (*multisig.Message, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	updated := entry.msg.Clone()
	if err := modify(updated); err != nil {
		return nil, err
	}
	entry.msg = updated
	return updated.Clone(), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) entry(id uuid.UUID) (*memoryMessage, error) {
	s.messagesMu.RLock()
	defer s.messagesMu.RUnlock()

	e, ok := s.messages[id]
	if !ok {
		return nil, interfaces.ErrMessageNotFound
	}
	return e, nil
}

func copyUser(u *interfaces.User) *interfaces.User {
	out := *u
	out.Keys = append([]interfaces.UserKey(nil), u.Keys...)
	return &out
}
