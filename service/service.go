// Package service implements the multisig use cases on top of the key
// registry, the message store and the receipt archive.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/cryptoutils"
	"github.com/ruteri/multisig-service/interfaces"
	"github.com/ruteri/multisig-service/metrics"
	"github.com/ruteri/multisig-service/multisig"
)

var (
	// ErrInvalidUserName is returned for an empty user name.
	ErrInvalidUserName = errors.New("user name must not be empty")

	// ErrNoSigners is returned when a sign request names no keys.
	ErrNoSigners = errors.New("no signing keys given")

	// ErrArchiveDisabled is returned when receipts are requested but no
	// archive backend is configured.
	ErrArchiveDisabled = errors.New("receipt archive is not configured")
)

// Service orchestrates address resolution, message lifecycle and receipt
// archiving.
type Service struct {
	store   interfaces.Store
	archive interfaces.StorageBackend
	metrics *metrics.MultisigMetrics
	log     *slog.Logger
}

// New creates the service. archive may be nil, in which case successful
// verifications are not archived.
func New(store interfaces.Store, archive interfaces.StorageBackend, m *metrics.MultisigMetrics, log *slog.Logger) *Service {
	if m == nil {
		m = metrics.NewMultisigMetrics("multisig", nil)
	}
	return &Service{
		store:   store,
		archive: archive,
		metrics: m,
		log:     log,
	}
}

func (s *Service) CreateUser(ctx context.Context, name string) (*interfaces.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidUserName
	}

	user, err := s.store.CreateUser(ctx, name)
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", "user", name)
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, name string) (*interfaces.User, error) {
	return s.store.GetUserByName(ctx, name)
}

func (s *Service) ListUsers(ctx context.Context) ([]*interfaces.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) DeleteUser(ctx context.Context, name string) error {
	user, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, user.ID)
}

// GenerateKeyPair creates a fresh key pair for the named user and returns
// its address and public key.
func (s *Service) GenerateKeyPair(ctx context.Context, userName string) (*interfaces.UserKey, error) {
	user, err := s.store.GetUserByName(ctx, userName)
	if err != nil {
		return nil, err
	}

	kp, err := cryptoutils.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := s.store.AddKeyPair(ctx, user.ID, kp); err != nil {
		return nil, fmt.Errorf("failed to store key pair: %w", err)
	}

	s.metrics.KeysGenerated.Inc()
	s.log.Info("key pair generated", "user", userName, "address", kp.Address())
	return &interfaces.UserKey{Address: kp.Address(), PublicKey: kp.PublicKey()}, nil
}

// DecodeAddress validates an address and returns the key hash it encodes.
func (s *Service) DecodeAddress(address string) (cryptoutils.KeyHash, error) {
	keyHash, err := cryptoutils.DecodeAddress(address)
	if err != nil {
		return cryptoutils.KeyHash{}, fmt.Errorf("address %q: %w", address, err)
	}
	return keyHash, nil
}

// CreateMessage resolves every address to a registered public key and
// creates a message bound to those keys in the given order.
//
// Parameters:
//   - content: bytes to be signed
//   - addresses: addresses of the keys allowed to sign
//   - required: quorum, or nil to require every key
//
// Returns:
//   - The stored message
//   - An address error, ErrKeyNotFound, or a multisig creation error
func (s *Service) CreateMessage(ctx context.Context, content []byte, addresses []string, required *int) (*multisig.Message, error) {
	keys := make([]cryptoutils.PublicKey, 0, len(addresses))
	for _, address := range addresses {
		keyHash, err := s.DecodeAddress(address)
		if err != nil {
			return nil, err
		}
		pub, err := s.store.ResolvePublicKey(ctx, keyHash)
		if err != nil {
			return nil, fmt.Errorf("address %s: %w", address, err)
		}
		keys = append(keys, pub)
	}

	msg, err := multisig.NewMessage(content, keys, required)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	s.metrics.MessagesCreated.Inc()
	s.log.Info("message created",
		"id", msg.ID(),
		"keys", len(keys),
		"required", msg.RequiredCount())
	return msg, nil
}

// SignMessage signs message id with the key pair behind each address.
// All addresses are resolved before the message is touched, and the
// signatures are applied in a single store update: if any key is not
// assigned to the message, no signature from this request is stored.
func (s *Service) SignMessage(ctx context.Context, id uuid.UUID, addresses []string) (*multisig.Message, error) {
	if len(addresses) == 0 {
		return nil, ErrNoSigners
	}

	keyPairs := make([]*cryptoutils.KeyPair, 0, len(addresses))
	for _, address := range addresses {
		keyHash, err := s.DecodeAddress(address)
		if err != nil {
			return nil, err
		}
		kp, err := s.store.ResolveKeyPair(ctx, keyHash)
		if err != nil {
			return nil, fmt.Errorf("address %s: %w", address, err)
		}
		keyPairs = append(keyPairs, kp)
	}

	var added, skipped int
	msg, err := s.store.UpdateMessage(ctx, id, func(msg *multisig.Message) error {
		added, skipped = 0, 0
		for _, kp := range keyPairs {
			ok, err := msg.SignWith(kp)
			if err != nil {
				return fmt.Errorf("address %s: %w", kp.Address(), err)
			}
			if ok {
				added++
			} else {
				skipped++
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.Signatures.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	s.metrics.Signatures.WithLabelValues(metrics.OutcomeSuccess).Add(float64(added))
	s.metrics.Signatures.WithLabelValues(metrics.OutcomeSkipped).Add(float64(skipped))
	s.log.Info("message signed",
		"id", id,
		"added", added,
		"skipped", skipped,
		"signatures", msg.SignatureCount(),
		"required", msg.RequiredCount())
	return msg, nil
}

// VerifyResult is the outcome of a successful verification.
type VerifyResult struct {
	Message *multisig.Message
	// ReceiptID is set when the receipt was archived.
	ReceiptID *interfaces.ContentID
}

// VerifyMessage checks that message id carries a quorum of valid signatures.
// On success the content and a receipt are archived when an archive is
// configured. Archive failures are logged and leave ReceiptID unset; they
// never turn a successful verification into an error.
func (s *Service) VerifyMessage(ctx context.Context, id uuid.UUID) (*VerifyResult, error) {
	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := msg.Verify(); err != nil {
		switch {
		case errors.Is(err, multisig.ErrNotEnoughSignatures):
			s.metrics.Verifications.WithLabelValues(metrics.OutcomeNotEnough).Inc()
		case errors.Is(err, multisig.ErrInvalidSignature):
			s.metrics.Verifications.WithLabelValues(metrics.OutcomeInvalid).Inc()
			s.log.Warn("message failed verification", "id", id, "err", err)
		default:
			s.metrics.Verifications.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return nil, err
	}
	s.metrics.Verifications.WithLabelValues(metrics.OutcomeSuccess).Inc()

	result := &VerifyResult{Message: msg}
	if s.archive == nil {
		return result, nil
	}

	receiptID, err := s.archiveReceipt(ctx, msg)
	if err != nil {
		s.metrics.ReceiptsArchived.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.Warn("failed to archive verification receipt", "id", id, "err", err)
		return result, nil
	}
	s.metrics.ReceiptsArchived.WithLabelValues(metrics.OutcomeSuccess).Inc()
	result.ReceiptID = &receiptID
	return result, nil
}

func (s *Service) archiveReceipt(ctx context.Context, msg *multisig.Message) (interfaces.ContentID, error) {
	if _, err := s.archive.Store(ctx, msg.Content(), interfaces.MessageContentType); err != nil {
		return interfaces.ContentID{}, fmt.Errorf("failed to archive content: %w", err)
	}

	data, err := json.Marshal(NewReceipt(msg, time.Now()))
	if err != nil {
		return interfaces.ContentID{}, err
	}
	receiptID, err := s.archive.Store(ctx, data, interfaces.ReceiptType)
	if err != nil {
		return interfaces.ContentID{}, fmt.Errorf("failed to archive receipt: %w", err)
	}

	s.log.Info("verification receipt archived", "id", msg.ID(), "receipt", receiptID.String())
	return receiptID, nil
}

// FetchReceipt loads an archived receipt by its content id.
func (s *Service) FetchReceipt(ctx context.Context, receiptID interfaces.ContentID) (*Receipt, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	data, err := s.archive.Fetch(ctx, receiptID, interfaces.ReceiptType)
	if err != nil {
		return nil, err
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("failed to decode receipt %s: %w", receiptID, err)
	}
	return &receipt, nil
}

// FetchContent loads archived message content by its content id.
func (s *Service) FetchContent(ctx context.Context, contentID interfaces.ContentID) ([]byte, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.Fetch(ctx, contentID, interfaces.MessageContentType)
}

func (s *Service) GetMessage(ctx context.Context, id uuid.UUID) (*multisig.Message, error) {
	return s.store.GetMessage(ctx, id)
}

func (s *Service) ListMessages(ctx context.Context) ([]*multisig.Message, error) {
	return s.store.ListMessages(ctx)
}

func (s *Service) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteMessage(ctx, id); err != nil {
		return err
	}
	s.log.Info("message deleted", "id", id)
	return nil
}
