package service

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/interfaces"
	"github.com/ruteri/multisig-service/multisig"
)

// Receipt records a successful verification. It is archived as JSON and
// addressed by the hash of that JSON.
type Receipt struct {
	MessageID     uuid.UUID      `json:"message_id"`
	ContentID     string         `json:"content_id"`
	RequiredCount int            `json:"required_signature_count"`
	Signers       []SignerRecord `json:"signers"`
	VerifiedAt    time.Time      `json:"verified_at"`
}

// SignerRecord is one signature that took part in a verification.
type SignerRecord struct {
	Address   string        `json:"address"`
	PublicKey hexutil.Bytes `json:"public_key"`
	Signature hexutil.Bytes `json:"signature"`
}

// NewReceipt captures the signed bindings of a verified message.
func NewReceipt(msg *multisig.Message, verifiedAt time.Time) *Receipt {
	r := &Receipt{
		MessageID:     msg.ID(),
		ContentID:     interfaces.ComputeID(msg.Content()).String(),
		RequiredCount: msg.RequiredCount(),
		VerifiedAt:    verifiedAt.UTC(),
	}
	for _, b := range msg.Bindings() {
		if !b.Signed() {
			continue
		}
		r.Signers = append(r.Signers, SignerRecord{
			Address:   b.PublicKey.Address(),
			PublicKey: b.PublicKey.Bytes(),
			Signature: b.Signature,
		})
	}
	return r
}
