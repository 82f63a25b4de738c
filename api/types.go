package api

import (
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/interfaces"
	"github.com/ruteri/multisig-service/multisig"
)

// CreateUserRequest is the body of POST /api/v1/users.
type CreateUserRequest struct {
	Name string `json:"name"`
}

// KeyResponse describes one key pair owned by a user.
type KeyResponse struct {
	Address   string        `json:"address"`
	PublicKey hexutil.Bytes `json:"public_key"`
}

// UserResponse describes a user and its keys.
type UserResponse struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Keys      []KeyResponse `json:"keys"`
	CreatedAt time.Time     `json:"created_at"`
}

// CreateMessageRequest is the body of POST /api/v1/messages.
type CreateMessageRequest struct {
	// Content is the raw bytes to sign, base64 in JSON.
	Content []byte `json:"content"`
	// Keys are the addresses of the keys allowed to sign, in binding order.
	Keys []string `json:"keys"`
	// RequiredSignatureCount defaults to the number of keys when omitted.
	RequiredSignatureCount *int `json:"required_signature_count,omitempty"`
}

// SignMessageRequest is the body of POST /api/v1/messages/{id}/sign.
type SignMessageRequest struct {
	Keys []string `json:"keys"`
}

// BindingResponse is one key of a message and its signature, if any.
type BindingResponse struct {
	Address   string        `json:"address"`
	PublicKey hexutil.Bytes `json:"public_key"`
	Signature hexutil.Bytes `json:"signature,omitempty"`
}

// MessageResponse describes a multisig message.
type MessageResponse struct {
	ID                     uuid.UUID         `json:"id"`
	Content                []byte            `json:"content"`
	ContentID              string            `json:"content_id"`
	RequiredSignatureCount int               `json:"required_signature_count"`
	SignatureCount         int               `json:"signature_count"`
	Bindings               []BindingResponse `json:"bindings"`
	CreatedAt              time.Time         `json:"created_at"`
}

// VerifyResponse is returned by GET /api/v1/messages/{id}/verify on success.
type VerifyResponse struct {
	Status    string `json:"status"`
	ReceiptID string `json:"receipt_id,omitempty"`
}

// AddressResponse is returned by GET /api/v1/address/{address}.
type AddressResponse struct {
	Address string `json:"address"`
	KeyHash string `json:"key_hash"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Have and Need are set for a quorum shortfall.
	Have *int `json:"have,omitempty"`
	Need *int `json:"need,omitempty"`
}

// StatusSuccess is the verification status of a message that passed.
const StatusSuccess = "success"

func NewUserResponse(u *interfaces.User) *UserResponse {
	resp := &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Keys:      make([]KeyResponse, 0, len(u.Keys)),
		CreatedAt: u.CreatedAt,
	}
	for _, k := range u.Keys {
		resp.Keys = append(resp.Keys, KeyResponse{Address: k.Address, PublicKey: k.PublicKey.Bytes()})
	}
	return resp
}

func NewMessageResponse(msg *multisig.Message) *MessageResponse {
	bindings := msg.Bindings()
	resp := &MessageResponse{
		ID:                     msg.ID(),
		Content:                msg.Content(),
		ContentID:              interfaces.ComputeID(msg.Content()).String(),
		RequiredSignatureCount: msg.RequiredCount(),
		SignatureCount:         bindings.SignatureCount(),
		Bindings:               make([]BindingResponse, len(bindings)),
		CreatedAt:              msg.CreatedAt(),
	}
	for i, b := range bindings {
		resp.Bindings[i] = BindingResponse{
			Address:   b.PublicKey.Address(),
			PublicKey: b.PublicKey.Bytes(),
			Signature: b.Signature,
		}
	}
	return resp
}
