package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/api"
	"github.com/ruteri/multisig-service/cryptoutils"
	"github.com/ruteri/multisig-service/interfaces"
	"github.com/ruteri/multisig-service/multisig"
	"github.com/ruteri/multisig-service/service"
)

// defaultMaxBodySize is the request body limit when none is configured (1MB).
const defaultMaxBodySize = 1024 * 1024

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("bad request")

// Handler serves the multisig JSON API.
type Handler struct {
	svc         *service.Service
	maxBodySize int64
	log         *slog.Logger
}

// NewHandler creates the API handler.
//
// Parameters:
//   - svc: the multisig service the endpoints delegate to
//   - maxBodySize: request body limit in bytes, zero for the default
//   - log: structured logger
func NewHandler(svc *service.Service, maxBodySize int64, log *slog.Logger) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxBodySize
	}
	return &Handler{
		svc:         svc,
		maxBodySize: maxBodySize,
		log:         log,
	}
}

// RegisterRoutes mounts the API endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", h.HandleCreateUser)
		r.Get("/users", h.HandleListUsers)
		r.Get("/users/{name}", h.HandleGetUser)
		r.Delete("/users/{name}", h.HandleDeleteUser)
		r.Post("/users/{name}/keypair", h.HandleGenerateKeyPair)

		r.Post("/messages", h.HandleCreateMessage)
		r.Get("/messages", h.HandleListMessages)
		r.Get("/messages/{id}", h.HandleGetMessage)
		r.Delete("/messages/{id}", h.HandleDeleteMessage)
		r.Post("/messages/{id}/sign", h.HandleSignMessage)
		r.Get("/messages/{id}/verify", h.HandleVerifyMessage)

		r.Get("/receipts/{content_id}", h.HandleGetReceipt)
		r.Get("/contents/{content_id}", h.HandleGetContent)
		r.Get("/address/{address}", h.HandleDecodeAddress)
	})
}

// HandleCreateUser creates a user.
//
// URL format: POST /api/v1/users
// Request body: {"name": "alice"}
// Response: 201 with the user
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.CreateUserRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.NewUserResponse(user))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]*api.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, api.NewUserResponse(u))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewUserResponse(user))
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGenerateKeyPair generates a key pair for a user.
//
// URL format: POST /api/v1/users/{name}/keypair
// Response: 201 with {"address": ..., "public_key": "0x..."}
func (h *Handler) HandleGenerateKeyPair(w http.ResponseWriter, r *http.Request) {
	key, err := h.svc.GenerateKeyPair(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.KeyResponse{Address: key.Address, PublicKey: key.PublicKey.Bytes()})
}

// HandleCreateMessage creates a multisig message.
//
// URL format: POST /api/v1/messages
// Request body: {"content": "<base64>", "keys": ["<address>", ...], "required_signature_count": 2}
// Response: 201 with the message
func (h *Handler) HandleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req api.CreateMessageRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.svc.CreateMessage(r.Context(), req.Content, req.Keys, req.RequiredSignatureCount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, api.NewMessageResponse(msg))
}

func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.ListMessages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]*api.MessageResponse, 0, len(msgs))
	for _, msg := range msgs {
		resp = append(resp, api.NewMessageResponse(msg))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.svc.GetMessage(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewMessageResponse(msg))
}

func (h *Handler) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.DeleteMessage(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSignMessage signs a message with the keys behind the given addresses.
//
// URL format: POST /api/v1/messages/{id}/sign
// Request body: {"keys": ["<address>", ...]}
// Response: 200 with the updated message
func (h *Handler) HandleSignMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req api.SignMessageRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.svc.SignMessage(r.Context(), id, req.Keys)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.NewMessageResponse(msg))
}

// HandleVerifyMessage verifies a message.
//
// URL format: GET /api/v1/messages/{id}/verify
// Response: 200 with {"status": "success", "receipt_id": "..."} when the
// quorum is met, 409 with {"have", "need"} when it is not, 422 when a
// signature is invalid.
func (h *Handler) HandleVerifyMessage(w http.ResponseWriter, r *http.Request) {
	id, err := messageID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.svc.VerifyMessage(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := api.VerifyResponse{Status: api.StatusSuccess}
	if result.ReceiptID != nil {
		resp.ReceiptID = result.ReceiptID.String()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleGetReceipt returns an archived verification receipt.
//
// URL format: GET /api/v1/receipts/{content_id}
func (h *Handler) HandleGetReceipt(w http.ResponseWriter, r *http.Request) {
	receiptID, err := interfaces.NewContentIDFromHex(chi.URLParam(r, "content_id"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	receipt, err := h.svc.FetchReceipt(r.Context(), receiptID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, receipt)
}

// HandleGetContent returns archived message content as raw bytes.
//
// URL format: GET /api/v1/contents/{content_id}
func (h *Handler) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	contentID, err := interfaces.NewContentIDFromHex(chi.URLParam(r, "content_id"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	content, err := h.svc.FetchContent(r.Context(), contentID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.log.Error("Failed to write content", "err", err)
	}
}

// HandleDecodeAddress validates an address and returns its key hash.
//
// URL format: GET /api/v1/address/{address}
func (h *Handler) HandleDecodeAddress(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	keyHash, err := h.svc.DecodeAddress(address)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, api.AddressResponse{Address: address, KeyHash: keyHash.String()})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func messageID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid message id: %v", errBadRequest, err)
	}
	return id, nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		cryptoutils.IsAddressError(err),
		errors.Is(err, multisig.ErrNoKeys),
		errors.Is(err, multisig.ErrDuplicateKey),
		errors.Is(err, multisig.ErrInvalidQuorum),
		errors.Is(err, multisig.ErrKeyNotAssigned),
		errors.Is(err, service.ErrInvalidUserName),
		errors.Is(err, service.ErrNoSigners):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrUserNotFound),
		errors.Is(err, interfaces.ErrKeyNotFound),
		errors.Is(err, interfaces.ErrMessageNotFound),
		errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrUserExists),
		errors.Is(err, interfaces.ErrMessageExists),
		errors.Is(err, multisig.ErrNotEnoughSignatures):
		return http.StatusConflict
	case errors.Is(err, multisig.ErrInvalidSignature):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, interfaces.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := api.ErrorResponse{Error: err.Error()}

	var notEnough *multisig.NotEnoughSignaturesError
	if errors.As(err, &notEnough) {
		resp.Have = &notEnough.Have
		resp.Need = &notEnough.Need
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err, "method", r.Method, "path", r.URL.Path)
		resp.Error = http.StatusText(status)
	} else {
		h.log.Debug("Request rejected", "err", err, "status", status, "path", r.URL.Path)
	}

	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
