package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/multisig-service/api"
	"github.com/ruteri/multisig-service/service"
)

// APIError is a non-2xx response from the multisig API.
type APIError struct {
	StatusCode int
	Message    string

	// Have and Need are set when verification failed for lack of signatures.
	Have *int
	Need *int
}

func (e *APIError) Error() string {
	if e.Have != nil && e.Need != nil {
		return fmt.Sprintf("request failed with code %d: %s (have %d, need %d)", e.StatusCode, e.Message, *e.Have, *e.Need)
	}
	return fmt.Sprintf("request failed with code %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// MultisigClient talks to the multisig JSON API.
type MultisigClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewMultisigClient creates a client for the multisig API.
//
// Parameters:
//   - baseURL: The base URL of the API (e.g., "http://localhost:8080")
//   - timeout: Request timeout duration (optional, default 30 seconds)
//
// Returns:
//   - Configured MultisigClient instance
func NewMultisigClient(baseURL string, timeout ...time.Duration) *MultisigClient {
	clientTimeout := 30 * time.Second
	if len(timeout) > 0 {
		clientTimeout = timeout[0]
	}

	return &MultisigClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

func (c *MultisigClient) CreateUser(ctx context.Context, name string) (*api.UserResponse, error) {
	var resp api.UserResponse
	if err := c.do(ctx, http.MethodPost, "/users", api.CreateUserRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *MultisigClient) ListUsers(ctx context.Context) ([]api.UserResponse, error) {
	var resp []api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *MultisigClient) GetUser(ctx context.Context, name string) (*api.UserResponse, error) {
	var resp api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(name), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *MultisigClient) DeleteUser(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(name), nil, nil)
}

// GenerateKeyPair asks the server to generate and store a key pair for the
// user. Only the public half is returned.
func (c *MultisigClient) GenerateKeyPair(ctx context.Context, name string) (*api.KeyResponse, error) {
	var resp api.KeyResponse
	if err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(name)+"/keypair", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateMessage creates a message bound to the keys behind addresses.
// A nil required means every key must sign.
func (c *MultisigClient) CreateMessage(ctx context.Context, content []byte, addresses []string, required *int) (*api.MessageResponse, error) {
	req := api.CreateMessageRequest{
		Content:                content,
		Keys:                   addresses,
		RequiredSignatureCount: required,
	}

	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/messages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *MultisigClient) ListMessages(ctx context.Context) ([]api.MessageResponse, error) {
	var resp []api.MessageResponse
	if err := c.do(ctx, http.MethodGet, "/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *MultisigClient) GetMessage(ctx context.Context, id uuid.UUID) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodGet, "/messages/"+id.String(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *MultisigClient) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+id.String(), nil, nil)
}

func (c *MultisigClient) SignMessage(ctx context.Context, id uuid.UUID, addresses []string) (*api.MessageResponse, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/messages/"+id.String()+"/sign", api.SignMessageRequest{Keys: addresses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyMessage verifies the message quorum. An unmet quorum is returned as
// an *APIError with status 409 and Have/Need set.
func (c *MultisigClient) VerifyMessage(ctx context.Context, id uuid.UUID) (*api.VerifyResponse, error) {
	var resp api.VerifyResponse
	if err := c.do(ctx, http.MethodGet, "/messages/"+id.String()+"/verify", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *MultisigClient) GetReceipt(ctx context.Context, receiptID string) (*service.Receipt, error) {
	var resp service.Receipt
	if err := c.do(ctx, http.MethodGet, "/receipts/"+url.PathEscape(receiptID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetContent fetches archived message content by its content id.
func (c *MultisigClient) GetContent(ctx context.Context, contentID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/contents/"+url.PathEscape(contentID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *MultisigClient) DecodeAddress(ctx context.Context, address string) (*api.AddressResponse, error) {
	var resp api.AddressResponse
	if err := c.do(ctx, http.MethodGet, "/address/"+url.PathEscape(address), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *MultisigClient) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		reqJSON, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(reqJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var errResp api.ErrorResponse
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
		apiErr.Message = errResp.Error
		apiErr.Have = errResp.Have
		apiErr.Need = errResp.Need
	}
	return apiErr
}
