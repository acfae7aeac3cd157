// Package accountclient is a typed client for the account HTTP server.
package accountclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// ClientConfig holds the configuration for the account client
type ClientConfig struct {
	BaseURL    string
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client talks to one account server
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// StatusError is returned for any non-success HTTP status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a new account client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     config.Logger,
	}, nil
}

// do sends in as JSON and decodes the response into out. Statuses listed in
// accept are decoded like 200 instead of becoming a StatusError.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, accept ...int) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to contact account server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	ok := resp.StatusCode == http.StatusOK
	for _, s := range accept {
		ok = ok || resp.StatusCode == s
	}
	if !ok {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Sugar().Debugw("Account server returned error",
			"path", path,
			"status_code", resp.StatusCode,
			"body", string(raw),
		)
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) GetOwners(ctx context.Context) (*types.OwnersResponse, error) {
	var out types.OwnersResponse
	if _, err := c.do(ctx, http.MethodGet, "/owners", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetModules(ctx context.Context) (*types.ModulesResponse, error) {
	var out types.ModulesResponse
	if _, err := c.do(ctx, http.MethodGet, "/modules", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetNonce(ctx context.Context) (uint64, error) {
	var out types.NonceResponse
	if _, err := c.do(ctx, http.MethodGet, "/nonce", nil, &out); err != nil {
		return 0, err
	}
	return out.Nonce, nil
}

// Health returns the server status. An unhealthy store is reported in the
// response rather than as an error.
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	var out types.HealthResponse
	if _, err := c.do(ctx, http.MethodGet, "/health", nil, &out, http.StatusServiceUnavailable); err != nil {
		return nil, err
	}
	return &out, nil
}

// MessageHash returns the digest owners sign for message
func (c *Client) MessageHash(ctx context.Context, message []byte) (common.Hash, error) {
	var out types.HashResponse
	if _, err := c.do(ctx, http.MethodPost, "/messages/hash", types.MessageHashRequest{Message: message}, &out); err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash(out.Hash), nil
}

// TransactionHash returns the digest owners sign for tx. A nil nonce is
// filled in by the server with the account's current nonce.
func (c *Client) TransactionHash(ctx context.Context, tx *types.AccountTransaction) (common.Hash, error) {
	var out types.HashResponse
	if _, err := c.do(ctx, http.MethodPost, "/transactions/hash", types.NewTransactionRequest(tx), &out); err != nil {
		return common.Hash{}, err
	}
	return common.HexToHash(out.Hash), nil
}

// ValidateMessageSignature checks sig against a raw message
func (c *Client) ValidateMessageSignature(ctx context.Context, message, sig []byte) (*types.ValidateSignatureResponse, error) {
	if message == nil {
		message = []byte{}
	}
	return c.validate(ctx, types.ValidateSignatureRequest{Message: message, Signature: sig})
}

// ValidateHashSignature checks sig against a 32-byte hash
func (c *Client) ValidateHashSignature(ctx context.Context, hash common.Hash, sig []byte) (*types.ValidateSignatureResponse, error) {
	return c.validate(ctx, types.ValidateSignatureRequest{Hash: hash.Hex(), Signature: sig})
}

func (c *Client) validate(ctx context.Context, req types.ValidateSignatureRequest) (*types.ValidateSignatureResponse, error) {
	var out types.ValidateSignatureResponse
	if _, err := c.do(ctx, http.MethodPost, "/signatures/validate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Simulate asks the server what req would do without changing state
func (c *Client) Simulate(ctx context.Context, req *types.SimulateRequest) (*types.SimulationResult, error) {
	var out types.SimulateResponse
	if _, err := c.do(ctx, http.MethodPost, "/simulate", req, &out); err != nil {
		return nil, err
	}
	return &types.SimulationResult{
		Success:    out.Success,
		GasUsed:    out.GasUsed,
		ReturnData: out.ReturnData,
	}, nil
}

// Execute submits tx with a packed signature blob. A transaction the account
// rejected is returned with Success false and the revert reason.
func (c *Client) Execute(ctx context.Context, executor common.Address, tx *types.AccountTransaction, sigs []byte) (*types.ExecuteResponse, error) {
	req := types.NewTransactionRequest(tx)
	req.Signatures = sigs
	if executor != (common.Address{}) {
		req.Executor = executor.Hex()
	}

	var out types.ExecuteResponse
	if _, err := c.do(ctx, http.MethodPost, "/transactions/execute", req, &out, http.StatusUnprocessableEntity); err != nil {
		return nil, err
	}

	c.logger.Sugar().Infow("Submitted transaction",
		"to", tx.To.Hex(),
		"success", out.Success,
		"gas_used", out.GasUsed,
		"reason", out.Reason,
	)
	return &out, nil
}

// ApproveHash records owner's approval of hash on a dev-mode server
func (c *Client) ApproveHash(ctx context.Context, owner common.Address, hash common.Hash) error {
	req := types.ApproveHashRequest{Owner: owner.Hex(), Hash: hash.Hex()}
	_, err := c.do(ctx, http.MethodPost, "/hashes/approve", req, nil)
	return err
}
