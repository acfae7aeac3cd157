package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OwnersResponse lists the current owner set of an account
type OwnersResponse struct {
	Account   string   `json:"account"`
	Owners    []string `json:"owners"`
	Threshold uint64   `json:"threshold"`
}

// ModulesResponse lists the enabled modules of an account
type ModulesResponse struct {
	Account string   `json:"account"`
	Modules []string `json:"modules"`
}

// NonceResponse reports the account's current transaction nonce
type NonceResponse struct {
	Account string `json:"account"`
	Nonce   uint64 `json:"nonce"`
}

// MessageHashRequest asks for the digest owners sign for a raw message
type MessageHashRequest struct {
	Message hexutil.Bytes `json:"message"`
}

// HashResponse carries a single 32-byte digest
type HashResponse struct {
	Hash string `json:"hash"`
}

// TransactionRequest describes an account transaction. Nonce is optional for
// hashing; the account's current nonce is used when it is nil.
type TransactionRequest struct {
	To             string        `json:"to"`
	Value          string        `json:"value,omitempty"`
	Data           hexutil.Bytes `json:"data,omitempty"`
	Operation      uint8         `json:"operation"`
	SafeTxGas      uint64        `json:"safe_tx_gas,omitempty"`
	BaseGas        uint64        `json:"base_gas,omitempty"`
	GasPrice       string        `json:"gas_price,omitempty"`
	GasToken       string        `json:"gas_token,omitempty"`
	RefundReceiver string        `json:"refund_receiver,omitempty"`
	Nonce          *uint64       `json:"nonce,omitempty"`
	Signatures     hexutil.Bytes `json:"signatures,omitempty"`

	// Executor submits the transaction; it may use an approved-hash record
	// without a stored approval.
	Executor string `json:"executor,omitempty"`
}

// NewTransactionRequest converts tx into its wire form
func NewTransactionRequest(tx *AccountTransaction) *TransactionRequest {
	n := *tx
	n.Normalize()
	req := &TransactionRequest{
		To:        n.To.Hex(),
		Value:     n.Value.String(),
		Data:      n.Data,
		Operation: uint8(n.Operation),
		SafeTxGas: n.SafeTxGas.Uint64(),
		BaseGas:   n.BaseGas.Uint64(),
		GasPrice:  n.GasPrice.String(),
	}
	if n.GasToken != (common.Address{}) {
		req.GasToken = n.GasToken.Hex()
	}
	if n.RefundReceiver != (common.Address{}) {
		req.RefundReceiver = n.RefundReceiver.Hex()
	}
	if tx.Nonce != nil {
		nonce := tx.Nonce.Uint64()
		req.Nonce = &nonce
	}
	return req
}

// ToTransaction validates the request and converts it
func (r *TransactionRequest) ToTransaction() (*AccountTransaction, error) {
	if !common.IsHexAddress(r.To) {
		return nil, fmt.Errorf("invalid to address: %q", r.To)
	}
	op := CallKind(r.Operation)
	if !op.Valid() {
		return nil, fmt.Errorf("unsupported operation %d", r.Operation)
	}
	value, err := parseAmount("value", r.Value)
	if err != nil {
		return nil, err
	}
	gasPrice, err := parseAmount("gas_price", r.GasPrice)
	if err != nil {
		return nil, err
	}
	gasToken, err := parseOptionalAddress("gas_token", r.GasToken)
	if err != nil {
		return nil, err
	}
	refundReceiver, err := parseOptionalAddress("refund_receiver", r.RefundReceiver)
	if err != nil {
		return nil, err
	}

	tx := &AccountTransaction{
		To:             common.HexToAddress(r.To),
		Value:          value,
		Data:           r.Data,
		Operation:      op,
		SafeTxGas:      new(big.Int).SetUint64(r.SafeTxGas),
		BaseGas:        new(big.Int).SetUint64(r.BaseGas),
		GasPrice:       gasPrice,
		GasToken:       gasToken,
		RefundReceiver: refundReceiver,
	}
	if r.Nonce != nil {
		tx.Nonce = new(big.Int).SetUint64(*r.Nonce)
	}
	return tx, nil
}

// ParseAmount reads a decimal or 0x-prefixed hex amount; empty is zero
func ParseAmount(field, s string) (*big.Int, error) {
	return parseAmount(field, s)
}

func parseAmount(field, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: %q", field, s)
	}
	return v, nil
}

func parseOptionalAddress(field, s string) (common.Address, error) {
	if s == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s: %q", field, s)
	}
	return common.HexToAddress(s), nil
}

// ValidateSignatureRequest validates a signature blob. Exactly one of Message
// (raw bytes form) or Hash (bytes32 form) must be set.
type ValidateSignatureRequest struct {
	Message   hexutil.Bytes `json:"message,omitempty"`
	Hash      string        `json:"hash,omitempty"`
	Signature hexutil.Bytes `json:"signature"`
}

// ValidateSignatureResponse reports the magic value, or the revert reason when invalid
type ValidateSignatureResponse struct {
	Valid      bool   `json:"valid"`
	MagicValue string `json:"magic_value,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// SimulateRequest describes the instruction to simulate
type SimulateRequest struct {
	From      string        `json:"from,omitempty"`
	To        string        `json:"to"`
	Value     string        `json:"value,omitempty"`
	Data      hexutil.Bytes `json:"data,omitempty"`
	Operation uint8         `json:"operation"`
}

// SimulateResponse mirrors SimulationResult on the wire
type SimulateResponse struct {
	Success    bool          `json:"success"`
	GasUsed    uint64        `json:"gas_used"`
	ReturnData hexutil.Bytes `json:"return_data"`
}

// ExecuteResponse reports the outcome of execTransaction
type ExecuteResponse struct {
	Success bool   `json:"success"`
	GasUsed uint64 `json:"gas_used"`
	Reason  string `json:"reason,omitempty"`
}

// ApproveHashRequest marks a digest as approved by an owner (dev mode only)
type ApproveHashRequest struct {
	Owner string `json:"owner"`
	Hash  string `json:"hash"`
}

// HealthResponse reports the server and state store status
type HealthResponse struct {
	Status  string `json:"status"`
	Account string `json:"account"`
	ChainID uint64 `json:"chain_id"`
}
