package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Magic values returned by signature validation entry points
var (
	// LegacyEIP1271MagicValue is returned by isValidSignature(bytes,bytes)
	LegacyEIP1271MagicValue = [4]byte{0x20, 0xc1, 0x3b, 0x0b}

	// EIP1271MagicValue is returned by isValidSignature(bytes32,bytes)
	EIP1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}
)

// Receiver hook acknowledgements
var (
	ERC721ReceivedValue       = [4]byte{0x15, 0x0b, 0x7a, 0x02}
	ERC1155ReceivedValue      = [4]byte{0xf2, 0x3a, 0x6e, 0x61}
	ERC1155BatchReceivedValue = [4]byte{0xbc, 0x19, 0x7c, 0x81}
)

// SentinelAddress marks the head and tail of the owner and module linked lists
var SentinelAddress = common.HexToAddress("0x0000000000000000000000000000000000000001")

// CallKind selects how a call is executed against its target
type CallKind uint8

const (
	// CallKindCall runs the target's code against the target's own storage
	CallKindCall CallKind = 0
	// CallKindDelegateCall runs the target's code against the caller's storage
	CallKindDelegateCall CallKind = 1
)

func (k CallKind) String() string {
	switch k {
	case CallKindCall:
		return "call"
	case CallKindDelegateCall:
		return "delegatecall"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Valid reports whether k is a supported call kind
func (k CallKind) Valid() bool {
	return k == CallKindCall || k == CallKindDelegateCall
}

// ParseCallKind converts a name or numeric string into a CallKind
func ParseCallKind(s string) (CallKind, error) {
	switch s {
	case "call", "0", "":
		return CallKindCall, nil
	case "delegatecall", "1":
		return CallKindDelegateCall, nil
	default:
		return 0, fmt.Errorf("unsupported call kind: %s", s)
	}
}

// SimulationResult is the outcome of one isolated simulation. It is never persisted.
type SimulationResult struct {
	Success    bool
	GasUsed    uint64
	ReturnData []byte
}

// AccountTransaction is the payload owners sign to execute a call from the account
type AccountTransaction struct {
	To             common.Address
	Value          *big.Int
	Data           []byte
	Operation      CallKind
	SafeTxGas      *big.Int
	BaseGas        *big.Int
	GasPrice       *big.Int
	GasToken       common.Address
	RefundReceiver common.Address
	Nonce          *big.Int
}

// Normalize replaces nil numeric fields with zero
func (tx *AccountTransaction) Normalize() {
	if tx.Value == nil {
		tx.Value = new(big.Int)
	}
	if tx.SafeTxGas == nil {
		tx.SafeTxGas = new(big.Int)
	}
	if tx.BaseGas == nil {
		tx.BaseGas = new(big.Int)
	}
	if tx.GasPrice == nil {
		tx.GasPrice = new(big.Int)
	}
	if tx.Nonce == nil {
		tx.Nonce = new(big.Int)
	}
}
