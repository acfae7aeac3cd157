package execution

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
	"github.com/Layr-Labs/multisig-account-go/pkg/state"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DefaultGasLimit applies to messages that do not set one
const DefaultGasLimit uint64 = 30_000_000

// Contract is native code registered at an address on the host
type Contract interface {
	Run(frame *Frame, input []byte) ([]byte, error)
}

// ContractFunc adapts a function to Contract
type ContractFunc func(frame *Frame, input []byte) ([]byte, error)

// Run calls fn
func (fn ContractFunc) Run(frame *Frame, input []byte) ([]byte, error) {
	return fn(frame, input)
}

// Message is a top-level call into the host
type Message struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
}

// Receipt is the outcome of a top-level message
type Receipt struct {
	Success    bool
	ReturnData []byte
	GasUsed    uint64

	// Err is the *RevertError of a failed message
	Err error
}

// HostConfig configures a Host
type HostConfig struct {
	ChainID  *big.Int
	GasLimit uint64
}

// Host runs native contracts over a persistence-backed state. State-mutating
// messages are serialized: each one is a single atomic step that either
// commits all of its writes or none of them.
type Host struct {
	mu        sync.Mutex
	store     persistence.IStateStore
	chainID   *big.Int
	gasLimit  uint64
	logger    *zap.Logger
	contracts sync.Map
}

// NewHost creates a host over store
func NewHost(cfg *HostConfig, store persistence.IStateStore, logger *zap.Logger) (*Host, error) {
	if cfg == nil || cfg.ChainID == nil {
		return nil, fmt.Errorf("host config must set a chain id")
	}
	if store == nil {
		return nil, fmt.Errorf("state store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}
	return &Host{
		store:    store,
		chainID:  new(big.Int).Set(cfg.ChainID),
		gasLimit: gasLimit,
		logger:   logger,
	}, nil
}

// ChainID returns a copy of the host's chain id
func (h *Host) ChainID() *big.Int {
	return new(big.Int).Set(h.chainID)
}

// Register installs contract code at addr
func (h *Host) Register(addr common.Address, contract Contract) error {
	if addr == (common.Address{}) {
		return fmt.Errorf("cannot register a contract at the zero address")
	}
	if _, loaded := h.contracts.LoadOrStore(addr, contract); loaded {
		return fmt.Errorf("address %s already holds code", addr.Hex())
	}
	h.logger.Sugar().Debugw("Registered contract", "address", addr.Hex())
	return nil
}

// HasCode reports whether a contract is registered at addr
func (h *Host) HasCode(addr common.Address) bool {
	_, ok := h.contracts.Load(addr)
	return ok
}

func (h *Host) code(addr common.Address) Contract {
	c, ok := h.contracts.Load(addr)
	if !ok {
		return nil
	}
	return c.(Contract)
}

// Transact executes msg and commits its state changes unless it reverted
func (h *Host) Transact(ctx context.Context, msg *Message) (*Receipt, error) {
	return h.execute(ctx, msg, true)
}

// Call executes msg and discards every state change
func (h *Host) Call(ctx context.Context, msg *Message) (*Receipt, error) {
	return h.execute(ctx, msg, false)
}

// Credit mints amount to account outside of any contract logic
func (h *Host) Credit(ctx context.Context, account common.Address, amount *big.Int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	txn, err := h.store.NewTransaction(ctx)
	if err != nil {
		return fmt.Errorf("failed to open state transaction: %w", err)
	}
	statedb := state.New(txn)
	statedb.AddBalance(account, amount)
	return statedb.Commit()
}

// BalanceAt returns the committed balance of account
func (h *Host) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	txn, err := h.store.NewTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open state transaction: %w", err)
	}
	statedb := state.New(txn)
	defer statedb.Discard()

	balance := new(big.Int).Set(statedb.GetBalance(account))
	return balance, statedb.Error()
}

// StorageAt returns a committed storage slot of account
func (h *Host) StorageAt(ctx context.Context, account common.Address, slot common.Hash) (common.Hash, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	txn, err := h.store.NewTransaction(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to open state transaction: %w", err)
	}
	statedb := state.New(txn)
	defer statedb.Discard()

	value := statedb.GetState(account, slot)
	return value, statedb.Error()
}

func (h *Host) execute(ctx context.Context, msg *Message, commit bool) (*Receipt, error) {
	if msg == nil {
		return nil, fmt.Errorf("message cannot be nil")
	}

	gasLimit := msg.GasLimit
	if gasLimit == 0 {
		gasLimit = h.gasLimit
	}
	intrinsic := IntrinsicGas(msg.Data)
	if gasLimit < intrinsic {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, gasLimit, intrinsic)
	}

	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	txn, err := h.store.NewTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open state transaction: %w", err)
	}
	statedb := state.New(txn)

	env := &environment{ctx: ctx, state: statedb, origin: msg.From}
	statedb.AddressWarm(msg.From)
	statedb.AddressWarm(msg.To)

	frame := &Frame{
		host:   h,
		env:    env,
		self:   msg.To,
		code:   msg.To,
		caller: msg.From,
		value:  value,
		gas:    NewGasMeter(gasLimit - intrinsic),
		depth:  1,
	}

	ret, runErr := h.enter(frame, msg.Data, value.Sign() != 0)

	if env.fatal != nil {
		statedb.Discard()
		return nil, env.fatal
	}
	if err := statedb.Error(); err != nil {
		statedb.Discard()
		return nil, err
	}

	receipt := &Receipt{
		ReturnData: ret,
		GasUsed:    intrinsic + frame.gas.Used(),
	}

	if runErr != nil {
		statedb.Discard()
		receipt.Err = runErr
		h.logger.Sugar().Debugw("Message reverted",
			"from", msg.From.Hex(),
			"to", msg.To.Hex(),
			"gasUsed", receipt.GasUsed,
			"error", runErr,
		)
		return receipt, nil
	}

	receipt.Success = true
	if !commit {
		statedb.Discard()
		return receipt, nil
	}
	if err := statedb.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message state: %w", err)
	}
	return receipt, nil
}

// enter runs frame's code under a snapshot; a revert restores the snapshot
func (h *Host) enter(frame *Frame, input []byte, transfersValue bool) (ret []byte, err error) {
	env := frame.env
	snapshot := env.state.Snapshot()

	if transfersValue {
		if !env.state.CanTransfer(frame.caller, frame.value) {
			return nil, &RevertError{}
		}
		env.state.Transfer(frame.caller, frame.self, frame.value)
	}

	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case ErrorOutOfGas:
				frame.gas.exhaust()
				ret, err = nil, &RevertError{OutOfGas: true}
			case writeProtection:
				frame.gas.exhaust()
				ret, err = nil, &RevertError{}
			default:
				panic(r)
			}
		}
		if err != nil {
			env.state.RevertToSnapshot(snapshot)
			if !IsRevert(err) {
				env.setFatal(err)
			}
		}
	}()

	contract := h.code(frame.code)
	if contract == nil {
		return nil, nil
	}
	if err := env.ctx.Err(); err != nil {
		return nil, err
	}
	return contract.Run(frame, input)
}
