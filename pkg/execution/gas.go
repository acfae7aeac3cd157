package execution

import (
	"fmt"

	"github.com/ethereum/go-ethereum/params"
)

// ErrorOutOfGas is the panic value raised by GasMeter.ConsumeGas when the
// limit is exceeded. The host recovers it and reverts the running frame.
type ErrorOutOfGas struct {
	Descriptor string
}

func (e ErrorOutOfGas) Error() string {
	return fmt.Sprintf("out of gas in location: %s", e.Descriptor)
}

// GasMeter tracks gas consumed by one frame
type GasMeter struct {
	limit    uint64
	consumed uint64
}

// NewGasMeter returns a meter allowing limit units
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{limit: limit}
}

// ConsumeGas charges amount, panicking with ErrorOutOfGas past the limit
func (g *GasMeter) ConsumeGas(amount uint64, descriptor string) {
	if amount > g.limit-g.consumed {
		g.consumed = g.limit
		panic(ErrorOutOfGas{Descriptor: descriptor})
	}
	g.consumed += amount
}

// Limit is the gas the frame started with
func (g *GasMeter) Limit() uint64 { return g.limit }

// Used is the gas consumed so far
func (g *GasMeter) Used() uint64 { return g.consumed }

// Remaining is the gas left
func (g *GasMeter) Remaining() uint64 { return g.limit - g.consumed }

// IsExhausted reports whether no gas is left
func (g *GasMeter) IsExhausted() bool { return g.consumed >= g.limit }

func (g *GasMeter) exhaust() {
	g.consumed = g.limit
}

// IntrinsicGas is the cost of a top-level message before any code runs
func IntrinsicGas(data []byte) uint64 {
	gas := params.TxGas
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGasEIP2028
		}
	}
	return gas
}

// callGasCap applies the all-but-one-64th rule to the gas a caller can forward
func callGasCap(available, requested uint64) uint64 {
	capped := available - available/64
	if requested == 0 || requested > capped {
		return capped
	}
	return requested
}

// KeccakGas is the cost of hashing size bytes
func KeccakGas(size int) uint64 {
	words := (uint64(size) + 31) / 32
	return params.Keccak256Gas + words*params.Keccak256WordGas
}

// sstoreGas prices a storage write from the slot's current value
func sstoreGas(current, next [32]byte, cold bool) uint64 {
	var gas uint64
	if cold {
		gas += params.ColdSloadCostEIP2929
	}
	switch {
	case current == next:
		gas += params.WarmStorageReadCostEIP2929
	case current == [32]byte{}:
		gas += params.SstoreSetGasEIP2200
	default:
		gas += params.SstoreResetGasEIP2200 - params.ColdSloadCostEIP2929
	}
	return gas
}

// sloadGas prices a storage read
func sloadGas(cold bool) uint64 {
	if cold {
		return params.ColdSloadCostEIP2929
	}
	return params.WarmStorageReadCostEIP2929
}
