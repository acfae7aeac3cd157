package execution

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/persistence/memory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	eoa      = common.HexToAddress("0x00000000000000000000000000000000000000e0")
	counter  = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	proxy    = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	nobody   = common.HexToAddress("0x0000000000000000000000000000000000000c03")
	slotZero = common.Hash{}
)

// counterCode increments slot 0 of its storage identity; input 0xff reverts
// after writing and input 0xee burns gas until it runs out.
func counterCode(f *Frame, input []byte) ([]byte, error) {
	v := new(big.Int).SetBytes(f.GetState(slotZero).Bytes())
	f.SetState(slotZero, common.BigToHash(v.Add(v, big.NewInt(1))))
	if len(input) == 1 && input[0] == 0xff {
		return nil, Revert("counter refused")
	}
	if len(input) == 1 && input[0] == 0xee {
		for {
			f.UseGas(1000, "burn")
		}
	}
	return f.GetState(slotZero).Bytes(), nil
}

func newTestHost(t *testing.T) (*Host, *memory.MemoryPersistence) {
	t.Helper()
	store := memory.NewMemoryPersistence()
	h, err := NewHost(&HostConfig{ChainID: big.NewInt(31337)}, store, nil)
	require.NoError(t, err)
	require.NoError(t, h.Register(counter, ContractFunc(counterCode)))
	return h, store
}

func slotValue(t *testing.T, h *Host, account common.Address) int64 {
	t.Helper()
	v, err := h.StorageAt(context.Background(), account, slotZero)
	require.NoError(t, err)
	return new(big.Int).SetBytes(v.Bytes()).Int64()
}

func TestHost_TransactCommitsAndCallDiscards(t *testing.T) {
	h, _ := newTestHost(t)
	ctx := context.Background()

	r, err := h.Transact(ctx, &Message{From: eoa, To: counter})
	require.NoError(t, err)
	require.True(t, r.Success)
	assert.Equal(t, int64(1), slotValue(t, h, counter))
	assert.Greater(t, r.GasUsed, uint64(21000))

	r, err = h.Call(ctx, &Message{From: eoa, To: counter})
	require.NoError(t, err)
	require.True(t, r.Success)
	assert.Equal(t, int64(2), new(big.Int).SetBytes(r.ReturnData).Int64())
	assert.Equal(t, int64(1), slotValue(t, h, counter))
}

func TestHost_TopLevelRevertDiscardsEverything(t *testing.T) {
	h, store := newTestHost(t)

	r, err := h.Transact(context.Background(), &Message{From: eoa, To: counter, Data: []byte{0xff}})
	require.NoError(t, err)
	require.False(t, r.Success)
	assert.Equal(t, "counter refused", RevertReason(r.Err))
	assert.Equal(t, 0, store.Len())
}

func TestHost_NestedRevertRollsBackOnlyChild(t *testing.T) {
	h, _ := newTestHost(t)
	require.NoError(t, h.Register(proxy, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		f.SetState(slotZero, common.BigToHash(big.NewInt(7)))
		_, err := f.Call(counter, nil, input, 0)
		if err != nil && !IsRevert(err) {
			return nil, err
		}
		return nil, nil
	})))

	r, err := h.Transact(context.Background(), &Message{From: eoa, To: proxy, Data: []byte{0xff}})
	require.NoError(t, err)
	require.True(t, r.Success)
	assert.Equal(t, int64(7), slotValue(t, h, proxy))
	assert.Equal(t, int64(0), slotValue(t, h, counter))
}

func TestHost_DelegateCallUsesCallerStorage(t *testing.T) {
	h, _ := newTestHost(t)
	var (
		seenCaller common.Address
		seenSelf   common.Address
		seenOrigin common.Address
		delegated  bool
		depth      int
	)
	require.NoError(t, h.Register(nobody, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		seenCaller, seenSelf, delegated = f.Caller(), f.Address(), f.IsDelegated()
		seenOrigin, depth = f.Origin(), f.Depth()
		return counterCode(f, input)
	})))
	require.NoError(t, h.Register(proxy, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		return f.DelegateCall(nobody, input, 0)
	})))

	r, err := h.Transact(context.Background(), &Message{From: eoa, To: proxy})
	require.NoError(t, err)
	require.True(t, r.Success)

	assert.Equal(t, int64(1), slotValue(t, h, proxy))
	assert.Equal(t, int64(0), slotValue(t, h, nobody))
	assert.Equal(t, eoa, seenCaller)
	assert.Equal(t, proxy, seenSelf)
	assert.Equal(t, eoa, seenOrigin)
	assert.Equal(t, 2, depth)
	assert.True(t, delegated)
}

func TestHost_StaticCallForbidsWrites(t *testing.T) {
	h, _ := newTestHost(t)
	var (
		callErr  error
		readOnly []bool
	)
	require.NoError(t, h.Register(nobody, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		readOnly = append(readOnly, f.IsReadOnly())
		return nil, nil
	})))
	require.NoError(t, h.Register(proxy, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		readOnly = append(readOnly, f.IsReadOnly())
		_, callErr = f.StaticCall(counter, nil, 100000)
		if _, err := f.StaticCall(nobody, nil, 100000); err != nil {
			return nil, err
		}
		return nil, nil
	})))

	r, err := h.Transact(context.Background(), &Message{From: eoa, To: proxy})
	require.NoError(t, err)
	require.True(t, r.Success)
	assert.True(t, IsRevert(callErr))
	assert.Equal(t, []bool{false, true}, readOnly)
	assert.Equal(t, int64(0), slotValue(t, h, counter))
}

func TestHost_ChildOutOfGas(t *testing.T) {
	h, _ := newTestHost(t)
	var callErr error
	require.NoError(t, h.Register(proxy, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		_, callErr = f.Call(counter, nil, []byte{0xee}, 200000)
		f.SetState(slotZero, common.BigToHash(big.NewInt(1)))
		return nil, nil
	})))

	r, err := h.Transact(context.Background(), &Message{From: eoa, To: proxy, GasLimit: 1_000_000})
	require.NoError(t, err)
	require.True(t, r.Success)

	re, ok := AsRevert(callErr)
	require.True(t, ok)
	assert.True(t, re.OutOfGas)
	assert.Equal(t, int64(0), slotValue(t, h, counter))
	assert.Equal(t, int64(1), slotValue(t, h, proxy))
	assert.Greater(t, r.GasUsed, uint64(200000))
}

func TestHost_CallWithoutCodeSucceeds(t *testing.T) {
	h, _ := newTestHost(t)
	ctx := context.Background()
	require.NoError(t, h.Credit(ctx, eoa, big.NewInt(10)))

	r, err := h.Transact(ctx, &Message{From: eoa, To: nobody, Value: big.NewInt(4)})
	require.NoError(t, err)
	require.True(t, r.Success)
	assert.Empty(t, r.ReturnData)

	bal, err := h.BalanceAt(ctx, nobody)
	require.NoError(t, err)
	assert.Equal(t, int64(4), bal.Int64())

	r, err = h.Transact(ctx, &Message{From: eoa, To: nobody, Value: big.NewInt(100)})
	require.NoError(t, err)
	assert.False(t, r.Success)

	bal, err = h.BalanceAt(ctx, eoa)
	require.NoError(t, err)
	assert.Equal(t, int64(6), bal.Int64())
}

func TestHost_FatalErrorAbortsMessage(t *testing.T) {
	h, store := newTestHost(t)
	boom := errors.New("backend exploded")
	require.NoError(t, h.Register(nobody, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		return nil, boom
	})))
	require.NoError(t, h.Register(proxy, ContractFunc(func(f *Frame, input []byte) ([]byte, error) {
		f.SetState(slotZero, common.BigToHash(big.NewInt(1)))
		_, _ = f.Call(nobody, nil, nil, 0)
		return nil, nil
	})))

	_, err := h.Transact(context.Background(), &Message{From: eoa, To: proxy})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestHost_IntrinsicGas(t *testing.T) {
	h, _ := newTestHost(t)
	_, err := h.Transact(context.Background(), &Message{From: eoa, To: counter, GasLimit: 100})
	require.ErrorIs(t, err, ErrIntrinsicGas)

	assert.Equal(t, uint64(21000+4+16), IntrinsicGas([]byte{0, 1}))
}

func TestHost_Register(t *testing.T) {
	h, _ := newTestHost(t)
	require.Error(t, h.Register(counter, ContractFunc(counterCode)))
	require.Error(t, h.Register(common.Address{}, ContractFunc(counterCode)))
	assert.True(t, h.HasCode(counter))
	assert.False(t, h.HasCode(nobody))
}

func TestRevertError_Messages(t *testing.T) {
	assert.Equal(t, "execution reverted: nope", Revert("nope").Error())
	assert.Equal(t, "execution reverted", (&RevertError{}).Error())
	assert.Equal(t, "execution reverted: 0xdeadbeef", RevertWithData([]byte{0xde, 0xad, 0xbe, 0xef}).Error())
	assert.Equal(t, "execution reverted: out of gas", (&RevertError{OutOfGas: true}).Error())
	assert.Equal(t, "", RevertReason(errors.New("plain")))
}

func TestGasMeter(t *testing.T) {
	g := NewGasMeter(100)
	g.ConsumeGas(60, "a")
	assert.Equal(t, uint64(40), g.Remaining())
	assert.PanicsWithValue(t, ErrorOutOfGas{Descriptor: "b"}, func() { g.ConsumeGas(41, "b") })
	assert.True(t, g.IsExhausted())

	assert.Equal(t, uint64(63), callGasCap(64, 0))
	assert.Equal(t, uint64(10), callGasCap(64, 10))
	assert.Equal(t, uint64(63), callGasCap(64, 1000))
}
