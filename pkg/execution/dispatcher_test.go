package execution

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testABI = `[
	{"type":"function","name":"add","stateMutability":"pure",
	 "inputs":[{"name":"a","type":"uint256"},{"name":"b","type":"uint256"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"echo","stateMutability":"pure",
	 "inputs":[{"name":"data","type":"bytes"}],
	 "outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"unbound","stateMutability":"pure","inputs":[],"outputs":[]},
	{"type":"error","name":"Failed","inputs":[{"name":"code","type":"uint256"},{"name":"who","type":"address"}]}
]`

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(testABI)
	require.NoError(t, err)
	d.Handle("add", func(f *Frame, args []interface{}) ([]interface{}, error) {
		a, b := args[0].(*big.Int), args[1].(*big.Int)
		return []interface{}{new(big.Int).Add(a, b)}, nil
	})
	d.Handle("echo", func(f *Frame, args []interface{}) ([]interface{}, error) {
		return []interface{}{args[0].([]byte)}, nil
	})
	return d
}

func dispatch(t *testing.T, d *Dispatcher, data []byte) *Receipt {
	t.Helper()
	h, _ := newTestHost(t)
	target := common.HexToAddress("0x0000000000000000000000000000000000000d15")
	require.NoError(t, h.Register(target, d))
	r, err := h.Call(context.Background(), &Message{From: eoa, To: target, Data: data})
	require.NoError(t, err)
	return r
}

func TestDispatcher_RoutesBySelector(t *testing.T) {
	d := newTestDispatcher(t)

	data, err := d.Pack("add", big.NewInt(2), big.NewInt(40))
	require.NoError(t, err)
	r := dispatch(t, d, data)
	require.True(t, r.Success)

	out, err := d.Unpack("add", r.ReturnData)
	require.NoError(t, err)
	assert.Equal(t, int64(42), out[0].(*big.Int).Int64())

	data, err = d.Pack("echo", []byte("hello"))
	require.NoError(t, err)
	r = dispatch(t, d, data)
	require.True(t, r.Success)
	out, err = d.Unpack("echo", r.ReturnData)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out[0])
}

func TestDispatcher_UnmatchedCalldata(t *testing.T) {
	d := newTestDispatcher(t)

	unbound, err := d.Pack("unbound")
	require.NoError(t, err)

	for name, data := range map[string][]byte{
		"empty":           nil,
		"short":           {0x01, 0x02},
		"unknown":         {0xde, 0xad, 0xbe, 0xef},
		"no handler":      unbound,
		"truncated input": {0x77, 0x16, 0x02, 0xf7, 0x01},
	} {
		t.Run(name, func(t *testing.T) {
			r := dispatch(t, d, data)
			assert.False(t, r.Success)
		})
	}

	var received []byte
	d.Fallback(func(f *Frame, input []byte) ([]byte, error) {
		received = input
		return nil, nil
	})
	r := dispatch(t, d, []byte{0xde, 0xad, 0xbe, 0xef})
	assert.True(t, r.Success)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, received)
}

func TestDispatcher_CustomErrors(t *testing.T) {
	d := newTestDispatcher(t)
	who := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	data, err := d.PackError("Failed", big.NewInt(7), who)
	require.NoError(t, err)
	require.Len(t, data, 4+64)

	values, err := UnpackCustomError(d.ABI().Errors["Failed"], data)
	require.NoError(t, err)
	assert.Equal(t, int64(7), values[0].(*big.Int).Int64())
	assert.Equal(t, who, values[1])

	_, err = UnpackCustomError(d.ABI().Errors["Failed"], Revert("x").(*RevertError).Data)
	require.Error(t, err)

	_, err = d.PackError("Missing")
	require.Error(t, err)
}

func TestDispatcher_HandleUnknownMethodPanics(t *testing.T) {
	d := newTestDispatcher(t)
	assert.Panics(t, func() {
		d.Handle("subtract", nil)
	})
}
