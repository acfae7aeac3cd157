package util

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRevert_RoundTrip(t *testing.T) {
	reasons := []string{"", "Hash not approved", "a reason that is longer than thirty-two bytes in total"}

	for _, reason := range reasons {
		data := EncodeRevert(reason)
		require.Equal(t, []byte{0x08, 0xc3, 0x79, 0xa0}, data[:4])

		decoded, err := DecodeRevert(data)
		require.NoError(t, err)
		assert.Equal(t, reason, decoded)
	}
}

func TestDecodeRevert_NotARevert(t *testing.T) {
	_, err := DecodeRevert([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	assert.Error(t, err)

	_, err = DecodeRevert(nil)
	assert.Error(t, err)
}

func TestEncodeString_Layout(t *testing.T) {
	encoded, err := EncodeString("abc")
	require.NoError(t, err)

	// offset, length, padded data
	require.Len(t, encoded, 96)
	assert.Equal(t, common.BigToHash(common.Big32).Bytes(), encoded[:32])
	assert.Equal(t, common.BigToHash(common.Big3).Bytes(), encoded[32:64])
	assert.Equal(t, []byte("abc"), encoded[64:67])
}

func TestEncodeBytes32(t *testing.T) {
	h := common.HexToHash("0x1234")
	assert.Equal(t, h.Bytes(), EncodeBytes32(h))
}
