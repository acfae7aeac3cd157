package util

import (
	"testing"
)

// Arbitrary return data must never panic the revert decoder.
func FuzzDecodeRevert(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x08, 0xc3, 0x79, 0xa0})
	f.Add(EncodeRevert("custom message"))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = DecodeRevert(data)
	})
}
