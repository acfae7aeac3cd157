package util

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Solidity Error(string) selector prepended to revert reasons
var revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// Shared ABI argument types
var (
	Bytes32Type, _ = abi.NewType("bytes32", "", nil)
	Uint256Type, _ = abi.NewType("uint256", "", nil)
	Uint8Type, _   = abi.NewType("uint8", "", nil)
	AddressType, _ = abi.NewType("address", "", nil)
	BytesType, _   = abi.NewType("bytes", "", nil)
	BoolType, _    = abi.NewType("bool", "", nil)
	StringType, _  = abi.NewType("string", "", nil)
)

func EncodeString(str string) ([]byte, error) {
	arguments := abi.Arguments{{Type: StringType}}

	encoded, err := arguments.Pack(str)
	if err != nil {
		return nil, err
	}

	return encoded, nil
}

// EncodeRevert builds the Error(string) payload a reverting call returns
func EncodeRevert(reason string) []byte {
	encoded, err := EncodeString(reason)
	if err != nil {
		// packing a plain string cannot fail
		panic(fmt.Sprintf("failed to encode revert reason: %v", err))
	}
	return append(append([]byte{}, revertSelector...), encoded...)
}

// DecodeRevert extracts the reason from an Error(string) payload
func DecodeRevert(data []byte) (string, error) {
	return abi.UnpackRevert(data)
}

// EncodeBytes32 ABI-encodes a single bytes32 value
func EncodeBytes32(value [32]byte) []byte {
	out := make([]byte, 32)
	copy(out, value[:])
	return out
}
