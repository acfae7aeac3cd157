package signatures

import (
	"bytes"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sort"

	"github.com/Layr-Labs/multisig-account-go/pkg/hashing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Entry is one signature waiting to be packed into a blob
type Entry struct {
	Signer common.Address
	Kind   Kind

	// Signature is the 65-byte r‖s‖v for ECDSA and eth_sign entries and the
	// opaque contract signature for contract entries.
	Signature []byte
}

// SignDigest signs digest with key and returns an ECDSA entry (v = 27/28)
func SignDigest(key *ecdsa.PrivateKey, digest common.Hash) (Entry, error) {
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to sign digest: %w", err)
	}
	sig[64] += 27
	return Entry{
		Signer:    crypto.PubkeyToAddress(key.PublicKey),
		Kind:      KindECDSA,
		Signature: sig,
	}, nil
}

// EthSignDigest signs the personal-sign prefixed digest and returns an eth_sign entry (v = 31/32)
func EthSignDigest(key *ecdsa.PrivateKey, digest common.Hash) (Entry, error) {
	sig, err := crypto.Sign(hashing.EthSignedHash(digest).Bytes(), key)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to sign prefixed digest: %w", err)
	}
	sig[64] += 31
	return Entry{
		Signer:    crypto.PubkeyToAddress(key.PublicKey),
		Kind:      KindEthSign,
		Signature: sig,
	}, nil
}

// NewECDSAEntry wraps an existing 65-byte signature produced by signer.
// A recovery id of 0/1 is normalized to 27/28.
func NewECDSAEntry(signer common.Address, sig []byte) (Entry, error) {
	if len(sig) != RecordLength {
		return Entry{}, fmt.Errorf("signature must be %d bytes, got %d", RecordLength, len(sig))
	}
	out := common.CopyBytes(sig)
	if out[64] < 27 {
		out[64] += 27
	}
	kind := kindFromV(out[64])
	if kind != KindECDSA && kind != KindEthSign {
		return Entry{}, fmt.Errorf("unsupported v value %d", sig[64])
	}
	return Entry{Signer: signer, Kind: kind, Signature: out}, nil
}

// ApprovedHashEntry references an on-record approval by owner
func ApprovedHashEntry(owner common.Address) Entry {
	return Entry{Signer: owner, Kind: KindApprovedHash}
}

// ContractEntry hands signature to the signer contract for verification
func ContractEntry(signer common.Address, signature []byte) Entry {
	return Entry{Signer: signer, Kind: KindContract, Signature: common.CopyBytes(signature)}
}

// Pack sorts entries by signer and encodes them into a signature blob
func Pack(entries []Entry) ([]byte, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Signer.Bytes(), sorted[j].Signer.Bytes()) < 0
	})
	return Concat(sorted)
}

// Concat encodes entries in the order given
func Concat(entries []Entry) ([]byte, error) {
	staticLen := len(entries) * RecordLength
	static := make([]byte, 0, staticLen)
	var dynamic []byte

	for i, e := range entries {
		switch e.Kind {
		case KindECDSA, KindEthSign:
			if len(e.Signature) != RecordLength {
				return nil, fmt.Errorf("entry %d: signature must be %d bytes, got %d", i, RecordLength, len(e.Signature))
			}
			static = append(static, e.Signature...)

		case KindApprovedHash:
			static = append(static, common.LeftPadBytes(e.Signer.Bytes(), 32)...)
			static = append(static, make([]byte, 32)...)
			static = append(static, 1)

		case KindContract:
			offset := big.NewInt(int64(staticLen + len(dynamic)))
			static = append(static, common.LeftPadBytes(e.Signer.Bytes(), 32)...)
			static = append(static, common.LeftPadBytes(offset.Bytes(), 32)...)
			static = append(static, 0)

			dynamic = append(dynamic, common.LeftPadBytes(big.NewInt(int64(len(e.Signature))).Bytes(), 32)...)
			dynamic = append(dynamic, e.Signature...)

		default:
			return nil, fmt.Errorf("entry %d: unknown signature kind %s", i, e.Kind)
		}
	}

	return append(static, dynamic...), nil
}
