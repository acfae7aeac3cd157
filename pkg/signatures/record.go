package signatures

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/hashing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecordLength is the size of one static signature record: r(32) ‖ s(32) ‖ v(1)
const RecordLength = 65

// Kind is the signature variant selected by a record's v byte
type Kind uint8

const (
	// KindECDSA is a plain secp256k1 signature over the digest (v = 27 or 28)
	KindECDSA Kind = iota
	// KindEthSign is a signature over the personal-sign prefixed digest (v = 31 or 32)
	KindEthSign
	// KindContract delegates validity to the signer contract (v = 0)
	KindContract
	// KindApprovedHash points at a stored approval (v = 1)
	KindApprovedHash
)

func (k Kind) String() string {
	switch k {
	case KindECDSA:
		return "ecdsa"
	case KindEthSign:
		return "eth_sign"
	case KindContract:
		return "contract"
	case KindApprovedHash:
		return "approved_hash"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

func kindFromV(v byte) Kind {
	switch {
	case v == 0:
		return KindContract
	case v == 1:
		return KindApprovedHash
	case v > 30:
		return KindEthSign
	default:
		return KindECDSA
	}
}

// Record is one parsed entry of a signature blob
type Record struct {
	Index int
	Kind  Kind
	R     common.Hash
	S     common.Hash
	V     byte

	// ContractSignature holds the dynamic bytes a KindContract record points at
	ContractSignature []byte
}

// ClaimedSigner is the signer named by a contract or approved-hash record
func (r *Record) ClaimedSigner() common.Address {
	return common.BytesToAddress(r.R[12:])
}

// RecoverSigner recovers the signer of an ECDSA or eth_sign record over digest
func (r *Record) RecoverSigner(digest common.Hash) (common.Address, error) {
	hash := digest
	v := r.V

	switch r.Kind {
	case KindECDSA:
	case KindEthSign:
		hash = hashing.EthSignedHash(digest)
		v -= 4
	default:
		return common.Address{}, fmt.Errorf("record %d of kind %s carries no recoverable signature", r.Index, r.Kind)
	}

	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: record %d has unsupported v value %d", ErrInvalidSignature, r.Index, r.V)
	}

	sig := make([]byte, RecordLength)
	copy(sig[0:32], r.R.Bytes())
	copy(sig[32:64], r.S.Bytes())
	sig[64] = v - 27

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: record %d: %v", ErrInvalidSignature, r.Index, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Parse splits a signature blob into records. At least required records must
// fit in the blob. Contract records point into the dynamic part that follows
// the static records; every declared bound is checked before any bytes are
// interpreted.
func Parse(blob []byte, required uint64) ([]Record, error) {
	total := uint64(len(blob))
	if total/RecordLength < required {
		return nil, fmt.Errorf("%w: %d bytes for %d required signatures", ErrSignaturesTooShort, total, required)
	}
	minDynamicOffset := required * RecordLength

	staticEnd := total
	records := make([]Record, 0, required)

	for i := 0; ; i++ {
		start := uint64(i) * RecordLength
		end := start + RecordLength
		if end > staticEnd {
			break
		}

		raw := blob[start:end]
		rec := Record{
			Index: i,
			R:     common.BytesToHash(raw[0:32]),
			S:     common.BytesToHash(raw[32:64]),
			V:     raw[64],
		}
		rec.Kind = kindFromV(rec.V)

		if rec.Kind == KindContract {
			offset, sig, err := contractSignatureBounds(blob, rec, end, minDynamicOffset)
			if err != nil {
				return nil, err
			}
			rec.ContractSignature = sig
			if offset < staticEnd {
				staticEnd = offset
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

func contractSignatureBounds(blob []byte, rec Record, recordEnd, minDynamicOffset uint64) (uint64, []byte, error) {
	total := uint64(len(blob))

	offsetWord := new(big.Int).SetBytes(rec.S.Bytes())
	if !offsetWord.IsUint64() {
		return 0, nil, fmt.Errorf("%w: record %d contract signature offset overflows", ErrMalformedSignatures, rec.Index)
	}
	offset := offsetWord.Uint64()

	if offset < minDynamicOffset || offset < recordEnd {
		return 0, nil, fmt.Errorf("%w: record %d contract signature offset %d points inside static part", ErrMalformedSignatures, rec.Index, offset)
	}
	if total < 32 || offset > total-32 {
		return 0, nil, fmt.Errorf("%w: record %d contract signature length word out of bounds", ErrMalformedSignatures, rec.Index)
	}

	lengthWord := new(big.Int).SetBytes(blob[offset : offset+32])
	if !lengthWord.IsUint64() || lengthWord.Uint64() > total-offset-32 {
		return 0, nil, fmt.Errorf("%w: record %d contract signature data out of bounds", ErrMalformedSignatures, rec.Index)
	}
	length := lengthWord.Uint64()

	sig := make([]byte, length)
	copy(sig, blob[offset+32:offset+32+length])
	return offset, sig, nil
}
