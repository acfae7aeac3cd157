package signatures

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sort"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOwners struct {
	owners    map[common.Address]bool
	threshold uint64
	err       error
}

func (f *fakeOwners) IsOwner(_ context.Context, owner common.Address) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.owners[owner], nil
}

func (f *fakeOwners) GetThreshold(_ context.Context) (uint64, error) {
	return f.threshold, nil
}

type approvalKey struct {
	owner common.Address
	hash  common.Hash
}

type fakeApprovals map[approvalKey]bool

func (f fakeApprovals) IsHashApproved(_ context.Context, owner common.Address, hash common.Hash) (bool, error) {
	return f[approvalKey{owner, hash}], nil
}

type fakeContracts map[common.Address][]byte

func (f fakeContracts) IsValidSignature(_ context.Context, signer common.Address, _ []byte, sig []byte) (bool, error) {
	expected, ok := f[signer]
	if !ok {
		return false, nil
	}
	return bytes.Equal(expected, sig), nil
}

type ownerKey struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func generateOwners(t *testing.T, n int) []ownerKey {
	t.Helper()
	keys := make([]ownerKey, 0, n)
	for i := 0; i < n; i++ {
		k, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys = append(keys, ownerKey{key: k, addr: crypto.PubkeyToAddress(k.PublicKey)})
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].addr.Bytes(), keys[j].addr.Bytes()) < 0
	})
	return keys
}

func registry(keys []ownerKey, threshold uint64, extra ...common.Address) *fakeOwners {
	owners := make(map[common.Address]bool)
	for _, k := range keys {
		owners[k.addr] = true
	}
	for _, a := range extra {
		owners[a] = true
	}
	return &fakeOwners{owners: owners, threshold: threshold}
}

func signAll(t *testing.T, keys []ownerKey, digest common.Hash) []Entry {
	t.Helper()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e, err := SignDigest(k.key, digest)
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}

func request(digest common.Hash, blob []byte) *Request {
	return &Request{DataHash: digest, Data: digest.Bytes(), Signatures: blob}
}

func Test_CheckSignatures_ThresholdSubsets(t *testing.T) {
	keys := generateOwners(t, 3)
	digest := crypto.Keccak256Hash([]byte("subset"))
	v := NewValidator(registry(keys, 2), fakeApprovals{}, fakeContracts{}, nil)

	for mask := 1; mask < 1<<len(keys); mask++ {
		var subset []ownerKey
		for i := range keys {
			if mask&(1<<i) != 0 {
				subset = append(subset, keys[i])
			}
		}
		blob, err := Pack(signAll(t, subset, digest))
		require.NoError(t, err)

		err = v.CheckSignatures(context.Background(), request(digest, blob))
		if len(subset) >= 2 {
			assert.NoError(t, err, "subset mask %b", mask)
		} else {
			assert.ErrorIs(t, err, ErrSignaturesTooShort, "subset mask %b", mask)
		}
	}
}

func Test_CheckNSignatures_RequiredBelowThreshold(t *testing.T) {
	keys := generateOwners(t, 3)
	digest := crypto.Keccak256Hash([]byte("n-signatures"))
	v := NewValidator(registry(keys, 3), fakeApprovals{}, fakeContracts{}, nil)

	blob, err := Pack(signAll(t, keys[:1], digest))
	require.NoError(t, err)

	require.NoError(t, v.CheckNSignatures(context.Background(), request(digest, blob), 1))
	require.ErrorIs(t, v.CheckSignatures(context.Background(), request(digest, blob)), ErrSignaturesTooShort)
}

func Test_CheckSignatures_Ordering(t *testing.T) {
	keys := generateOwners(t, 2)
	digest := crypto.Keccak256Hash([]byte("ordering"))
	v := NewValidator(registry(keys, 2), fakeApprovals{}, fakeContracts{}, nil)
	entries := signAll(t, keys, digest)

	t.Run("duplicate signer", func(t *testing.T) {
		blob, err := Concat([]Entry{entries[0], entries[0]})
		require.NoError(t, err)
		err = v.CheckSignatures(context.Background(), request(digest, blob))
		require.ErrorIs(t, err, ErrSignerOrder)
	})

	t.Run("descending signers", func(t *testing.T) {
		blob, err := Concat([]Entry{entries[1], entries[0]})
		require.NoError(t, err)
		err = v.CheckSignatures(context.Background(), request(digest, blob))
		require.ErrorIs(t, err, ErrSignerOrder)
		assert.Equal(t, ErrSignerOrder.Error(), Reason(err))
	})

	t.Run("ascending signers", func(t *testing.T) {
		blob, err := Concat(entries)
		require.NoError(t, err)
		require.NoError(t, v.CheckSignatures(context.Background(), request(digest, blob)))
	})
}

func Test_CheckSignatures_NonOwnerRecordIsSkipped(t *testing.T) {
	keys := generateOwners(t, 3)
	owners, outsider := keys[:2], keys[2]
	digest := crypto.Keccak256Hash([]byte("outsider"))
	v := NewValidator(registry(owners, 2), fakeApprovals{}, fakeContracts{}, nil)

	blob, err := Pack(signAll(t, keys, digest))
	require.NoError(t, err)
	require.NoError(t, v.CheckSignatures(context.Background(), request(digest, blob)))

	blob, err = Pack(signAll(t, []ownerKey{owners[0], outsider}, digest))
	require.NoError(t, err)
	err = v.CheckSignatures(context.Background(), request(digest, blob))
	var te *ThresholdError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, uint64(1), te.Valid)
	assert.Equal(t, uint64(2), te.Required)
	require.Len(t, te.Failures, 1)
	assert.Equal(t, outsider.addr.Hex(), te.Failures[0].Signer)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.ErrorIs(t, err, ErrThresholdNotMet)
}

func Test_CheckSignatures_DigestBinding(t *testing.T) {
	keys := generateOwners(t, 2)
	signed := crypto.Keccak256Hash([]byte("signed"))
	other := crypto.Keccak256Hash([]byte("other"))
	v := NewValidator(registry(keys, 2), fakeApprovals{}, fakeContracts{}, nil)

	blob, err := Pack(signAll(t, keys, signed))
	require.NoError(t, err)

	require.True(t, v.Validate(context.Background(), signed, blob))
	require.False(t, v.Validate(context.Background(), other, blob))

	err = v.CheckSignatures(context.Background(), request(other, blob))
	require.ErrorIs(t, err, ErrThresholdNotMet)
	assert.Equal(t, ErrInvalidSignature.Error(), Reason(err))
}

func Test_CheckSignatures_EthSign(t *testing.T) {
	keys := generateOwners(t, 2)
	digest := crypto.Keccak256Hash([]byte("eth_sign"))
	v := NewValidator(registry(keys, 2), fakeApprovals{}, fakeContracts{}, nil)

	first, err := EthSignDigest(keys[0].key, digest)
	require.NoError(t, err)
	second, err := SignDigest(keys[1].key, digest)
	require.NoError(t, err)
	assert.True(t, first.Signature[64] == 31 || first.Signature[64] == 32)

	blob, err := Pack([]Entry{second, first})
	require.NoError(t, err)
	require.NoError(t, v.CheckSignatures(context.Background(), request(digest, blob)))

	// a plain signature relabelled as eth_sign recovers a different signer
	relabelled := common.CopyBytes(second.Signature)
	relabelled[64] += 4
	blob, err = Concat([]Entry{first, {Signer: keys[1].addr, Kind: KindEthSign, Signature: relabelled}})
	require.NoError(t, err)
	err = v.CheckSignatures(context.Background(), request(digest, blob))
	require.ErrorIs(t, err, ErrThresholdNotMet)
}

func Test_CheckSignatures_ApprovedHash(t *testing.T) {
	keys := generateOwners(t, 2)
	digest := crypto.Keccak256Hash([]byte("approved"))
	approvals := fakeApprovals{{owner: keys[0].addr, hash: digest}: true}
	v := NewValidator(registry(keys, 2), approvals, fakeContracts{}, nil)

	second, err := SignDigest(keys[1].key, digest)
	require.NoError(t, err)

	t.Run("stored approval", func(t *testing.T) {
		blob, err := Pack([]Entry{ApprovedHashEntry(keys[0].addr), second})
		require.NoError(t, err)
		require.NoError(t, v.CheckSignatures(context.Background(), request(digest, blob)))
	})

	t.Run("missing approval", func(t *testing.T) {
		blob, err := Pack([]Entry{ApprovedHashEntry(keys[1].addr), ApprovedHashEntry(keys[0].addr)})
		require.NoError(t, err)
		err = v.CheckSignatures(context.Background(), request(digest, blob))
		require.ErrorIs(t, err, ErrHashNotApproved)
		assert.Equal(t, ErrHashNotApproved.Error(), Reason(err))
	})

	t.Run("executor approves implicitly", func(t *testing.T) {
		blob, err := Pack([]Entry{ApprovedHashEntry(keys[0].addr), ApprovedHashEntry(keys[1].addr)})
		require.NoError(t, err)
		req := request(digest, blob)
		req.Executor = keys[1].addr
		require.NoError(t, v.CheckSignatures(context.Background(), req))
	})

	t.Run("non owner approval", func(t *testing.T) {
		stranger := common.HexToAddress("0x00000000000000000000000000000000000000ff")
		blob, err := Pack([]Entry{ApprovedHashEntry(stranger), second})
		require.NoError(t, err)
		err = v.CheckSignatures(context.Background(), request(digest, blob))
		require.ErrorIs(t, err, ErrInvalidOwner)
	})
}

func Test_CheckSignatures_ContractSignature(t *testing.T) {
	keys := generateOwners(t, 1)
	wallet := common.HexToAddress("0x1000000000000000000000000000000000000001")
	digest := crypto.Keccak256Hash([]byte("contract"))
	contracts := fakeContracts{wallet: []byte("wallet says yes")}
	v := NewValidator(registry(keys, 2, wallet), fakeApprovals{}, contracts, nil)

	ecdsaEntry, err := SignDigest(keys[0].key, digest)
	require.NoError(t, err)

	t.Run("accepted", func(t *testing.T) {
		blob, err := Pack([]Entry{ContractEntry(wallet, []byte("wallet says yes")), ecdsaEntry})
		require.NoError(t, err)

		records, err := Parse(blob, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)

		require.NoError(t, v.CheckSignatures(context.Background(), request(digest, blob)))
	})

	t.Run("rejected", func(t *testing.T) {
		blob, err := Pack([]Entry{ContractEntry(wallet, []byte("forged")), ecdsaEntry})
		require.NoError(t, err)
		err = v.CheckSignatures(context.Background(), request(digest, blob))
		require.ErrorIs(t, err, ErrInvalidContractSignature)
	})

	t.Run("empty contract signature", func(t *testing.T) {
		blob, err := Pack([]Entry{ContractEntry(wallet, nil), ecdsaEntry})
		require.NoError(t, err)
		records, err := Parse(blob, 2)
		require.NoError(t, err)
		for _, r := range records {
			if r.Kind == KindContract {
				assert.Empty(t, r.ContractSignature)
			}
		}
	})
}

func Test_Parse_Malformed(t *testing.T) {
	wallet := common.HexToAddress("0x1000000000000000000000000000000000000001")

	contractRecord := func(offset uint64) []byte {
		rec := make([]byte, RecordLength)
		copy(rec[12:32], wallet.Bytes())
		off := common.BigToHash(new(big.Int).SetUint64(offset))
		copy(rec[32:64], off.Bytes())
		return rec
	}

	tests := []struct {
		name     string
		blob     []byte
		required uint64
		wantErr  error
	}{
		{
			name:     "empty blob",
			blob:     nil,
			required: 1,
			wantErr:  ErrSignaturesTooShort,
		},
		{
			name:     "one byte short",
			blob:     make([]byte, 2*RecordLength-1),
			required: 2,
			wantErr:  ErrSignaturesTooShort,
		},
		{
			name:     "offset inside static part",
			blob:     append(contractRecord(10), make([]byte, 64)...),
			required: 1,
			wantErr:  ErrMalformedSignatures,
		},
		{
			name:     "offset past end",
			blob:     contractRecord(1000),
			required: 1,
			wantErr:  ErrMalformedSignatures,
		},
		{
			name: "length past end",
			blob: append(contractRecord(RecordLength),
				common.BigToHash(new(big.Int).SetUint64(64)).Bytes()...),
			required: 1,
			wantErr:  ErrMalformedSignatures,
		},
		{
			name: "offset overflows",
			blob: func() []byte {
				rec := contractRecord(0)
				for i := 32; i < 64; i++ {
					rec[i] = 0xff
				}
				return rec
			}(),
			required: 1,
			wantErr:  ErrMalformedSignatures,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.blob, tt.required)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func Test_CheckSignatures_Fatal(t *testing.T) {
	keys := generateOwners(t, 1)
	digest := crypto.Keccak256Hash([]byte("fatal"))
	blob, err := Pack(signAll(t, keys, digest))
	require.NoError(t, err)

	t.Run("threshold not set", func(t *testing.T) {
		v := NewValidator(registry(keys, 0), fakeApprovals{}, fakeContracts{}, nil)
		err := v.CheckSignatures(context.Background(), request(digest, blob))
		require.ErrorIs(t, err, ErrThresholdNotSet)
	})

	t.Run("registry failure", func(t *testing.T) {
		owners := registry(keys, 1)
		owners.err = errors.New("backend unavailable")
		v := NewValidator(owners, fakeApprovals{}, fakeContracts{}, nil)
		err := v.CheckSignatures(context.Background(), request(digest, blob))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrThresholdNotMet)
	})

	t.Run("nil request", func(t *testing.T) {
		v := NewValidator(registry(keys, 1), fakeApprovals{}, fakeContracts{}, nil)
		require.Error(t, v.CheckNSignatures(context.Background(), nil, 1))
	})
}

func Test_NewECDSAEntry(t *testing.T) {
	keys := generateOwners(t, 1)
	digest := crypto.Keccak256Hash([]byte("raw"))
	raw, err := crypto.Sign(digest.Bytes(), keys[0].key)
	require.NoError(t, err)

	entry, err := NewECDSAEntry(keys[0].addr, raw)
	require.NoError(t, err)
	assert.Equal(t, KindECDSA, entry.Kind)
	assert.Equal(t, raw[64]+27, entry.Signature[64])

	_, err = NewECDSAEntry(keys[0].addr, raw[:64])
	require.Error(t, err)
}
