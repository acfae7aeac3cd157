package ownerset

import (
	"context"
	"sync"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func addr(b byte) common.Address {
	return common.BytesToAddress([]byte{b})
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name      string
		owners    []common.Address
		threshold uint64
		wantErr   bool
	}{
		{"valid", []common.Address{addr(2), addr(3)}, 2, false},
		{"zero threshold", []common.Address{addr(2)}, 0, true},
		{"threshold too high", []common.Address{addr(2)}, 2, true},
		{"zero owner", []common.Address{{}}, 1, true},
		{"sentinel owner", []common.Address{types.SentinelAddress}, 1, true},
		{"duplicate", []common.Address{addr(2), addr(2)}, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.owners, tt.threshold)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOwnerSet_Approvals(t *testing.T) {
	ctx := context.Background()
	s, err := New([]common.Address{addr(2), addr(3)}, 1)
	require.NoError(t, err)

	hash := crypto.Keccak256Hash([]byte("tx"))
	require.Error(t, s.Approve(addr(4), hash))
	require.NoError(t, s.Approve(addr(2), hash))

	ok, err := s.IsHashApproved(ctx, addr(2), hash)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Replace([]common.Address{addr(3)}, 1))
	ok, err = s.IsHashApproved(ctx, addr(2), hash)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []common.Address{addr(3)}, s.Owners())
}

func TestOwnerSet_BacksValidator(t *testing.T) {
	ctx := context.Background()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := crypto.PubkeyToAddress(key.PublicKey)
	approver := addr(9)

	s, err := New([]common.Address{signer, approver}, 2)
	require.NoError(t, err)
	v := s.Validator(zap.NewNop())

	digest := crypto.Keccak256Hash([]byte("payload"))
	e, err := signatures.SignDigest(key, digest)
	require.NoError(t, err)
	blob, err := signatures.Pack([]signatures.Entry{e, signatures.ApprovedHashEntry(approver)})
	require.NoError(t, err)

	assert.False(t, v.Validate(ctx, digest, blob))
	assert.ErrorIs(t, s.Verify(ctx, digest, blob, zap.NewNop()), signatures.ErrHashNotApproved)

	require.NoError(t, s.Approve(approver, digest))
	assert.True(t, v.Validate(ctx, digest, blob))
	assert.NoError(t, s.Verify(ctx, digest, blob, zap.NewNop()))
}

func TestOwnerSet_VerifyRejectsContractSigners(t *testing.T) {
	wallet := addr(5)
	s, err := New([]common.Address{wallet}, 1)
	require.NoError(t, err)

	digest := crypto.Keccak256Hash([]byte("payload"))
	blob, err := signatures.Pack([]signatures.Entry{signatures.ContractEntry(wallet, []byte("sig"))})
	require.NoError(t, err)

	err = s.Verify(context.Background(), digest, blob, zap.NewNop())
	assert.ErrorIs(t, err, signatures.ErrInvalidContractSignature)
}

func TestOwnerSet_ConcurrentAccess(t *testing.T) {
	s, err := New([]common.Address{addr(2), addr(3)}, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hash := common.BytesToHash([]byte{byte(i)})
			_ = s.Approve(addr(2), hash)
			_, _ = s.IsOwner(context.Background(), addr(3))
			_ = s.Owners()
		}(i)
	}
	wg.Wait()

	ok, err := s.IsHashApproved(context.Background(), addr(2), common.BytesToHash([]byte{7}))
	require.NoError(t, err)
	assert.True(t, ok)
}
