// Package testutil builds deployed accounts for tests.
package testutil

import (
	"bytes"
	"context"
	"math/big"
	"sort"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/account"
	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-account-go/pkg/ownerSigner/local"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence/memory"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	TestChainID     = big.NewInt(31337)
	AccountAddress  = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	AccessorAddress = common.HexToAddress("0x000000000000000000000000000000000000acce")
	CounterAddress  = common.HexToAddress("0x000000000000000000000000000000000000c0de")
	EchoAddress     = common.HexToAddress("0x000000000000000000000000000000000000beef")
)

// TestAccount is an account deployed on an in-memory host with local owner keys
type TestAccount struct {
	Store   *memory.MemoryPersistence
	Host    *execution.Host
	Caller  *account.Caller
	Signers []ownerSigner.IOwnerSigner
}

// Counter increments slot 0 of its storage identity and returns the new value
func Counter(f *execution.Frame, _ []byte) ([]byte, error) {
	v := new(big.Int).SetBytes(f.GetState(common.Hash{}).Bytes())
	v.Add(v, big.NewInt(1))
	f.SetState(common.Hash{}, common.BigToHash(v))
	return common.BigToHash(v).Bytes(), nil
}

// Echo returns its input
func Echo(_ *execution.Frame, input []byte) ([]byte, error) {
	return common.CopyBytes(input), nil
}

// NewSigners creates n local owner signers sorted by address
func NewSigners(t *testing.T, n int) []ownerSigner.IOwnerSigner {
	t.Helper()
	signers := make([]ownerSigner.IOwnerSigner, n)
	for i := range signers {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		s, err := local.NewLocalSigner(key)
		require.NoError(t, err)
		signers[i] = s
	}
	sort.Slice(signers, func(i, j int) bool {
		return bytes.Compare(signers[i].Address().Bytes(), signers[j].Address().Bytes()) < 0
	})
	return signers
}

// NewTestAccount deploys an account with n fresh owners and the given
// threshold. Counter and Echo contracts are registered alongside it.
func NewTestAccount(t *testing.T, n int, threshold uint64) *TestAccount {
	t.Helper()
	store := memory.NewMemoryPersistence()
	host, err := execution.NewHost(&execution.HostConfig{ChainID: TestChainID}, store, nil)
	require.NoError(t, err)
	require.NoError(t, host.Register(CounterAddress, execution.ContractFunc(Counter)))
	require.NoError(t, host.Register(EchoAddress, execution.ContractFunc(Echo)))

	signers := NewSigners(t, n)
	owners := make([]common.Address, n)
	for i, s := range signers {
		owners[i] = s.Address()
	}

	d, err := account.Deploy(context.Background(), host, &account.DeployConfig{
		Address:         AccountAddress,
		AccessorAddress: AccessorAddress,
		Owners:          owners,
		Threshold:       threshold,
	}, nil)
	require.NoError(t, err)

	return &TestAccount{Store: store, Host: host, Caller: d.Caller, Signers: signers}
}

// StorageValue reads slot 0 of addr as an integer
func (a *TestAccount) StorageValue(t *testing.T, addr common.Address) int64 {
	t.Helper()
	v, err := a.Host.StorageAt(context.Background(), addr, common.Hash{})
	require.NoError(t, err)
	return new(big.Int).SetBytes(v.Bytes()).Int64()
}
