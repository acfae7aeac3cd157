package remote

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/account"
	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/hashing"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence/memory"
	"github.com/Layr-Labs/multisig-account-go/pkg/signatures"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	accountAddress = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	deployer       = common.HexToAddress("0x00000000000000000000000000000000000000e0")
)

// revertError mimics the JSON-RPC error of a reverted eth_call
type revertError struct {
	data []byte
}

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorData() interface{} { return hexutil.Encode(e.data) }

// hostChain serves eth_call and eth_getCode from an in-process host
type hostChain struct {
	host *execution.Host
	err  error
}

func (c *hostChain) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	receipt, err := c.host.Call(ctx, &execution.Message{From: msg.From, To: *msg.To, Data: msg.Data})
	if err != nil {
		return nil, err
	}
	if !receipt.Success {
		re, _ := execution.AsRevert(receipt.Err)
		return nil, &revertError{data: re.Data}
	}
	return receipt.ReturnData, nil
}

func (c *hostChain) CodeAt(_ context.Context, contract common.Address, _ *big.Int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.host.HasCode(contract) {
		return []byte{0x01}, nil
	}
	return nil, nil
}

func deploy(t *testing.T, owners []common.Address, threshold uint64) (*hostChain, *account.Deployment) {
	t.Helper()
	host, err := execution.NewHost(&execution.HostConfig{ChainID: big.NewInt(1)}, memory.NewMemoryPersistence(), nil)
	require.NoError(t, err)
	d, err := account.Deploy(context.Background(), host, &account.DeployConfig{
		Address:   accountAddress,
		Deployer:  deployer,
		Owners:    owners,
		Threshold: threshold,
	}, nil)
	require.NoError(t, err)
	return &hostChain{host: host}, d
}

func TestReader_OwnerRegistry(t *testing.T) {
	owners := []common.Address{common.HexToAddress("0x1111"), common.HexToAddress("0x2222")}
	chain, _ := deploy(t, owners, 2)
	ctx := context.Background()

	r, err := NewReader(chain, accountAddress, nil)
	require.NoError(t, err)

	got, err := r.GetOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, owners, got)

	threshold, err := r.GetThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), threshold)

	ok, err := r.IsOwner(ctx, owners[1])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsOwner(ctx, deployer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReader_ApprovedHashes(t *testing.T) {
	owner := common.HexToAddress("0x1111")
	chain, d := deploy(t, []common.Address{owner}, 1)
	ctx := context.Background()
	hash := crypto.Keccak256Hash([]byte("tx"))

	r, err := NewReader(chain, accountAddress, nil)
	require.NoError(t, err)

	ok, err := r.IsHashApproved(ctx, owner, hash)
	require.NoError(t, err)
	assert.False(t, ok)

	receipt, err := d.Caller.ApproveHash(ctx, owner, hash)
	require.NoError(t, err)
	require.True(t, receipt.Success)

	ok, err = r.IsHashApproved(ctx, owner, hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReader_ContractVerifier(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chain, d := deploy(t, []common.Address{crypto.PubkeyToAddress(key.PublicKey)}, 1)
	ctx := context.Background()

	r, err := NewReader(chain, accountAddress, zap.NewNop())
	require.NoError(t, err)

	data := []byte("pre-image handed to the signer")
	msgHash := hashing.MessageHash(data, accountAddress, big.NewInt(1))
	e, err := signatures.SignDigest(key, msgHash)
	require.NoError(t, err)
	sig, err := signatures.Pack([]signatures.Entry{e})
	require.NoError(t, err)

	ok, err := r.IsValidSignature(ctx, d.Account.Address(), data, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsValidSignature(ctx, d.Account.Address(), []byte("other data"), sig)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.IsValidSignature(ctx, deployer, data, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReader_BacksValidator(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chain, _ := deploy(t, []common.Address{crypto.PubkeyToAddress(key.PublicKey)}, 1)

	r, err := NewReader(chain, accountAddress, nil)
	require.NoError(t, err)
	v := signatures.NewValidator(r, r, r, nil)

	digest := crypto.Keccak256Hash([]byte("digest"))
	e, err := signatures.SignDigest(key, digest)
	require.NoError(t, err)
	blob, err := signatures.Pack([]signatures.Entry{e})
	require.NoError(t, err)

	assert.True(t, v.Validate(context.Background(), digest, blob))
}

func TestReader_TransportErrors(t *testing.T) {
	chain, _ := deploy(t, []common.Address{common.HexToAddress("0x1111")}, 1)
	chain.err = fmt.Errorf("connection refused")
	ctx := context.Background()

	r, err := NewReader(chain, accountAddress, nil)
	require.NoError(t, err)

	_, err = r.GetThreshold(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = r.IsValidSignature(ctx, accountAddress, nil, nil)
	assert.Error(t, err)

	_, err = NewReader(nil, accountAddress, nil)
	assert.Error(t, err)
}
