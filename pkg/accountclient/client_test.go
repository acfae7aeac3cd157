package accountclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/ownerSigner"
	"github.com/Layr-Labs/multisig-account-go/pkg/server"
	"github.com/Layr-Labs/multisig-account-go/pkg/testutil"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	accountAddress = testutil.AccountAddress
	targetAddress  = testutil.EchoAddress
)

func newTestClient(t *testing.T, devMode bool) (*Client, []ownerSigner.IOwnerSigner) {
	t.Helper()
	acct := testutil.NewTestAccount(t, 3, 2)

	srv := server.NewServer(&server.Config{DevMode: devMode}, acct.Caller, acct.Store, nil)
	ts := httptest.NewServer(srv.GetHandler())
	t.Cleanup(ts.Close)

	client, err := NewClient(&ClientConfig{BaseURL: ts.URL + "/", Logger: zap.NewNop()})
	require.NoError(t, err)
	return client, acct.Signers
}

func TestNewClient_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		config      *ClientConfig
		expectedErr string
	}{
		{name: "nil config", config: nil, expectedErr: "config cannot be nil"},
		{name: "empty base URL", config: &ClientConfig{Logger: zap.NewNop()}, expectedErr: "base URL is required"},
		{name: "nil logger", config: &ClientConfig{BaseURL: "http://localhost:8080"}, expectedErr: "logger is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			assert.Nil(t, client)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestClient_Reads(t *testing.T) {
	client, signers := newTestClient(t, false)
	ctx := context.Background()

	owners, err := client.GetOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), owners.Threshold)
	assert.Len(t, owners.Owners, len(signers))

	modules, err := client.GetModules(ctx)
	require.NoError(t, err)
	assert.Empty(t, modules.Modules)

	nonce, err := client.GetNonce(ctx)
	require.NoError(t, err)
	assert.Zero(t, nonce)

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, accountAddress.Hex(), health.Account)
}

func TestClient_ExecuteFlow(t *testing.T) {
	client, signers := newTestClient(t, false)
	ctx := context.Background()

	tx := &types.AccountTransaction{To: targetAddress, Data: []byte{0x01, 0x02}}
	hash, err := client.TransactionHash(ctx, tx)
	require.NoError(t, err)

	sim, err := client.Simulate(ctx, &types.SimulateRequest{To: targetAddress.Hex(), Data: tx.Data})
	require.NoError(t, err)
	assert.True(t, sim.Success)
	assert.Equal(t, tx.Data, sim.ReturnData)

	sigs, err := ownerSigner.SignAll(ctx, hash, signers[0], signers[2])
	require.NoError(t, err)

	resp, err := client.Execute(ctx, common.Address{}, tx, sigs)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	nonce, err := client.GetNonce(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	resp, err = client.Execute(ctx, common.Address{}, tx, sigs)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Reason)
}

func TestClient_ValidateSignature(t *testing.T) {
	client, signers := newTestClient(t, false)
	ctx := context.Background()
	message := []byte("typed data")

	hash, err := client.MessageHash(ctx, message)
	require.NoError(t, err)
	sigs, err := ownerSigner.SignAll(ctx, hash, signers[1], signers[2])
	require.NoError(t, err)

	resp, err := client.ValidateMessageSignature(ctx, message, sigs)
	require.NoError(t, err)
	assert.True(t, resp.Valid)

	resp, err = client.ValidateMessageSignature(ctx, []byte("other"), sigs)
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Reason)

	// Hash form signs the account's message hash of the 32 bytes
	inner, err := client.MessageHash(ctx, hash.Bytes())
	require.NoError(t, err)
	sigs, err = ownerSigner.SignAll(ctx, inner, signers[0], signers[1])
	require.NoError(t, err)
	resp, err = client.ValidateHashSignature(ctx, hash, sigs)
	require.NoError(t, err)
	assert.True(t, resp.Valid)
}

func TestClient_ApproveHash(t *testing.T) {
	ctx := context.Background()
	hash := crypto.Keccak256Hash([]byte("approval"))

	t.Run("Dev mode", func(t *testing.T) {
		client, signers := newTestClient(t, true)
		require.NoError(t, client.ApproveHash(ctx, signers[0].Address(), hash))
	})

	t.Run("Disabled", func(t *testing.T) {
		client, signers := newTestClient(t, false)
		err := client.ApproveHash(ctx, signers[0].Address(), hash)
		require.Error(t, err)

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})
}

func TestClient_Unreachable(t *testing.T) {
	client, err := NewClient(&ClientConfig{BaseURL: "http://127.0.0.1:1", Logger: zap.NewNop()})
	require.NoError(t, err)

	_, err = client.GetNonce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to contact account server")
}
