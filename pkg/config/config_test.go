package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AccountServerConfig {
	return &AccountServerConfig{
		Port:            8080,
		ChainID:         ChainId_EthereumAnvil,
		AccountAddress:  "0x000000000000000000000000000000000000a11c",
		AccessorAddress: "0x000000000000000000000000000000000000acce",
		Owners: []string{
			"0x1111111111111111111111111111111111111111",
			"0x2222222222222222222222222222222222222222",
		},
		Threshold:   2,
		Persistence: PersistenceConfig{Type: PersistenceTypeMemory},
	}
}

func TestAccountServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AccountServerConfig)
		wantErr string
	}{
		{"valid", func(c *AccountServerConfig) {}, ""},
		{"bad port", func(c *AccountServerConfig) { c.Port = 0 }, "port"},
		{"unsupported chain", func(c *AccountServerConfig) { c.ChainID = 5 }, "chainId"},
		{"missing account", func(c *AccountServerConfig) { c.AccountAddress = "" }, "accountAddress"},
		{"zero account", func(c *AccountServerConfig) { c.AccountAddress = common.Address{}.Hex() }, "accountAddress"},
		{"accessor equals account", func(c *AccountServerConfig) { c.AccessorAddress = c.AccountAddress }, "accessorAddress"},
		{"no owners", func(c *AccountServerConfig) { c.Owners = nil; c.Threshold = 0 }, "owners"},
		{"bad owner", func(c *AccountServerConfig) { c.Owners[1] = "0x12" }, "owners[1]"},
		{"duplicate owner", func(c *AccountServerConfig) { c.Owners[1] = c.Owners[0] }, "owners[1]"},
		{"threshold too high", func(c *AccountServerConfig) { c.Threshold = 3 }, "threshold"},
		{"rate burst", func(c *AccountServerConfig) { c.RateLimit = 10 }, "rateBurst"},
		{"badger path", func(c *AccountServerConfig) { c.Persistence.Type = PersistenceTypeBadger }, "persistence.dataPath"},
		{"redis address", func(c *AccountServerConfig) { c.Persistence.Type = PersistenceTypeRedis }, "persistence.redis.address"},
		{"unknown backend", func(c *AccountServerConfig) { c.Persistence.Type = "etcd" }, "persistence.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, ChainName_EthereumAnvil, c.ChainName)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAccountServerConfig_ReportsAllErrors(t *testing.T) {
	c := validConfig()
	c.Port = -1
	c.Threshold = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "threshold")
}

func TestSplitListAndOwners(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
	assert.Nil(t, SplitList(""))

	c := validConfig()
	assert.Equal(t, common.HexToAddress(c.Owners[0]), c.OwnerAddresses()[0])
}
