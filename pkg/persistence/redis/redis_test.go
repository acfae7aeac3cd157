package redis

import (
	"context"
	"os"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/logger"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestRedisAddress returns REDIS_TEST_ADDRESS or localhost:6379
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test when Redis is not reachable
func requireRedis(t *testing.T, keyPrefix string) *RedisPersistence {
	t.Helper()

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15,
		KeyPrefix: keyPrefix,
	}

	rp, err := NewRedisPersistence(cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}
	return rp
}

func TestRedisPersistence(t *testing.T) {
	prefix := "test-" + uuid.NewString() + ":"
	persistencetest.Run(t, uuid.NewString(), func(t *testing.T) persistence.IStateStore {
		return requireRedis(t, prefix)
	})
}

func TestRedisPersistence_KeyPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	a := requireRedis(t, "tenant-a-"+uuid.NewString()+":")
	defer func() { _ = a.Close() }()
	b := requireRedis(t, "tenant-b-"+uuid.NewString()+":")
	defer func() { _ = b.Close() }()

	txn, err := a.NewTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, txn.Set([]byte("shared"), []byte("a")))
	require.NoError(t, txn.Commit())

	txn, err = b.NewTransaction(ctx)
	require.NoError(t, err)
	defer txn.Discard()
	v, err := txn.Get([]byte("shared"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNewRedisPersistence_InvalidConfig(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	_, err := NewRedisPersistence(nil, testLogger)
	require.Error(t, err)

	_, err = NewRedisPersistence(&RedisConfig{}, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address cannot be empty")
}
