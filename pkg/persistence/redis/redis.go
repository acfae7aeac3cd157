package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefixState       = "account:state:"
	keySchemaVersion     = "account:metadata:schema_version"
	currentSchemaVersion = "v1"
)

// RedisPersistence is an IStateStore backed by Redis, suitable for
// deployments where several service replicas share one account state.
// Transactions buffer writes locally and apply them in a single MULTI/EXEC.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

var _ persistence.IStateStore = (*RedisPersistence)(nil)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is prepended to every key, e.g. "tenant-a:" yields
	// "tenant-a:account:state:<hex>".
	KeyPrefix string
}

// NewRedisPersistence connects to Redis and validates the schema version.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)

	return rp, nil
}

func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisPersistence) stateKey(key []byte) string {
	return r.prefixKey(keyPrefixState + hex.EncodeToString(key))
}

func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if errors.Is(err, redis.Nil) {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

// NewTransaction opens a buffered transaction bound to ctx.
func (r *RedisPersistence) NewTransaction(ctx context.Context) (persistence.ITransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, persistence.ErrClosed
	}

	return &redisTxn{
		ctx:    ctx,
		owner:  r,
		writes: make(map[string][]byte),
	}, nil
}

// Close closes the Redis client. Idempotent.
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck pings Redis and checks the schema key.
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to verify schema version: %w", err)
	}
	return nil
}

func (r *RedisPersistence) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

type redisTxn struct {
	ctx    context.Context
	owner  *RedisPersistence
	writes map[string][]byte
	done   bool
}

func (t *redisTxn) check() error {
	if t.done {
		return persistence.ErrTransactionDone
	}
	if t.owner.isClosed() {
		return persistence.ErrClosed
	}
	return nil
}

func (t *redisTxn) Get(key []byte) ([]byte, error) {
	if err := t.check(); err != nil {
		return nil, err
	}

	k := t.owner.stateKey(key)
	if v, ok := t.writes[k]; ok {
		if v == nil {
			return nil, nil
		}
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	}

	v, err := t.owner.client.Get(t.ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

func (t *redisTxn) Set(key, value []byte) error {
	if err := t.check(); err != nil {
		return err
	}
	v := make([]byte, len(value))
	copy(v, value)
	t.writes[t.owner.stateKey(key)] = v
	return nil
}

func (t *redisTxn) Delete(key []byte) error {
	if err := t.check(); err != nil {
		return err
	}
	t.writes[t.owner.stateKey(key)] = nil
	return nil
}

func (t *redisTxn) Commit() error {
	if err := t.check(); err != nil {
		return err
	}
	t.done = true

	if len(t.writes) == 0 {
		return nil
	}

	_, err := t.owner.client.TxPipelined(t.ctx, func(pipe redis.Pipeliner) error {
		for k, v := range t.writes {
			if v == nil {
				pipe.Del(t.ctx, k)
				continue
			}
			pipe.Set(t.ctx, k, v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit redis transaction: %w", err)
	}

	t.owner.logger.Sugar().Debugw("Redis transaction committed", "writes", len(t.writes))
	return nil
}

func (t *redisTxn) Discard() {
	t.done = true
	t.writes = nil
}
