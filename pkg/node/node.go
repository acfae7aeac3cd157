// Package node wires a state store, an execution host, the account and its
// HTTP server into one running service.
package node

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Layr-Labs/multisig-account-go/pkg/account"
	"github.com/Layr-Labs/multisig-account-go/pkg/config"
	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence/badger"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence/memory"
	"github.com/Layr-Labs/multisig-account-go/pkg/persistence/redis"
	"github.com/Layr-Labs/multisig-account-go/pkg/server"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Node is one account served over HTTP
type Node struct {
	cfg        *config.AccountServerConfig
	store      persistence.IStateStore
	host       *execution.Host
	deployment *account.Deployment
	server     *server.Server
	logger     *zap.Logger

	// Deployed is true when this start ran setup rather than reattaching
	Deployed bool
}

// OpenStore creates the state store selected by cfg
func OpenStore(cfg *config.PersistenceConfig, logger *zap.Logger) (persistence.IStateStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Type {
	case config.PersistenceTypeMemory, "":
		return memory.NewMemoryPersistence(), nil
	case config.PersistenceTypeBadger:
		return badger.NewBadgerPersistence(cfg.DataPath, logger)
	case config.PersistenceTypeRedis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported persistence type %q", cfg.Type)
	}
}

// NewNode installs the account on a host over store. On first start the
// account is set up from cfg and a deployment record is written; later
// starts reattach to the recorded addresses and leave state untouched.
func NewNode(ctx context.Context, cfg *config.AccountServerConfig, store persistence.IStateStore, logger *zap.Logger) (*Node, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	chainID := new(big.Int).SetUint64(uint64(cfg.ChainID))
	host, err := execution.NewHost(&execution.HostConfig{ChainID: chainID, GasLimit: cfg.GasLimit}, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create host: %w", err)
	}

	n := &Node{cfg: cfg, store: store, host: host, logger: logger}

	rec, err := persistence.LoadDeploymentRecord(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to load deployment record: %w", err)
	}
	if rec == nil {
		err = n.deploy(ctx)
	} else {
		err = n.attach(rec)
	}
	if err != nil {
		return nil, err
	}

	n.server = server.NewServer(&server.Config{
		Port:      cfg.Port,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		DevMode:   cfg.DevMode,
	}, n.deployment.Caller, store, logger)
	return n, nil
}

func (n *Node) deploy(ctx context.Context) error {
	d, err := account.Deploy(ctx, n.host, &account.DeployConfig{
		Address:         common.HexToAddress(n.cfg.AccountAddress),
		AccessorAddress: common.HexToAddress(n.cfg.AccessorAddress),
		Deployer:        common.HexToAddress(n.cfg.Deployer),
		Owners:          n.cfg.OwnerAddresses(),
		Threshold:       n.cfg.Threshold,
	}, n.logger)
	if err != nil {
		return fmt.Errorf("failed to deploy account: %w", err)
	}

	rec := &persistence.DeploymentRecord{
		AccountAddress:  d.Caller.Address().Hex(),
		AccessorAddress: common.HexToAddress(n.cfg.AccessorAddress).Hex(),
		ChainID:         uint64(n.cfg.ChainID),
		Owners:          append([]string(nil), n.cfg.Owners...),
		Threshold:       n.cfg.Threshold,
		DeployedAt:      time.Now().Unix(),
	}
	if err := persistence.SaveDeploymentRecord(ctx, n.store, rec); err != nil {
		return fmt.Errorf("failed to save deployment record: %w", err)
	}

	n.deployment = d
	n.Deployed = true
	n.logger.Sugar().Infow("Deployed account",
		"account", rec.AccountAddress,
		"accessor", rec.AccessorAddress,
		"owners", len(rec.Owners),
		"threshold", rec.Threshold,
	)
	return nil
}

func (n *Node) attach(rec *persistence.DeploymentRecord) error {
	if rec.ChainID != uint64(n.cfg.ChainID) {
		return fmt.Errorf("state was deployed for chain %d, configured for chain %d", rec.ChainID, n.cfg.ChainID)
	}
	if !strings.EqualFold(rec.AccountAddress, n.cfg.AccountAddress) {
		return fmt.Errorf("state holds account %s, configured for %s", rec.AccountAddress, n.cfg.AccountAddress)
	}

	d, err := account.Attach(n.host, common.HexToAddress(rec.AccountAddress), common.HexToAddress(rec.AccessorAddress), n.logger)
	if err != nil {
		return fmt.Errorf("failed to attach account: %w", err)
	}
	n.deployment = d
	n.logger.Sugar().Infow("Reattached account",
		"account", rec.AccountAddress,
		"deployed_at", time.Unix(rec.DeployedAt, 0).UTC(),
	)
	return nil
}

// Caller returns the typed caller of the served account
func (n *Node) Caller() *account.Caller {
	return n.deployment.Caller
}

// Server returns the HTTP server
func (n *Node) Server() *server.Server {
	return n.server
}

// Start starts the HTTP server
func (n *Node) Start() error {
	return n.server.Start()
}

// Stop drains the HTTP server and closes the store
func (n *Node) Stop(ctx context.Context) error {
	if err := n.server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return n.store.Close()
}
