package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Layr-Labs/multisig-account-go/pkg/config"
	"github.com/Layr-Labs/multisig-account-go/pkg/logger"
	"github.com/Layr-Labs/multisig-account-go/pkg/node"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "accountd",
		Usage: "Multi-owner account server",
		Description: `Hosts a threshold-controlled account and serves it over HTTP.

On first start the account is set up with the configured owners and threshold.
Later starts reuse the stored state and ignore the setup flags.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8000,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvAccountPort},
			},
			&cli.Uint64Flag{
				Name:     "chain-id",
				Aliases:  []string{"chain"},
				Usage:    fmt.Sprintf("Chain ID bound into every digest: %s", config.GetSupportedChainIDsString()),
				EnvVars:  []string{config.EnvAccountChainID},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "account-address",
				Aliases:  []string{"account"},
				Usage:    "Address the account lives at",
				EnvVars:  []string{config.EnvAccountAddress},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "accessor-address",
				Aliases: []string{"accessor"},
				Usage:   "Address of the simulation helper; empty disables simulation",
				Value:   "0x00000000000000000000000000000000000051a7",
				EnvVars: []string{config.EnvAccountAccessorAddress},
			},
			&cli.StringFlag{
				Name:    "deployer",
				Usage:   "Sender of the setup call",
				EnvVars: []string{config.EnvAccountDeployer},
			},
			&cli.StringFlag{
				Name:     "owners",
				Usage:    "Comma separated owner addresses",
				EnvVars:  []string{config.EnvAccountOwners},
				Required: true,
			},
			&cli.Uint64Flag{
				Name:     "threshold",
				Usage:    "Number of owner confirmations required",
				EnvVars:  []string{config.EnvAccountThreshold},
				Required: true,
			},
			&cli.Uint64Flag{
				Name:    "gas-limit",
				Usage:   "Gas available to each top-level message (0 uses the host default)",
				EnvVars: []string{config.EnvAccountGasLimit},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "Requests per second accepted by the HTTP server (0 disables limiting)",
				EnvVars: []string{config.EnvAccountRateLimit},
			},
			&cli.IntFlag{
				Name:    "rate-burst",
				Value:   20,
				Usage:   "Burst size of the rate limiter",
				EnvVars: []string{config.EnvAccountRateBurst},
			},
			&cli.BoolFlag{
				Name:    "dev-mode",
				Usage:   "Enable endpoints that act on behalf of owners",
				EnvVars: []string{config.EnvAccountDevMode},
			},
			&cli.StringFlag{
				Name:    "persistence-type",
				Value:   string(config.PersistenceTypeBadger),
				Usage:   "State store: memory, badger or redis",
				EnvVars: []string{config.EnvPersistenceType},
			},
			&cli.StringFlag{
				Name:    "data-path",
				Value:   "./data/account",
				Usage:   "Badger data directory",
				EnvVars: []string{config.EnvPersistenceDataPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Value:   "localhost:6379",
				Usage:   "Redis server address",
				EnvVars: []string{config.EnvRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{config.EnvRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{config.EnvRedisDB},
			},
			&cli.StringFlag{
				Name:    "redis-key-prefix",
				Usage:   "Prefix for every Redis key",
				EnvVars: []string{config.EnvRedisKeyPrefix},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvAccountDebug},
			},
		},
		Action: runAccountServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runAccountServer(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg := parseAccountConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	l.Sugar().Infow("Using chain", "name", cfg.ChainName, "chain_id", cfg.ChainID)

	store, err := node.OpenStore(&cfg.Persistence, l)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := node.NewNode(ctx, cfg, store, l)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to create node: %w", err)
	}
	if err := n.Start(); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to start node: %w", err)
	}

	l.Sugar().Infow("Account server running",
		"account", cfg.AccountAddress,
		"port", cfg.Port,
		"persistence", cfg.Persistence.Type,
		"dev_mode", cfg.DevMode,
	)
	l.Sugar().Info("Press Ctrl+C to stop")

	<-ctx.Done()
	l.Sugar().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return n.Stop(shutdownCtx)
}

func parseAccountConfig(c *cli.Context) *config.AccountServerConfig {
	return &config.AccountServerConfig{
		Port:            c.Int("port"),
		ChainID:         config.ChainId(c.Uint64("chain-id")),
		AccountAddress:  c.String("account-address"),
		AccessorAddress: c.String("accessor-address"),
		Deployer:        c.String("deployer"),
		Owners:          config.SplitList(c.String("owners")),
		Threshold:       c.Uint64("threshold"),
		GasLimit:        c.Uint64("gas-limit"),
		RateLimit:       c.Float64("rate-limit"),
		RateBurst:       c.Int("rate-burst"),
		DevMode:         c.Bool("dev-mode"),
		Debug:           c.Bool("verbose"),
		Persistence: config.PersistenceConfig{
			Type:     config.PersistenceType(c.String("persistence-type")),
			DataPath: c.String("data-path"),
			Redis: config.RedisSettings{
				Address:   c.String("redis-address"),
				Password:  c.String("redis-password"),
				DB:        c.Int("redis-db"),
				KeyPrefix: c.String("redis-key-prefix"),
			},
		},
	}
}
