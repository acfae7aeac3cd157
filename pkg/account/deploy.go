package account

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/simulation"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DeployConfig describes a new account
type DeployConfig struct {
	Address         common.Address
	AccessorAddress common.Address
	Deployer        common.Address
	Owners          []common.Address
	Threshold       uint64
}

// Deployment is an account installed on a host
type Deployment struct {
	Account  *Account
	Accessor *simulation.Accessor
	Caller   *Caller
}

// Attach installs the account and accessor code on host without touching
// state. It is used on restart, when storage already holds a set up account.
func Attach(host *execution.Host, address, accessor common.Address, logger *zap.Logger) (*Deployment, error) {
	if host == nil {
		return nil, fmt.Errorf("host cannot be nil")
	}
	if address == accessor {
		return nil, fmt.Errorf("account and accessor must live at different addresses")
	}

	d := &Deployment{
		Account: New(address, accessor, logger),
		Caller:  NewCaller(host, address),
	}
	if accessor != (common.Address{}) {
		d.Accessor = simulation.NewAccessor(accessor, logger)
		if err := host.Register(accessor, d.Accessor); err != nil {
			return nil, fmt.Errorf("failed to register simulation accessor: %w", err)
		}
	}
	if err := host.Register(address, d.Account); err != nil {
		return nil, fmt.Errorf("failed to register account: %w", err)
	}
	return d, nil
}

// Deploy attaches a fresh account and runs setup from cfg.Deployer
func Deploy(ctx context.Context, host *execution.Host, cfg *DeployConfig, logger *zap.Logger) (*Deployment, error) {
	if cfg == nil {
		return nil, fmt.Errorf("deploy config cannot be nil")
	}
	d, err := Attach(host, cfg.Address, cfg.AccessorAddress, logger)
	if err != nil {
		return nil, err
	}

	owners := cfg.Owners
	if owners == nil {
		owners = []common.Address{}
	}
	receipt, err := d.Caller.Transact(ctx, cfg.Deployer, nil, "setup", owners, new(big.Int).SetUint64(cfg.Threshold))
	if err != nil {
		return nil, fmt.Errorf("failed to set up account: %w", err)
	}
	if !receipt.Success {
		return nil, fmt.Errorf("failed to set up account: %w", receipt.Err)
	}
	return d, nil
}
