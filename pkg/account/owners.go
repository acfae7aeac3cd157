package account

import (
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

// Revert reasons of owner management
const (
	ReasonAlreadySetup        = "Owners have already been setup"
	ReasonThresholdTooHigh    = "Threshold cannot exceed owner count"
	ReasonThresholdZero       = "Threshold needs to be higher than 0"
	ReasonInvalidOwnerAddress = "Invalid owner address provided"
	ReasonDuplicateOwner      = "Address is already an owner"
	ReasonInvalidOwnerPair    = "Invalid prevOwner, owner pair provided"
)

func (a *Account) setup(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	owners := args[0].([]common.Address)
	threshold := args[1].(*big.Int)

	s := store{f}
	if s.threshold().Sign() != 0 {
		return nil, execution.Revert(ReasonAlreadySetup)
	}
	if threshold.Cmp(big.NewInt(int64(len(owners)))) > 0 {
		return nil, execution.Revert(ReasonThresholdTooHigh)
	}
	if threshold.Sign() == 0 {
		return nil, execution.Revert(ReasonThresholdZero)
	}

	current := types.SentinelAddress
	for _, owner := range owners {
		if owner == (common.Address{}) || owner == types.SentinelAddress || owner == f.Address() || owner == current {
			return nil, execution.Revert(ReasonInvalidOwnerAddress)
		}
		if s.nextOwner(owner) != (common.Address{}) {
			return nil, execution.Revert(ReasonDuplicateOwner)
		}
		s.setAddress(OwnerSlot(current), owner)
		current = owner
	}
	s.setAddress(OwnerSlot(current), types.SentinelAddress)
	s.setUint(SlotOwnerCount, big.NewInt(int64(len(owners))))
	s.setUint(SlotThreshold, threshold)

	// empty module list
	s.setAddress(ModuleSlot(types.SentinelAddress), types.SentinelAddress)

	a.logger.Sugar().Infow("Account setup",
		"account", f.Address().Hex(),
		"owners", len(owners),
		"threshold", threshold.String(),
	)
	return nil, nil
}

func (a *Account) getOwners(f *execution.Frame, _ []interface{}) ([]interface{}, error) {
	owners := store{f}.owners()
	if owners == nil {
		owners = []common.Address{}
	}
	return []interface{}{owners}, nil
}

func (a *Account) getThreshold(f *execution.Frame, _ []interface{}) ([]interface{}, error) {
	return []interface{}{store{f}.threshold()}, nil
}

func (a *Account) isOwner(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	return []interface{}{store{f}.isOwner(args[0].(common.Address))}, nil
}

func (a *Account) addOwnerWithThreshold(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if err := authorized(f); err != nil {
		return nil, err
	}
	owner := args[0].(common.Address)
	threshold := args[1].(*big.Int)

	s := store{f}
	if owner == (common.Address{}) || owner == types.SentinelAddress || owner == f.Address() {
		return nil, execution.Revert(ReasonInvalidOwnerAddress)
	}
	if s.nextOwner(owner) != (common.Address{}) {
		return nil, execution.Revert(ReasonDuplicateOwner)
	}

	s.setAddress(OwnerSlot(owner), s.nextOwner(types.SentinelAddress))
	s.setAddress(OwnerSlot(types.SentinelAddress), owner)
	count := new(big.Int).Add(s.uint(SlotOwnerCount), big.NewInt(1))
	s.setUint(SlotOwnerCount, count)

	a.logger.Sugar().Infow("Added owner", "account", f.Address().Hex(), "owner", owner.Hex())

	if threshold.Cmp(s.threshold()) != 0 {
		return nil, changeThreshold(s, threshold)
	}
	return nil, nil
}

func (a *Account) removeOwner(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if err := authorized(f); err != nil {
		return nil, err
	}
	prevOwner := args[0].(common.Address)
	owner := args[1].(common.Address)
	threshold := args[2].(*big.Int)

	s := store{f}
	count := new(big.Int).Sub(s.uint(SlotOwnerCount), big.NewInt(1))
	if count.Cmp(threshold) < 0 {
		return nil, execution.Revert(ReasonThresholdTooHigh)
	}
	if owner == (common.Address{}) || owner == types.SentinelAddress {
		return nil, execution.Revert(ReasonInvalidOwnerAddress)
	}
	if s.nextOwner(prevOwner) != owner {
		return nil, execution.Revert(ReasonInvalidOwnerPair)
	}

	s.setAddress(OwnerSlot(prevOwner), s.nextOwner(owner))
	s.setAddress(OwnerSlot(owner), common.Address{})
	s.setUint(SlotOwnerCount, count)

	a.logger.Sugar().Infow("Removed owner", "account", f.Address().Hex(), "owner", owner.Hex())

	if threshold.Cmp(s.threshold()) != 0 {
		return nil, changeThreshold(s, threshold)
	}
	return nil, nil
}

func (a *Account) changeThreshold(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if err := authorized(f); err != nil {
		return nil, err
	}
	return nil, changeThreshold(store{f}, args[0].(*big.Int))
}

func changeThreshold(s store, threshold *big.Int) error {
	if threshold.Cmp(s.uint(SlotOwnerCount)) > 0 {
		return execution.Revert(ReasonThresholdTooHigh)
	}
	if threshold.Sign() == 0 {
		return execution.Revert(ReasonThresholdZero)
	}
	s.setUint(SlotThreshold, threshold)
	return nil
}
