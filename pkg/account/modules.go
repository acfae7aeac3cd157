package account

import (
	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	ReasonInvalidModuleAddress = "Invalid module address provided"
	ReasonDuplicateModule      = "Module has already been added"
	ReasonInvalidModulePair    = "Invalid prevModule, module pair provided"
)

func (a *Account) enableModule(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if err := authorized(f); err != nil {
		return nil, err
	}
	module := args[0].(common.Address)

	s := store{f}
	if module == (common.Address{}) || module == types.SentinelAddress {
		return nil, execution.Revert(ReasonInvalidModuleAddress)
	}
	if s.nextModule(module) != (common.Address{}) {
		return nil, execution.Revert(ReasonDuplicateModule)
	}

	s.setAddress(ModuleSlot(module), s.nextModule(types.SentinelAddress))
	s.setAddress(ModuleSlot(types.SentinelAddress), module)

	a.logger.Sugar().Infow("Enabled module", "account", f.Address().Hex(), "module", module.Hex())
	return nil, nil
}

func (a *Account) disableModule(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	if err := authorized(f); err != nil {
		return nil, err
	}
	prevModule := args[0].(common.Address)
	module := args[1].(common.Address)

	s := store{f}
	if module == (common.Address{}) || module == types.SentinelAddress {
		return nil, execution.Revert(ReasonInvalidModuleAddress)
	}
	if s.nextModule(prevModule) != module {
		return nil, execution.Revert(ReasonInvalidModulePair)
	}

	s.setAddress(ModuleSlot(prevModule), s.nextModule(module))
	s.setAddress(ModuleSlot(module), common.Address{})

	a.logger.Sugar().Infow("Disabled module", "account", f.Address().Hex(), "module", module.Hex())
	return nil, nil
}

func (a *Account) isModuleEnabled(f *execution.Frame, args []interface{}) ([]interface{}, error) {
	module := args[0].(common.Address)
	enabled := module != types.SentinelAddress && store{f}.nextModule(module) != (common.Address{})
	return []interface{}{enabled}, nil
}

func (a *Account) getModules(f *execution.Frame, _ []interface{}) ([]interface{}, error) {
	modules := store{f}.modules()
	if modules == nil {
		modules = []common.Address{}
	}
	return []interface{}{modules}, nil
}
