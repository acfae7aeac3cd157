package account

import (
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/execution"
	"github.com/Layr-Labs/multisig-account-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Storage slots. Mappings follow the Solidity layout so getStorageAt and
// chain readers agree with the native implementation.
var (
	SlotModules        = common.BigToHash(big.NewInt(1))
	SlotOwners         = common.BigToHash(big.NewInt(2))
	SlotOwnerCount     = common.BigToHash(big.NewInt(3))
	SlotThreshold      = common.BigToHash(big.NewInt(4))
	SlotNonce          = common.BigToHash(big.NewInt(5))
	SlotSignedMessages = common.BigToHash(big.NewInt(7))
	SlotApprovedHashes = common.BigToHash(big.NewInt(8))
)

// MappingSlot is keccak256(key ‖ slot)
func MappingSlot(key, slot common.Hash) common.Hash {
	return crypto.Keccak256Hash(key.Bytes(), slot.Bytes())
}

// OwnerSlot is the linked-list entry of owner
func OwnerSlot(owner common.Address) common.Hash {
	return MappingSlot(common.BytesToHash(owner.Bytes()), SlotOwners)
}

// ModuleSlot is the linked-list entry of module
func ModuleSlot(module common.Address) common.Hash {
	return MappingSlot(common.BytesToHash(module.Bytes()), SlotModules)
}

// ApprovedHashSlot is approvedHashes[owner][hash]
func ApprovedHashSlot(owner common.Address, hash common.Hash) common.Hash {
	return MappingSlot(hash, MappingSlot(common.BytesToHash(owner.Bytes()), SlotApprovedHashes))
}

// SignedMessageSlot is signedMessages[hash]
func SignedMessageSlot(hash common.Hash) common.Hash {
	return MappingSlot(hash, SlotSignedMessages)
}

type store struct {
	f *execution.Frame
}

func (s store) address(slot common.Hash) common.Address {
	return common.BytesToAddress(s.f.GetState(slot).Bytes())
}

func (s store) setAddress(slot common.Hash, v common.Address) {
	s.f.SetState(slot, common.BytesToHash(v.Bytes()))
}

func (s store) uint(slot common.Hash) *big.Int {
	return new(big.Int).SetBytes(s.f.GetState(slot).Bytes())
}

func (s store) setUint(slot common.Hash, v *big.Int) {
	s.f.SetState(slot, common.BigToHash(v))
}

func (s store) nextOwner(owner common.Address) common.Address {
	return s.address(OwnerSlot(owner))
}

func (s store) isOwner(owner common.Address) bool {
	return owner != types.SentinelAddress && s.nextOwner(owner) != (common.Address{})
}

func (s store) owners() []common.Address {
	var out []common.Address
	current := s.nextOwner(types.SentinelAddress)
	for current != types.SentinelAddress && current != (common.Address{}) {
		out = append(out, current)
		current = s.nextOwner(current)
	}
	return out
}

func (s store) threshold() *big.Int {
	return s.uint(SlotThreshold)
}

func (s store) nextModule(module common.Address) common.Address {
	return s.address(ModuleSlot(module))
}

func (s store) modules() []common.Address {
	var out []common.Address
	current := s.nextModule(types.SentinelAddress)
	for current != types.SentinelAddress && current != (common.Address{}) {
		out = append(out, current)
		current = s.nextModule(current)
	}
	return out
}

func (s store) hashApproved(owner common.Address, hash common.Hash) bool {
	return s.f.GetState(ApprovedHashSlot(owner, hash)) != (common.Hash{})
}

func (s store) messageSigned(hash common.Hash) bool {
	return s.f.GetState(SignedMessageSlot(hash)) != (common.Hash{})
}
