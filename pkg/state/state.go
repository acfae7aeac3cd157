// Package state keeps the storage slots and balances of every account living
// on the execution host. A StateDB spans exactly one persistence transaction:
// reads fall through to the transaction, writes stay in memory until Commit.
package state

import (
	"fmt"
	"math/big"

	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
)

const (
	prefixStorage = 's'
	prefixBalance = 'b'
)

type storageKey struct {
	account common.Address
	slot    common.Hash
}

// StateDB caches state read from a persistence transaction and journals every
// change so nested frames can roll back to a snapshot.
type StateDB struct {
	txn persistence.ITransaction

	storage       map[storageKey]common.Hash
	dirtyStorage  map[storageKey]struct{}
	balances      map[common.Address]*big.Int
	dirtyBalances map[common.Address]struct{}

	warmSlots     map[storageKey]struct{}
	warmAddresses map[common.Address]struct{}

	journal journal

	// dbErr is the first backend error; reads after it return zero values
	dbErr error
}

// New creates a StateDB over txn. The StateDB owns txn from here on.
func New(txn persistence.ITransaction) *StateDB {
	return &StateDB{
		txn:           txn,
		storage:       make(map[storageKey]common.Hash),
		dirtyStorage:  make(map[storageKey]struct{}),
		balances:      make(map[common.Address]*big.Int),
		dirtyBalances: make(map[common.Address]struct{}),
		warmSlots:     make(map[storageKey]struct{}),
		warmAddresses: make(map[common.Address]struct{}),
	}
}

// Error returns the first persistence error seen by this StateDB
func (s *StateDB) Error() error {
	return s.dbErr
}

func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

func storageDBKey(k storageKey) []byte {
	key := make([]byte, 0, 1+common.AddressLength+common.HashLength)
	key = append(key, prefixStorage)
	key = append(key, k.account.Bytes()...)
	return append(key, k.slot.Bytes()...)
}

func balanceDBKey(account common.Address) []byte {
	key := make([]byte, 0, 1+common.AddressLength)
	key = append(key, prefixBalance)
	return append(key, account.Bytes()...)
}

// GetState returns the value of slot in account's storage
func (s *StateDB) GetState(account common.Address, slot common.Hash) common.Hash {
	k := storageKey{account, slot}
	if v, ok := s.storage[k]; ok {
		return v
	}
	if s.dbErr != nil {
		return common.Hash{}
	}

	raw, err := s.txn.Get(storageDBKey(k))
	if err != nil {
		s.setError(fmt.Errorf("failed to load slot %s of %s: %w", slot.Hex(), account.Hex(), err))
		return common.Hash{}
	}
	v := common.BytesToHash(raw)
	s.storage[k] = v
	return v
}

// SetState writes value to slot in account's storage
func (s *StateDB) SetState(account common.Address, slot, value common.Hash) {
	k := storageKey{account, slot}
	prev := s.GetState(account, slot)
	_, wasDirty := s.dirtyStorage[k]

	s.journal.append(storageChange{key: k, prev: prev, wasDirty: wasDirty})
	s.storage[k] = value
	s.dirtyStorage[k] = struct{}{}
}

// GetBalance returns account's balance. The result must not be modified.
func (s *StateDB) GetBalance(account common.Address) *big.Int {
	if b, ok := s.balances[account]; ok {
		return b
	}
	if s.dbErr != nil {
		return new(big.Int)
	}

	raw, err := s.txn.Get(balanceDBKey(account))
	if err != nil {
		s.setError(fmt.Errorf("failed to load balance of %s: %w", account.Hex(), err))
		return new(big.Int)
	}
	b := new(big.Int).SetBytes(raw)
	s.balances[account] = b
	return b
}

func (s *StateDB) setBalance(account common.Address, amount *big.Int) {
	prev := s.GetBalance(account)
	_, wasDirty := s.dirtyBalances[account]

	s.journal.append(balanceChange{account: account, prev: prev, wasDirty: wasDirty})
	s.balances[account] = new(big.Int).Set(amount)
	s.dirtyBalances[account] = struct{}{}
}

// AddBalance credits amount to account
func (s *StateDB) AddBalance(account common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	s.setBalance(account, new(big.Int).Add(s.GetBalance(account), amount))
}

// SubBalance debits amount from account. Callers check funds with CanTransfer first.
func (s *StateDB) SubBalance(account common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	s.setBalance(account, new(big.Int).Sub(s.GetBalance(account), amount))
}

// CanTransfer reports whether from holds at least amount
func (s *StateDB) CanTransfer(from common.Address, amount *big.Int) bool {
	if amount == nil || amount.Sign() == 0 {
		return true
	}
	return s.GetBalance(from).Cmp(amount) >= 0
}

// Transfer moves amount from one account to another
func (s *StateDB) Transfer(from, to common.Address, amount *big.Int) {
	s.SubBalance(from, amount)
	s.AddBalance(to, amount)
}

// SlotWarm reports whether the slot was accessed in this StateDB. The first
// call for a slot returns false and marks it warm.
func (s *StateDB) SlotWarm(account common.Address, slot common.Hash) bool {
	k := storageKey{account, slot}
	if _, ok := s.warmSlots[k]; ok {
		return true
	}
	s.warmSlots[k] = struct{}{}
	s.journal.append(slotAccess{key: k})
	return false
}

// AddressWarm is SlotWarm for account access
func (s *StateDB) AddressWarm(account common.Address) bool {
	if _, ok := s.warmAddresses[account]; ok {
		return true
	}
	s.warmAddresses[account] = struct{}{}
	s.journal.append(addressAccess{account: account})
	return false
}

// Snapshot returns an identifier for the current revision
func (s *StateDB) Snapshot() int {
	return s.journal.length()
}

// RevertToSnapshot undoes every change made after the snapshot was taken
func (s *StateDB) RevertToSnapshot(id int) {
	if id < 0 || id > s.journal.length() {
		panic(fmt.Sprintf("revision id %d cannot be reverted (journal length %d)", id, s.journal.length()))
	}
	s.journal.revertTo(s, id)
}

// Commit flushes every dirty value into the transaction and commits it
func (s *StateDB) Commit() error {
	if s.dbErr != nil {
		s.txn.Discard()
		return s.dbErr
	}

	for k := range s.dirtyStorage {
		v := s.storage[k]
		var err error
		if v == (common.Hash{}) {
			err = s.txn.Delete(storageDBKey(k))
		} else {
			err = s.txn.Set(storageDBKey(k), v.Bytes())
		}
		if err != nil {
			s.txn.Discard()
			return fmt.Errorf("failed to flush slot %s of %s: %w", k.slot.Hex(), k.account.Hex(), err)
		}
	}

	for account := range s.dirtyBalances {
		b := s.balances[account]
		var err error
		if b.Sign() == 0 {
			err = s.txn.Delete(balanceDBKey(account))
		} else {
			err = s.txn.Set(balanceDBKey(account), b.Bytes())
		}
		if err != nil {
			s.txn.Discard()
			return fmt.Errorf("failed to flush balance of %s: %w", account.Hex(), err)
		}
	}

	if err := s.txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	s.reset()
	return nil
}

// Discard drops every change and releases the transaction
func (s *StateDB) Discard() {
	s.txn.Discard()
	s.reset()
}

func (s *StateDB) reset() {
	s.dirtyStorage = make(map[storageKey]struct{})
	s.dirtyBalances = make(map[common.Address]struct{})
	s.journal = journal{}
}
