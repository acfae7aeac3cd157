package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type journalEntry interface {
	revert(s *StateDB)
}

type journal struct {
	entries []journalEntry
}

func (j *journal) append(e journalEntry) {
	j.entries = append(j.entries, e)
}

func (j *journal) length() int {
	return len(j.entries)
}

func (j *journal) revertTo(s *StateDB, id int) {
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:id]
}

type storageChange struct {
	key      storageKey
	prev     common.Hash
	wasDirty bool
}

func (c storageChange) revert(s *StateDB) {
	s.storage[c.key] = c.prev
	if !c.wasDirty {
		delete(s.dirtyStorage, c.key)
	}
}

type balanceChange struct {
	account  common.Address
	prev     *big.Int
	wasDirty bool
}

func (c balanceChange) revert(s *StateDB) {
	s.balances[c.account] = c.prev
	if !c.wasDirty {
		delete(s.dirtyBalances, c.account)
	}
}

type slotAccess struct {
	key storageKey
}

func (c slotAccess) revert(s *StateDB) {
	delete(s.warmSlots, c.key)
}

type addressAccess struct {
	account common.Address
}

func (c addressAccess) revert(s *StateDB) {
	delete(s.warmAddresses, c.account)
}
