package ledger

import (
	"fmt"

	"github.com/SipengXie/zipline/core/types"
)

type journalEntry struct {
	key  types.Pubkey
	prev *Account
}

// State is the working set of accounts for the transaction being processed.
// Every mutation is journaled so a failed transaction can be rolled back
// to a snapshot; committed changes are flushed to the store.
type State struct {
	store    Store
	accounts map[types.Pubkey]*Account
	dirty    map[types.Pubkey]struct{}
	journal  []journalEntry
}

func NewState(store Store) *State {
	return &State{
		store:    store,
		accounts: make(map[types.Pubkey]*Account),
		dirty:    make(map[types.Pubkey]struct{}),
	}
}

func (s *State) load(key types.Pubkey) (*Account, error) {
	if acc, ok := s.accounts[key]; ok {
		return acc, nil
	}
	acc, err := s.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", key, err)
	}
	if acc == nil {
		acc = &Account{Owner: types.SystemProgramID}
	}
	s.accounts[key] = acc
	return acc, nil
}

// GetAccount returns a copy of the account; unknown keys read as empty system
// accounts.
func (s *State) GetAccount(key types.Pubkey) (*Account, error) {
	acc, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return acc.Copy(), nil
}

// SetAccount replaces the account stored under key.
func (s *State) SetAccount(key types.Pubkey, acc *Account) error {
	prev, err := s.load(key)
	if err != nil {
		return err
	}
	s.journal = append(s.journal, journalEntry{key: key, prev: prev})
	s.accounts[key] = acc.Copy()
	s.dirty[key] = struct{}{}
	return nil
}

func (s *State) GetBalance(key types.Pubkey) (uint64, error) {
	acc, err := s.load(key)
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// Snapshot returns an identifier for the current revision of the state.
func (s *State) Snapshot() int {
	return len(s.journal)
}

// RevertToSnapshot undoes every change made since the given snapshot.
func (s *State) RevertToSnapshot(id int) {
	if id < 0 || id > len(s.journal) {
		panic(fmt.Sprintf("revision id %v cannot be reverted", id))
	}
	for i := len(s.journal) - 1; i >= id; i-- {
		e := s.journal[i]
		s.accounts[e.key] = e.prev
	}
	s.journal = s.journal[:id]
}

// Commit flushes every account changed since the last commit to the store and
// resets the journal.
func (s *State) Commit() error {
	if len(s.dirty) == 0 {
		s.journal = s.journal[:0]
		return nil
	}
	changes := make(map[types.Pubkey]*Account, len(s.dirty))
	for key := range s.dirty {
		acc := s.accounts[key]
		if acc.InUse() || acc.Executable {
			changes[key] = acc
		} else {
			// empty system accounts are garbage collected
			changes[key] = nil
		}
	}
	if err := s.store.Put(changes); err != nil {
		return err
	}
	s.dirty = make(map[types.Pubkey]struct{})
	s.journal = s.journal[:0]
	return nil
}

// Discard drops every uncommitted change.
func (s *State) Discard() {
	s.RevertToSnapshot(0)
	s.dirty = make(map[types.Pubkey]struct{})
}
