package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/ethereum/go-ethereum/rlp"
	bolt "go.etcd.io/bbolt"

	"github.com/SipengXie/zipline/core/types"
)

var (
	accountsBucket = []byte("accounts")

	errStoreClosed = errors.New("store closed")
)

// Store persists committed accounts. A nil account in Put deletes the key.
type Store interface {
	Get(key types.Pubkey) (*Account, error)
	Put(changes map[types.Pubkey]*Account) error
	Close() error
}

// MemoryStore keeps accounts in a map. It is what tests and the default node
// use.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[types.Pubkey]*Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[types.Pubkey]*Account)}
}

func (m *MemoryStore) Get(key types.Pubkey) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[key]
	if !ok {
		return nil, nil
	}
	return acc.Copy(), nil
}

func (m *MemoryStore) Put(changes map[types.Pubkey]*Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, acc := range changes {
		if acc == nil {
			delete(m.accounts, key)
			continue
		}
		m.accounts[key] = acc.Copy()
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// BoltStore keeps rlp-encoded accounts in a single bolt bucket.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if needed) the account database at path.
func OpenBoltStore(path string, initialMmapSize datasize.ByteSize) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:         time.Second,
		InitialMmapSize: int(initialMmapSize.Bytes()),
	})
	if err != nil {
		return nil, fmt.Errorf("open account db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(accountsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(key types.Pubkey) (*Account, error) {
	if b.db == nil {
		return nil, errStoreClosed
	}
	var acc *Account
	err := b.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(accountsBucket).Get(key[:])
		if enc == nil {
			return nil
		}
		acc = new(Account)
		return rlp.DecodeBytes(enc, acc)
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (b *BoltStore) Put(changes map[types.Pubkey]*Account) error {
	if b.db == nil {
		return errStoreClosed
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(accountsBucket)
		for key, acc := range changes {
			// bolt keeps key slices until the tx ends
			k := append([]byte(nil), key[:]...)
			if acc == nil {
				if err := bucket.Delete(k); err != nil {
					return err
				}
				continue
			}
			enc, err := rlp.EncodeToBytes(acc)
			if err != nil {
				return err
			}
			if err := bucket.Put(k, enc); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BoltStore) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}
