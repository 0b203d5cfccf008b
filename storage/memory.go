package storage

import (
	"sync"

	"github.com/ipfs/go-cid"

	"xdao.co/feereg/contentid"
)

// MemoryStore is an in-process Store.
//
// It is the default journal backing for embedded registries and for tests.
// Contents do not survive the process.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[cid.Cid][]byte)}
}

func (m *MemoryStore) Put(bytes []byte) (cid.Cid, error) {
	id, err := contentid.ForBytes(bytes)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.objects[id]; ok {
		if string(existing) != string(bytes) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}
	stored := make([]byte, len(bytes))
	copy(stored, bytes)
	m.objects[id] = stored
	return id, nil
}

func (m *MemoryStore) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	m.mu.RLock()
	b, ok := m.objects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *MemoryStore) Has(id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	m.mu.RLock()
	_, ok := m.objects[id]
	m.mu.RUnlock()
	return ok
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
