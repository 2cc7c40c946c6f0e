package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"mintgate/storage"
)

// Manager provides typed access to engine state over a raw key-value store.
// Writes accumulate in an overlay until Commit flushes them, so a failed
// operation can discard every mutation it staged with Reset. This gives each
// top-level call all-or-nothing semantics without the backend needing
// transactions of its own.
type Manager struct {
	db    storage.Database
	dirty map[string][]byte
	gone  map[string]struct{}
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:    db,
		dirty: make(map[string][]byte),
		gone:  make(map[string]struct{}),
	}
}

var errNilManager = errors.New("state: manager not configured")

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, errNilManager
	}
	if _, deleted := m.gone[string(key)]; deleted {
		return nil, false, nil
	}
	if val, ok := m.dirty[string(key)]; ok {
		return append([]byte(nil), val...), true, nil
	}
	val, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (m *Manager) put(key []byte, val []byte) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	delete(m.gone, string(key))
	m.dirty[string(key)] = append([]byte(nil), val...)
	return nil
}

func (m *Manager) del(key []byte) error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	delete(m.dirty, string(key))
	m.gone[string(key)] = struct{}{}
	return nil
}

// Commit flushes staged writes and deletions to the backing store. The
// overlay is cleared on success; a partial flush error leaves the store in an
// undefined state and should be treated as fatal by the caller.
func (m *Manager) Commit() error {
	if m == nil || m.db == nil {
		return errNilManager
	}
	for key := range m.gone {
		if err := m.db.Delete([]byte(key)); err != nil {
			return fmt.Errorf("state: delete %q: %w", key, err)
		}
	}
	for key, val := range m.dirty {
		if err := m.db.Put([]byte(key), val); err != nil {
			return fmt.Errorf("state: put %q: %w", key, err)
		}
	}
	m.dirty = make(map[string][]byte)
	m.gone = make(map[string]struct{})
	return nil
}

// Reset discards all staged writes and deletions.
func (m *Manager) Reset() {
	if m == nil {
		return
	}
	m.dirty = make(map[string][]byte)
	m.gone = make(map[string]struct{})
}

// --- Genesis marker ---

var genesisDoneKey = []byte("genesis/done")

// Initialized reports whether genesis state has been applied to this store.
func (m *Manager) Initialized() (bool, error) {
	_, ok, err := m.get(genesisDoneKey)
	return ok, err
}

// SetInitialized marks the store as genesis-initialized.
func (m *Manager) SetInitialized() error {
	return m.put(genesisDoneKey, []byte{1})
}

// --- Roles ---

// HasRole reports whether the address holds the named role.
func (m *Manager) HasRole(role string, addr []byte) bool {
	val, ok, err := m.get(roleKey(role, addr))
	if err != nil || !ok {
		return false
	}
	return len(val) == 1 && val[0] == 1
}

// GrantRole assigns the named role to the address.
func (m *Manager) GrantRole(role string, addr []byte) error {
	return m.put(roleKey(role, addr), []byte{1})
}

// RevokeRole removes the named role from the address.
func (m *Manager) RevokeRole(role string, addr []byte) error {
	return m.del(roleKey(role, addr))
}

// --- Voucher nonces ---

// VoucherNonce returns the redeemer's current purchase-voucher nonce. Unknown
// addresses start at zero.
func (m *Manager) VoucherNonce(addr [20]byte) (uint64, error) {
	val, ok, err := m.get(nonceKey(addr))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("state: corrupt nonce record for %x", addr)
	}
	return binary.BigEndian.Uint64(val), nil
}

// SetVoucherNonce overwrites the redeemer's purchase-voucher nonce.
func (m *Manager) SetVoucherNonce(addr [20]byte, nonce uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, nonce)
	return m.put(nonceKey(addr), buf)
}
