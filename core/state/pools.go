package state

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// PoolPayees returns the pool's payee addresses in insertion order. The order
// is the registry's deterministic enumeration order for getters and
// distribution snapshots.
func (m *Manager) PoolPayees(pool string) ([][20]byte, error) {
	val, ok, err := m.get(poolPayeesKey(pool))
	if err != nil {
		return nil, err
	}
	if !ok {
		return [][20]byte{}, nil
	}
	var encoded []string
	if err := json.Unmarshal(val, &encoded); err != nil {
		return nil, fmt.Errorf("state: decode pool %s payees: %w", pool, err)
	}
	payees := make([][20]byte, 0, len(encoded))
	for _, raw := range encoded {
		decoded, err := hex.DecodeString(raw)
		if err != nil || len(decoded) != 20 {
			return nil, fmt.Errorf("state: corrupt payee entry %q in pool %s", raw, pool)
		}
		var addr [20]byte
		copy(addr[:], decoded)
		payees = append(payees, addr)
	}
	return payees, nil
}

// SetPoolPayees overwrites the pool's ordered payee list.
func (m *Manager) SetPoolPayees(pool string, payees [][20]byte) error {
	encoded := make([]string, 0, len(payees))
	for _, addr := range payees {
		encoded = append(encoded, hex.EncodeToString(addr[:]))
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	return m.put(poolPayeesKey(pool), raw)
}

// PoolShare returns the payee's share weight in the pool, zero when absent.
func (m *Manager) PoolShare(pool string, addr [20]byte) (uint64, error) {
	val, ok, err := m.get(poolShareKey(pool, addr))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("state: corrupt share record for %x in pool %s", addr, pool)
	}
	return binary.BigEndian.Uint64(val), nil
}

// SetPoolShare records the payee's share weight in the pool.
func (m *Manager) SetPoolShare(pool string, addr [20]byte, share uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, share)
	return m.put(poolShareKey(pool, addr), buf)
}

// DeletePoolShare drops the payee's share record from the pool.
func (m *Manager) DeletePoolShare(pool string, addr [20]byte) error {
	return m.del(poolShareKey(pool, addr))
}

// RoyaltyRecord is the persisted royalty quote configuration.
type RoyaltyRecord struct {
	Receiver string `json:"receiver"`
	Percent  uint8  `json:"percent"`
}

// Royalty returns the configured royalty quote, reporting ok=false when none
// has been set.
func (m *Manager) Royalty() ([20]byte, uint8, bool, error) {
	val, ok, err := m.get(royaltyKey)
	if err != nil || !ok {
		return [20]byte{}, 0, false, err
	}
	var rec RoyaltyRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return [20]byte{}, 0, false, fmt.Errorf("state: decode royalty: %w", err)
	}
	decoded, err := hex.DecodeString(rec.Receiver)
	if err != nil || len(decoded) != 20 {
		return [20]byte{}, 0, false, fmt.Errorf("state: corrupt royalty receiver %q", rec.Receiver)
	}
	var receiver [20]byte
	copy(receiver[:], decoded)
	return receiver, rec.Percent, true, nil
}

// SetRoyalty persists the royalty quote configuration.
func (m *Manager) SetRoyalty(receiver [20]byte, percent uint8) error {
	raw, err := json.Marshal(RoyaltyRecord{
		Receiver: hex.EncodeToString(receiver[:]),
		Percent:  percent,
	})
	if err != nil {
		return err
	}
	return m.put(royaltyKey, raw)
}
