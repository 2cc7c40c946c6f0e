package state

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// itemRecord maps item identifier -> decimal balance for one holder.
type itemRecord map[string]string

func (m *Manager) loadItems(addr [20]byte) (itemRecord, error) {
	val, ok, err := m.get(itemKey(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return itemRecord{}, nil
	}
	var rec itemRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("state: decode items %x: %w", addr, err)
	}
	return rec, nil
}

func (m *Manager) storeItems(addr [20]byte, rec itemRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return m.put(itemKey(addr), raw)
}

// ItemBalance returns the holder's balance of a single item identifier.
func (m *Manager) ItemBalance(addr [20]byte, id uint64) (*big.Int, error) {
	rec, err := m.loadItems(addr)
	if err != nil {
		return nil, err
	}
	raw, ok := rec[strconv.FormatUint(id, 10)]
	if !ok {
		return big.NewInt(0), nil
	}
	balance, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("state: corrupt item balance for %x id %d", addr, id)
	}
	return balance, nil
}

// SetItemBalance overwrites the holder's balance of a single item identifier.
// Zero balances drop the entry so holdings stay compact.
func (m *Manager) SetItemBalance(addr [20]byte, id uint64, balance *big.Int) error {
	if balance == nil || balance.Sign() < 0 {
		return fmt.Errorf("state: item balance must be non-negative")
	}
	rec, err := m.loadItems(addr)
	if err != nil {
		return err
	}
	key := strconv.FormatUint(id, 10)
	if balance.Sign() == 0 {
		delete(rec, key)
	} else {
		rec[key] = balance.String()
	}
	return m.storeItems(addr, rec)
}
