package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
)

// ErrInsufficientBalance is returned when a debit exceeds the account balance.
var ErrInsufficientBalance = errors.New("state: insufficient balance")

type accountRecord struct {
	Balance string `json:"balance"`
}

// Balance returns the currency balance for the address. Unknown accounts hold
// zero.
func (m *Manager) Balance(addr [20]byte) (*big.Int, error) {
	val, ok, err := m.get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	var rec accountRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("state: decode account %x: %w", addr, err)
	}
	balance, ok := new(big.Int).SetString(rec.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("state: corrupt balance for %x", addr)
	}
	return balance, nil
}

// SetBalance overwrites the currency balance for the address.
func (m *Manager) SetBalance(addr [20]byte, balance *big.Int) error {
	if balance == nil || balance.Sign() < 0 {
		return fmt.Errorf("state: balance must be non-negative")
	}
	raw, err := json.Marshal(accountRecord{Balance: balance.String()})
	if err != nil {
		return err
	}
	return m.put(accountKey(addr), raw)
}

// Credit adds the amount to the address balance.
func (m *Manager) Credit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: credit amount must be non-negative")
	}
	balance, err := m.Balance(addr)
	if err != nil {
		return err
	}
	return m.SetBalance(addr, new(big.Int).Add(balance, amount))
}

// Debit subtracts the amount from the address balance, failing with
// ErrInsufficientBalance when the account cannot cover it.
func (m *Manager) Debit(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: debit amount must be non-negative")
	}
	balance, err := m.Balance(addr)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	return m.SetBalance(addr, new(big.Int).Sub(balance, amount))
}

// Transfer moves amount between two accounts. A zero amount is a no-op.
func (m *Manager) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil {
		return fmt.Errorf("state: transfer amount required")
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative transfer amount")
	}
	if amount.Sign() == 0 {
		return nil
	}
	if err := m.Debit(from, amount); err != nil {
		return err
	}
	return m.Credit(to, amount)
}
