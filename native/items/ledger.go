package items

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrLengthMismatch   = errors.New("items: ids and amounts length mismatch")
	ErrInvalidAmount    = errors.New("items: amount must be non-negative")
	ErrInsufficientItem = errors.New("items: insufficient item balance")
)

type ledgerState interface {
	ItemBalance(addr [20]byte, id uint64) (*big.Int, error)
	SetItemBalance(addr [20]byte, id uint64, balance *big.Int) error
}

// Ledger is the catalog-item balance book the voucher redeemer instructs.
// It only moves balances; issuance policy lives with whoever seeds them.
type Ledger struct {
	st ledgerState
}

// NewLedger creates a ledger backed by the provided state manager.
func NewLedger(st ledgerState) *Ledger {
	return &Ledger{st: st}
}

// Mint credits newly issued items to the holder.
func (l *Ledger) Mint(to [20]byte, id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	balance, err := l.st.ItemBalance(to, id)
	if err != nil {
		return err
	}
	return l.st.SetItemBalance(to, id, new(big.Int).Add(balance, amount))
}

// Balance returns the holder's balance of one item identifier.
func (l *Ledger) Balance(addr [20]byte, id uint64) (*big.Int, error) {
	return l.st.ItemBalance(addr, id)
}

// Transfer moves the listed item quantities from one holder to another. The
// id and amount slices are parallel; an empty batch is a valid no-op. Entries
// are applied in order, so the caller is expected to run the batch inside a
// state overlay where a failure discards the partial movement.
func (l *Ledger) Transfer(from, to [20]byte, ids []uint64, amounts []*big.Int) error {
	if len(ids) != len(amounts) {
		return ErrLengthMismatch
	}
	for i, id := range ids {
		amount := amounts[i]
		if amount == nil || amount.Sign() < 0 {
			return ErrInvalidAmount
		}
		if amount.Sign() == 0 {
			continue
		}
		fromBalance, err := l.st.ItemBalance(from, id)
		if err != nil {
			return err
		}
		if fromBalance.Cmp(amount) < 0 {
			return fmt.Errorf("%w: id %d", ErrInsufficientItem, id)
		}
		toBalance, err := l.st.ItemBalance(to, id)
		if err != nil {
			return err
		}
		if err := l.st.SetItemBalance(from, id, new(big.Int).Sub(fromBalance, amount)); err != nil {
			return err
		}
		if err := l.st.SetItemBalance(to, id, new(big.Int).Add(toBalance, amount)); err != nil {
			return err
		}
	}
	return nil
}
