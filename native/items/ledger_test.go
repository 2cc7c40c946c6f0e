package items

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
)

type mockState struct {
	balances map[string]*big.Int
}

func newMockState() *mockState {
	return &mockState{balances: make(map[string]*big.Int)}
}

func key(addr [20]byte, id uint64) string {
	return fmt.Sprintf("%x/%d", addr, id)
}

func (m *mockState) ItemBalance(addr [20]byte, id uint64) (*big.Int, error) {
	bal, ok := m.balances[key(addr, id)]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (m *mockState) SetItemBalance(addr [20]byte, id uint64, balance *big.Int) error {
	m.balances[key(addr, id)] = new(big.Int).Set(balance)
	return nil
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestTransferMovesBatch(t *testing.T) {
	st := newMockState()
	ledger := NewLedger(st)
	seller, buyer := testAddr(0x01), testAddr(0x02)
	if err := ledger.Mint(seller, 7, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Mint(seller, 8, big.NewInt(4)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	err := ledger.Transfer(seller, buyer, []uint64{7, 8}, []*big.Int{big.NewInt(3), big.NewInt(4)})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	got, _ := ledger.Balance(buyer, 7)
	if got.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("buyer item 7 balance %s, want 3", got)
	}
	got, _ = ledger.Balance(seller, 8)
	if got.Sign() != 0 {
		t.Fatalf("seller item 8 balance %s, want 0", got)
	}
}

func TestTransferInsufficient(t *testing.T) {
	st := newMockState()
	ledger := NewLedger(st)
	seller, buyer := testAddr(0x01), testAddr(0x02)
	if err := ledger.Mint(seller, 7, big.NewInt(1)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	err := ledger.Transfer(seller, buyer, []uint64{7}, []*big.Int{big.NewInt(2)})
	if !errors.Is(err, ErrInsufficientItem) {
		t.Fatalf("expected ErrInsufficientItem, got %v", err)
	}
}

func TestTransferEmptyBatch(t *testing.T) {
	ledger := NewLedger(newMockState())
	if err := ledger.Transfer(testAddr(0x01), testAddr(0x02), nil, nil); err != nil {
		t.Fatalf("empty batch must be a no-op: %v", err)
	}
}

func TestTransferLengthMismatch(t *testing.T) {
	ledger := NewLedger(newMockState())
	err := ledger.Transfer(testAddr(0x01), testAddr(0x02), []uint64{1}, nil)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}
