package core

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"mintgate/native/split"
	"mintgate/native/voucher"
	"mintgate/storage"
)

const testChainID = uint64(187001)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func addrOf(key *ecdsa.PrivateKey) [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.PubkeyToAddress(key.PublicKey).Bytes())
	return addr
}

type fixture struct {
	node   *Node
	issuer *ecdsa.PrivateKey
	admin  [20]byte
	buyer  [20]byte
	payeeA [20]byte
	payeeB [20]byte
	vault  [20]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })

	issuer, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate issuer key: %v", err)
	}
	f := &fixture{
		issuer: issuer,
		admin:  testAddr(0x01),
		buyer:  testAddr(0x02),
		payeeA: testAddr(0xA1),
		payeeB: testAddr(0xA2),
		vault:  testAddr(0xEE),
	}
	f.node = NewNode(db, testChainID, testAddr(0xC0), f.vault)

	st := f.node.State()
	issuerAddr := addrOf(issuer)
	if err := st.GrantRole(voucher.RoleIssuer, issuerAddr[:]); err != nil {
		t.Fatalf("grant issuer: %v", err)
	}
	if err := st.GrantRole(split.RoleSplitAdmin, f.admin[:]); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if err := st.SetPoolPayees(split.PoolPrimary.String(), [][20]byte{f.payeeA, f.payeeB}); err != nil {
		t.Fatalf("seed payees: %v", err)
	}
	if err := st.SetPoolShare(split.PoolPrimary.String(), f.payeeA, 60); err != nil {
		t.Fatalf("seed share: %v", err)
	}
	if err := st.SetPoolShare(split.PoolPrimary.String(), f.payeeB, 40); err != nil {
		t.Fatalf("seed share: %v", err)
	}
	if err := st.SetBalance(f.buyer, big.NewInt(10_000)); err != nil {
		t.Fatalf("fund buyer: %v", err)
	}
	if err := st.Commit(); err != nil {
		t.Fatalf("commit seed state: %v", err)
	}
	return f
}

func (f *fixture) purchaseVoucher(t *testing.T, price int64, nonce uint64) *voucher.PurchaseVoucher {
	t.Helper()
	v := &voucher.PurchaseVoucher{
		Price:  big.NewInt(price),
		Data:   "listing-1",
		Wallet: f.buyer,
		Target: testAddr(0xD0),
	}
	digest := v.Hash(testChainID, testAddr(0xC0), nonce)
	sig, err := ethcrypto.Sign(accounts.TextHash(digest), f.issuer)
	if err != nil {
		t.Fatalf("sign voucher: %v", err)
	}
	v.Signature = sig
	return v
}

func TestPurchaseRedemptionSettlesPrimaryPool(t *testing.T) {
	f := newFixture(t)
	v := f.purchaseVoucher(t, 101, 0)

	if err := f.node.RedeemPurchaseVoucher(f.buyer, v, big.NewInt(101)); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	balA, err := f.node.Balance(f.payeeA)
	if err != nil {
		t.Fatalf("balance A: %v", err)
	}
	if balA.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("payee A balance %s, want 60", balA)
	}
	balB, err := f.node.Balance(f.payeeB)
	if err != nil {
		t.Fatalf("balance B: %v", err)
	}
	if balB.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("payee B balance %s, want 40", balB)
	}
	// Truncation dust stays in the vault.
	vaultBal, err := f.node.Balance(f.vault)
	if err != nil {
		t.Fatalf("vault balance: %v", err)
	}
	if vaultBal.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("vault balance %s, want 1", vaultBal)
	}
	nonce, err := f.node.CurrentNonce(f.buyer)
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	if nonce != 1 {
		t.Fatalf("nonce %d, want 1", nonce)
	}
}

func TestPurchaseReplayRejected(t *testing.T) {
	f := newFixture(t)
	v := f.purchaseVoucher(t, 100, 0)

	if err := f.node.RedeemPurchaseVoucher(f.buyer, v, big.NewInt(100)); err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	err := f.node.RedeemPurchaseVoucher(f.buyer, v, big.NewInt(100))
	if !errors.Is(err, voucher.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on replay, got %v", err)
	}
}

func TestFailedRedemptionRollsBack(t *testing.T) {
	f := newFixture(t)
	// Priced beyond the buyer's funded balance: the caller-to-vault transfer
	// fails after the nonce has been staged, and the whole call must revert.
	v := f.purchaseVoucher(t, 50_000, 0)

	err := f.node.RedeemPurchaseVoucher(f.buyer, v, big.NewInt(50_000))
	if !errors.Is(err, split.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	nonce, nonceErr := f.node.CurrentNonce(f.buyer)
	if nonceErr != nil {
		t.Fatalf("nonce: %v", nonceErr)
	}
	if nonce != 0 {
		t.Fatalf("failed redemption must not advance nonce, got %d", nonce)
	}
	balA, balErr := f.node.Balance(f.payeeA)
	if balErr != nil {
		t.Fatalf("balance: %v", balErr)
	}
	if balA.Sign() != 0 {
		t.Fatalf("no payout may persist after rollback, got %s", balA)
	}
	buyerBal, balErr := f.node.Balance(f.buyer)
	if balErr != nil {
		t.Fatalf("balance: %v", balErr)
	}
	if buyerBal.Cmp(big.NewInt(10_000)) != 0 {
		t.Fatalf("buyer balance must be untouched, got %s", buyerBal)
	}

	// A correctly funded retry with the same nonce still works.
	retry := f.purchaseVoucher(t, 100, 0)
	if err := f.node.RedeemPurchaseVoucher(f.buyer, retry, big.NewInt(100)); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestUpdatePoolPayeesAndQueries(t *testing.T) {
	f := newFixture(t)
	c := testAddr(0xA3)

	err := f.node.UpdatePoolPayees(f.admin, split.PoolPrimary, [][20]byte{f.payeeA}, [][20]byte{c}, []uint64{25})
	if err != nil {
		t.Fatalf("update payees: %v", err)
	}
	payees, err := f.node.ListPayees(split.PoolPrimary)
	if err != nil {
		t.Fatalf("list payees: %v", err)
	}
	if len(payees) != 2 || payees[0] != f.payeeB || payees[1] != c {
		t.Fatalf("unexpected payees: %x", payees)
	}
	shares, err := f.node.SharesOf(split.PoolPrimary, [][20]byte{f.payeeA, f.payeeB, c})
	if err != nil {
		t.Fatalf("shares of: %v", err)
	}
	if shares[0] != 0 || shares[1] != 40 || shares[2] != 25 {
		t.Fatalf("unexpected shares: %v", shares)
	}

	// A failed batch leaves the registry untouched.
	err = f.node.UpdatePoolPayees(f.admin, split.PoolPrimary, nil, [][20]byte{f.payeeB}, []uint64{10})
	if !errors.Is(err, split.ErrDuplicatePayee) {
		t.Fatalf("expected ErrDuplicatePayee, got %v", err)
	}
	payees, err = f.node.ListPayees(split.PoolPrimary)
	if err != nil {
		t.Fatalf("list payees: %v", err)
	}
	if len(payees) != 2 {
		t.Fatalf("failed batch must not mutate the pool")
	}
}

func TestSecondaryPoolDistribution(t *testing.T) {
	f := newFixture(t)
	st := f.node.State()
	reseller := testAddr(0x31)
	if err := st.SetPoolPayees(split.PoolSecondary.String(), [][20]byte{f.payeeA}); err != nil {
		t.Fatalf("seed secondary: %v", err)
	}
	if err := st.SetPoolShare(split.PoolSecondary.String(), f.payeeA, 100); err != nil {
		t.Fatalf("seed secondary share: %v", err)
	}
	if err := st.SetBalance(reseller, big.NewInt(500)); err != nil {
		t.Fatalf("fund reseller: %v", err)
	}
	if err := st.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := f.node.DistributePool(reseller, split.PoolSecondary, big.NewInt(500)); err != nil {
		t.Fatalf("distribute: %v", err)
	}
	balA, err := f.node.Balance(f.payeeA)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balA.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("payee A balance %s, want 500", balA)
	}
}

func TestItemVoucherEndToEnd(t *testing.T) {
	f := newFixture(t)
	st := f.node.State()
	issuerAddr := addrOf(f.issuer)
	if err := st.SetItemBalance(issuerAddr, 7, big.NewInt(5)); err != nil {
		t.Fatalf("seed items: %v", err)
	}
	if err := st.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	v := &voucher.ItemClaimVoucher{
		Items:   []uint64{7},
		Amounts: []*big.Int{big.NewInt(2)},
		Data:    []byte("drop-1"),
	}
	digest := v.Hash(testChainID, testAddr(0xC0))
	sig, err := ethcrypto.Sign(accounts.TextHash(digest), f.issuer)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	v.Signature = sig

	signer, err := f.node.RedeemItemVoucher(f.buyer, v)
	if err != nil {
		t.Fatalf("redeem item voucher: %v", err)
	}
	if signer != issuerAddr {
		t.Fatalf("signer mismatch: %x", signer)
	}
	balance, err := f.node.ItemBalance(f.buyer, 7)
	if err != nil {
		t.Fatalf("item balance: %v", err)
	}
	if balance.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("buyer item balance %s, want 2", balance)
	}
}
