package voucher

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

func testContract(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func TestPurchaseHashBindsDomain(t *testing.T) {
	v := PurchaseVoucher{
		Price:  big.NewInt(1_000),
		Data:   "order-42",
		Wallet: testContract(0x11),
		Target: testContract(0x22),
	}
	base := v.Hash(1, testContract(0xA0), 0)

	if got := v.Hash(2, testContract(0xA0), 0); bytes.Equal(base, got) {
		t.Fatalf("digest must change with chain id")
	}
	if got := v.Hash(1, testContract(0xA1), 0); bytes.Equal(base, got) {
		t.Fatalf("digest must change with contract address")
	}
	if got := v.Hash(1, testContract(0xA0), 1); bytes.Equal(base, got) {
		t.Fatalf("digest must change with nonce")
	}
	changed := v
	changed.Price = big.NewInt(1_001)
	if got := changed.Hash(1, testContract(0xA0), 0); bytes.Equal(base, got) {
		t.Fatalf("digest must change with price")
	}
	if got := v.Hash(1, testContract(0xA0), 0); !bytes.Equal(base, got) {
		t.Fatalf("digest must be deterministic for identical inputs")
	}
}

func TestItemClaimHashBindsFields(t *testing.T) {
	v := ItemClaimVoucher{
		Items:   []uint64{1, 2},
		Amounts: []*big.Int{big.NewInt(3), big.NewInt(4)},
		Data:    []byte("batch-7"),
	}
	base := v.Hash(1, testContract(0xA0))

	changed := v
	changed.Items = []uint64{1, 3}
	if got := changed.Hash(1, testContract(0xA0)); bytes.Equal(base, got) {
		t.Fatalf("digest must change with item ids")
	}
	changed = v
	changed.Data = []byte("batch-8")
	if got := changed.Hash(1, testContract(0xA0)); bytes.Equal(base, got) {
		t.Fatalf("digest must change with aux data")
	}
	if got := v.Hash(1, testContract(0xA1)); bytes.Equal(base, got) {
		t.Fatalf("digest must change with contract address")
	}
}

func TestRecoverSigner(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	digest := ethcrypto.Keccak256([]byte("payload"))
	sig, err := ethcrypto.Sign(accounts.TextHash(digest), key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	signer, err := RecoverSigner(digest, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	want := ethcrypto.PubkeyToAddress(key.PublicKey)
	if !bytes.Equal(signer[:], want.Bytes()) {
		t.Fatalf("recovered %x, want %x", signer, want)
	}

	// Legacy 27/28 recovery ids must be accepted.
	legacy := append([]byte(nil), sig...)
	legacy[64] += 27
	signer, err = RecoverSigner(digest, legacy)
	if err != nil {
		t.Fatalf("recover legacy v: %v", err)
	}
	if !bytes.Equal(signer[:], want.Bytes()) {
		t.Fatalf("legacy recovery mismatch: %x", signer)
	}
}

func TestRecoverSignerMalformed(t *testing.T) {
	digest := ethcrypto.Keccak256([]byte("payload"))
	if _, err := RecoverSigner(digest, make([]byte, 64)); err == nil {
		t.Fatalf("expected error for short signature")
	} else if !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("expected ErrMalformedSignature, got %v", err)
	}
	bad := make([]byte, 65)
	bad[64] = 9
	if _, err := RecoverSigner(digest, bad); !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("expected ErrMalformedSignature for bad recovery id, got %v", err)
	}
}

func TestPurchaseVoucherJSONRoundTrip(t *testing.T) {
	v := PurchaseVoucher{
		Price:     big.NewInt(2_500),
		Data:      "listing-9",
		Wallet:    testContract(0x31),
		Target:    testContract(0x32),
		Signature: bytes.Repeat([]byte{0xAB}, 65),
	}
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded := new(PurchaseVoucher)
	if err := json.Unmarshal(raw, decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Price.Cmp(v.Price) != 0 || decoded.Wallet != v.Wallet || decoded.Target != v.Target || decoded.Data != v.Data {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	if !bytes.Equal(decoded.Signature, v.Signature) {
		t.Fatalf("signature mismatch after round trip")
	}
}
