package voucher

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Domain tags versioning the two voucher digests. Bumping a tag invalidates
// every outstanding signature of that kind.
const (
	ClaimDomainV1    = "MINTGATE_CLAIM_VOUCHER_V1"
	PurchaseDomainV1 = "MINTGATE_PURCHASE_VOUCHER_V1"
)

// ItemClaimVoucher authorises the holder to pull the listed catalog items
// from the signer. Items and Amounts are parallel slices; Data is opaque
// issuer-defined bytes. The digest carries no nonce, so single-use semantics
// must be encoded by the issuer into Data if desired.
type ItemClaimVoucher struct {
	Items     []uint64
	Amounts   []*big.Int
	Data      []byte
	Signature []byte
}

// PurchaseVoucher authorises a specific wallet to buy at a fixed price. The
// digest binds the redeemer's current nonce, so each successful redemption
// invalidates every voucher issued against the older nonce.
type PurchaseVoucher struct {
	Price     *big.Int
	Data      string
	Wallet    [20]byte
	Target    [20]byte
	Signature []byte
}

// Hash builds the canonical digest signed by the issuer for an item claim.
//
// The encoding is a keccak-256 over a pipe-delimited payload and must be
// reproduced byte-for-byte by off-system signers:
//
//	CLAIM_DOMAIN|chain=<dec>|contract=<hex20>|items=<dec,...>|amounts=<dec,...>|data=<hex>
//
// Binding the chain identifier and executing contract address prevents the
// same signature from being replayed against another deployment.
func (v ItemClaimVoucher) Hash(chainID uint64, contract [20]byte) []byte {
	itemParts := make([]string, len(v.Items))
	for i, id := range v.Items {
		itemParts[i] = fmt.Sprintf("%d", id)
	}
	amountParts := make([]string, len(v.Amounts))
	for i, amount := range v.Amounts {
		if amount == nil {
			amountParts[i] = "0"
			continue
		}
		amountParts[i] = amount.String()
	}
	payload := fmt.Sprintf("%s|chain=%d|contract=%s|items=%s|amounts=%s|data=%s",
		ClaimDomainV1,
		chainID,
		hex.EncodeToString(contract[:]),
		strings.Join(itemParts, ","),
		strings.Join(amountParts, ","),
		hex.EncodeToString(v.Data),
	)
	return ethcrypto.Keccak256([]byte(payload))
}

// Hash builds the canonical digest signed by the issuer for a purchase.
//
//	PURCHASE_DOMAIN|chain=<dec>|contract=<hex20>|price=<dec>|data=<hex>|wallet=<hex20>|target=<hex20>|nonce=<dec>
//
// The nonce is the redeemer's current counter at signing time; once the
// counter advances the digest can never be reproduced by the verifier again.
func (v PurchaseVoucher) Hash(chainID uint64, contract [20]byte, nonce uint64) []byte {
	priceStr := "0"
	if v.Price != nil {
		priceStr = v.Price.String()
	}
	payload := fmt.Sprintf("%s|chain=%d|contract=%s|price=%s|data=%s|wallet=%s|target=%s|nonce=%d",
		PurchaseDomainV1,
		chainID,
		hex.EncodeToString(contract[:]),
		priceStr,
		hex.EncodeToString([]byte(v.Data)),
		hex.EncodeToString(v.Wallet[:]),
		hex.EncodeToString(v.Target[:]),
		nonce,
	)
	return ethcrypto.Keccak256([]byte(payload))
}

type itemClaimJSON struct {
	Items     []uint64 `json:"items"`
	Amounts   []string `json:"amounts"`
	Data      string   `json:"data"`
	Signature string   `json:"signature"`
}

// MarshalJSON encodes the voucher into the representation consumed by
// gateway clients.
func (v ItemClaimVoucher) MarshalJSON() ([]byte, error) {
	amounts := make([]string, len(v.Amounts))
	for i, amount := range v.Amounts {
		if amount == nil {
			amounts[i] = "0"
			continue
		}
		amounts[i] = amount.String()
	}
	return json.Marshal(itemClaimJSON{
		Items:     v.Items,
		Amounts:   amounts,
		Data:      hex.EncodeToString(v.Data),
		Signature: hex.EncodeToString(v.Signature),
	})
}

// UnmarshalJSON decodes the on-wire representation into the canonical struct.
func (v *ItemClaimVoucher) UnmarshalJSON(data []byte) error {
	if v == nil {
		return fmt.Errorf("voucher: nil receiver")
	}
	var payload itemClaimJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	amounts := make([]*big.Int, len(payload.Amounts))
	for i, raw := range payload.Amounts {
		amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok {
			return fmt.Errorf("voucher: invalid amount %q", raw)
		}
		if amount.Sign() < 0 {
			return fmt.Errorf("voucher: amount must be non-negative")
		}
		amounts[i] = amount
	}
	aux, err := decodeHexField(payload.Data, "data")
	if err != nil {
		return err
	}
	sig, err := decodeHexField(payload.Signature, "signature")
	if err != nil {
		return err
	}
	*v = ItemClaimVoucher{
		Items:     payload.Items,
		Amounts:   amounts,
		Data:      aux,
		Signature: sig,
	}
	return nil
}

type purchaseJSON struct {
	Price     string `json:"price"`
	Data      string `json:"data"`
	Wallet    string `json:"wallet"`
	Target    string `json:"target"`
	Signature string `json:"signature"`
}

// MarshalJSON encodes the voucher into the representation consumed by
// gateway clients.
func (v PurchaseVoucher) MarshalJSON() ([]byte, error) {
	priceStr := "0"
	if v.Price != nil {
		priceStr = v.Price.String()
	}
	return json.Marshal(purchaseJSON{
		Price:     priceStr,
		Data:      v.Data,
		Wallet:    "0x" + hex.EncodeToString(v.Wallet[:]),
		Target:    "0x" + hex.EncodeToString(v.Target[:]),
		Signature: hex.EncodeToString(v.Signature),
	})
}

// UnmarshalJSON decodes the on-wire representation into the canonical struct.
func (v *PurchaseVoucher) UnmarshalJSON(data []byte) error {
	if v == nil {
		return fmt.Errorf("voucher: nil receiver")
	}
	var payload purchaseJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	priceStr := strings.TrimSpace(payload.Price)
	if priceStr == "" {
		return fmt.Errorf("voucher: price required")
	}
	price, ok := new(big.Int).SetString(priceStr, 10)
	if !ok {
		return fmt.Errorf("voucher: invalid price %q", payload.Price)
	}
	if price.Sign() < 0 {
		return fmt.Errorf("voucher: price must be non-negative")
	}
	wallet, err := decodeAddressField(payload.Wallet, "wallet")
	if err != nil {
		return err
	}
	target, err := decodeAddressField(payload.Target, "target")
	if err != nil {
		return err
	}
	sig, err := decodeHexField(payload.Signature, "signature")
	if err != nil {
		return err
	}
	*v = PurchaseVoucher{
		Price:     price,
		Data:      payload.Data,
		Wallet:    wallet,
		Target:    target,
		Signature: sig,
	}
	return nil
}

func decodeHexField(raw, field string) ([]byte, error) {
	normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
	if normalized == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("voucher: %s: %w", field, err)
	}
	return decoded, nil
}

func decodeAddressField(raw, field string) ([20]byte, error) {
	decoded, err := decodeHexField(raw, field)
	if err != nil {
		return [20]byte{}, err
	}
	if len(decoded) != 20 {
		return [20]byte{}, fmt.Errorf("voucher: %s: expected 20 bytes, got %d", field, len(decoded))
	}
	var addr [20]byte
	copy(addr[:], decoded)
	return addr, nil
}
