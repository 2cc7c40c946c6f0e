package voucher

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RecoverSigner returns the address whose private key produced the signature
// over the signed-message wrapping of digest. The digest is first prefixed
// per the EIP-191 personal-sign convention (accounts.TextHash), matching what
// off-system issuers produce with standard wallet tooling.
//
// A signature that is the wrong length or fails point recovery reports
// ErrMalformedSignature; a structurally valid signature from the wrong key
// recovers cleanly and is only rejected later by the authorization check.
func RecoverSigner(digest []byte, sig []byte) ([20]byte, error) {
	if len(sig) != 65 {
		return [20]byte{}, fmt.Errorf("%w: expected 65 bytes, got %d", ErrMalformedSignature, len(sig))
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return [20]byte{}, fmt.Errorf("%w: invalid recovery id", ErrMalformedSignature)
	}
	pubKey, err := ethcrypto.SigToPub(accounts.TextHash(digest), normalized)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	recovered := ethcrypto.PubkeyToAddress(*pubKey)
	var signer [20]byte
	copy(signer[:], recovered.Bytes())
	return signer, nil
}
