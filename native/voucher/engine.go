package voucher

import (
	"errors"
	"fmt"
	"math/big"

	"mintgate/core/events"
)

// RoleIssuer marks the addresses trusted to sign vouchers. Authorization is
// issuer-identity based: a signer holding the role is trusted for every
// voucher they sign.
const RoleIssuer = "ROLE_VOUCHER_ISSUER"

var (
	errNilState   = errors.New("voucher engine: state not configured")
	errNilItems   = errors.New("voucher engine: item ledger not configured")
	errNilSettler = errors.New("voucher engine: settler not configured")
)

type engineState interface {
	HasRole(role string, addr []byte) bool
	VoucherNonce(addr [20]byte) (uint64, error)
	SetVoucherNonce(addr [20]byte, nonce uint64) error
}

// ItemMover is the capability the engine consumes from the item ledger.
type ItemMover interface {
	Transfer(from, to [20]byte, ids []uint64, amounts []*big.Int) error
}

// Settler routes a redeemer's accepted payment into settlement. The engine
// does not know about pools; the wiring decides where the funds land.
type Settler interface {
	Settle(payer [20]byte, amount *big.Int) error
}

// Engine orchestrates voucher redemption: domain hashing, signer recovery,
// authorization, replay-nonce bookkeeping and the resulting economic action.
// Callers run each redemption inside a state overlay so every mutation either
// commits as a whole or is discarded.
type Engine struct {
	state    engineState
	items    ItemMover
	settler  Settler
	emitter  events.Emitter
	chainID  uint64
	contract [20]byte
}

// NewEngine creates a voucher engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetItems configures the item ledger the engine instructs for claims.
func (e *Engine) SetItems(items ItemMover) { e.items = items }

// SetSettler configures where accepted purchase payments are routed.
func (e *Engine) SetSettler(settler Settler) { e.settler = settler }

// SetDomain binds the engine's digests to a chain identifier and executing
// contract address so signatures cannot be replayed across deployments.
func (e *Engine) SetDomain(chainID uint64, contract [20]byte) {
	e.chainID = chainID
	e.contract = contract
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

// RedeemItemClaim verifies an item-claim voucher and moves the listed items
// from the recovered signer to the caller. An empty item list is a valid
// no-op claim. The claim digest carries no nonce: reuse protection, if
// desired, is the issuer's responsibility via the opaque data field.
func (e *Engine) RedeemItemClaim(caller [20]byte, v *ItemClaimVoucher) ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, errNilState
	}
	if v == nil {
		return [20]byte{}, ErrNilVoucher
	}
	if len(v.Items) != len(v.Amounts) {
		return [20]byte{}, fmt.Errorf("%w: %d items, %d amounts", ErrItemsMismatch, len(v.Items), len(v.Amounts))
	}
	digest := v.Hash(e.chainID, e.contract)
	signer, err := RecoverSigner(digest, v.Signature)
	if err != nil {
		return [20]byte{}, err
	}
	if !e.state.HasRole(RoleIssuer, signer[:]) {
		return [20]byte{}, fmt.Errorf("%w: signer %x is not an issuer", ErrUnauthorized, signer)
	}
	if len(v.Items) > 0 {
		if e.items == nil {
			return [20]byte{}, errNilItems
		}
		if err := e.items.Transfer(signer, caller, v.Items, v.Amounts); err != nil {
			return [20]byte{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}
	e.emit(events.VoucherItemsClaimed{
		Signer:  signer,
		Claimer: caller,
		Items:   v.Items,
		Amounts: v.Amounts,
	})
	return signer, nil
}

// RedeemPurchase verifies a purchase voucher against the caller's current
// nonce, accepts the attached payment and routes it into settlement.
//
// The nonce is advanced before any funds move: a reentrant redemption
// triggered by a payee receiving its payout observes the incremented counter
// and can no longer reproduce the digest being consumed.
func (e *Engine) RedeemPurchase(caller [20]byte, v *PurchaseVoucher, payment *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if v == nil {
		return ErrNilVoucher
	}
	if v.Price == nil || v.Price.Sign() < 0 {
		return fmt.Errorf("voucher: price must be non-negative")
	}
	nonce, err := e.state.VoucherNonce(caller)
	if err != nil {
		return err
	}
	digest := v.Hash(e.chainID, e.contract, nonce)
	signer, err := RecoverSigner(digest, v.Signature)
	if err != nil {
		return err
	}
	if !e.state.HasRole(RoleIssuer, signer[:]) {
		return fmt.Errorf("%w: signer %x is not an issuer", ErrUnauthorized, signer)
	}
	if caller != v.Wallet {
		return fmt.Errorf("%w: caller is not the voucher wallet", ErrUnauthorized)
	}
	if payment == nil || payment.Cmp(v.Price) != 0 {
		return fmt.Errorf("%w: want %s", ErrPriceMismatch, v.Price)
	}
	if e.settler == nil {
		return errNilSettler
	}
	if err := e.state.SetVoucherNonce(caller, nonce+1); err != nil {
		return err
	}
	if err := e.settler.Settle(caller, payment); err != nil {
		return err
	}
	e.emit(events.VoucherSold{
		Wallet: v.Wallet,
		Target: v.Target,
		Data:   v.Data,
		Price:  new(big.Int).Set(v.Price),
	})
	return nil
}
