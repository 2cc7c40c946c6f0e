package split

import (
	"fmt"
	"math/big"

	"mintgate/core/events"
)

type distributorState interface {
	PoolPayees(pool string) ([][20]byte, error)
	PoolShare(pool string, addr [20]byte) (uint64, error)
	Transfer(from, to [20]byte, amount *big.Int) error
}

// Distributor settles an incoming payment across a pool's payees pro rata.
// Each payee receives floor(amount * share / ShareBasis); truncation dust
// stays with the payer. A distribution is all-or-nothing: the caller runs it
// inside a state overlay so any failed transfer discards every payout staged
// before it.
type Distributor struct {
	st      distributorState
	emitter events.Emitter
}

// NewDistributor creates a distributor backed by the provided state manager.
func NewDistributor(st distributorState) *Distributor {
	return &Distributor{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast settlements.
// Passing nil resets the emitter to a no-op implementation.
func (d *Distributor) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		d.emitter = events.NoopEmitter{}
		return
	}
	d.emitter = emitter
}

// Distribute pays each of the pool's payees their entitlement out of the
// payer's balance. The payee set and weights are snapshotted once before any
// transfer, so a mutation staged later in the same call cannot be observed
// mid-enumeration. A zero amount settles trivially without transfers.
func (d *Distributor) Distribute(pool Pool, payer [20]byte, amount *big.Int) error {
	if !pool.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPool, pool)
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	payees, err := d.st.PoolPayees(pool.String())
	if err != nil {
		return err
	}
	shares := make([]uint64, len(payees))
	for i, payee := range payees {
		share, err := d.st.PoolShare(pool.String(), payee)
		if err != nil {
			return err
		}
		shares[i] = share
	}

	basis := big.NewInt(ShareBasis)
	payouts := make([]*big.Int, len(payees))
	distributed := big.NewInt(0)
	for i, payee := range payees {
		payout := new(big.Int).Mul(amount, new(big.Int).SetUint64(shares[i]))
		payout.Div(payout, basis)
		payouts[i] = payout
		if payout.Sign() == 0 {
			continue
		}
		if err := d.st.Transfer(payer, payee, payout); err != nil {
			return fmt.Errorf("%w: payee %x: %v", ErrTransferFailed, payee, err)
		}
		distributed.Add(distributed, payout)
	}

	d.emit(events.SplitDistributed{
		Pool:     pool.String(),
		Amount:   new(big.Int).Set(amount),
		Payees:   payees,
		Payouts:  payouts,
		Residual: new(big.Int).Sub(amount, distributed),
	})
	return nil
}

func (d *Distributor) emit(event events.Event) {
	if d == nil || d.emitter == nil {
		return
	}
	d.emitter.Emit(event)
}
