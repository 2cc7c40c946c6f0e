package split

import (
	"fmt"
	"math/big"

	"mintgate/core/events"
)

type registryState interface {
	HasRole(role string, addr []byte) bool
	PoolPayees(pool string) ([][20]byte, error)
	SetPoolPayees(pool string, payees [][20]byte) error
	PoolShare(pool string, addr [20]byte) (uint64, error)
	SetPoolShare(pool string, addr [20]byte, share uint64) error
	DeletePoolShare(pool string, addr [20]byte) error
	Royalty() ([20]byte, uint8, bool, error)
	SetRoyalty(receiver [20]byte, percent uint8) error
}

// Registry manages the payee sets and share weights of the primary and
// secondary pools, plus the royalty quote configuration. Set membership and
// non-zero weight are kept in lock-step: an address appears in a pool's payee
// list iff its recorded share is positive.
type Registry struct {
	st      registryState
	emitter events.Emitter
}

// NewRegistry creates a registry backed by the provided state manager.
func NewRegistry(st registryState) *Registry {
	return &Registry{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) emit(event events.Event) {
	if r == nil || r.emitter == nil {
		return
	}
	r.emitter.Emit(event)
}

func (r *Registry) authorize(caller [20]byte) error {
	if !r.st.HasRole(RoleSplitAdmin, caller[:]) {
		return ErrUnauthorized
	}
	return nil
}

// AddPayee registers a payee with a positive share weight in the pool. The
// caller must hold the split admin role.
func (r *Registry) AddPayee(caller [20]byte, pool Pool, payee [20]byte, share uint64) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	return r.addPayee(pool, payee, share)
}

func (r *Registry) addPayee(pool Pool, payee [20]byte, share uint64) error {
	if !pool.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPool, pool)
	}
	if payee == ([20]byte{}) {
		return ErrZeroAddress
	}
	if share == 0 {
		return ErrZeroShare
	}
	existing, err := r.st.PoolShare(pool.String(), payee)
	if err != nil {
		return err
	}
	if existing != 0 {
		return fmt.Errorf("%w: %x in pool %s", ErrDuplicatePayee, payee, pool)
	}
	payees, err := r.st.PoolPayees(pool.String())
	if err != nil {
		return err
	}
	payees = append(payees, payee)
	if err := r.st.SetPoolPayees(pool.String(), payees); err != nil {
		return err
	}
	if err := r.st.SetPoolShare(pool.String(), payee, share); err != nil {
		return err
	}
	r.emit(events.SplitPayeeAdded{Pool: pool.String(), Payee: payee, Share: share})
	return nil
}

// RemovePayee deletes a payee from the pool. The caller must hold the split
// admin role.
func (r *Registry) RemovePayee(caller [20]byte, pool Pool, payee [20]byte) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	return r.removePayee(pool, payee)
}

func (r *Registry) removePayee(pool Pool, payee [20]byte) error {
	if !pool.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPool, pool)
	}
	share, err := r.st.PoolShare(pool.String(), payee)
	if err != nil {
		return err
	}
	if share == 0 {
		return fmt.Errorf("%w: %x in pool %s", ErrUnknownPayee, payee, pool)
	}
	payees, err := r.st.PoolPayees(pool.String())
	if err != nil {
		return err
	}
	filtered := make([][20]byte, 0, len(payees))
	for _, addr := range payees {
		if addr != payee {
			filtered = append(filtered, addr)
		}
	}
	if err := r.st.SetPoolPayees(pool.String(), filtered); err != nil {
		return err
	}
	if err := r.st.DeletePoolShare(pool.String(), payee); err != nil {
		return err
	}
	r.emit(events.SplitPayeeRemoved{Pool: pool.String(), Payee: payee})
	return nil
}

// UpdatePayees applies a batch of removals followed by additions in one call.
// Adds and shares are parallel slices. Validation failures surface the first
// offending entry; the caller is expected to run the batch inside a state
// overlay so a failure discards the partial mutation.
func (r *Registry) UpdatePayees(caller [20]byte, pool Pool, removals [][20]byte, adds [][20]byte, shares []uint64) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	if len(adds) != len(shares) {
		return ErrShapeMismatch
	}
	for _, payee := range removals {
		if err := r.removePayee(pool, payee); err != nil {
			return err
		}
	}
	for i, payee := range adds {
		if err := r.addPayee(pool, payee, shares[i]); err != nil {
			return err
		}
	}
	return nil
}

// Payees returns the pool's payee addresses in deterministic enumeration
// order.
func (r *Registry) Payees(pool Pool) ([][20]byte, error) {
	if !pool.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPool, pool)
	}
	return r.st.PoolPayees(pool.String())
}

// SharesOf returns the share weights for the supplied addresses in parallel
// order. Addresses absent from the pool report zero.
func (r *Registry) SharesOf(pool Pool, addrs [][20]byte) ([]uint64, error) {
	if !pool.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPool, pool)
	}
	shares := make([]uint64, len(addrs))
	for i, addr := range addrs {
		share, err := r.st.PoolShare(pool.String(), addr)
		if err != nil {
			return nil, err
		}
		shares[i] = share
	}
	return shares, nil
}

// SetRoyaltyConfig updates the royalty quote. The caller must hold the split
// admin role; percent is capped at the share basis.
func (r *Registry) SetRoyaltyConfig(caller [20]byte, receiver [20]byte, percent uint8) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	if receiver == ([20]byte{}) {
		return ErrZeroAddress
	}
	if percent > ShareBasis {
		return fmt.Errorf("%w: %d", ErrRoyaltyPercent, percent)
	}
	if err := r.st.SetRoyalty(receiver, percent); err != nil {
		return err
	}
	r.emit(events.SplitRoyaltyUpdated{Receiver: receiver, Percent: percent})
	return nil
}

// RoyaltyInfo quotes the royalty owed on a sale price. It is a pure
// percentage calculation; no funds move through this path. An unset
// configuration quotes a zero receiver and zero amount.
func (r *Registry) RoyaltyInfo(salePrice *big.Int) ([20]byte, *big.Int, error) {
	if salePrice == nil || salePrice.Sign() < 0 {
		return [20]byte{}, nil, ErrInvalidAmount
	}
	receiver, percent, ok, err := r.st.Royalty()
	if err != nil {
		return [20]byte{}, nil, err
	}
	if !ok {
		return [20]byte{}, big.NewInt(0), nil
	}
	amount := new(big.Int).Mul(salePrice, new(big.Int).SetUint64(uint64(percent)))
	amount.Div(amount, big.NewInt(ShareBasis))
	return receiver, amount, nil
}
