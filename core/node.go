package core

import (
	"fmt"
	"math/big"
	"sync"

	"mintgate/core/events"
	"mintgate/core/state"
	"mintgate/native/items"
	"mintgate/native/split"
	"mintgate/native/voucher"
	"mintgate/storage"
)

// Node wires the engines over a shared state manager and serializes every
// mutating call. Calls run to completion against the manager's overlay and
// commit atomically; any error discards the staged mutations, so partially
// applied redemptions or distributions are never observable.
type Node struct {
	mu          sync.Mutex
	db          storage.Database
	state       *state.Manager
	vouchers    *voucher.Engine
	registry    *split.Registry
	distributor *split.Distributor
	items       *items.Ledger
	vault       [20]byte
}

// NewNode constructs a node over the database, binding voucher digests to the
// given chain identifier and contract address. The vault account buffers
// settlements: payments land there before distribution and truncation dust
// stays there.
func NewNode(db storage.Database, chainID uint64, contract, vault [20]byte) *Node {
	manager := state.NewManager(db)
	n := &Node{
		db:          db,
		state:       manager,
		registry:    split.NewRegistry(manager),
		distributor: split.NewDistributor(manager),
		items:       items.NewLedger(manager),
		vault:       vault,
	}
	engine := voucher.NewEngine()
	engine.SetState(manager)
	engine.SetItems(n.items)
	engine.SetSettler(primarySettler{n: n})
	engine.SetDomain(chainID, contract)
	n.vouchers = engine
	return n
}

// SetEmitter configures the event emitter shared by the engines.
func (n *Node) SetEmitter(emitter events.Emitter) {
	n.vouchers.SetEmitter(emitter)
	n.registry.SetEmitter(emitter)
	n.distributor.SetEmitter(emitter)
}

// State exposes the underlying manager for genesis seeding. Mutations staged
// through it follow the same commit discipline as node operations.
func (n *Node) State() *state.Manager { return n.state }

// primarySettler routes accepted purchase payments through the vault into the
// primary pool.
type primarySettler struct {
	n *Node
}

func (s primarySettler) Settle(payer [20]byte, amount *big.Int) error {
	if err := s.n.state.Transfer(payer, s.n.vault, amount); err != nil {
		return fmt.Errorf("%w: %v", split.ErrTransferFailed, err)
	}
	return s.n.distributor.Distribute(split.PoolPrimary, s.n.vault, amount)
}

// withCommit runs fn under the node lock, committing staged state on success
// and discarding it on failure.
func (n *Node) withCommit(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := fn(); err != nil {
		n.state.Reset()
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.state.Reset()
		return err
	}
	return nil
}

// RedeemItemVoucher redeems an item-claim voucher on behalf of caller,
// returning the recovered issuer on success.
func (n *Node) RedeemItemVoucher(caller [20]byte, v *voucher.ItemClaimVoucher) ([20]byte, error) {
	var signer [20]byte
	err := n.withCommit(func() error {
		var redeemErr error
		signer, redeemErr = n.vouchers.RedeemItemClaim(caller, v)
		return redeemErr
	})
	if err != nil {
		return [20]byte{}, err
	}
	return signer, nil
}

// RedeemPurchaseVoucher redeems a purchase voucher on behalf of caller with
// the attached payment.
func (n *Node) RedeemPurchaseVoucher(caller [20]byte, v *voucher.PurchaseVoucher, payment *big.Int) error {
	return n.withCommit(func() error {
		return n.vouchers.RedeemPurchase(caller, v, payment)
	})
}

// UpdatePoolPayees applies a batch of payee removals and additions to a pool.
func (n *Node) UpdatePoolPayees(caller [20]byte, pool split.Pool, removals, adds [][20]byte, shares []uint64) error {
	return n.withCommit(func() error {
		return n.registry.UpdatePayees(caller, pool, removals, adds, shares)
	})
}

// DistributePool settles an amount from the caller's balance across the named
// pool. Purchase redemptions use the primary pool internally; this entry
// point lets resale royalties and other inbound payments settle the
// secondary pool.
func (n *Node) DistributePool(caller [20]byte, pool split.Pool, amount *big.Int) error {
	return n.withCommit(func() error {
		if err := n.state.Transfer(caller, n.vault, amount); err != nil {
			return fmt.Errorf("%w: %v", split.ErrTransferFailed, err)
		}
		return n.distributor.Distribute(pool, n.vault, amount)
	})
}

// SetRoyalty updates the royalty quote configuration.
func (n *Node) SetRoyalty(caller, receiver [20]byte, percent uint8) error {
	return n.withCommit(func() error {
		return n.registry.SetRoyaltyConfig(caller, receiver, percent)
	})
}

// ListPayees returns the pool's payees in deterministic order.
func (n *Node) ListPayees(pool split.Pool) ([][20]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Payees(pool)
}

// SharesOf returns the share weights for the supplied addresses.
func (n *Node) SharesOf(pool split.Pool, addrs [][20]byte) ([]uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.SharesOf(pool, addrs)
}

// CurrentNonce returns the redeemer's purchase-voucher nonce.
func (n *Node) CurrentNonce(addr [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.VoucherNonce(addr)
}

// RoyaltyInfo quotes the royalty owed on a sale price.
func (n *Node) RoyaltyInfo(salePrice *big.Int) ([20]byte, *big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.RoyaltyInfo(salePrice)
}

// Balance returns the currency balance of an account.
func (n *Node) Balance(addr [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state.Balance(addr)
}

// ItemBalance returns the item balance of a holder.
func (n *Node) ItemBalance(addr [20]byte, id uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.items.Balance(addr, id)
}
