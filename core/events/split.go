package events

import "math/big"

const (
	// TypeSplitPayeeAdded is emitted when a payee joins a share pool.
	TypeSplitPayeeAdded = "split.payee.added"
	// TypeSplitPayeeRemoved is emitted when a payee leaves a share pool.
	TypeSplitPayeeRemoved = "split.payee.removed"
	// TypeSplitDistributed is emitted once per settled distribution.
	TypeSplitDistributed = "split.distributed"
	// TypeSplitRoyaltyUpdated is emitted when the royalty quote changes.
	TypeSplitRoyaltyUpdated = "split.royalty.updated"
)

type SplitPayeeAdded struct {
	Pool  string
	Payee [20]byte
	Share uint64
}

func (SplitPayeeAdded) EventType() string { return TypeSplitPayeeAdded }

type SplitPayeeRemoved struct {
	Pool  string
	Payee [20]byte
}

func (SplitPayeeRemoved) EventType() string { return TypeSplitPayeeRemoved }

// SplitDistributed reports the per-payee payouts of one settlement. Payees and
// Payouts are parallel; Residual is the truncation dust left with the payer's
// settlement vault.
type SplitDistributed struct {
	Pool     string
	Amount   *big.Int
	Payees   [][20]byte
	Payouts  []*big.Int
	Residual *big.Int
}

func (SplitDistributed) EventType() string { return TypeSplitDistributed }

type SplitRoyaltyUpdated struct {
	Receiver [20]byte
	Percent  uint8
}

func (SplitRoyaltyUpdated) EventType() string { return TypeSplitRoyaltyUpdated }
