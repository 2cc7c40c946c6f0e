package events

import "math/big"

const (
	// TypeVoucherSold is emitted when a purchase voucher is redeemed and the
	// attached payment has been settled across the primary pool.
	TypeVoucherSold = "voucher.sold"
	// TypeVoucherItemsClaimed is emitted when an item-claim voucher is
	// redeemed, including the empty-claim case where nothing moves.
	TypeVoucherItemsClaimed = "voucher.items_claimed"
)

// VoucherSold carries the settlement record for a redeemed purchase voucher.
type VoucherSold struct {
	Wallet [20]byte
	Target [20]byte
	Data   string
	Price  *big.Int
}

func (VoucherSold) EventType() string { return TypeVoucherSold }

// VoucherItemsClaimed records a successful item-claim redemption. Items and
// Amounts are parallel slices and may be empty for a no-op claim.
type VoucherItemsClaimed struct {
	Signer  [20]byte
	Claimer [20]byte
	Items   []uint64
	Amounts []*big.Int
}

func (VoucherItemsClaimed) EventType() string { return TypeVoucherItemsClaimed }
