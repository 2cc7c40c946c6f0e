package split

// Pool names one of the two independent share registries. Primary receives
// purchase-voucher settlements; secondary receives downstream resale
// royalties routed back to the platform.
type Pool string

const (
	PoolPrimary   Pool = "primary"
	PoolSecondary Pool = "secondary"
)

// Valid reports whether the pool is one of the supported registries.
func (p Pool) Valid() bool {
	switch p {
	case PoolPrimary, PoolSecondary:
		return true
	default:
		return false
	}
}

func (p Pool) String() string { return string(p) }

// ShareBasis is the fixed divisor applied to share weights: a weight is read
// as a percentage of the incoming amount. The sum of a pool's weights is not
// forced to equal the basis; under-allocation leaves a remainder with the
// payer and over-allocation only fails when funds run short at settlement.
const ShareBasis = 100

// RoleSplitAdmin gates the administrative payee and royalty mutations.
const RoleSplitAdmin = "ROLE_SPLIT_ADMIN"
