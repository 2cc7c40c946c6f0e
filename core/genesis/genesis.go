package genesis

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mintgate/core/state"
	"mintgate/native/split"
	"mintgate/native/voucher"
)

// PayeeSeed is one pool entry in the genesis document.
type PayeeSeed struct {
	Address string `yaml:"address"`
	Share   uint64 `yaml:"share"`
}

// AccountSeed pre-funds a currency balance.
type AccountSeed struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

// ItemSeed pre-mints catalog items to a holder.
type ItemSeed struct {
	Address string `yaml:"address"`
	ID      uint64 `yaml:"id"`
	Amount  string `yaml:"amount"`
}

// RoyaltySeed configures the initial royalty quote.
type RoyaltySeed struct {
	Receiver string `yaml:"receiver"`
	Percent  uint8  `yaml:"percent"`
}

// Document is the YAML genesis file seeding issuers, admins, pools and
// balances at first boot.
type Document struct {
	Issuers  []string               `yaml:"issuers"`
	Admins   []string               `yaml:"admins"`
	Pools    map[string][]PayeeSeed `yaml:"pools"`
	Royalty  *RoyaltySeed           `yaml:"royalty"`
	Accounts []AccountSeed          `yaml:"accounts"`
	Items    []ItemSeed             `yaml:"items"`
}

// Load parses a genesis document from disk.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("genesis: read %s: %w", path, err)
	}
	doc := new(Document)
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("genesis: parse %s: %w", path, err)
	}
	return doc, nil
}

// Apply stages the document's state into the manager. It refuses to run on an
// already-initialized store; the caller commits the staged writes.
func Apply(m *state.Manager, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("genesis: nil document")
	}
	done, err := m.Initialized()
	if err != nil {
		return err
	}
	if done {
		return fmt.Errorf("genesis: store already initialized")
	}
	for _, raw := range doc.Issuers {
		addr, err := parseAddress(raw)
		if err != nil {
			return fmt.Errorf("genesis: issuer: %w", err)
		}
		if err := m.GrantRole(voucher.RoleIssuer, addr[:]); err != nil {
			return err
		}
	}
	for _, raw := range doc.Admins {
		addr, err := parseAddress(raw)
		if err != nil {
			return fmt.Errorf("genesis: admin: %w", err)
		}
		if err := m.GrantRole(split.RoleSplitAdmin, addr[:]); err != nil {
			return err
		}
	}
	for name, seeds := range doc.Pools {
		pool := split.Pool(strings.ToLower(strings.TrimSpace(name)))
		if !pool.Valid() {
			return fmt.Errorf("genesis: unknown pool %q", name)
		}
		payees := make([][20]byte, 0, len(seeds))
		for _, seed := range seeds {
			addr, err := parseAddress(seed.Address)
			if err != nil {
				return fmt.Errorf("genesis: pool %s payee: %w", pool, err)
			}
			if seed.Share == 0 {
				return fmt.Errorf("genesis: pool %s payee %s: share must be positive", pool, seed.Address)
			}
			if err := m.SetPoolShare(pool.String(), addr, seed.Share); err != nil {
				return err
			}
			payees = append(payees, addr)
		}
		if err := m.SetPoolPayees(pool.String(), payees); err != nil {
			return err
		}
	}
	if doc.Royalty != nil {
		receiver, err := parseAddress(doc.Royalty.Receiver)
		if err != nil {
			return fmt.Errorf("genesis: royalty receiver: %w", err)
		}
		if doc.Royalty.Percent > split.ShareBasis {
			return fmt.Errorf("genesis: royalty percent %d out of range", doc.Royalty.Percent)
		}
		if err := m.SetRoyalty(receiver, doc.Royalty.Percent); err != nil {
			return err
		}
	}
	for _, seed := range doc.Accounts {
		addr, err := parseAddress(seed.Address)
		if err != nil {
			return fmt.Errorf("genesis: account: %w", err)
		}
		balance, err := parseAmount(seed.Balance)
		if err != nil {
			return fmt.Errorf("genesis: account %s: %w", seed.Address, err)
		}
		if err := m.SetBalance(addr, balance); err != nil {
			return err
		}
	}
	for _, seed := range doc.Items {
		addr, err := parseAddress(seed.Address)
		if err != nil {
			return fmt.Errorf("genesis: item holder: %w", err)
		}
		amount, err := parseAmount(seed.Amount)
		if err != nil {
			return fmt.Errorf("genesis: item %d for %s: %w", seed.ID, seed.Address, err)
		}
		if err := m.SetItemBalance(addr, seed.ID, amount); err != nil {
			return err
		}
	}
	return m.SetInitialized()
}

func parseAddress(raw string) ([20]byte, error) {
	normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
	decoded, err := hex.DecodeString(normalized)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if len(decoded) != 20 {
		return [20]byte{}, fmt.Errorf("invalid address %q: expected 20 bytes", raw)
	}
	var addr [20]byte
	copy(addr[:], decoded)
	return addr, nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}
