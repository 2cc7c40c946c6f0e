package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config captures runtime configuration for the mintgate daemon.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	GenesisFile   string `toml:"GenesisFile"`
	ChainID       uint64 `toml:"ChainID"`
	// ContractAddress is the hex identity voucher digests are bound to.
	// Deployments with different identities never accept each other's
	// signatures.
	ContractAddress string `toml:"ContractAddress"`
	// VaultAddress buffers settlements; truncation dust accumulates here.
	VaultAddress string `toml:"VaultAddress"`
	Environment  string `toml:"Environment"`
	// LogFile enables rotated file logging alongside stdout when set.
	LogFile string `toml:"LogFile"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("ChainID must be set")
	}
	if _, err := c.Contract(); err != nil {
		return err
	}
	if _, err := c.Vault(); err != nil {
		return err
	}
	return nil
}

// Contract returns the decoded contract binding address.
func (c *Config) Contract() ([20]byte, error) {
	return decodeAddress(c.ContractAddress, "ContractAddress")
}

// Vault returns the decoded settlement vault address.
func (c *Config) Vault() ([20]byte, error) {
	return decodeAddress(c.VaultAddress, "VaultAddress")
}

func decodeAddress(raw, field string) ([20]byte, error) {
	normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), "0x")
	decoded, err := hex.DecodeString(normalized)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: invalid hex: %w", field, err)
	}
	if len(decoded) != 20 {
		return [20]byte{}, fmt.Errorf("%s: expected 20 bytes, got %d", field, len(decoded))
	}
	var addr [20]byte
	copy(addr[:], decoded)
	return addr, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:   ":8080",
		DataDir:         "./mintgate-data",
		GenesisFile:     "./genesis.yaml",
		ChainID:         187001,
		ContractAddress: "0x" + strings.Repeat("00", 19) + "01",
		VaultAddress:    "0x" + strings.Repeat("00", 19) + "02",
		Environment:     "dev",
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
