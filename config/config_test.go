package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mintgate.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddress != ":8080" {
		t.Fatalf("unexpected default listen address %q", cfg.ListenAddress)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	// The written default loads back unchanged.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *reloaded != *cfg {
		t.Fatalf("reloaded config differs: %+v vs %+v", reloaded, cfg)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mintgate.toml")
	contents := `
ListenAddress = ":8080"
DataDir = "./data"
GenesisFile = "./genesis.yaml"
ChainID = 187001
ContractAddress = "0x1234"
VaultAddress = "0x0000000000000000000000000000000000000002"
Environment = "dev"
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error for short contract address")
	}
}

func TestValidateRequiresChainID(t *testing.T) {
	cfg := &Config{
		ContractAddress: "0x0000000000000000000000000000000000000001",
		VaultAddress:    "0x0000000000000000000000000000000000000002",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing ChainID")
	}
}
