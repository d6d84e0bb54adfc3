package config

import (
	"os"
	"strings"
	"testing"
)

func TestDefaultValidateRequiresCredentials(t *testing.T) {
	os.Unsetenv("BTC_RPC_USER")
	os.Unsetenv("BTC_RPC_PASS")

	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to fail without ledger credentials")
	}

	cfg.Ledger.User = "alice"
	cfg.Ledger.Pass = "hunter2"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to pass once credentials are set: %v", err)
	}
}

func TestValidateRejectsUndersizedBond(t *testing.T) {
	cfg := Default()
	cfg.Ledger.User, cfg.Ledger.Pass = "alice", "hunter2"
	cfg.Bond.Amount = 1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "insufficient") {
		t.Fatalf("expected an insufficient-bond error, got %v", err)
	}
}

func TestLoadFallsBackToPlainEnvCredentials(t *testing.T) {
	os.Setenv("BTC_RPC_USER", "fromenv")
	os.Setenv("BTC_RPC_PASS", "fromenv-pass")
	defer os.Unsetenv("BTC_RPC_USER")
	defer os.Unsetenv("BTC_RPC_PASS")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Ledger.User != "fromenv" || cfg.Ledger.Pass != "fromenv-pass" {
		t.Fatalf("expected ledger credentials from plain env vars, got %+v", cfg.Ledger)
	}
	if cfg.Bond.Bisection != 10 {
		t.Fatalf("expected default bisection length 10, got %d", cfg.Bond.Bisection)
	}
}

func TestLoadMissingConfigPathErrors(t *testing.T) {
	if _, err := Load("/no/such/path.yaml"); err == nil {
		t.Fatal("expected an error for a nonexistent config path")
	}
}
