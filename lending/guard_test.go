package lending

import (
	"errors"
	"math/big"
	"testing"
)

func TestEngineWithoutStateRejectsEverything(t *testing.T) {
	engine := NewEngine(&manualClock{}, newMockLedger(), testTreasury)

	if _, err := engine.CreatePool("p", 1_000, 86_400); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
	if _, err := engine.Deposit("p", "alice", big.NewInt(1)); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
	if _, err := engine.InitPlatform(0, big.NewInt(1), big.NewInt(2)); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
	if _, err := engine.RegisterBorrower("bob"); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}
	if _, err := engine.GetLoan("x"); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState, got %v", err)
	}

	var nilEngine *Engine
	if _, err := nilEngine.GetPool("p"); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected ErrNilState on nil engine, got %v", err)
	}
}

func TestInitPlatformValidatesConfiguration(t *testing.T) {
	h := newTestHarness(t)

	if _, err := h.engine.InitPlatform(1_001, big.NewInt(1_000), big.NewInt(10_000)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for excessive fee, got %v", err)
	}
	if _, err := h.engine.InitPlatform(100, big.NewInt(0), big.NewInt(10_000)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for zero minimum, got %v", err)
	}
	if _, err := h.engine.InitPlatform(100, big.NewInt(10_000), big.NewInt(10_000)); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for inverted bounds, got %v", err)
	}

	platform := h.initPlatform(t, 100)
	if !platform.Active {
		t.Fatalf("platform should start active")
	}
	if _, err := h.engine.InitPlatform(100, big.NewInt(1_000), big.NewInt(10_000)); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered on reinitialization, got %v", err)
	}
}

func TestInactivePlatformBlocksLoanRequests(t *testing.T) {
	h := newTestHarness(t)
	h.initPlatform(t, 0)
	pool := h.createPool(t)
	h.deposit(t, pool.ID, "alice", 500_000)
	h.registerBorrower(t, "bob")

	h.state.platform.Active = false
	if _, err := h.engine.RequestLoan(pool.ID, "bob", big.NewInt(100_000), 30, "", CollateralNone); !errors.Is(err, ErrPlatformInactive) {
		t.Fatalf("expected ErrPlatformInactive, got %v", err)
	}
}

func TestLookupsReportMissingRecords(t *testing.T) {
	h := newTestHarness(t)

	if _, err := h.engine.GetPool("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for pool, got %v", err)
	}
	if _, err := h.engine.GetLoan("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for loan, got %v", err)
	}
	if _, err := h.engine.GetProfile("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for profile, got %v", err)
	}
	if _, err := h.engine.Platform(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for platform, got %v", err)
	}
}

func TestFailedTransferAbortsDeposit(t *testing.T) {
	h := newTestHarness(t)
	pool := h.createPool(t)

	// Unfunded lender: the transfer fails and no ledger state may change.
	if _, err := h.engine.Deposit(pool.ID, "alice", big.NewInt(1_000)); err == nil {
		t.Fatalf("expected transfer failure")
	}

	stored, err := h.engine.GetPool(pool.ID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	assertBig(t, "total deposited", stored.TotalDeposited, 0)
	assertBig(t, "total shares", stored.TotalShares, 0)
	if _, err := h.engine.GetPosition(pool.ID, "alice"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no position should exist after failed deposit, got %v", err)
	}
}
