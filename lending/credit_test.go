package lending

import (
	"errors"
	"math/big"
	"testing"
)

func TestRegisterBorrowerStartsAtEntryScores(t *testing.T) {
	h := newTestHarness(t)

	profile := h.registerBorrower(t, "bob")
	if profile.CreditScore != 300 || profile.ReputationScore != 500 {
		t.Fatalf("unexpected entry scores: credit %d reputation %d", profile.CreditScore, profile.ReputationScore)
	}
	if profile.CreatedAt != h.clock.now {
		t.Fatalf("unexpected creation time: %d", profile.CreatedAt)
	}

	if _, err := h.engine.RegisterBorrower("bob"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if _, err := h.engine.RegisterBorrower(""); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for empty address, got %v", err)
	}
}

func TestUpdateCreditScoreTracksRepaymentHistory(t *testing.T) {
	h := newTestHarness(t)
	h.registerBorrower(t, "bob")

	profile := h.state.profiles["bob"]
	profile.SuccessfulLoans = 1
	profile.DefaultedLoans = 1
	profile.TotalBorrowed = big.NewInt(200)
	profile.TotalRepaid = big.NewInt(100)

	updated, err := h.engine.UpdateCreditScore("bob")
	if err != nil {
		t.Fatalf("update credit score: %v", err)
	}
	if updated.CreditScore != 600 {
		t.Fatalf("unexpected score: got %d want 600", updated.CreditScore)
	}

	// Recomputing from unchanged counters is idempotent.
	again, err := h.engine.UpdateCreditScore("bob")
	if err != nil {
		t.Fatalf("update credit score: %v", err)
	}
	if again.CreditScore != updated.CreditScore {
		t.Fatalf("score drifted on recompute: %d vs %d", again.CreditScore, updated.CreditScore)
	}

	if _, err := h.engine.UpdateCreditScore("stranger"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetVerificationStoresFlags(t *testing.T) {
	h := newTestHarness(t)
	h.registerBorrower(t, "bob")

	profile, err := h.engine.SetVerification("bob", true, true, false)
	if err != nil {
		t.Fatalf("set verification: %v", err)
	}
	if !profile.KYCVerified || !profile.PhoneVerified || profile.EmailVerified {
		t.Fatalf("unexpected flags: %+v", profile)
	}
}

func TestAddAttestationValidatesAndCounts(t *testing.T) {
	h := newTestHarness(t)
	h.registerBorrower(t, "bob")

	if err := h.engine.AddAttestation("bob", "carol", AttestationEmployer, 800, "long-term employee", 0, true); err != nil {
		t.Fatalf("add attestation: %v", err)
	}
	profile, err := h.engine.GetProfile("bob")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.AttestationCount != 1 {
		t.Fatalf("unexpected attestation count: %d", profile.AttestationCount)
	}
	if len(h.state.attestations["bob"]) != 1 {
		t.Fatalf("attestation log not appended")
	}

	cases := []struct {
		name     string
		attester string
		kind     AttestationKind
		score    uint16
		metadata string
	}{
		{name: "self attestation", attester: "bob", kind: AttestationFamily, score: 100},
		{name: "empty attester", attester: "", kind: AttestationFamily, score: 100},
		{name: "unknown kind", attester: "carol", kind: AttestationKind(99), score: 100},
		{name: "score above cap", attester: "carol", kind: AttestationFamily, score: 1_001},
		{name: "oversized metadata", attester: "carol", kind: AttestationFamily, score: 100, metadata: string(make([]byte, 501))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.engine.AddAttestation("bob", tc.attester, tc.kind, tc.score, tc.metadata, 0, false)
			if !errors.Is(err, ErrInvalidAttestation) {
				t.Fatalf("expected ErrInvalidAttestation, got %v", err)
			}
		})
	}

	if err := h.engine.AddAttestation("stranger", "carol", AttestationFamily, 100, "", 0, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown subject, got %v", err)
	}
}

func TestAddTransactionRecordCounts(t *testing.T) {
	h := newTestHarness(t)
	h.registerBorrower(t, "bob")

	if err := h.engine.AddTransactionRecord("bob", TransactionMobileMoney, big.NewInt(5_000), "m-pesa", 700, 650, true); err != nil {
		t.Fatalf("add transaction record: %v", err)
	}
	profile, err := h.engine.GetProfile("bob")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.TransactionCount != 1 {
		t.Fatalf("unexpected transaction count: %d", profile.TransactionCount)
	}
	if len(h.state.transactions["bob"]) != 1 {
		t.Fatalf("transaction log not appended")
	}

	if err := h.engine.AddTransactionRecord("bob", TransactionKind(99), big.NewInt(5_000), "", 0, 0, false); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration for unknown kind, got %v", err)
	}
	if err := h.engine.AddTransactionRecord("bob", TransactionSavings, big.NewInt(0), "", 0, 0, false); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
}
