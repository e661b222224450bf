package lending

import (
	"math/big"

	"microlend/finance"
)

const (
	initialCreditScore     uint16 = 300
	initialReputationScore uint16 = 500

	maxAttestationScore   = 1_000
	maxAttestationMetaLen = 500
)

// RegisterBorrower creates a fresh borrower profile with the entry-level
// credit and reputation scores.
func (e *Engine) RegisterBorrower(addr string) (*BorrowerProfile, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if addr == "" {
		return nil, ErrInvalidConfiguration
	}
	existing, err := e.state.GetProfile(addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}
	now := e.clock.Now()
	profile := &BorrowerProfile{
		Address:         addr,
		CreditScore:     initialCreditScore,
		ReputationScore: initialReputationScore,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	normalizeProfile(profile)
	if err := e.state.PutProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetProfile returns the borrower profile.
func (e *Engine) GetProfile(addr string) (*BorrowerProfile, error) {
	return e.requireProfile(addr)
}

// UpdateCreditScore recomputes the borrower's score from the loan counters.
// Idempotent given unchanged counters.
func (e *Engine) UpdateCreditScore(addr string) (*BorrowerProfile, error) {
	profile, err := e.requireProfile(addr)
	if err != nil {
		return nil, err
	}
	total := profile.SuccessfulLoans + profile.DefaultedLoans
	profile.CreditScore = finance.CreditScoreFromHistory(
		profile.SuccessfulLoans, total, profile.DefaultedLoans,
		profile.TotalBorrowed, profile.TotalRepaid,
	)
	profile.UpdatedAt = e.clock.Now()
	if err := e.state.PutProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetVerification records identity verification flags. The booleans arrive
// pre-validated from the authorization layer; the engine stores, it does not
// verify.
func (e *Engine) SetVerification(addr string, kyc, phone, email bool) (*BorrowerProfile, error) {
	profile, err := e.requireProfile(addr)
	if err != nil {
		return nil, err
	}
	profile.KYCVerified = kyc
	profile.PhoneVerified = phone
	profile.EmailVerified = email
	profile.UpdatedAt = e.clock.Now()
	if err := e.state.PutProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// AddAttestation records a social attestation against the subject and bumps
// their attestation counter. Attestations feed reputation inputs only; they
// never change the credit score directly.
func (e *Engine) AddAttestation(subject, attester string, kind AttestationKind, score uint16, metadata string, expiresAt int64, verified bool) error {
	profile, err := e.requireProfile(subject)
	if err != nil {
		return err
	}
	if subject == attester || attester == "" {
		return ErrInvalidAttestation
	}
	if !kind.Valid() || score > maxAttestationScore || len(metadata) > maxAttestationMetaLen {
		return ErrInvalidAttestation
	}
	now := e.clock.Now()
	att := &Attestation{
		Subject:   subject,
		Attester:  attester,
		Kind:      kind,
		Score:     score,
		Metadata:  metadata,
		Verified:  verified,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := e.state.AppendAttestation(att); err != nil {
		return err
	}
	profile.AttestationCount++
	profile.UpdatedAt = now
	return e.state.PutProfile(profile)
}

// AddTransactionRecord folds an external transaction-history signal into the
// subject's reputation counters.
func (e *Engine) AddTransactionRecord(subject string, kind TransactionKind, amount *big.Int, counterparty string, frequencyScore, consistencyScore uint16, verified bool) error {
	profile, err := e.requireProfile(subject)
	if err != nil {
		return err
	}
	if !kind.Valid() {
		return ErrInvalidConfiguration
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	now := e.clock.Now()
	rec := &TransactionRecord{
		Subject:          subject,
		Kind:             kind,
		Amount:           new(big.Int).Set(amount),
		Counterparty:     counterparty,
		FrequencyScore:   frequencyScore,
		ConsistencyScore: consistencyScore,
		Verified:         verified,
		Timestamp:        now,
	}
	if err := e.state.AppendTransaction(rec); err != nil {
		return err
	}
	profile.TransactionCount++
	profile.UpdatedAt = now
	return e.state.PutProfile(profile)
}
