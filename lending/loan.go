package lending

import (
	"math/big"

	"github.com/google/uuid"

	"microlend/finance"
)

const (
	maxPurposeLen = 100

	defaultGracePeriodDays uint8  = 7
	defaultLateFeeRateBps  uint64 = 500
)

// GetLoan returns the loan record.
func (e *Engine) GetLoan(loanID string) (*Loan, error) {
	return e.requireLoan(loanID)
}

// RequestLoan underwrites and records a loan request. The interest rate is
// fixed here from the borrower's current score and the pool base rate; no
// liquidity is reserved until approval.
func (e *Engine) RequestLoan(poolID, borrower string, amount *big.Int, durationDays uint32, purpose string, collateral CollateralType) (*Loan, error) {
	platform, err := e.requirePlatform()
	if err != nil {
		return nil, err
	}
	if !platform.Active {
		return nil, ErrPlatformInactive
	}
	pool, err := e.requirePool(poolID)
	if err != nil {
		return nil, err
	}
	if !pool.Active {
		return nil, ErrInactivePool
	}
	profile, err := e.requireProfile(borrower)
	if err != nil {
		return nil, err
	}

	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount.Cmp(platform.MinLoanAmount) < 0 || amount.Cmp(platform.MaxLoanAmount) > 0 {
		return nil, ErrInvalidAmount
	}
	if int64(durationDays)*finance.SecondsPerDay > pool.MaxLoanDuration || durationDays == 0 {
		return nil, ErrInvalidConfiguration
	}
	if len(purpose) > maxPurposeLen {
		return nil, ErrInvalidConfiguration
	}
	if !collateral.Valid() {
		return nil, ErrInvalidConfiguration
	}
	if profile.ActiveLoans != 0 {
		return nil, ErrBorrowerHasActiveLoan
	}
	if pool.AvailableLiquidity.Cmp(amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	required, err := finance.RequiredCreditScore(amount, platform.MaxLoanAmount)
	if err != nil {
		return nil, ErrInvalidConfiguration
	}
	if profile.CreditScore < required {
		return nil, ErrInsufficientCreditScore
	}

	loan := &Loan{
		ID:              uuid.NewString(),
		Borrower:        borrower,
		PoolID:          poolID,
		Amount:          new(big.Int).Set(amount),
		RateBps:         finance.InterestRateForLoan(profile.CreditScore, pool.BaseRateBps, durationDays),
		DurationDays:    durationDays,
		RequestedAt:     e.clock.Now(),
		GracePeriodDays: defaultGracePeriodDays,
		LateFeeRateBps:  defaultLateFeeRateBps,
		Purpose:         purpose,
		CollateralType:  collateral,
		Status:          LoanStatusRequested,
	}
	normalizeLoan(loan)
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// ApproveLoan moves a requested loan to Approved and reserves its principal
// out of the pool's available liquidity. The reservation is what prevents two
// approvals from racing past the same liquidity.
func (e *Engine) ApproveLoan(loanID string) (*Loan, error) {
	loan, err := e.requireLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != LoanStatusRequested {
		return nil, ErrInvalidLoanState
	}
	pool, err := e.requirePool(loan.PoolID)
	if err != nil {
		return nil, err
	}
	if !pool.Active {
		return nil, ErrInactivePool
	}
	if pool.AvailableLiquidity.Cmp(loan.Amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	loan.Status = LoanStatusApproved
	pool.AvailableLiquidity = new(big.Int).Sub(pool.AvailableLiquidity, loan.Amount)
	pool.ActiveLoans++

	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// DisburseLoan pays the reserved principal out to the borrower, starts the
// accrual clock and stamps the due date.
func (e *Engine) DisburseLoan(loanID string) (*Loan, error) {
	loan, err := e.requireLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != LoanStatusApproved {
		return nil, ErrInvalidLoanState
	}
	pool, err := e.requirePool(loan.PoolID)
	if err != nil {
		return nil, err
	}
	profile, err := e.requireProfile(loan.Borrower)
	if err != nil {
		return nil, err
	}
	platform, err := e.requirePlatform()
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if err := e.transfers.Transfer(pool.ID, loan.Borrower, loan.Amount); err != nil {
		return nil, err
	}

	loan.Status = LoanStatusDisbursed
	loan.DisbursedAt = now
	loan.DueDate = now + int64(loan.DurationDays)*finance.SecondsPerDay

	profile.ActiveLoans++
	profile.TotalBorrowed = new(big.Int).Add(profile.TotalBorrowed, loan.Amount)
	profile.UpdatedAt = now

	pool.TotalBorrowed = new(big.Int).Add(pool.TotalBorrowed, loan.Amount)

	platform.TotalLoansIssued++
	platform.TotalVolume = new(big.Int).Add(platform.TotalVolume, loan.Amount)

	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.PutProfile(profile); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutPlatform(platform); err != nil {
		return nil, err
	}
	return loan, nil
}

// MakePayment applies a payment against a disbursed or active loan. The
// platform fee is carved off the gross payment and routed to the treasury;
// the net amount settles obligations in a fixed order: accrued interest
// first, then late fees, then principal. Interest and late fees received by
// the pool are credited to the interest accumulator; the principal portion
// reduces the pool's outstanding borrowed total. When the outstanding
// principal reaches zero the loan closes as Repaid.
func (e *Engine) MakePayment(loanID string, payment *big.Int) (*PaymentBreakdown, error) {
	loan, err := e.requireLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !loan.Status.moneyOut() {
		return nil, ErrInvalidLoanState
	}
	if payment == nil || payment.Sign() <= 0 {
		return nil, ErrInvalidPaymentAmount
	}
	pool, err := e.requirePool(loan.PoolID)
	if err != nil {
		return nil, err
	}
	profile, err := e.requireProfile(loan.Borrower)
	if err != nil {
		return nil, err
	}
	platform, err := e.requirePlatform()
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	daysElapsed, err := finance.DaysBetween(loan.DisbursedAt, now)
	if err != nil {
		return nil, ErrInvalidConfiguration
	}

	outstanding := loan.outstandingPrincipal()
	accrued, err := finance.SimpleInterest(outstanding, loan.RateBps, daysElapsed)
	if err != nil {
		return nil, err
	}
	unpaidInterest := subClamped(accrued, loan.InterestPaid)

	unpaidFees := big.NewInt(0)
	if finance.IsOverdue(loan.DueDate, now, loan.GracePeriodDays) {
		daysOverdue, err := finance.DaysBetween(loan.DueDate, now)
		if err != nil {
			return nil, ErrInvalidConfiguration
		}
		owed := new(big.Int).Add(outstanding, unpaidInterest)
		fee, err := finance.LateFee(owed, loan.LateFeeRateBps, daysOverdue)
		if err != nil {
			return nil, err
		}
		unpaidFees = subClamped(fee, loan.LateFeesPaid)
	}

	totalDue := new(big.Int).Add(outstanding, unpaidInterest)
	totalDue.Add(totalDue, unpaidFees)
	if payment.Cmp(totalDue) > 0 {
		return nil, ErrInvalidPaymentAmount
	}

	platformFee, net, err := finance.FeeSplit(payment, platform.FeeBps)
	if err != nil {
		return nil, err
	}

	if err := e.transfers.Transfer(loan.Borrower, pool.ID, net); err != nil {
		return nil, err
	}
	if platformFee.Sign() > 0 {
		if err := e.transfers.Transfer(loan.Borrower, e.treasury, platformFee); err != nil {
			return nil, err
		}
	}

	interestPaid := minInt(net, unpaidInterest)
	remainder := new(big.Int).Sub(net, interestPaid)
	feesPaid := minInt(remainder, unpaidFees)
	principalPaid := new(big.Int).Sub(remainder, feesPaid)

	loan.InterestAccrued = accrued
	loan.InterestPaid = new(big.Int).Add(loan.InterestPaid, interestPaid)
	loan.LateFeesPaid = new(big.Int).Add(loan.LateFeesPaid, feesPaid)
	loan.AmountRepaid = new(big.Int).Add(loan.AmountRepaid, principalPaid)
	loan.PaymentCount++
	loan.LastPaymentAt = now

	pool.AvailableLiquidity = new(big.Int).Add(pool.AvailableLiquidity, net)
	pool.TotalBorrowed = subClamped(pool.TotalBorrowed, principalPaid)
	accrueInterest(pool, new(big.Int).Add(interestPaid, feesPaid))

	profile.TotalRepaid = new(big.Int).Add(profile.TotalRepaid, payment)
	profile.UpdatedAt = now

	if loan.outstandingPrincipal().Sign() == 0 {
		loan.Status = LoanStatusRepaid
		if profile.ActiveLoans > 0 {
			profile.ActiveLoans--
		}
		profile.SuccessfulLoans++
		if pool.ActiveLoans > 0 {
			pool.ActiveLoans--
		}
	} else {
		loan.Status = LoanStatusActive
	}

	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.PutProfile(profile); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}

	return &PaymentBreakdown{
		Payment:     new(big.Int).Set(payment),
		PlatformFee: platformFee,
		Interest:    interestPaid,
		LateFees:    feesPaid,
		Principal:   principalPaid,
		Outstanding: loan.outstandingPrincipal(),
		Status:      loan.Status,
	}, nil
}

// LiquidateLoan writes off a loan that is overdue past its grace period. The
// unpaid principal is removed from the pool's borrowed total (a write-off,
// not a recovery) and the default is recorded against borrower and platform.
func (e *Engine) LiquidateLoan(loanID string) (*Loan, error) {
	loan, err := e.requireLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !loan.Status.moneyOut() {
		return nil, ErrInvalidLoanState
	}
	now := e.clock.Now()
	if !finance.IsOverdue(loan.DueDate, now, loan.GracePeriodDays) {
		return nil, ErrLoanNotYetDue
	}
	pool, err := e.requirePool(loan.PoolID)
	if err != nil {
		return nil, err
	}
	profile, err := e.requireProfile(loan.Borrower)
	if err != nil {
		return nil, err
	}
	platform, err := e.requirePlatform()
	if err != nil {
		return nil, err
	}

	loan.Status = LoanStatusLiquidated
	loan.LiquidatedAt = now

	if profile.ActiveLoans > 0 {
		profile.ActiveLoans--
	}
	profile.DefaultedLoans++
	profile.UpdatedAt = now

	platform.TotalDefaults++

	if pool.ActiveLoans > 0 {
		pool.ActiveLoans--
	}
	pool.TotalBorrowed = subClamped(pool.TotalBorrowed, loan.outstandingPrincipal())

	if err := e.state.PutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.PutProfile(profile); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	if err := e.state.PutPlatform(platform); err != nil {
		return nil, err
	}
	return loan, nil
}

// QuotePayment returns the daily-compounded total a borrower would owe for
// the loan's full principal and duration. Read-only; ledger accrual remains
// simple interest.
func (e *Engine) QuotePayment(loanID string) (*big.Int, error) {
	loan, err := e.requireLoan(loanID)
	if err != nil {
		return nil, err
	}
	return finance.LoanPaymentQuote(loan.Amount, loan.RateBps, loan.DurationDays)
}

func minInt(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
