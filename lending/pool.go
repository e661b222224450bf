package lending

import (
	"math/big"

	"github.com/google/uuid"

	"microlend/finance"
)

const maxPoolNameLen = 50

// CreatePool validates the pool configuration and persists a fresh pool with
// all aggregates zeroed.
func (e *Engine) CreatePool(name string, baseRateBps uint64, maxLoanDuration int64) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if baseRateBps > finance.MaxRateBps || maxLoanDuration <= 0 {
		return nil, ErrInvalidConfiguration
	}
	if name == "" || len(name) > maxPoolNameLen {
		return nil, ErrInvalidConfiguration
	}
	pool := &Pool{
		ID:              uuid.NewString(),
		Name:            name,
		BaseRateBps:     baseRateBps,
		MaxLoanDuration: maxLoanDuration,
		Active:          true,
		CreatedAt:       e.clock.Now(),
	}
	normalizePool(pool)
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// SetPoolActive toggles whether the pool accepts deposits and new loans.
func (e *Engine) SetPoolActive(poolID string, active bool) error {
	pool, err := e.requirePool(poolID)
	if err != nil {
		return err
	}
	pool.Active = active
	return e.state.PutPool(pool)
}

// GetPool returns the pool record.
func (e *Engine) GetPool(poolID string) (*Pool, error) {
	return e.requirePool(poolID)
}

// GetPosition returns the lender's position in the pool, or ErrNotFound.
func (e *Engine) GetPosition(poolID, lender string) (*LenderPosition, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, err := e.state.GetPosition(poolID, lender)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrNotFound
	}
	normalizePosition(position)
	return position, nil
}

// PendingInterest reports the lender's claimable interest without mutating
// any state.
func (e *Engine) PendingInterest(poolID, lender string) (*big.Int, error) {
	pool, err := e.requirePool(poolID)
	if err != nil {
		return nil, err
	}
	position, err := e.GetPosition(poolID, lender)
	if err != nil {
		return nil, err
	}
	return pendingInterest(position, pool), nil
}

// Deposit transfers the amount from the lender into the pool and mints shares
// priced at the pre-deposit totals, so a deposit can never dilute the
// redemption value of existing shares. The minted share count is returned.
//
// The interest debt of the position is advanced by the accumulator value of
// the newly minted shares, so new shares carry no claim on past accrual.
func (e *Engine) Deposit(poolID, lender string, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.requirePool(poolID)
	if err != nil {
		return nil, err
	}
	if !pool.Active {
		return nil, ErrInactivePool
	}

	var minted *big.Int
	if pool.TotalShares.Sign() == 0 {
		minted = new(big.Int).Set(amount)
	} else {
		if pool.TotalDeposited.Sign() == 0 {
			return nil, ErrArithmetic
		}
		minted = new(big.Int).Mul(amount, pool.TotalShares)
		minted.Quo(minted, pool.TotalDeposited)
		if minted.Sign() == 0 {
			// Too small to buy a single share; rejecting keeps the
			// depositor from donating value to existing lenders.
			return nil, ErrInvalidAmount
		}
	}

	if err := e.transfers.Transfer(lender, pool.ID, amount); err != nil {
		return nil, err
	}

	position, err := e.ensurePosition(poolID, lender)
	if err != nil {
		return nil, err
	}
	if position.Shares.Sign() == 0 && position.AmountDeposited.Sign() == 0 {
		position.DepositedAt = e.clock.Now()
	}
	position.Shares = new(big.Int).Add(position.Shares, minted)
	position.AmountDeposited = new(big.Int).Add(position.AmountDeposited, amount)
	position.InterestDebt = new(big.Int).Add(position.InterestDebt, accumulatorValue(minted, pool.InterestPerShare))

	pool.TotalDeposited = new(big.Int).Add(pool.TotalDeposited, amount)
	pool.TotalShares = new(big.Int).Add(pool.TotalShares, minted)
	pool.AvailableLiquidity = new(big.Int).Add(pool.AvailableLiquidity, amount)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	return minted, nil
}

// Withdraw settles the position's pending interest, burns the requested
// shares and pays out their pro-rata slice of total assets under management
// (idle liquidity plus outstanding loans), so lenders bear proportional
// exposure to loans still in flight. The total amount transferred out is
// returned.
func (e *Engine) Withdraw(poolID, lender string, sharesToWithdraw *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if sharesToWithdraw == nil || sharesToWithdraw.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	pool, err := e.requirePool(poolID)
	if err != nil {
		return nil, err
	}
	position, err := e.GetPosition(poolID, lender)
	if err != nil {
		return nil, err
	}
	if position.Shares.Cmp(sharesToWithdraw) < 0 {
		return nil, ErrInsufficientShares
	}

	pending := pendingInterest(position, pool)

	totalAssets := new(big.Int).Add(pool.AvailableLiquidity, pool.TotalBorrowed)
	withdrawAmount := new(big.Int).Mul(sharesToWithdraw, totalAssets)
	withdrawAmount.Quo(withdrawAmount, pool.TotalShares)

	totalOut := new(big.Int).Add(withdrawAmount, pending)
	if pool.AvailableLiquidity.Cmp(totalOut) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	if err := e.transfers.Transfer(pool.ID, lender, totalOut); err != nil {
		return nil, err
	}

	// Cost basis retired with the burned shares. Pro-rata by shares keeps the
	// pool's deposit aggregate aligned with the sum of positions, so
	// TotalShares reaching zero drives TotalDeposited to zero as well.
	retiredBasis := new(big.Int).Mul(position.AmountDeposited, sharesToWithdraw)
	retiredBasis.Quo(retiredBasis, position.Shares)

	position.Shares = new(big.Int).Sub(position.Shares, sharesToWithdraw)
	position.AmountDeposited = subClamped(position.AmountDeposited, retiredBasis)
	position.InterestClaimed = new(big.Int).Add(position.InterestClaimed, pending)
	position.InterestEarned = new(big.Int).Add(position.InterestEarned, pending)
	// Re-anchor the debt to the retained shares at the current accumulator so
	// settled interest can never be claimed twice.
	position.InterestDebt = accumulatorValue(position.Shares, pool.InterestPerShare)

	pool.TotalShares = new(big.Int).Sub(pool.TotalShares, sharesToWithdraw)
	pool.TotalDeposited = subClamped(pool.TotalDeposited, retiredBasis)
	pool.AvailableLiquidity = new(big.Int).Sub(pool.AvailableLiquidity, totalOut)
	pool.TotalInterestDistributed = new(big.Int).Add(pool.TotalInterestDistributed, pending)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	return totalOut, nil
}

// ClaimInterest transfers the position's pending interest out of the pool's
// idle liquidity. A second claim with no intervening accrual fails with
// ErrNoInterestToClaim.
func (e *Engine) ClaimInterest(poolID, lender string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.requirePool(poolID)
	if err != nil {
		return nil, err
	}
	position, err := e.GetPosition(poolID, lender)
	if err != nil {
		return nil, err
	}

	pending := pendingInterest(position, pool)
	if pending.Sign() == 0 {
		return nil, ErrNoInterestToClaim
	}
	if pool.AvailableLiquidity.Cmp(pending) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	if err := e.transfers.Transfer(pool.ID, lender, pending); err != nil {
		return nil, err
	}

	position.InterestDebt = new(big.Int).Add(position.InterestDebt, pending)
	position.InterestClaimed = new(big.Int).Add(position.InterestClaimed, pending)
	position.InterestEarned = new(big.Int).Add(position.InterestEarned, pending)

	pool.AvailableLiquidity = new(big.Int).Sub(pool.AvailableLiquidity, pending)
	pool.TotalInterestDistributed = new(big.Int).Add(pool.TotalInterestDistributed, pending)

	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.state.PutPool(pool); err != nil {
		return nil, err
	}
	return pending, nil
}
