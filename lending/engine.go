// Package lending implements the pooled-lending ledger core: share-based pool
// accounting with pull-based interest distribution, the loan lifecycle state
// machine, and platform-wide accounting. The engine is a pure state-transition
// core: it holds no locks and reads no wall clock, relying on the host for
// single-writer-per-record semantics and on the Clock collaborator for time.
package lending

import "math/big"

// interestScale is the fixed-point scale of the pool interest accumulator.
var interestScale = big.NewInt(1_000_000_000)

// engineState is the persistent record store the engine runs against. Lookups
// return (nil, nil) when the record does not exist.
type engineState interface {
	GetPlatform() (*PlatformAccount, error)
	PutPlatform(platform *PlatformAccount) error
	GetPool(id string) (*Pool, error)
	PutPool(pool *Pool) error
	GetPosition(poolID, lender string) (*LenderPosition, error)
	PutPosition(position *LenderPosition) error
	GetLoan(id string) (*Loan, error)
	PutLoan(loan *Loan) error
	GetProfile(addr string) (*BorrowerProfile, error)
	PutProfile(profile *BorrowerProfile) error
	AppendAttestation(att *Attestation) error
	AppendTransaction(rec *TransactionRecord) error
}

// Clock supplies the current time as seconds since epoch.
type Clock interface {
	Now() int64
}

// Transfer executes asset movements between opaque account identifiers. A
// failure aborts the whole operation before any ledger mutation is persisted.
type Transfer interface {
	Transfer(from, to string, amount *big.Int) error
}

// Engine orchestrates the primary state transitions for the lending ledger.
type Engine struct {
	state     engineState
	clock     Clock
	transfers Transfer
	treasury  string
}

// NewEngine constructs an engine wired to the clock and asset-transfer
// collaborators. Platform fees are routed to the treasury account.
func NewEngine(clock Clock, transfers Transfer, treasury string) *Engine {
	return &Engine{clock: clock, transfers: transfers, treasury: treasury}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) requirePool(id string) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.state.GetPool(id)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrNotFound
	}
	normalizePool(pool)
	return pool, nil
}

func (e *Engine) requireLoan(id string) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	loan, err := e.state.GetLoan(id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, ErrNotFound
	}
	normalizeLoan(loan)
	return loan, nil
}

func (e *Engine) requireProfile(addr string) (*BorrowerProfile, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	profile, err := e.state.GetProfile(addr)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	normalizeProfile(profile)
	return profile, nil
}

func (e *Engine) requirePlatform() (*PlatformAccount, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	platform, err := e.state.GetPlatform()
	if err != nil {
		return nil, err
	}
	if platform == nil {
		return nil, ErrNotFound
	}
	normalizePlatform(platform)
	return platform, nil
}

func (e *Engine) ensurePosition(poolID, lender string) (*LenderPosition, error) {
	position, err := e.state.GetPosition(poolID, lender)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &LenderPosition{Lender: lender, PoolID: poolID}
	}
	normalizePosition(position)
	return position, nil
}

// accumulatorValue returns shares * interestPerShare / 1e9, the accumulator-
// weighted interest entitlement of a share count.
func accumulatorValue(shares, interestPerShare *big.Int) *big.Int {
	value := new(big.Int).Mul(shares, interestPerShare)
	return value.Quo(value, interestScale)
}

// pendingInterest computes the position's unclaimed interest, floored at zero.
func pendingInterest(position *LenderPosition, pool *Pool) *big.Int {
	pending := accumulatorValue(position.Shares, pool.InterestPerShare)
	pending.Sub(pending, position.InterestDebt)
	if pending.Sign() < 0 {
		pending.SetInt64(0)
	}
	return pending
}

// accrueInterest credits newly received interest to the pool. With shares
// outstanding the amount, plus any escrow from share-less periods, raises the
// per-share accumulator (floor division, so cumulative claims never exceed the
// credited amount). With no shares the amount is escrowed for the next accrual
// instead of becoming unclaimable.
func accrueInterest(pool *Pool, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	pool.TotalInterestEarned = new(big.Int).Add(pool.TotalInterestEarned, amount)
	if pool.TotalShares.Sign() == 0 {
		pool.EscrowedInterest = new(big.Int).Add(pool.EscrowedInterest, amount)
		return
	}
	distributable := new(big.Int).Add(amount, pool.EscrowedInterest)
	pool.EscrowedInterest = big.NewInt(0)
	increase := new(big.Int).Mul(distributable, interestScale)
	increase.Quo(increase, pool.TotalShares)
	pool.InterestPerShare = new(big.Int).Add(pool.InterestPerShare, increase)
}

// subClamped returns a - b floored at zero.
func subClamped(a, b *big.Int) *big.Int {
	out := new(big.Int).Sub(a, b)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

func normalizePool(p *Pool) {
	p.TotalDeposited = orZero(p.TotalDeposited)
	p.TotalBorrowed = orZero(p.TotalBorrowed)
	p.AvailableLiquidity = orZero(p.AvailableLiquidity)
	p.TotalShares = orZero(p.TotalShares)
	p.InterestPerShare = orZero(p.InterestPerShare)
	p.TotalInterestEarned = orZero(p.TotalInterestEarned)
	p.TotalInterestDistributed = orZero(p.TotalInterestDistributed)
	p.EscrowedInterest = orZero(p.EscrowedInterest)
}

func normalizePosition(p *LenderPosition) {
	p.Shares = orZero(p.Shares)
	p.AmountDeposited = orZero(p.AmountDeposited)
	p.InterestDebt = orZero(p.InterestDebt)
	p.InterestClaimed = orZero(p.InterestClaimed)
	p.InterestEarned = orZero(p.InterestEarned)
}

func normalizeLoan(l *Loan) {
	l.Amount = orZero(l.Amount)
	l.AmountRepaid = orZero(l.AmountRepaid)
	l.InterestAccrued = orZero(l.InterestAccrued)
	l.InterestPaid = orZero(l.InterestPaid)
	l.LateFeesPaid = orZero(l.LateFeesPaid)
	l.CollateralValue = orZero(l.CollateralValue)
}

func normalizeProfile(p *BorrowerProfile) {
	p.TotalBorrowed = orZero(p.TotalBorrowed)
	p.TotalRepaid = orZero(p.TotalRepaid)
}

func normalizePlatform(p *PlatformAccount) {
	p.MinLoanAmount = orZero(p.MinLoanAmount)
	p.MaxLoanAmount = orZero(p.MaxLoanAmount)
	p.TotalVolume = orZero(p.TotalVolume)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
