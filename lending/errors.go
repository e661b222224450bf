package lending

import "errors"

// Every rejected operation surfaces one of these sentinels and leaves stored
// state untouched; the engine never retries on the caller's behalf.
var (
	ErrNilState                = errors.New("lending engine: state not configured")
	ErrNotFound                = errors.New("lending engine: record not found")
	ErrInvalidConfiguration    = errors.New("lending engine: invalid configuration")
	ErrAlreadyRegistered       = errors.New("lending engine: record already registered")
	ErrPlatformInactive        = errors.New("lending engine: platform is not active")
	ErrInactivePool            = errors.New("lending engine: pool is not active")
	ErrInvalidLoanState        = errors.New("lending engine: invalid loan state")
	ErrInsufficientLiquidity   = errors.New("lending engine: insufficient liquidity")
	ErrInsufficientCreditScore = errors.New("lending engine: insufficient credit score")
	ErrBorrowerHasActiveLoan   = errors.New("lending engine: borrower has an active loan")
	ErrInvalidAmount           = errors.New("lending engine: invalid amount")
	ErrInvalidPaymentAmount    = errors.New("lending engine: invalid payment amount")
	ErrInsufficientShares      = errors.New("lending engine: insufficient shares")
	ErrNoInterestToClaim       = errors.New("lending engine: no interest to claim")
	ErrLoanNotYetDue           = errors.New("lending engine: loan not yet due for liquidation")
	ErrInvalidAttestation      = errors.New("lending engine: invalid attestation")
	ErrArithmetic              = errors.New("lending engine: arithmetic overflow")
)
