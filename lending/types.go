package lending

import (
	"fmt"
	"math/big"
)

// LoanStatus enumerates the loan lifecycle state machine. The only legal
// transitions are Requested -> Approved -> Disbursed -> Active and from the
// money-out states into the terminal Repaid or Liquidated.
type LoanStatus uint8

const (
	LoanStatusRequested LoanStatus = iota
	LoanStatusApproved
	LoanStatusDisbursed
	LoanStatusActive
	LoanStatusRepaid
	LoanStatusLiquidated
)

func (s LoanStatus) String() string {
	switch s {
	case LoanStatusRequested:
		return "requested"
	case LoanStatusApproved:
		return "approved"
	case LoanStatusDisbursed:
		return "disbursed"
	case LoanStatusActive:
		return "active"
	case LoanStatusRepaid:
		return "repaid"
	case LoanStatusLiquidated:
		return "liquidated"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further mutation of the loan is permitted.
func (s LoanStatus) Terminal() bool {
	return s == LoanStatusRepaid || s == LoanStatusLiquidated
}

// moneyOut reports whether disbursed funds are still outstanding.
func (s LoanStatus) moneyOut() bool {
	return s == LoanStatusDisbursed || s == LoanStatusActive
}

// CollateralType is the closed set of collateral kinds a borrower may pledge.
// The engine records the kind and value but does not model seizure.
type CollateralType uint8

const (
	CollateralNone CollateralType = iota
	CollateralSocial
	CollateralAsset
	CollateralIncome
	CollateralGroup
)

func (c CollateralType) Valid() bool {
	return c <= CollateralGroup
}

func (c CollateralType) String() string {
	switch c {
	case CollateralNone:
		return "none"
	case CollateralSocial:
		return "social"
	case CollateralAsset:
		return "asset"
	case CollateralIncome:
		return "income"
	case CollateralGroup:
		return "group"
	default:
		return "unknown"
	}
}

// ParseCollateralType maps the wire name onto the enum.
func ParseCollateralType(name string) (CollateralType, error) {
	switch name {
	case "", "none":
		return CollateralNone, nil
	case "social":
		return CollateralSocial, nil
	case "asset":
		return CollateralAsset, nil
	case "income":
		return CollateralIncome, nil
	case "group":
		return CollateralGroup, nil
	default:
		return 0, fmt.Errorf("unknown collateral type %q", name)
	}
}

// AttestationKind is the closed set of social attestation sources.
type AttestationKind uint8

const (
	AttestationCommunity AttestationKind = iota
	AttestationEmployer
	AttestationFamily
	AttestationBusiness
	AttestationEducation
	AttestationReference
)

func (k AttestationKind) Valid() bool {
	return k <= AttestationReference
}

func (k AttestationKind) String() string {
	switch k {
	case AttestationCommunity:
		return "community"
	case AttestationEmployer:
		return "employer"
	case AttestationFamily:
		return "family"
	case AttestationBusiness:
		return "business"
	case AttestationEducation:
		return "education"
	case AttestationReference:
		return "reference"
	default:
		return "unknown"
	}
}

// ParseAttestationKind maps the wire name onto the enum.
func ParseAttestationKind(name string) (AttestationKind, error) {
	for k := AttestationCommunity; k <= AttestationReference; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown attestation kind %q", name)
}

// TransactionKind is the closed set of transaction-history categories folded
// into reputation counters.
type TransactionKind uint8

const (
	TransactionMobileMoney TransactionKind = iota
	TransactionRemittance
	TransactionMerchant
	TransactionUtility
	TransactionSavings
	TransactionInvestment
	TransactionLoan
	TransactionRepayment
)

func (k TransactionKind) Valid() bool {
	return k <= TransactionRepayment
}

func (k TransactionKind) String() string {
	switch k {
	case TransactionMobileMoney:
		return "mobile_money"
	case TransactionRemittance:
		return "remittance"
	case TransactionMerchant:
		return "merchant"
	case TransactionUtility:
		return "utility"
	case TransactionSavings:
		return "savings"
	case TransactionInvestment:
		return "investment"
	case TransactionLoan:
		return "loan"
	case TransactionRepayment:
		return "repayment"
	default:
		return "unknown"
	}
}

// ParseTransactionKind maps the wire name onto the enum.
func ParseTransactionKind(name string) (TransactionKind, error) {
	for k := TransactionMobileMoney; k <= TransactionRepayment; k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown transaction kind %q", name)
}

// Pool captures the aggregate accounting state for one lending pool. Amounts
// are big integers in the asset's smallest unit; InterestPerShare is a
// cumulative fixed-point accumulator scaled by 1e9.
type Pool struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseRateBps  uint64 `json:"baseRateBps"`
	// MaxLoanDuration bounds requested loan durations, in seconds.
	MaxLoanDuration    int64    `json:"maxLoanDuration"`
	TotalDeposited     *big.Int `json:"totalDeposited"`
	TotalBorrowed      *big.Int `json:"totalBorrowed"`
	AvailableLiquidity *big.Int `json:"availableLiquidity"`
	TotalShares        *big.Int `json:"totalShares"`
	InterestPerShare   *big.Int `json:"interestPerShare"`
	TotalInterestEarned      *big.Int `json:"totalInterestEarned"`
	TotalInterestDistributed *big.Int `json:"totalInterestDistributed"`
	// EscrowedInterest holds interest accrued while no shares were
	// outstanding; it folds into the accumulator on the next accrual.
	EscrowedInterest *big.Int `json:"escrowedInterest"`
	ActiveLoans      uint32   `json:"activeLoans"`
	Active           bool     `json:"active"`
	CreatedAt        int64    `json:"createdAt"`
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.TotalDeposited = cloneInt(p.TotalDeposited)
	clone.TotalBorrowed = cloneInt(p.TotalBorrowed)
	clone.AvailableLiquidity = cloneInt(p.AvailableLiquidity)
	clone.TotalShares = cloneInt(p.TotalShares)
	clone.InterestPerShare = cloneInt(p.InterestPerShare)
	clone.TotalInterestEarned = cloneInt(p.TotalInterestEarned)
	clone.TotalInterestDistributed = cloneInt(p.TotalInterestDistributed)
	clone.EscrowedInterest = cloneInt(p.EscrowedInterest)
	return &clone
}

// LenderPosition tracks one lender's share claim on one pool. InterestDebt is
// the accumulator value already credited to the position, so pending interest
// is always Shares*InterestPerShare/1e9 - InterestDebt.
type LenderPosition struct {
	Lender          string   `json:"lender"`
	PoolID          string   `json:"poolId"`
	Shares          *big.Int `json:"shares"`
	AmountDeposited *big.Int `json:"amountDeposited"`
	InterestDebt    *big.Int `json:"interestDebt"`
	InterestClaimed *big.Int `json:"interestClaimed"`
	InterestEarned  *big.Int `json:"interestEarned"`
	DepositedAt     int64    `json:"depositedAt"`
}

// Clone returns a deep copy of the position.
func (p *LenderPosition) Clone() *LenderPosition {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Shares = cloneInt(p.Shares)
	clone.AmountDeposited = cloneInt(p.AmountDeposited)
	clone.InterestDebt = cloneInt(p.InterestDebt)
	clone.InterestClaimed = cloneInt(p.InterestClaimed)
	clone.InterestEarned = cloneInt(p.InterestEarned)
	return &clone
}

// Loan is one borrower's loan against one pool. AmountRepaid counts only the
// principal-reducing portion of payments; interest and late fees paid are
// tracked separately so the outstanding balance never double-counts.
type Loan struct {
	ID       string `json:"id"`
	Borrower string `json:"borrower"`
	PoolID   string `json:"poolId"`
	Amount   *big.Int `json:"amount"`
	RateBps  uint64   `json:"rateBps"`
	DurationDays uint32 `json:"durationDays"`
	RequestedAt  int64  `json:"requestedAt"`
	DisbursedAt  int64  `json:"disbursedAt"`
	DueDate      int64  `json:"dueDate"`
	LiquidatedAt int64  `json:"liquidatedAt"`
	AmountRepaid    *big.Int `json:"amountRepaid"`
	InterestAccrued *big.Int `json:"interestAccrued"`
	InterestPaid    *big.Int `json:"interestPaid"`
	LateFeesPaid    *big.Int `json:"lateFeesPaid"`
	PaymentCount    uint32   `json:"paymentCount"`
	LastPaymentAt   int64    `json:"lastPaymentAt"`
	GracePeriodDays uint8    `json:"gracePeriodDays"`
	LateFeeRateBps  uint64   `json:"lateFeeRateBps"`
	Purpose         string   `json:"purpose"`
	CollateralType  CollateralType `json:"collateralType"`
	CollateralValue *big.Int       `json:"collateralValue"`
	Status          LoanStatus     `json:"status"`
}

// Clone returns a deep copy of the loan.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Amount = cloneInt(l.Amount)
	clone.AmountRepaid = cloneInt(l.AmountRepaid)
	clone.InterestAccrued = cloneInt(l.InterestAccrued)
	clone.InterestPaid = cloneInt(l.InterestPaid)
	clone.LateFeesPaid = cloneInt(l.LateFeesPaid)
	clone.CollateralValue = cloneInt(l.CollateralValue)
	return &clone
}

// outstandingPrincipal returns Amount - AmountRepaid, floored at zero.
func (l *Loan) outstandingPrincipal() *big.Int {
	out := new(big.Int).Sub(l.Amount, l.AmountRepaid)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

// BorrowerProfile aggregates one borrower's platform-wide loan history. The
// credit score is recomputed from the counters on demand and never acts as an
// independent source of truth.
type BorrowerProfile struct {
	Address         string   `json:"address"`
	CreditScore     uint16   `json:"creditScore"`
	ReputationScore uint16   `json:"reputationScore"`
	ActiveLoans     uint32   `json:"activeLoans"`
	TotalBorrowed   *big.Int `json:"totalBorrowed"`
	TotalRepaid     *big.Int `json:"totalRepaid"`
	SuccessfulLoans uint32   `json:"successfulLoans"`
	DefaultedLoans  uint32   `json:"defaultedLoans"`
	KYCVerified     bool     `json:"kycVerified"`
	PhoneVerified   bool     `json:"phoneVerified"`
	EmailVerified   bool     `json:"emailVerified"`
	AttestationCount uint32  `json:"attestationCount"`
	TransactionCount uint32  `json:"transactionCount"`
	CreatedAt        int64   `json:"createdAt"`
	UpdatedAt        int64   `json:"updatedAt"`
}

// Clone returns a deep copy of the profile.
func (p *BorrowerProfile) Clone() *BorrowerProfile {
	if p == nil {
		return nil
	}
	clone := *p
	clone.TotalBorrowed = cloneInt(p.TotalBorrowed)
	clone.TotalRepaid = cloneInt(p.TotalRepaid)
	return &clone
}

// PlatformAccount is the singleton platform configuration and cross-pool
// aggregate record.
type PlatformAccount struct {
	FeeBps           uint64   `json:"feeBps"`
	MinLoanAmount    *big.Int `json:"minLoanAmount"`
	MaxLoanAmount    *big.Int `json:"maxLoanAmount"`
	TotalLoansIssued uint64   `json:"totalLoansIssued"`
	TotalVolume      *big.Int `json:"totalVolume"`
	TotalDefaults    uint64   `json:"totalDefaults"`
	Active           bool     `json:"active"`
	CreatedAt        int64    `json:"createdAt"`
}

// Clone returns a deep copy of the platform account.
func (p *PlatformAccount) Clone() *PlatformAccount {
	if p == nil {
		return nil
	}
	clone := *p
	clone.MinLoanAmount = cloneInt(p.MinLoanAmount)
	clone.MaxLoanAmount = cloneInt(p.MaxLoanAmount)
	clone.TotalVolume = cloneInt(p.TotalVolume)
	return &clone
}

// Attestation is a social attestation recorded against a borrower. Verified
// is supplied by the authorization layer; the engine never computes trust.
type Attestation struct {
	Subject   string          `json:"subject"`
	Attester  string          `json:"attester"`
	Kind      AttestationKind `json:"kind"`
	Score     uint16          `json:"score"`
	Metadata  string          `json:"metadata"`
	Verified  bool            `json:"verified"`
	CreatedAt int64           `json:"createdAt"`
	ExpiresAt int64           `json:"expiresAt,omitempty"`
}

// TransactionRecord is an external transaction-history signal folded into the
// borrower's reputation counters.
type TransactionRecord struct {
	Subject          string          `json:"subject"`
	Kind             TransactionKind `json:"kind"`
	Amount           *big.Int        `json:"amount"`
	Counterparty     string          `json:"counterparty,omitempty"`
	FrequencyScore   uint16          `json:"frequencyScore"`
	ConsistencyScore uint16          `json:"consistencyScore"`
	Verified         bool            `json:"verified"`
	Timestamp        int64           `json:"timestamp"`
}

// PaymentBreakdown reports how one payment was split and applied.
type PaymentBreakdown struct {
	Payment     *big.Int `json:"payment"`
	PlatformFee *big.Int `json:"platformFee"`
	Interest    *big.Int `json:"interest"`
	LateFees    *big.Int `json:"lateFees"`
	Principal   *big.Int `json:"principal"`
	Outstanding *big.Int `json:"outstanding"`
	Status      LoanStatus `json:"status"`
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
