// Package finance implements the fixed-point day-count, interest, late-fee and
// underwriting arithmetic shared by the pool ledger and the loan engine. Every
// function is pure and deterministic: amounts are big integers in the asset's
// smallest unit, rates are basis points, and all divisions floor toward zero
// so rounding always favours the pool.
package finance

import (
	"errors"
	"math/big"
)

const (
	// SecondsPerDay is the fixed day-count convention for accrual.
	SecondsPerDay = 86_400
	// DaysPerYear is the simple-interest year convention.
	DaysPerYear = 365
	// BasisPointsDenominator converts basis points to a ratio.
	BasisPointsDenominator = 10_000
	// MaxRateBps caps every derived interest rate at 50%.
	MaxRateBps = 5_000

	// MinCreditScore and MaxCreditScore bound every computed score.
	MinCreditScore uint16 = 300
	MaxCreditScore uint16 = 850
)

var (
	// ErrInvalidInterval is returned when an interval end precedes its start.
	ErrInvalidInterval = errors.New("finance: interval end precedes start")
	// ErrInvalidPrincipal is returned when a principal is nil or negative.
	ErrInvalidPrincipal = errors.New("finance: principal must be non-negative")
	// ErrInvalidBound is returned when a denominator bound is nil or not positive.
	ErrInvalidBound = errors.New("finance: bound must be positive")
)

var (
	bpsDenom  = big.NewInt(BasisPointsDenominator)
	yearDenom = big.NewInt(DaysPerYear * BasisPointsDenominator)
)

// DaysBetween returns the whole days elapsed between two Unix timestamps,
// flooring partial days. The caller guarantees end >= start.
func DaysBetween(start, end int64) (uint32, error) {
	if end < start {
		return 0, ErrInvalidInterval
	}
	return uint32((end - start) / SecondsPerDay), nil
}

// SimpleInterest computes principal * (rateBps/10000) * (days/365), truncated
// to the asset unit.
func SimpleInterest(principal *big.Int, rateBps uint64, days uint32) (*big.Int, error) {
	if principal == nil || principal.Sign() < 0 {
		return nil, ErrInvalidPrincipal
	}
	interest := new(big.Int).Mul(principal, new(big.Int).SetUint64(rateBps))
	interest.Mul(interest, new(big.Int).SetUint64(uint64(days)))
	return interest.Quo(interest, yearDenom), nil
}

// CompoundInterest computes the daily-compounded total owed after the given
// number of days, truncated to the asset unit. It is used for payment-schedule
// quoting only; ledger accrual is simple interest per accrual call.
func CompoundInterest(principal *big.Int, rateBps uint64, days uint32) (*big.Int, error) {
	if principal == nil || principal.Sign() < 0 {
		return nil, ErrInvalidPrincipal
	}
	if days == 0 || rateBps == 0 {
		return new(big.Int).Set(principal), nil
	}
	// factor = (1 + rateBps/(365*10000))^days via exponentiation by squaring.
	dailyNum := big.NewInt(DaysPerYear*BasisPointsDenominator + int64(rateBps))
	dailyDen := new(big.Int).Set(yearDenom)
	num := new(big.Int).Exp(dailyNum, new(big.Int).SetUint64(uint64(days)), nil)
	den := new(big.Int).Exp(dailyDen, new(big.Int).SetUint64(uint64(days)), nil)
	total := new(big.Int).Mul(principal, num)
	return total.Quo(total, den), nil
}

// LoanPaymentQuote returns the compounded total a borrower would owe on the
// full principal held for the full duration.
func LoanPaymentQuote(principal *big.Int, rateBps uint64, days uint32) (*big.Int, error) {
	return CompoundInterest(principal, rateBps, days)
}

// LateFee applies the simple-interest shape to the amount currently owed for
// the days a loan has been overdue.
func LateFee(outstanding *big.Int, rateBps uint64, daysOverdue uint32) (*big.Int, error) {
	return SimpleInterest(outstanding, rateBps, daysOverdue)
}

// IsOverdue reports whether now has passed the due date plus the grace period.
func IsOverdue(dueDate, now int64, gracePeriodDays uint8) bool {
	return now > dueDate+int64(gracePeriodDays)*SecondsPerDay
}

// RequiredCreditScore maps the utilization ratio amount/maxAmount onto the
// underwriting score bands. The comparison is scaled-integer so very large
// amounts never pass through an imprecise float conversion.
func RequiredCreditScore(amount, maxAmount *big.Int) (uint16, error) {
	if amount == nil || amount.Sign() < 0 {
		return 0, ErrInvalidPrincipal
	}
	if maxAmount == nil || maxAmount.Sign() <= 0 {
		return 0, ErrInvalidBound
	}
	scaled := new(big.Int).Mul(amount, big.NewInt(100))
	band := func(pct int64) bool {
		return scaled.Cmp(new(big.Int).Mul(maxAmount, big.NewInt(pct))) <= 0
	}
	switch {
	case band(10):
		return 300, nil
	case band(30):
		return 450, nil
	case band(60):
		return 600, nil
	case band(80):
		return 700, nil
	default:
		return 800, nil
	}
}

// InterestRateForLoan derives a loan's rate from the pool base rate plus a
// credit-score tier surcharge and a duration surcharge, capped at MaxRateBps.
func InterestRateForLoan(creditScore uint16, baseRateBps uint64, durationDays uint32) uint64 {
	rate := baseRateBps
	switch {
	case creditScore < 500:
		rate += 500
	case creditScore < 650:
		rate += 300
	case creditScore < 750:
		rate += 100
	}
	switch {
	case durationDays > 365:
		rate += 200
	case durationDays > 180:
		rate += 100
	}
	if rate > MaxRateBps {
		rate = MaxRateBps
	}
	return rate
}

// CreditScoreFromHistory recomputes a borrower's score from their loan
// counters: 40% weight on the successful-loan ratio, 30% on the repayment
// ratio, a 50-point penalty per default, and experience bonuses at 10 and 50
// completed loans. The result is clamped to [MinCreditScore, MaxCreditScore].
func CreditScoreFromHistory(successful, total, defaults uint32, totalBorrowed, totalRepaid *big.Int) uint16 {
	if total == 0 {
		return MinCreditScore
	}
	score := int64(MinCreditScore)
	score += int64(400) * int64(successful) / int64(total)

	if totalBorrowed != nil && totalBorrowed.Sign() > 0 && totalRepaid != nil && totalRepaid.Sign() > 0 {
		term := new(big.Int).Mul(totalRepaid, big.NewInt(300))
		term.Quo(term, totalBorrowed)
		// Repaid can exceed borrowed once interest is included; the term
		// contributes at most its full weight.
		if term.Cmp(big.NewInt(300)) > 0 {
			term.SetInt64(300)
		}
		score += term.Int64()
	}

	score -= int64(defaults) * 50

	if total > 10 {
		score += 50
	}
	if total > 50 {
		score += 50
	}

	if score < int64(MinCreditScore) {
		return MinCreditScore
	}
	if score > int64(MaxCreditScore) {
		return MaxCreditScore
	}
	return uint16(score)
}

// FeeSplit divides a gross payment into the platform fee and the net amount
// routed to the pool. The fee floors, so dust stays with the pool side.
func FeeSplit(payment *big.Int, feeBps uint64) (fee, net *big.Int, err error) {
	if payment == nil || payment.Sign() < 0 {
		return nil, nil, ErrInvalidPrincipal
	}
	fee = new(big.Int).Mul(payment, new(big.Int).SetUint64(feeBps))
	fee.Quo(fee, bpsDenom)
	net = new(big.Int).Sub(payment, fee)
	return fee, net, nil
}
