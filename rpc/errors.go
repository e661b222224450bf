package rpc

import (
	"errors"
	"net/http"

	"microlend/bank"
	"microlend/lending"
)

// statusForError maps engine and bank sentinels onto HTTP statuses. Anything
// unmapped is an internal error; validation sentinels never leak stack detail
// beyond their message.
func statusForError(err error) int {
	switch {
	case errors.Is(err, lending.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lending.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, lending.ErrInvalidConfiguration),
		errors.Is(err, lending.ErrInvalidAmount),
		errors.Is(err, lending.ErrInvalidPaymentAmount),
		errors.Is(err, lending.ErrInsufficientShares),
		errors.Is(err, lending.ErrInvalidAttestation),
		errors.Is(err, bank.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, lending.ErrInactivePool),
		errors.Is(err, lending.ErrPlatformInactive),
		errors.Is(err, lending.ErrInvalidLoanState),
		errors.Is(err, lending.ErrLoanNotYetDue),
		errors.Is(err, lending.ErrNoInterestToClaim):
		return http.StatusConflict
	case errors.Is(err, lending.ErrInsufficientLiquidity),
		errors.Is(err, lending.ErrInsufficientCreditScore),
		errors.Is(err, lending.ErrBorrowerHasActiveLoan),
		errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
