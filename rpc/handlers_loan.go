package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"microlend/lending"
)

type requestLoanRequest struct {
	PoolID         string `json:"poolId"`
	Borrower       string `json:"borrower"`
	Amount         string `json:"amount"`
	DurationDays   uint32 `json:"durationDays"`
	Purpose        string `json:"purpose"`
	CollateralType string `json:"collateralType"`
}

func (s *Server) handleRequestLoan(w http.ResponseWriter, r *http.Request) {
	var req requestLoanRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	collateral, err := lending.ParseCollateralType(req.CollateralType)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	loan, err := s.engine.RequestLoan(req.PoolID, req.Borrower, amount, req.DurationDays, req.Purpose, collateral)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("loan requested", "loan", loan.ID, "pool", req.PoolID, "borrower", req.Borrower, "amount", req.Amount, "rateBps", loan.RateBps)
	s.writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := s.engine.GetLoan(chi.URLParam(r, "loanID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

type quoteResponse struct {
	LoanID   string `json:"loanId"`
	TotalDue string `json:"totalDue"`
}

func (s *Server) handleQuotePayment(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	total, err := s.engine.QuotePayment(loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quoteResponse{LoanID: loanID, TotalDue: formatAmount(total)})
}

func (s *Server) handleApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	s.mu.Lock()
	loan, err := s.engine.ApproveLoan(loanID)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publishPoolGauges(loan.PoolID)
	s.log.Info("loan approved", "loan", loan.ID, "pool", loan.PoolID)
	s.writeJSON(w, http.StatusOK, loan)
}

func (s *Server) handleDisburseLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	s.mu.Lock()
	loan, err := s.engine.DisburseLoan(loanID)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveDisbursal()
	s.publishPoolGauges(loan.PoolID)
	s.log.Info("loan disbursed", "loan", loan.ID, "borrower", loan.Borrower, "dueDate", loan.DueDate)
	s.writeJSON(w, http.StatusOK, loan)
}

type paymentRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleMakePayment(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	var req paymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	breakdown, err := s.engine.MakePayment(loanID, amount)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObservePayment()
	loan, lerr := s.engine.GetLoan(loanID)
	if lerr == nil {
		s.publishPoolGauges(loan.PoolID)
	}
	s.log.Info("payment applied", "loan", loanID, "amount", req.Amount, "status", breakdown.Status.String())
	s.writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleLiquidateLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")

	s.mu.Lock()
	loan, err := s.engine.LiquidateLoan(loanID)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveLiquidation()
	s.publishPoolGauges(loan.PoolID)
	s.log.Warn("loan liquidated", "loan", loan.ID, "borrower", loan.Borrower)
	s.writeJSON(w, http.StatusOK, loan)
}
