package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createPoolRequest struct {
	Name            string `json:"name"`
	BaseRateBps     uint64 `json:"baseRateBps"`
	MaxLoanDuration int64  `json:"maxLoanDuration"`
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	pool, err := s.engine.CreatePool(req.Name, req.BaseRateBps, req.MaxLoanDuration)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("pool created", "pool", pool.ID, "name", pool.Name, "baseRateBps", pool.BaseRateBps)
	s.writeJSON(w, http.StatusCreated, pool)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.engine.GetPool(chi.URLParam(r, "poolID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pool)
}

type setPoolActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetPoolActive(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")
	var req setPoolActiveRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	err := s.engine.SetPoolActive(poolID, req.Active)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("pool active flag updated", "pool", poolID, "active", req.Active)
	s.writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

type depositRequest struct {
	Lender string `json:"lender"`
	Amount string `json:"amount"`
}

type depositResponse struct {
	PoolID string `json:"poolId"`
	Lender string `json:"lender"`
	Amount string `json:"amount"`
	Shares string `json:"shares"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")
	var req depositRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	shares, err := s.engine.Deposit(poolID, req.Lender, amount)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveDeposit()
	s.publishPoolGauges(poolID)
	s.log.Info("deposit accepted", "pool", poolID, "lender", req.Lender, "amount", req.Amount)
	s.writeJSON(w, http.StatusOK, depositResponse{
		PoolID: poolID,
		Lender: req.Lender,
		Amount: req.Amount,
		Shares: formatAmount(shares),
	})
}

type withdrawRequest struct {
	Lender string `json:"lender"`
	Shares string `json:"shares"`
}

type withdrawResponse struct {
	PoolID string `json:"poolId"`
	Lender string `json:"lender"`
	Shares string `json:"shares"`
	Amount string `json:"amount"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")
	var req withdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	shares, err := parseAmount(req.Shares)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	paidOut, err := s.engine.Withdraw(poolID, req.Lender, shares)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveWithdrawal()
	s.publishPoolGauges(poolID)
	s.log.Info("withdrawal accepted", "pool", poolID, "lender", req.Lender, "shares", req.Shares)
	s.writeJSON(w, http.StatusOK, withdrawResponse{
		PoolID: poolID,
		Lender: req.Lender,
		Shares: req.Shares,
		Amount: formatAmount(paidOut),
	})
}

type claimRequest struct {
	Lender string `json:"lender"`
}

type claimResponse struct {
	PoolID   string `json:"poolId"`
	Lender   string `json:"lender"`
	Interest string `json:"interest"`
}

func (s *Server) handleClaimInterest(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")
	var req claimRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	claimed, err := s.engine.ClaimInterest(poolID, req.Lender)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveClaim()
	s.publishPoolGauges(poolID)
	s.log.Info("interest claimed", "pool", poolID, "lender", req.Lender, "interest", claimed.String())
	s.writeJSON(w, http.StatusOK, claimResponse{
		PoolID:   poolID,
		Lender:   req.Lender,
		Interest: formatAmount(claimed),
	})
}

type positionResponse struct {
	Lender          string `json:"lender"`
	PoolID          string `json:"poolId"`
	Shares          string `json:"shares"`
	AmountDeposited string `json:"amountDeposited"`
	InterestClaimed string `json:"interestClaimed"`
	InterestEarned  string `json:"interestEarned"`
	PendingInterest string `json:"pendingInterest"`
	DepositedAt     int64  `json:"depositedAt"`
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")
	lender := chi.URLParam(r, "lender")
	position, err := s.engine.GetPosition(poolID, lender)
	if err != nil {
		s.writeError(w, err)
		return
	}
	pending, err := s.engine.PendingInterest(poolID, lender)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, positionResponse{
		Lender:          position.Lender,
		PoolID:          position.PoolID,
		Shares:          formatAmount(position.Shares),
		AmountDeposited: formatAmount(position.AmountDeposited),
		InterestClaimed: formatAmount(position.InterestClaimed),
		InterestEarned:  formatAmount(position.InterestEarned),
		PendingInterest: formatAmount(pending),
		DepositedAt:     position.DepositedAt,
	})
}

func (s *Server) publishPoolGauges(poolID string) {
	pool, err := s.engine.GetPool(poolID)
	if err != nil {
		return
	}
	s.metrics.SetPoolGauges(pool.ID, pool.AvailableLiquidity, pool.TotalBorrowed)
}
