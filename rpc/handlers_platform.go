package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type initPlatformRequest struct {
	FeeBps        uint64 `json:"feeBps"`
	MinLoanAmount string `json:"minLoanAmount"`
	MaxLoanAmount string `json:"maxLoanAmount"`
}

func (s *Server) handleInitPlatform(w http.ResponseWriter, r *http.Request) {
	var req initPlatformRequest
	if !s.decode(w, r, &req) {
		return
	}
	minAmount, err := parseAmount(req.MinLoanAmount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	maxAmount, err := parseAmount(req.MaxLoanAmount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	platform, err := s.engine.InitPlatform(req.FeeBps, minAmount, maxAmount)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("platform initialized", "feeBps", req.FeeBps)
	s.writeJSON(w, http.StatusCreated, platform)
}

func (s *Server) handleGetPlatform(w http.ResponseWriter, _ *http.Request) {
	platform, err := s.engine.Platform()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, platform)
}

type fundAccountRequest struct {
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

func (s *Server) handleFundAccount(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	var req fundAccountRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := s.book.Mint(account, amount); err != nil {
		s.writeError(w, err)
		return
	}
	balance, err := s.book.Balance(account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balanceResponse{Account: account, Balance: formatAmount(balance)})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	balance, err := s.book.Balance(account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, balanceResponse{Account: account, Balance: formatAmount(balance)})
}
