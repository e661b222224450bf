package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"microlend/lending"
)

type registerBorrowerRequest struct {
	Address string `json:"address"`
}

func (s *Server) handleRegisterBorrower(w http.ResponseWriter, r *http.Request) {
	var req registerBorrowerRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	profile, err := s.engine.RegisterBorrower(req.Address)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("borrower registered", "address", req.Address)
	s.writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.engine.GetProfile(chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

type verificationRequest struct {
	KYC   bool `json:"kyc"`
	Phone bool `json:"phone"`
	Email bool `json:"email"`
}

func (s *Server) handleSetVerification(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	var req verificationRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	profile, err := s.engine.SetVerification(address, req.KYC, req.Phone, req.Email)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateCreditScore(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	s.mu.Lock()
	profile, err := s.engine.UpdateCreditScore(address)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("credit score updated", "address", address, "score", profile.CreditScore)
	s.writeJSON(w, http.StatusOK, profile)
}

type attestationRequest struct {
	Attester  string `json:"attester"`
	Kind      string `json:"kind"`
	Score     uint16 `json:"score"`
	Metadata  string `json:"metadata"`
	ExpiresAt int64  `json:"expiresAt"`
	Verified  bool   `json:"verified"`
}

func (s *Server) handleAddAttestation(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "address")
	var req attestationRequest
	if !s.decode(w, r, &req) {
		return
	}
	kind, err := lending.ParseAttestationKind(req.Kind)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	err = s.engine.AddAttestation(subject, req.Attester, kind, req.Score, req.Metadata, req.ExpiresAt, req.Verified)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"subject": subject, "attester": req.Attester})
}

func (s *Server) handleListAttestations(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "address")
	list, err := s.store.Attestations(subject)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []*lending.Attestation{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

type transactionRequest struct {
	Kind             string `json:"kind"`
	Amount           string `json:"amount"`
	Counterparty     string `json:"counterparty"`
	FrequencyScore   uint16 `json:"frequencyScore"`
	ConsistencyScore uint16 `json:"consistencyScore"`
	Verified         bool   `json:"verified"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "address")
	var req transactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	kind, err := lending.ParseTransactionKind(req.Kind)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	s.mu.Lock()
	err = s.engine.AddTransactionRecord(subject, kind, amount, req.Counterparty, req.FrequencyScore, req.ConsistencyScore, req.Verified)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"subject": subject, "kind": req.Kind})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "address")
	list, err := s.store.Transactions(subject)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []*lending.TransactionRecord{}
	}
	s.writeJSON(w, http.StatusOK, list)
}
