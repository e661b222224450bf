// Package rpc exposes the lending engine over HTTP as a JSON API. Amounts
// cross the wire as decimal strings so asset units never pass through
// floating point.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"microlend/bank"
	"microlend/lending"
	"microlend/lendstate"
	"microlend/observability/metrics"
)

const requestLimit = 1 << 20 // 1 MiB

// Server routes HTTP requests into the engine. Mutating operations are
// serialised behind one mutex: the engine assumes the host provides
// single-writer semantics per record, and this server is that host.
type Server struct {
	engine  *lending.Engine
	store   *lendstate.Store
	book    *bank.Book
	log     *slog.Logger
	metrics *metrics.LendingMetrics
	limiter *clientLimiter

	mu sync.Mutex
}

// NewServer wires the API surface. rateLimitPerMin bounds each client's
// request rate; zero disables the limiter.
func NewServer(engine *lending.Engine, store *lendstate.Store, book *bank.Book, log *slog.Logger, rateLimitPerMin int) *Server {
	s := &Server{
		engine:  engine,
		store:   store,
		book:    book,
		log:     log,
		metrics: metrics.Lending(),
	}
	if rateLimitPerMin > 0 {
		s.limiter = newClientLimiter(rateLimitPerMin)
	}
	return s
}

// Router builds the chi handler for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/platform", s.handleInitPlatform)
		r.Get("/platform", s.handleGetPlatform)

		r.Route("/pools", func(r chi.Router) {
			r.Post("/", s.handleCreatePool)
			r.Get("/{poolID}", s.handleGetPool)
			r.Post("/{poolID}/active", s.handleSetPoolActive)
			r.Post("/{poolID}/deposit", s.handleDeposit)
			r.Post("/{poolID}/withdraw", s.handleWithdraw)
			r.Post("/{poolID}/claim", s.handleClaimInterest)
			r.Get("/{poolID}/positions/{lender}", s.handleGetPosition)
		})

		r.Route("/borrowers", func(r chi.Router) {
			r.Post("/", s.handleRegisterBorrower)
			r.Get("/{address}", s.handleGetProfile)
			r.Post("/{address}/verification", s.handleSetVerification)
			r.Post("/{address}/score", s.handleUpdateCreditScore)
			r.Post("/{address}/attestations", s.handleAddAttestation)
			r.Get("/{address}/attestations", s.handleListAttestations)
			r.Post("/{address}/transactions", s.handleAddTransaction)
			r.Get("/{address}/transactions", s.handleListTransactions)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", s.handleRequestLoan)
			r.Get("/{loanID}", s.handleGetLoan)
			r.Get("/{loanID}/quote", s.handleQuotePayment)
			r.Post("/{loanID}/approve", s.handleApproveLoan)
			r.Post("/{loanID}/disburse", s.handleDisburseLoan)
			r.Post("/{loanID}/payment", s.handleMakePayment)
			r.Post("/{loanID}/liquidate", s.handleLiquidateLoan)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{account}", s.handleGetBalance)
			r.Post("/{account}/fund", s.handleFundAccount)
		})
	})
	return r
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.log.Error("operation failed", "err", err)
	} else {
		s.metrics.ObserveRejection(err.Error())
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

var errMalformedRequest = errors.New("malformed request body")

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, requestLimit)
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: errMalformedRequest.Error()})
		return false
	}
	return true
}

// parseAmount decodes a decimal-string amount.
func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

func formatAmount(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
