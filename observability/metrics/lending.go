// Package metrics exposes prometheus collectors for the lending flows.
package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics aggregates the ledger's operational counters and per-pool
// gauges.
type LendingMetrics struct {
	deposits     prometheus.Counter
	withdrawals  prometheus.Counter
	claims       prometheus.Counter
	loansIssued  prometheus.Counter
	payments     prometheus.Counter
	liquidations prometheus.Counter
	rejected     *prometheus.CounterVec

	availableLiquidity *prometheus.GaugeVec
	totalBorrowed      *prometheus.GaugeVec
}

var (
	lendingOnce     sync.Once
	lendingRegistry *LendingMetrics
)

// Lending returns the process-wide lending metrics, registering the
// collectors on first use.
func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lending_deposits_total",
				Help: "Count of accepted pool deposits.",
			}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lending_withdrawals_total",
				Help: "Count of accepted pool withdrawals.",
			}),
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lending_interest_claims_total",
				Help: "Count of interest claims paid out.",
			}),
			loansIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lending_loans_disbursed_total",
				Help: "Count of loans disbursed.",
			}),
			payments: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lending_payments_total",
				Help: "Count of loan payments applied.",
			}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "lending_liquidations_total",
				Help: "Count of loans written off by liquidation.",
			}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_operations_rejected_total",
				Help: "Count of rejected operations by reason.",
			}, []string{"reason"}),
			availableLiquidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lending_pool_available_liquidity",
				Help: "Idle liquidity per pool in asset units.",
			}, []string{"pool"}),
			totalBorrowed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "lending_pool_total_borrowed",
				Help: "Outstanding borrowed amount per pool in asset units.",
			}, []string{"pool"}),
		}
		prometheus.MustRegister(
			lendingRegistry.deposits,
			lendingRegistry.withdrawals,
			lendingRegistry.claims,
			lendingRegistry.loansIssued,
			lendingRegistry.payments,
			lendingRegistry.liquidations,
			lendingRegistry.rejected,
			lendingRegistry.availableLiquidity,
			lendingRegistry.totalBorrowed,
		)
	})
	return lendingRegistry
}

func (m *LendingMetrics) ObserveDeposit()     { m.deposits.Inc() }
func (m *LendingMetrics) ObserveWithdrawal()  { m.withdrawals.Inc() }
func (m *LendingMetrics) ObserveClaim()       { m.claims.Inc() }
func (m *LendingMetrics) ObserveDisbursal()   { m.loansIssued.Inc() }
func (m *LendingMetrics) ObservePayment()     { m.payments.Inc() }
func (m *LendingMetrics) ObserveLiquidation() { m.liquidations.Inc() }

// ObserveRejection counts a rejected operation under its sentinel reason.
func (m *LendingMetrics) ObserveRejection(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// SetPoolGauges publishes the pool's headline aggregates. Values beyond
// float64 precision are reported best-effort; the ledger itself stays exact.
func (m *LendingMetrics) SetPoolGauges(poolID string, availableLiquidity, totalBorrowed *big.Int) {
	if availableLiquidity != nil {
		value, _ := new(big.Float).SetInt(availableLiquidity).Float64()
		m.availableLiquidity.WithLabelValues(poolID).Set(value)
	}
	if totalBorrowed != nil {
		value, _ := new(big.Float).SetInt(totalBorrowed).Float64()
		m.totalBorrowed.WithLabelValues(poolID).Set(value)
	}
}
