package lending

import (
	"fmt"
	"math/big"
	"testing"
)

type mockEngineState struct {
	platform     *PlatformAccount
	pools        map[string]*Pool
	positions    map[string]*LenderPosition
	loans        map[string]*Loan
	profiles     map[string]*BorrowerProfile
	attestations map[string][]*Attestation
	transactions map[string][]*TransactionRecord
}

func newMockEngineState() *mockEngineState {
	return &mockEngineState{
		pools:        make(map[string]*Pool),
		positions:    make(map[string]*LenderPosition),
		loans:        make(map[string]*Loan),
		profiles:     make(map[string]*BorrowerProfile),
		attestations: make(map[string][]*Attestation),
		transactions: make(map[string][]*TransactionRecord),
	}
}

func (m *mockEngineState) GetPlatform() (*PlatformAccount, error) {
	return m.platform.Clone(), nil
}

func (m *mockEngineState) PutPlatform(platform *PlatformAccount) error {
	m.platform = platform.Clone()
	return nil
}

func (m *mockEngineState) GetPool(id string) (*Pool, error) {
	return m.pools[id].Clone(), nil
}

func (m *mockEngineState) PutPool(pool *Pool) error {
	m.pools[pool.ID] = pool.Clone()
	return nil
}

func positionKey(poolID, lender string) string {
	return poolID + "/" + lender
}

func (m *mockEngineState) GetPosition(poolID, lender string) (*LenderPosition, error) {
	return m.positions[positionKey(poolID, lender)].Clone(), nil
}

func (m *mockEngineState) PutPosition(position *LenderPosition) error {
	m.positions[positionKey(position.PoolID, position.Lender)] = position.Clone()
	return nil
}

func (m *mockEngineState) GetLoan(id string) (*Loan, error) {
	return m.loans[id].Clone(), nil
}

func (m *mockEngineState) PutLoan(loan *Loan) error {
	m.loans[loan.ID] = loan.Clone()
	return nil
}

func (m *mockEngineState) GetProfile(addr string) (*BorrowerProfile, error) {
	return m.profiles[addr].Clone(), nil
}

func (m *mockEngineState) PutProfile(profile *BorrowerProfile) error {
	m.profiles[profile.Address] = profile.Clone()
	return nil
}

func (m *mockEngineState) AppendAttestation(att *Attestation) error {
	m.attestations[att.Subject] = append(m.attestations[att.Subject], att)
	return nil
}

func (m *mockEngineState) AppendTransaction(rec *TransactionRecord) error {
	m.transactions[rec.Subject] = append(m.transactions[rec.Subject], rec)
	return nil
}

// mockLedger applies transfers against in-memory balances and fails the debit
// when the source cannot cover it, the same contract the engine gets from the
// production book.
type mockLedger struct {
	balances map[string]*big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[string]*big.Int)}
}

func (l *mockLedger) fund(account string, amount int64) {
	l.balances[account] = big.NewInt(amount)
}

func (l *mockLedger) balance(account string) *big.Int {
	if bal, ok := l.balances[account]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (l *mockLedger) Transfer(from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("mock ledger: invalid amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	source := l.balance(from)
	if source.Cmp(amount) < 0 {
		return fmt.Errorf("mock ledger: insufficient funds in %s", from)
	}
	l.balances[from] = new(big.Int).Sub(source, amount)
	l.balances[to] = new(big.Int).Add(l.balance(to), amount)
	return nil
}

type manualClock struct {
	now int64
}

func (c *manualClock) Now() int64 { return c.now }

func (c *manualClock) advanceDays(days int64) { c.now += days * 86_400 }

type testHarness struct {
	engine *Engine
	state  *mockEngineState
	ledger *mockLedger
	clock  *manualClock
}

const testTreasury = "treasury"

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	state := newMockEngineState()
	ledger := newMockLedger()
	clock := &manualClock{now: 1_700_000_000}
	engine := NewEngine(clock, ledger, testTreasury)
	engine.SetState(state)
	return &testHarness{engine: engine, state: state, ledger: ledger, clock: clock}
}

// initPlatform seeds the platform with a zero fee and wide loan bounds.
func (h *testHarness) initPlatform(t *testing.T, feeBps uint64) *PlatformAccount {
	t.Helper()
	platform, err := h.engine.InitPlatform(feeBps, big.NewInt(1_000), big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("init platform: %v", err)
	}
	return platform
}

func (h *testHarness) createPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := h.engine.CreatePool("community pool", 1_000, 365*86_400)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return pool
}

func (h *testHarness) deposit(t *testing.T, poolID, lender string, amount int64) *big.Int {
	t.Helper()
	h.ledger.fund(lender, amount)
	shares, err := h.engine.Deposit(poolID, lender, big.NewInt(amount))
	if err != nil {
		t.Fatalf("deposit %d from %s: %v", amount, lender, err)
	}
	return shares
}

func (h *testHarness) registerBorrower(t *testing.T, addr string) *BorrowerProfile {
	t.Helper()
	profile, err := h.engine.RegisterBorrower(addr)
	if err != nil {
		t.Fatalf("register borrower %s: %v", addr, err)
	}
	return profile
}

func assertBig(t *testing.T, label string, got *big.Int, want int64) {
	t.Helper()
	if got == nil || got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("unexpected %s: got %s want %d", label, got, want)
	}
}
