// Package bank is a minimal balance book backing the engine's asset-transfer
// collaborator in the daemon. Real custody is expected to live outside the
// ledger; this book exists so a standalone deployment has funded accounts to
// move value between.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"microlend/storage"
)

var (
	// ErrInvalidAmount is returned for nil or non-positive transfer amounts.
	ErrInvalidAmount = errors.New("bank: amount must be positive")
	// ErrInsufficientFunds is returned when the source balance cannot cover
	// the transfer.
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
)

const prefixAccount = "account/"

type accountRecord struct {
	Balance *big.Int `json:"balance"`
}

// Book tracks account balances in the key-value store. It serialises its own
// mutations; the engine relies on each Transfer being atomic.
type Book struct {
	mu sync.Mutex
	db storage.Database
}

// NewBook wraps the database.
func NewBook(db storage.Database) *Book {
	return &Book{db: db}
}

func (b *Book) load(account string) (*big.Int, error) {
	raw, err := b.db.Get([]byte(prefixAccount + account))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	var rec accountRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("bank: decode account %s: %w", account, err)
	}
	if rec.Balance == nil {
		rec.Balance = big.NewInt(0)
	}
	return rec.Balance, nil
}

func (b *Book) store(account string, balance *big.Int) error {
	raw, err := json.Marshal(accountRecord{Balance: balance})
	if err != nil {
		return err
	}
	return b.db.Put([]byte(prefixAccount+account), raw)
}

// Balance returns the account's current balance; unknown accounts are zero.
func (b *Book) Balance(account string) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(account)
}

// Mint credits freshly issued units to the account. Administrative operation
// for funding accounts in standalone deployments.
func (b *Book) Mint(account string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	balance, err := b.load(account)
	if err != nil {
		return err
	}
	return b.store(account, new(big.Int).Add(balance, amount))
}

// Transfer moves amount from one account to another. The debit is verified
// before either side is written, so a failure leaves both untouched.
func (b *Book) Transfer(from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	source, err := b.load(from)
	if err != nil {
		return err
	}
	if source.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	dest, err := b.load(to)
	if err != nil {
		return err
	}
	if err := b.store(from, new(big.Int).Sub(source, amount)); err != nil {
		return err
	}
	return b.store(to, new(big.Int).Add(dest, amount))
}
