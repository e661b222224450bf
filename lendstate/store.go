// Package lendstate persists lending records as JSON documents in a
// key-value Database, giving the engine a durable state backend that can run
// on LevelDB in production and the in-memory store in tests.
package lendstate

import (
	"encoding/json"
	"errors"
	"fmt"

	"microlend/lending"
	"microlend/storage"
)

const (
	keyPlatform      = "platform"
	prefixPool       = "pool/"
	prefixPosition   = "position/"
	prefixLoan       = "loan/"
	prefixProfile    = "profile/"
	prefixAttests    = "attestations/"
	prefixTransacted = "transactions/"
)

// Store implements the engine's state interface over a storage.Database.
// Lookups return (nil, nil) when a record does not exist; decoded records are
// fresh copies, so mutations by the engine never leak into stored state until
// the matching Put.
type Store struct {
	db storage.Database
}

// NewStore wraps the database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func (s *Store) get(key string, out any) (bool, error) {
	raw, err := s.db.Get([]byte(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("lendstate: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(key string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("lendstate: encode %s: %w", key, err)
	}
	return s.db.Put([]byte(key), raw)
}

func (s *Store) GetPlatform() (*lending.PlatformAccount, error) {
	var platform lending.PlatformAccount
	ok, err := s.get(keyPlatform, &platform)
	if err != nil || !ok {
		return nil, err
	}
	return &platform, nil
}

func (s *Store) PutPlatform(platform *lending.PlatformAccount) error {
	return s.put(keyPlatform, platform)
}

func (s *Store) GetPool(id string) (*lending.Pool, error) {
	var pool lending.Pool
	ok, err := s.get(prefixPool+id, &pool)
	if err != nil || !ok {
		return nil, err
	}
	return &pool, nil
}

func (s *Store) PutPool(pool *lending.Pool) error {
	return s.put(prefixPool+pool.ID, pool)
}

func positionKey(poolID, lender string) string {
	return prefixPosition + poolID + "/" + lender
}

func (s *Store) GetPosition(poolID, lender string) (*lending.LenderPosition, error) {
	var position lending.LenderPosition
	ok, err := s.get(positionKey(poolID, lender), &position)
	if err != nil || !ok {
		return nil, err
	}
	return &position, nil
}

func (s *Store) PutPosition(position *lending.LenderPosition) error {
	return s.put(positionKey(position.PoolID, position.Lender), position)
}

func (s *Store) GetLoan(id string) (*lending.Loan, error) {
	var loan lending.Loan
	ok, err := s.get(prefixLoan+id, &loan)
	if err != nil || !ok {
		return nil, err
	}
	return &loan, nil
}

func (s *Store) PutLoan(loan *lending.Loan) error {
	return s.put(prefixLoan+loan.ID, loan)
}

func (s *Store) GetProfile(addr string) (*lending.BorrowerProfile, error) {
	var profile lending.BorrowerProfile
	ok, err := s.get(prefixProfile+addr, &profile)
	if err != nil || !ok {
		return nil, err
	}
	return &profile, nil
}

func (s *Store) PutProfile(profile *lending.BorrowerProfile) error {
	return s.put(prefixProfile+profile.Address, profile)
}

// AppendAttestation appends to the subject's attestation log.
func (s *Store) AppendAttestation(att *lending.Attestation) error {
	var list []*lending.Attestation
	if _, err := s.get(prefixAttests+att.Subject, &list); err != nil {
		return err
	}
	list = append(list, att)
	return s.put(prefixAttests+att.Subject, list)
}

// Attestations returns the subject's attestation log, oldest first.
func (s *Store) Attestations(subject string) ([]*lending.Attestation, error) {
	var list []*lending.Attestation
	if _, err := s.get(prefixAttests+subject, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AppendTransaction appends to the subject's transaction-history log.
func (s *Store) AppendTransaction(rec *lending.TransactionRecord) error {
	var list []*lending.TransactionRecord
	if _, err := s.get(prefixTransacted+rec.Subject, &list); err != nil {
		return err
	}
	list = append(list, rec)
	return s.put(prefixTransacted+rec.Subject, list)
}

// Transactions returns the subject's transaction log, oldest first.
func (s *Store) Transactions(subject string) ([]*lending.TransactionRecord, error) {
	var list []*lending.TransactionRecord
	if _, err := s.get(prefixTransacted+subject, &list); err != nil {
		return nil, err
	}
	return list, nil
}
