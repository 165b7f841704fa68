package store

import (
	"context"
	"sync"

	"carecoin/internal/ledger/models"
	"carecoin/pkg/platform/sentinel"
)

// InMemory keeps the full ledger state in process. It backs unit tests and
// single-node deployments; the sparse balance map mirrors the contract's
// storage, where an absent key is balance zero.
type InMemory struct {
	mu          sync.RWMutex
	balances    map[string]uint64
	blacklist   map[string]struct{}
	mints       map[uint64]models.MintRecord
	totalMinted uint64
	mintCounter uint64
	paused      bool
	tokenURI    *string
}

func NewInMemory() *InMemory {
	return &InMemory{
		balances:  make(map[string]uint64),
		blacklist: make(map[string]struct{}),
		mints:     make(map[uint64]models.MintRecord),
	}
}

func (s *InMemory) Balance(_ context.Context, account string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *InMemory) SetBalance(_ context.Context, account string, balance uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if balance == 0 {
		// Keep the map sparse; zero and absent are indistinguishable.
		delete(s.balances, account)
		return nil
	}
	s.balances[account] = balance
	return nil
}

func (s *InMemory) TotalMinted(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalMinted, nil
}

func (s *InMemory) SetTotalMinted(_ context.Context, total uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalMinted = total
	return nil
}

func (s *InMemory) Paused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused, nil
}

func (s *InMemory) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
	return nil
}

func (s *InMemory) IsBlacklisted(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blacklist[account]
	return ok, nil
}

func (s *InMemory) AddToBlacklist(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blacklist[account]; ok {
		return sentinel.ErrConflict
	}
	s.blacklist[account] = struct{}{}
	return nil
}

func (s *InMemory) RemoveFromBlacklist(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blacklist[account]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.blacklist, account)
	return nil
}

func (s *InMemory) TokenURI(_ context.Context) (*string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokenURI == nil {
		return nil, nil
	}
	uri := *s.tokenURI
	return &uri, nil
}

func (s *InMemory) SetTokenURI(_ context.Context, uri *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uri == nil {
		s.tokenURI = nil
		return nil
	}
	value := *uri
	s.tokenURI = &value
	return nil
}

func (s *InMemory) MintCounter(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mintCounter, nil
}

func (s *InMemory) AppendMintRecord(_ context.Context, record models.MintRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mints[record.ID]; ok {
		return sentinel.ErrConflict
	}
	s.mints[record.ID] = record
	s.mintCounter = record.ID
	return nil
}

func (s *InMemory) MintRecord(_ context.Context, id uint64) (*models.MintRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.mints[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

// LockState is a no-op: in-process callers are serialized by the service
// mutex, and the store's own mutex covers individual reads and writes.
func (s *InMemory) LockState(_ context.Context) error { return nil }

// SumBalances is a test hook for the conservation invariant
// sum(balances) == totalMinted.
func (s *InMemory) SumBalances() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum uint64
	for _, balance := range s.balances {
		sum += balance
	}
	return sum
}
