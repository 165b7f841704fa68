package service

import (
	"context"
	"errors"

	"carecoin/internal/ledger/models"
	"carecoin/pkg/platform/sentinel"
)

// The query surface is a set of pure projections over ledger state: no side
// effects, and absent data reads as a defined default rather than an error.

// Name returns the token name.
func (s *Service) Name() string { return models.TokenName }

// Symbol returns the token symbol.
func (s *Service) Symbol() string { return models.TokenSymbol }

// Decimals returns the token precision.
func (s *Service) Decimals() int { return models.Decimals }

// TotalSupply returns the immutable supply ceiling. Circulating supply is
// TotalMinted.
func (s *Service) TotalSupply() uint64 { return models.MaxSupply }

// Balance returns the balance for an account, zero for unknown accounts.
func (s *Service) Balance(ctx context.Context, account string) (uint64, error) {
	balance, err := s.store.Balance(ctx, account)
	if err != nil {
		return 0, s.internal(err, "read balance")
	}
	return balance, nil
}

// TotalMinted returns net tokens created minus burned.
func (s *Service) TotalMinted(ctx context.Context) (uint64, error) {
	total, err := s.store.TotalMinted(ctx)
	if err != nil {
		return 0, s.internal(err, "read total minted")
	}
	return total, nil
}

// IsPaused reports whether value movement is halted.
func (s *Service) IsPaused(ctx context.Context) (bool, error) {
	paused, err := s.store.Paused(ctx)
	if err != nil {
		return false, s.internal(err, "read paused flag")
	}
	return paused, nil
}

// IsBlacklisted reports blacklist membership, false for unknown accounts.
func (s *Service) IsBlacklisted(ctx context.Context, account string) (bool, error) {
	blacklisted, err := s.store.IsBlacklisted(ctx, account)
	if err != nil {
		return false, s.internal(err, "check blacklist")
	}
	return blacklisted, nil
}

// TokenURI returns the off-chain metadata pointer, nil when unset.
func (s *Service) TokenURI(ctx context.Context) (*string, error) {
	uri, err := s.store.TokenURI(ctx)
	if err != nil {
		return nil, s.internal(err, "read token uri")
	}
	return uri, nil
}

// MintCounter returns the id of the most recent mint, zero before the first.
func (s *Service) MintCounter(ctx context.Context) (uint64, error) {
	counter, err := s.store.MintCounter(ctx)
	if err != nil {
		return 0, s.internal(err, "read mint counter")
	}
	return counter, nil
}

// MintMetadata returns the audit record for a mint id, nil for ids that were
// never allocated.
func (s *Service) MintMetadata(ctx context.Context, id uint64) (*models.MintRecord, error) {
	record, err := s.store.MintRecord(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, s.internal(err, "read mint record")
	}
	return record, nil
}
