// Package access contains the service that answers access checks: it loads
// the account (through the Redis cache), runs the pure access policy and
// keeps the stored status column in sync as a display cache.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access/internal/access"
	"github.com/magabrotheeeer/premium-access/internal/lib/sl"
	"github.com/magabrotheeeer/premium-access/internal/lib/trialclock"
	"github.com/magabrotheeeer/premium-access/internal/models"
)

const cacheTTL = time.Minute

// AccountRepository describes the persistence contract of this service.
type AccountRepository interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	UpdateStatus(ctx context.Context, uid, status string) error
}

// Cache is the account record cache. Caching the record is safe because the
// decision itself is always recomputed against the current instant.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service evaluates access for an account id.
type Service struct {
	repo  AccountRepository
	cache Cache
	log   *slog.Logger
}

// New creates the access service.
func New(repo AccountRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// CheckResult is the answer to one access check.
type CheckResult struct {
	Decision     access.Decision `json:"decision"`
	Status       string          `json:"status"`
	TrialMessage string          `json:"trial_message"`
}

// CacheKey builds the cache key for an account record.
func CacheKey(uid string) string {
	return "account:" + uid
}

// Check evaluates access for the account at now.
//
// The evaluation itself never trusts the stored status; when the derived
// status differs from the cached column, the column is refreshed so reads
// for display purposes do not drift. A failed write-back only logs: the
// answer returned to the caller is already correct.
func (s *Service) Check(ctx context.Context, uid string, now time.Time) (*CheckResult, error) {
	const op = "access.Check"

	account := &models.Account{}
	found, err := s.cache.Get(CacheKey(uid), account)
	if err != nil {
		s.log.Warn("account cache read failed", sl.Err(err))
		found = false
	}
	if !found {
		account, err = s.repo.GetAccount(ctx, uid)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.cache.Set(CacheKey(uid), account, cacheTTL); err != nil {
			s.log.Warn("account cache write failed", sl.Err(err))
		}
	}

	res := access.Evaluate(account, now)
	if res.Status != account.Status {
		if err := s.repo.UpdateStatus(ctx, uid, res.Status); err != nil {
			s.log.Warn("status write-back failed", sl.Err(err))
		} else {
			account.Status = res.Status
			if err := s.cache.Set(CacheKey(uid), account, cacheTTL); err != nil {
				s.log.Warn("account cache write failed", sl.Err(err))
			}
		}
	}

	return &CheckResult{
		Decision:     res.Decision,
		Status:       res.Status,
		TrialMessage: trialclock.DisplayMessage(account.TrialStartedAt, account.TrialEndsAt, now),
	}, nil
}
