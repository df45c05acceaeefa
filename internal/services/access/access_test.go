package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	policy "github.com/magabrotheeeer/premium-access/internal/access"
	"github.com/magabrotheeeer/premium-access/internal/models"
	"github.com/magabrotheeeer/premium-access/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) UpdateStatus(ctx context.Context, uid, status string) error {
	args := m.Called(ctx, uid, status)
	return args.Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_Check(t *testing.T) {
	startedAt := time.Date(2025, 1, 28, 10, 0, 0, 0, time.UTC)
	endsAt := startedAt.Add(48 * time.Hour)

	t.Run("expired trial locks and refreshes the stale status", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", CacheKey("acc-1"), mock.Anything).Return(false, nil).Once()
		repo.On("GetAccount", mock.Anything, "acc-1").Return(&models.Account{
			UID:            "acc-1",
			Status:         models.StatusTrial, // stale cache column
			TrialStartedAt: &startedAt,
			TrialEndsAt:    &endsAt,
		}, nil).Once()
		cache.On("Set", CacheKey("acc-1"), mock.Anything, cacheTTL).Return(nil).Twice()
		repo.On("UpdateStatus", mock.Anything, "acc-1", models.StatusTrialEnded).Return(nil).Once()
		svc := New(repo, cache, newNoopLogger())

		got, err := svc.Check(context.Background(), "acc-1", endsAt.Add(time.Second))

		require.NoError(t, err)
		assert.Equal(t, policy.DecisionLocked, got.Decision)
		assert.Equal(t, models.StatusTrialEnded, got.Status)
		assert.Equal(t, "trial expired", got.TrialMessage)
		repo.AssertExpectations(t)
	})

	t.Run("active trial from cached record, no write-back", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", CacheKey("acc-1"), mock.Anything).
			Run(func(args mock.Arguments) {
				rec := args.Get(1).(*models.Account)
				rec.UID = "acc-1"
				rec.Status = models.StatusTrial
				rec.TrialStartedAt = &startedAt
				rec.TrialEndsAt = &endsAt
			}).
			Return(true, nil).Once()
		svc := New(repo, cache, newNoopLogger())

		got, err := svc.Check(context.Background(), "acc-1", startedAt.Add(time.Hour))

		require.NoError(t, err)
		assert.Equal(t, policy.DecisionTrial, got.Decision)
		assert.Equal(t, models.StatusTrial, got.Status)
		repo.AssertNotCalled(t, "GetAccount", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache failure falls through to the repository", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", CacheKey("acc-1"), mock.Anything).Return(false, errors.New("redis down")).Once()
		repo.On("GetAccount", mock.Anything, "acc-1").Return(&models.Account{
			UID:    "acc-1",
			Status: models.StatusUnregistered,
		}, nil).Once()
		cache.On("Set", CacheKey("acc-1"), mock.Anything, cacheTTL).Return(errors.New("redis down")).Once()
		svc := New(repo, cache, newNoopLogger())

		got, err := svc.Check(context.Background(), "acc-1", startedAt)

		require.NoError(t, err)
		assert.Equal(t, policy.DecisionLocked, got.Decision)
		assert.Equal(t, "no trial", got.TrialMessage)
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		cache.On("Get", CacheKey("nope"), mock.Anything).Return(false, nil).Once()
		repo.On("GetAccount", mock.Anything, "nope").Return(nil, repository.ErrAccountNotFound).Once()
		svc := New(repo, cache, newNoopLogger())

		_, err := svc.Check(context.Background(), "nope", startedAt)

		assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	})
}
