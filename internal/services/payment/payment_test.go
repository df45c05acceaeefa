package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-access/internal/config"
	"github.com/magabrotheeeer/premium-access/internal/models"
	"github.com/magabrotheeeer/premium-access/internal/paymentprovider"
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

func (m *RepoMock) ApplyPayment(ctx context.Context, uid, reference string, amountMinorUnits int64,
	paidAt, paidUntil time.Time, status string) (bool, error) {
	args := m.Called(ctx, uid, reference, amountMinorUnits, paidAt, paidUntil, status)
	return args.Bool(0), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) InitializeTransaction(ctx context.Context, reqParams paymentprovider.InitializeRequest) (*paymentprovider.InitializeResponse, error) {
	args := m.Called(ctx, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.InitializeResponse), args.Error(1)
}

func (m *GatewayMock) VerifyTransaction(ctx context.Context, reference string) (*paymentprovider.VerifyResponse, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.VerifyResponse), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testGatewayConfig() config.PaymentGateway {
	return config.PaymentGateway{
		APIURL:          "https://gateway.example.com",
		SecretKey:       "sk_test",
		CallbackURL:     "https://service.example.com/paid",
		PriceMinorUnits: 60000,
	}
}

func newService(repo *RepoMock, gateway *GatewayMock, cache *CacheMock, publisher *PublisherMock) *Service {
	return New(repo, gateway, cache, publisher, testGatewayConfig(), newNoopLogger())
}

func TestService_Initiate(t *testing.T) {
	t.Run("uses the server-side price and embeds the account id in the reference", func(t *testing.T) {
		gateway := new(GatewayMock)
		gateway.On("InitializeTransaction", mock.Anything, mock.MatchedBy(func(req paymentprovider.InitializeRequest) bool {
			return req.Amount == 60000 &&
				req.Email == "user@example.com" &&
				req.Metadata["user_id"] == "acc-1" &&
				req.CallbackURL == "https://service.example.com/paid" &&
				strings.HasPrefix(req.Reference, "PA-acc-1-")
		})).Return(&paymentprovider.InitializeResponse{
			AuthorizationURL: "https://checkout.example.com/xyz",
			AccessCode:       "AC_1",
			Reference:        "PA-acc-1-42-deadbeef",
		}, nil).Once()
		svc := newService(new(RepoMock), gateway, new(CacheMock), new(PublisherMock))

		intent, err := svc.Initiate(context.Background(), "acc-1", "user@example.com", "Ada")

		require.NoError(t, err)
		assert.Equal(t, "PA-acc-1-42-deadbeef", intent.Reference)
		assert.Equal(t, int64(60000), intent.AmountMinorUnits)
		assert.Equal(t, "https://checkout.example.com/xyz", intent.CheckoutURL)
		gateway.AssertExpectations(t)
	})

	t.Run("gateway failure surfaces as a single initiation error", func(t *testing.T) {
		repo := new(RepoMock)
		gateway := new(GatewayMock)
		gateway.On("InitializeTransaction", mock.Anything, mock.Anything).
			Return(nil, errors.New("merchant credentials rejected")).Once()
		svc := newService(repo, gateway, new(CacheMock), new(PublisherMock))

		_, err := svc.Initiate(context.Background(), "acc-1", "user@example.com", "")

		assert.ErrorIs(t, err, ErrPaymentInitiation)
		assert.Contains(t, err.Error(), "merchant credentials rejected")
		repo.AssertNotCalled(t, "ApplyPayment",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("references are unique per call", func(t *testing.T) {
		refs := map[string]struct{}{}
		for range 100 {
			refs[newReference("acc-1")] = struct{}{}
		}
		assert.Len(t, refs, 100)
	})
}

func TestService_ApplyWebhook(t *testing.T) {
	paidAt := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	trialStarted := time.Date(2025, 1, 28, 10, 0, 0, 0, time.UTC)
	trialEnds := trialStarted.Add(48 * time.Hour)
	lockedAccount := &models.Account{
		UID:            "acc-1",
		PhoneNumber:    "+2348123456789",
		Status:         models.StatusTrialEnded,
		TrialStartedAt: &trialStarted,
		TrialEndsAt:    &trialEnds,
	}
	event := models.WebhookEvent{
		AccountUID:       "acc-1",
		Reference:        "R1",
		AmountMinorUnits: 60000,
		PaidAt:           paidAt,
	}

	t.Run("first application extends the subscription by 7 days", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)
		repo.On("GetAccount", mock.Anything, "acc-1").Return(lockedAccount, nil).Once()
		repo.On("ApplyPayment", mock.Anything, "acc-1", "R1", int64(60000),
			paidAt, paidAt.Add(7*24*time.Hour), models.StatusPaid).
			Return(true, nil).Once()
		cache.On("Invalidate", "account:acc-1").Return(nil).Once()
		publisher.On("Publish", "payment.applied", mock.MatchedBy(func(ev PaymentAppliedEvent) bool {
			return ev.AccountUID == "acc-1" && ev.Reference == "R1" &&
				ev.PaidUntil.Equal(paidAt.Add(7*24*time.Hour))
		})).Return(nil).Once()
		svc := newService(repo, new(GatewayMock), cache, publisher)

		err := svc.ApplyWebhook(context.Background(), event)

		require.NoError(t, err)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("duplicate reference is a no-op success", func(t *testing.T) {
		ref := "R1"
		paidUntil := paidAt.Add(7 * 24 * time.Hour)
		paidAccount := &models.Account{
			UID:                   "acc-1",
			Status:                models.StatusPaid,
			TrialStartedAt:        &trialStarted,
			TrialEndsAt:           &trialEnds,
			LastPaymentAt:         &paidAt,
			SubscriptionPaidUntil: &paidUntil,
			PaymentReference:      &ref,
		}
		repo := new(RepoMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)
		repo.On("GetAccount", mock.Anything, "acc-1").Return(paidAccount, nil).Once()
		repo.On("ApplyPayment", mock.Anything, "acc-1", "R1", int64(60000),
			paidAt, paidUntil, mock.Anything).
			Return(false, nil).Once()
		svc := newService(repo, new(GatewayMock), cache, publisher)

		err := svc.ApplyWebhook(context.Background(), event)

		require.NoError(t, err)
		cache.AssertNotCalled(t, "Invalidate", mock.Anything)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("unknown account surfaces not-found for the caller to retry", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccount", mock.Anything, "ghost").
			Return(nil, repository.ErrAccountNotFound).Once()
		svc := newService(repo, new(GatewayMock), new(CacheMock), new(PublisherMock))

		err := svc.ApplyWebhook(context.Background(), models.WebhookEvent{
			AccountUID: "ghost",
			Reference:  "R9",
			PaidAt:     paidAt,
		})

		assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	})

	t.Run("publish failure does not fail the webhook", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		publisher := new(PublisherMock)
		repo.On("GetAccount", mock.Anything, "acc-1").Return(lockedAccount, nil).Once()
		repo.On("ApplyPayment", mock.Anything, "acc-1", "R1", int64(60000),
			paidAt, paidAt.Add(7*24*time.Hour), models.StatusPaid).
			Return(true, nil).Once()
		cache.On("Invalidate", "account:acc-1").Return(nil).Once()
		publisher.On("Publish", "payment.applied", mock.Anything).
			Return(errors.New("amqp channel closed")).Once()
		svc := newService(repo, new(GatewayMock), cache, publisher)

		assert.NoError(t, svc.ApplyWebhook(context.Background(), event))
	})
}
