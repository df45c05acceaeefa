// Package payment contains the payment initiation logic and the webhook
// processor that applies confirmed payments to account records.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/premium-access/internal/config"
	"github.com/magabrotheeeer/premium-access/internal/metrics"
	"github.com/magabrotheeeer/premium-access/internal/models"
	"github.com/magabrotheeeer/premium-access/internal/paymentprovider"
)

// ErrPaymentInitiation covers every initiation failure: unreachable gateway,
// rejected merchant credentials or malformed account data. The cause is
// wrapped; no account state is touched on any failure path.
var ErrPaymentInitiation = errors.New("payment initiation failed")

// GatewayClient is the external payment processor contract.
type GatewayClient interface {
	InitializeTransaction(ctx context.Context, reqParams paymentprovider.InitializeRequest) (*paymentprovider.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paymentprovider.VerifyResponse, error)
}

// AccountRepository describes the persistence contract of this service.
type AccountRepository interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	ApplyPayment(ctx context.Context, uid, reference string, amountMinorUnits int64,
		paidAt, paidUntil time.Time, status string) (bool, error)
}

// Cache invalidates stale account records after a payment is applied.
type Cache interface {
	Invalidate(key string) error
}

// EventPublisher emits lifecycle events for downstream consumers.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service implements payment initiation and webhook application.
type Service struct {
	repo      AccountRepository
	gateway   GatewayClient
	cache     Cache
	publisher EventPublisher
	cfg       config.PaymentGateway
	log       *slog.Logger
}

// New creates the payment service with its collaborators injected.
func New(repo AccountRepository, gateway GatewayClient, cache Cache,
	publisher EventPublisher, cfg config.PaymentGateway, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// newReference builds a reference that embeds the account id for
// correlation, a timestamp for traceability and a random component so a
// reference can be neither guessed nor replayed by construction.
func newReference(accountUID string) string {
	random := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("PA-%s-%d-%s", accountUID, time.Now().UnixNano(), random)
}

// Initiate opens a checkout session at the gateway for the fixed
// subscription price. The amount always comes from the server config, never
// from the client. Initiation alone grants nothing: the account record is
// only touched when the confirmation webhook arrives.
func (s *Service) Initiate(ctx context.Context, accountUID, email, displayName string) (*models.PaymentIntent, error) {
	const op = "payment.Initiate"

	reference := newReference(accountUID)
	metadata := map[string]string{"user_id": accountUID}
	if displayName != "" {
		metadata["display_name"] = displayName
	}

	resp, err := s.gateway.InitializeTransaction(ctx, paymentprovider.InitializeRequest{
		Amount:      s.cfg.PriceMinorUnits,
		Email:       email,
		Metadata:    metadata,
		CallbackURL: s.cfg.CallbackURL,
		Reference:   reference,
	})
	if err != nil {
		metrics.PaymentInitiationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPaymentInitiation, err)
	}

	metrics.PaymentInitiationsTotal.WithLabelValues("ok").Inc()
	s.log.Info("payment initiated",
		slog.String("account_uid", accountUID),
		slog.String("reference", resp.Reference))

	return &models.PaymentIntent{
		Reference:        resp.Reference,
		AmountMinorUnits: s.cfg.PriceMinorUnits,
		CheckoutURL:      resp.AuthorizationURL,
	}, nil
}
