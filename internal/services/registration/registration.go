// Package registration contains the business logic of account creation:
// the duplicate identity check, credential handling, identity verification
// with trial activation, and login.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-access/internal/lib/credential"
	"github.com/magabrotheeeer/premium-access/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-access/internal/lib/trialclock"
	"github.com/magabrotheeeer/premium-access/internal/metrics"
	"github.com/magabrotheeeer/premium-access/internal/models"
	"github.com/magabrotheeeer/premium-access/internal/storage/repository"
)

// ConflictReason names the outcome of the duplicate identity check.
type ConflictReason string

const (
	ReasonNone          ConflictReason = "none"
	ReasonPhoneRequired ConflictReason = "phone_required"
	ReasonPhoneTaken    ConflictReason = "phone_taken"
	ReasonEmailTaken    ConflictReason = "email_taken"
)

var (
	// ErrInvalidCredentials is returned on login with a wrong or unset password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified is returned when the identity verifier rejects the code.
	ErrNotVerified = errors.New("verification code rejected")
)

// AccountRepository describes the persistence contract of this service.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account models.Account) (string, error)
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	FindAccountByPhone(ctx context.Context, phoneNumber string) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ActivateTrial(ctx context.Context, uid string, startedAt, endsAt time.Time, status string) (bool, error)
	UpdateCredential(ctx context.Context, uid string, hash, salt []byte) error
}

// CodeVerifier is the external identity/OTP collaborator. Only the boolean
// verification result is consumed here.
type CodeVerifier interface {
	SendCode(ctx context.Context, phoneNumber string) error
	Verify(ctx context.Context, phoneNumber, code string) (bool, error)
}

// Service implements registration, verification and login.
type Service struct {
	repo     AccountRepository
	verifier CodeVerifier
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// New creates the registration service with its collaborators injected.
func New(repo AccountRepository, verifier CodeVerifier, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		verifier: verifier,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// CheckDuplicate runs the advisory uniqueness check for the identity keys.
//
// The two lookups run strictly one after the other: phone first, and only
// when the phone is free is the email looked up. Running them concurrently
// against the store is a known defect class, not an optimization target.
// An absent email is not checked at all. The result is advisory; uniqueness
// is re-enforced by the table constraints at creation time.
func (s *Service) CheckDuplicate(ctx context.Context, phoneNumber string, email *string) (ConflictReason, error) {
	const op = "registration.CheckDuplicate"

	if phoneNumber == "" {
		return ReasonPhoneRequired, nil
	}

	_, err := s.repo.FindAccountByPhone(ctx, phoneNumber)
	switch {
	case err == nil:
		return ReasonPhoneTaken, nil
	case !errors.Is(err, repository.ErrAccountNotFound):
		return ReasonNone, fmt.Errorf("%s: %w", op, err)
	}

	if email == nil || *email == "" {
		return ReasonNone, nil
	}

	_, err = s.repo.FindAccountByEmail(ctx, *email)
	switch {
	case err == nil:
		return ReasonEmailTaken, nil
	case !errors.Is(err, repository.ErrAccountNotFound):
		return ReasonNone, fmt.Errorf("%s: %w", op, err)
	}

	return ReasonNone, nil
}

// Register creates an account with a hashed credential. The trial window is
// not armed here; it opens after the first successful identity verification.
func (s *Service) Register(ctx context.Context, phoneNumber string, email *string, password string) (string, ConflictReason, error) {
	const op = "registration.Register"

	reason, err := s.CheckDuplicate(ctx, phoneNumber, email)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", ReasonNone, fmt.Errorf("%s: %w", op, err)
	}
	if reason != ReasonNone {
		metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		return "", reason, nil
	}

	hash, salt, err := credential.SetCredential(password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", ReasonNone, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.repo.CreateAccount(ctx, models.Account{
		PhoneNumber:    phoneNumber,
		Email:          email,
		CredentialHash: hash,
		CredentialSalt: salt,
		Status:         models.StatusUnregistered,
	})
	if err != nil {
		// The advisory check can lose the check-then-create race; the table
		// constraints are the authority and report the same reasons.
		switch {
		case errors.Is(err, repository.ErrPhoneTaken):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return "", ReasonPhoneTaken, nil
		case errors.Is(err, repository.ErrEmailTaken):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return "", ReasonEmailTaken, nil
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return "", ReasonNone, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return uid, ReasonNone, nil
}

// RequestCode asks the verifier to deliver a one-time code.
func (s *Service) RequestCode(ctx context.Context, phoneNumber string) error {
	const op = "registration.RequestCode"
	if err := s.verifier.SendCode(ctx, phoneNumber); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConfirmVerification checks the code and opens the 48h trial window on the
// first successful verification. A later verification never re-arms the
// window: the repository activates the trial only when it was never set,
// and a repeat is reported as activated=false without error.
func (s *Service) ConfirmVerification(ctx context.Context, phoneNumber, code string) (bool, error) {
	const op = "registration.ConfirmVerification"

	verified, err := s.verifier.Verify(ctx, phoneNumber, code)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !verified {
		return false, ErrNotVerified
	}

	account, err := s.repo.FindAccountByPhone(ctx, phoneNumber)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if account.HasTrial() {
		s.log.Info("verification repeated, trial window kept",
			slog.String("account_uid", account.UID))
		return false, nil
	}

	startedAt, endsAt := trialclock.Activate(time.Now().UTC())
	activated, err := s.repo.ActivateTrial(ctx, account.UID, startedAt, endsAt, models.StatusTrial)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return activated, nil
}

// Login verifies the password against the stored credential and issues a JWT.
func (s *Service) Login(ctx context.Context, phoneNumber, password string) (string, error) {
	const op = "registration.Login"

	account, err := s.repo.FindAccountByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !credential.Verify(password, account.CredentialHash, account.CredentialSalt) {
		return "", ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(account.UID, account.PhoneNumber)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// SetPassword replaces the account credential. An empty plaintext clears it,
// which is the explicit "remove password" operation.
func (s *Service) SetPassword(ctx context.Context, uid, plaintext string) error {
	const op = "registration.SetPassword"

	hash, salt, err := credential.SetCredential(plaintext)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateCredential(ctx, uid, hash, salt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if hash == nil {
		s.log.Info("credential cleared", slog.String("account_uid", uid))
	}
	return nil
}
