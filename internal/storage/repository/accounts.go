package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/premium-access/internal/models"
)

const accountColumns = `uid, phone_number, email, credential_hash, credential_salt,
			      status, trial_started_at, trial_ends_at, last_payment_at,
			      subscription_paid_until, payment_reference, amount_paid_minor`

// CreateAccount inserts a new account and returns its generated uid.
//
// Uniqueness of phone and email is enforced here by the table constraints;
// the advisory duplicate check in the service can lose a race, so a
// unique violation is mapped back to the same conflict errors.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO accounts (phone_number, email, credential_hash, credential_salt, status)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	err := s.DB.QueryRowContext(ctx, query,
		account.PhoneNumber, account.Email, account.CredentialHash,
		account.CredentialSalt, account.Status).Scan(&newUID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
			}
			return "", fmt.Errorf("%s: %w", op, ErrPhoneTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetAccount returns the account with the given uid.
func (s *Storage) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE uid = $1`
	return s.scanAccount(op, s.DB.QueryRowContext(ctx, query, uid))
}

// FindAccountByPhone returns the account registered with the phone number.
func (s *Storage) FindAccountByPhone(ctx context.Context, phoneNumber string) (*models.Account, error) {
	const op = "storage.FindAccountByPhone"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE phone_number = $1`
	return s.scanAccount(op, s.DB.QueryRowContext(ctx, query, phoneNumber))
}

// FindAccountByEmail returns the account registered with the email.
func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.FindAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + `
			  FROM accounts
			  WHERE email = $1`
	return s.scanAccount(op, s.DB.QueryRowContext(ctx, query, email))
}

// ActivateTrial sets the trial window once. The guard on trial_started_at
// makes re-activation a no-op: returns false when the window was already
// armed, so a repeated verification never resets it.
func (s *Storage) ActivateTrial(ctx context.Context, uid string, startedAt, endsAt time.Time, status string) (bool, error) {
	const op = "storage.ActivateTrial"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET trial_started_at = $1,
			      trial_ends_at = $2,
			      status = $3
			  WHERE uid = $4 AND trial_started_at IS NULL`
	res, err := s.DB.ExecContext(ctx, query, startedAt, endsAt, status, uid)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// UpdateCredential stores a new credential hash/salt pair; nil values
// clear the credential.
func (s *Storage) UpdateCredential(ctx context.Context, uid string, hash, salt []byte) error {
	const op = "storage.UpdateCredential"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET credential_hash = $1,
			      credential_salt = $2
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, hash, salt, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	return nil
}

// UpdateStatus writes the derived status back as the display cache.
func (s *Storage) UpdateStatus(ctx context.Context, uid, status string) error {
	const op = "storage.UpdateStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts
			  SET status = $1
			  WHERE uid = $2`
	_, err := s.DB.ExecContext(ctx, query, status, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ApplyPayment applies a confirmed payment to the account inside one
// transaction. The row lock serializes concurrent applications for the
// same account; applications for different accounts do not contend.
//
// Returns false without touching the record when the reference was already
// applied, which makes webhook redelivery a defined no-op success.
func (s *Storage) ApplyPayment(ctx context.Context, uid, reference string,
	amountMinorUnits int64, paidAt, paidUntil time.Time, status string) (bool, error) {
	const op = "storage.ApplyPayment"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var storedReference sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT payment_reference FROM accounts WHERE uid = $1 FOR UPDATE`,
		uid).Scan(&storedReference)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if storedReference.Valid && storedReference.String == reference {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts
		 SET last_payment_at = $1,
		     subscription_paid_until = $2,
		     payment_reference = $3,
		     amount_paid_minor = $4,
		     status = $5
		 WHERE uid = $6`,
		paidAt, paidUntil, reference, amountMinorUnits, status, uid)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Storage) scanAccount(op string, row rowScanner) (*models.Account, error) {
	a := &models.Account{}
	var (
		email            sql.NullString
		trialStartedAt   sql.NullTime
		trialEndsAt      sql.NullTime
		lastPaymentAt    sql.NullTime
		paidUntil        sql.NullTime
		paymentReference sql.NullString
		amountPaid       sql.NullInt64
	)
	err := row.Scan(&a.UID, &a.PhoneNumber, &email, &a.CredentialHash, &a.CredentialSalt,
		&a.Status, &trialStartedAt, &trialEndsAt, &lastPaymentAt,
		&paidUntil, &paymentReference, &amountPaid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if email.Valid {
		a.Email = &email.String
	}
	if trialStartedAt.Valid {
		a.TrialStartedAt = &trialStartedAt.Time
	}
	if trialEndsAt.Valid {
		a.TrialEndsAt = &trialEndsAt.Time
	}
	if lastPaymentAt.Valid {
		a.LastPaymentAt = &lastPaymentAt.Time
	}
	if paidUntil.Valid {
		a.SubscriptionPaidUntil = &paidUntil.Time
	}
	if paymentReference.Valid {
		a.PaymentReference = &paymentReference.String
	}
	if amountPaid.Valid {
		a.AmountPaidMinorUnits = &amountPaid.Int64
	}
	return a, nil
}
