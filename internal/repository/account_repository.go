package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymsync/internal/models"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrStatusConflict   = errors.New("account status changed concurrently")
	ErrStoreUnavailable = errors.New("account store unavailable")
)

const uniqueViolation = "23505"

const accountColumns = `
	id, email, password_hash, name, organization_name, phone_number, address, description,
	avatar_key, role, status, reviewed_by, reviewed_at, rejection_reason, created_at, updated_at`

type AccountRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewAccountRepository(pool *pgxpool.Pool, timeout time.Duration) *AccountRepository {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AccountRepository{pool: pool, timeout: timeout}
}

func (r *AccountRepository) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Create inserts account and returns it as stored. Status is derived from the role.
func (r *AccountRepository) Create(ctx context.Context, account models.Account) (models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	if _, err := r.findOne(ctx, `WHERE email = $1`, account.Email); err == nil {
		return models.Account{}, ErrDuplicateEmail
	} else if !errors.Is(err, ErrAccountNotFound) {
		return models.Account{}, err
	}

	account.Status = models.InitialStatus(account.Role)

	query := `
		INSERT INTO accounts (
			id, email, password_hash, name, organization_name, phone_number, address, description,
			role, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
		RETURNING ` + accountColumns

	row := r.pool.QueryRow(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.OrganizationName,
		account.PhoneNumber,
		account.Address,
		account.Description,
		account.Role,
		account.Status,
	)
	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.Account{}, ErrDuplicateEmail
		}
		return models.Account{}, storeError(err)
	}
	return created, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindFirstByRole returns the oldest account holding role.
func (r *AccountRepository) FindFirstByRole(ctx context.Context, role models.Role) (models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	return r.findOne(ctx, `WHERE role = $1 ORDER BY created_at ASC LIMIT 1`, role)
}

func (r *AccountRepository) findOne(ctx context.Context, where string, args ...any) (models.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts `+where, args...)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, storeError(err)
	}
	return account, nil
}

// ListByStatus lists gym-owner applications. The pending queue is newest
// application first; reviewed queues are most recently reviewed first.
func (r *AccountRepository) ListByStatus(ctx context.Context, status models.Status) ([]models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	order := "updated_at DESC"
	if status == models.StatusPending {
		order = "created_at DESC"
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 AND status = $2 ORDER BY ` + order
	rows, err := r.pool.Query(ctx, query, models.RoleGymOwner, status)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storeError(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return accounts, nil
}

func (r *AccountRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	const query = `SELECT status, COUNT(*) FROM accounts WHERE role = $1 GROUP BY status`
	rows, err := r.pool.Query(ctx, query, models.RoleGymOwner)
	if err != nil {
		return models.StatusCounts{}, storeError(err)
	}
	defer rows.Close()

	var counts models.StatusCounts
	for rows.Next() {
		var (
			status models.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return models.StatusCounts{}, storeError(err)
		}
		switch status {
		case models.StatusPending:
			counts.Pending = n
		case models.StatusApproved:
			counts.Approved = n
		case models.StatusRejected:
			counts.Rejected = n
		}
		counts.Total += n
	}
	if err := rows.Err(); err != nil {
		return models.StatusCounts{}, storeError(err)
	}
	return counts, nil
}

// UpdateStatus applies change only while the stored status still equals
// change.From, so two reviewers cannot both win. ErrStatusConflict means the
// account exists but was no longer in change.From.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, change models.StatusChange) (models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		UPDATE accounts
		SET status = $3,
		    reviewed_by = NULLIF($4, ''),
		    reviewed_at = NOW(),
		    rejection_reason = $5,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + accountColumns

	row := r.pool.QueryRow(ctx, query, id, change.From, change.To, change.ReviewerID, change.Reason)
	account, err := scanAccount(row)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Account{}, storeError(err)
	}

	if _, err := r.findOne(ctx, `WHERE id = $1`, id); err != nil {
		return models.Account{}, err
	}
	return models.Account{}, ErrStatusConflict
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, profile models.Profile) (models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		UPDATE accounts
		SET name = COALESCE($2, name),
		    organization_name = COALESCE($3, organization_name),
		    phone_number = COALESCE($4, phone_number),
		    address = COALESCE($5, address),
		    description = COALESCE($6, description),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	row := r.pool.QueryRow(ctx, query, id,
		profile.Name,
		profile.OrganizationName,
		profile.PhoneNumber,
		profile.Address,
		profile.Description,
	)
	return r.scanUpdated(row)
}

func (r *AccountRepository) SetAvatar(ctx context.Context, id string, key string) (models.Account, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `UPDATE accounts SET avatar_key = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + accountColumns
	return r.scanUpdated(r.pool.QueryRow(ctx, query, id, key))
}

func (r *AccountRepository) scanUpdated(row pgx.Row) (models.Account, error) {
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, storeError(err)
	}
	return account, nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.OrganizationName,
		&account.PhoneNumber,
		&account.Address,
		&account.Description,
		&account.AvatarKey,
		&account.Role,
		&account.Status,
		&account.ReviewedBy,
		&account.ReviewedAt,
		&account.RejectionReason,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}

// storeError keeps the driver error (and any context error) reachable with
// errors.Is while marking it as a store failure.
func storeError(err error) error {
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
