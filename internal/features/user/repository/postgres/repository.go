package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/user/models"
	"atmwater-backend/internal/features/user/repository"
)

const userColumns = `id, phone_number, name, email, role, balance, referral_code, managed_by, password_hash,
	COALESCE(last_login, 'epoch'::timestamptz), created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, phone_number, name, email, role, balance, referral_code, managed_by, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11)`,
		user.ID, user.PhoneNumber, user.Name, user.Email, user.Role, user.Balance,
		user.ReferralCode, user.ManagedBy, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewConflictError("user", "phone number already registered")
		}
		return apperrors.NewDatabaseError("create user", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phoneNumber)
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
}

func (r *userRepository) FindByRole(ctx context.Context, role models.Role) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 LIMIT 1`, role)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, role *models.Role) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	args := []interface{}{}
	if role != nil {
		query = `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
		args = append(args, *role)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan user", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET name = $2, email = $3, managed_by = $4, last_login = $5, updated_at = $6
		WHERE id = $1`,
		user.ID, user.Name, user.Email, user.ManagedBy, nullableTime(user.LastLogin), user.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	return nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return apperrors.NewDatabaseError("update role", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	return nil
}

func (r *userRepository) SetPassword(ctx context.Context, id string, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return apperrors.NewDatabaseError("set password", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	return nil
}

// DecrementBalance is the withdrawal hold. The balance condition is part of
// the UPDATE itself so two concurrent holds can never both pass against a
// stale read.
func (r *userRepository) DecrementBalance(ctx context.Context, id string, amount int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2`,
		id, amount,
	)
	if err != nil {
		return apperrors.NewDatabaseError("decrement balance", err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperrors.New(apperrors.ErrCodeInsufficientFunds, "Insufficient balance")
	}
	return nil
}

func (r *userRepository) IncrementBalance(ctx context.Context, id string, amount int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE id = $1`,
		id, amount,
	)
	if err != nil {
		return apperrors.NewDatabaseError("increment balance", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeUserNotFound, "User not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var referralCode *string
	if err := row.Scan(
		&user.ID, &user.PhoneNumber, &user.Name, &user.Email, &user.Role, &user.Balance,
		&referralCode, &user.ManagedBy, &user.PasswordHash,
		&user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if referralCode != nil {
		user.ReferralCode = *referralCode
	}
	return &user, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
