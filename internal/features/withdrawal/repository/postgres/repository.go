package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/withdrawal/models"
	"atmwater-backend/internal/features/withdrawal/repository"
)

const withdrawalColumns = `id, user_id, amount, status, bank_details,
	COALESCE(reviewer_id::text, ''), rejection_reason, paid_at, created_at, updated_at`

type withdrawalRepository struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepository(pool *pgxpool.Pool) repository.WithdrawalRepository {
	return &withdrawalRepository{pool: pool}
}

func (r *withdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	bankJSON, err := json.Marshal(w.BankDetails)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode bank details")
	}

	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now

	_, err = r.pool.Exec(ctx, `
		INSERT INTO withdrawals (id, user_id, amount, status, bank_details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.UserID, w.Amount, w.Status, bankJSON, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError("create withdrawal", err)
	}
	return nil
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM withdrawals WHERE id = $1`, withdrawalColumns), id)

	w, err := scanWithdrawal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("Withdrawal", id)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get withdrawal", err)
	}
	return w, nil
}

func (r *withdrawalRepository) UpdateStatus(ctx context.Context, id string, from, to models.WithdrawalStatus, change repository.StatusUpdate) (*models.Withdrawal, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE withdrawals
		SET status = $3,
		    reviewer_id = NULLIF($4, '')::uuid,
		    rejection_reason = $5,
		    paid_at = $6,
		    updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s`, withdrawalColumns),
		id, from, to, change.ReviewerID, change.RejectionReason, change.PaidAt,
	)

	w, err := scanWithdrawal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing withdrawal from a lost CAS race.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewConflictError("withdrawal",
			fmt.Sprintf("withdrawal is no longer %s", from))
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("update withdrawal status", err)
	}
	return w, nil
}

func (r *withdrawalRepository) ListByUser(ctx context.Context, userID string) ([]*models.Withdrawal, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC`,
		withdrawalColumns), userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list withdrawals by user", err)
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func (r *withdrawalRepository) List(ctx context.Context, filter models.ListFilter) ([]*models.Withdrawal, error) {
	query := fmt.Sprintf(`SELECT %s FROM withdrawals`, withdrawalColumns)
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list withdrawals", err)
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWithdrawal(row rowScanner) (*models.Withdrawal, error) {
	var (
		w        models.Withdrawal
		bankJSON []byte
	)
	if err := row.Scan(
		&w.ID, &w.UserID, &w.Amount, &w.Status, &bankJSON,
		&w.ReviewerID, &w.RejectionReason, &w.PaidAt, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bankJSON, &w.BankDetails); err != nil {
		return nil, fmt.Errorf("decode bank details: %w", err)
	}
	return &w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]*models.Withdrawal, error) {
	var withdrawals []*models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseError("scan withdrawal", err)
		}
		withdrawals = append(withdrawals, w)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("iterate withdrawals", err)
	}
	return withdrawals, nil
}
