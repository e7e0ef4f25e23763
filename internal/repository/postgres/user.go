package postgres

import (
	"context"
	"database/sql"
	"time"

	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (email, given_name, family_name, pac_id, verification_status, verification_reason, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.VerificationStatus == "" {
		user.VerificationStatus = domain.VerificationStatusApproved
	}
	return r.db.QueryRowContext(ctx, query,
		user.Email, user.GivenName, user.FamilyName, user.PacID,
		user.VerificationStatus, user.VerificationReason, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, email, given_name, family_name, pac_id, verification_status, verification_reason,
	                 last_checked_at, created_at, updated_at
	          FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.GivenName, &user.FamilyName, &user.PacID,
		&user.VerificationStatus, &user.VerificationReason, &user.LastCheckedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, email, given_name, family_name, pac_id, verification_status, verification_reason,
	                 last_checked_at, created_at, updated_at
	          FROM users WHERE lower(email) = lower($1)`
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.GivenName, &user.FamilyName, &user.PacID,
		&user.VerificationStatus, &user.VerificationReason, &user.LastCheckedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `UPDATE users
	          SET email = $1, given_name = $2, family_name = $3, pac_id = $4,
	              verification_status = $5, verification_reason = $6, last_checked_at = $7, updated_at = $8
	          WHERE id = $9`
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.GivenName, user.FamilyName, user.PacID,
		user.VerificationStatus, user.VerificationReason, user.LastCheckedAt, user.UpdatedAt, user.ID,
	)
	return err
}
