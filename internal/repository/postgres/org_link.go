package postgres

import (
	"context"
	"database/sql"
	"time"

	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/repository"
)

type aoOrgLinkRepository struct {
	db *sql.DB
}

func NewAoOrgLinkRepository(db *sql.DB) repository.AoOrgLinkRepository {
	return &aoOrgLinkRepository{db: db}
}

func (r *aoOrgLinkRepository) Create(ctx context.Context, link *domain.AoOrgLink) error {
	query := `INSERT INTO ao_org_links
	          (user_id, provider_organization_id, invitation_id, verification_status, verification_reason, last_checked_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now()
	link.CreatedAt = now
	if link.VerificationStatus == "" {
		link.VerificationStatus = domain.VerificationStatusApproved
	}
	if link.LastCheckedAt == nil {
		link.LastCheckedAt = &now
	}
	return r.db.QueryRowContext(ctx, query,
		link.UserID, link.ProviderOrganizationID, link.InvitationID,
		link.VerificationStatus, link.VerificationReason, link.LastCheckedAt, link.CreatedAt,
	).Scan(&link.ID)
}

func (r *aoOrgLinkRepository) GetByUserAndOrg(ctx context.Context, userID, orgID int64) (*domain.AoOrgLink, error) {
	link := &domain.AoOrgLink{}
	query := `SELECT id, user_id, provider_organization_id, invitation_id, verification_status, verification_reason, last_checked_at, created_at
	          FROM ao_org_links WHERE user_id = $1 AND provider_organization_id = $2`
	err := r.db.QueryRowContext(ctx, query, userID, orgID).Scan(
		&link.ID, &link.UserID, &link.ProviderOrganizationID, &link.InvitationID,
		&link.VerificationStatus, &link.VerificationReason, &link.LastCheckedAt, &link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}

type cdOrgLinkRepository struct {
	db *sql.DB
}

func NewCdOrgLinkRepository(db *sql.DB) repository.CdOrgLinkRepository {
	return &cdOrgLinkRepository{db: db}
}

func (r *cdOrgLinkRepository) Create(ctx context.Context, link *domain.CdOrgLink) error {
	query := `INSERT INTO cd_org_links (user_id, provider_organization_id, invitation_id, created_at)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	link.CreatedAt = time.Now()
	return r.db.QueryRowContext(ctx, query,
		link.UserID, link.ProviderOrganizationID, link.InvitationID, link.CreatedAt,
	).Scan(&link.ID)
}

func (r *cdOrgLinkRepository) Disable(ctx context.Context, id int64) error {
	query := `UPDATE cd_org_links SET disabled_at = $1 WHERE id = $2 AND disabled_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

func (r *cdOrgLinkRepository) HasEnabledMatch(ctx context.Context, orgID int64, givenName, familyName, email string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM cd_org_links l
	            JOIN users u ON u.id = l.user_id
	            WHERE l.provider_organization_id = $1
	              AND l.disabled_at IS NULL
	              AND lower(u.given_name) = lower($2)
	              AND lower(u.family_name) = lower($3)
	              AND lower(u.email) = lower($4)
	          )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, orgID, givenName, familyName, email).Scan(&exists)
	return exists, err
}
