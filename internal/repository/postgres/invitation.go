package postgres

import (
	"context"
	"database/sql"
	"time"

	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/repository"
)

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) repository.InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `INSERT INTO invitations
	          (invitation_type, status, invited_given_name, invited_family_name, invited_phone,
	           invited_email, verification_code, failed_attempts, provider_organization_id, invited_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	inv.CreatedAt = time.Now()
	return r.db.QueryRowContext(ctx, query,
		inv.Type, inv.Status, inv.InvitedGivenName, inv.InvitedFamilyName, inv.InvitedPhone,
		inv.InvitedEmail, inv.VerificationCode, inv.FailedAttempts, inv.ProviderOrganizationID,
		inv.InvitedBy, inv.CreatedAt,
	).Scan(&inv.ID)
}

func (r *invitationRepository) GetByID(ctx context.Context, id int64) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	query := `SELECT id, invitation_type, status, invited_given_name, invited_family_name, invited_phone,
	                 invited_email, verification_code, failed_attempts, provider_organization_id, invited_by, created_at
	          FROM invitations WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID, &inv.Type, &inv.Status, &inv.InvitedGivenName, &inv.InvitedFamilyName, &inv.InvitedPhone,
		&inv.InvitedEmail, &inv.VerificationCode, &inv.FailedAttempts, &inv.ProviderOrganizationID,
		&inv.InvitedBy, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Update(ctx context.Context, inv *domain.Invitation) error {
	query := `UPDATE invitations
	          SET status = $1, invited_given_name = $2, invited_family_name = $3,
	              invited_phone = $4, invited_email = $5, failed_attempts = $6
	          WHERE id = $7`
	_, err := r.db.ExecContext(ctx, query,
		inv.Status, inv.InvitedGivenName, inv.InvitedFamilyName,
		inv.InvitedPhone, inv.InvitedEmail, inv.FailedAttempts, inv.ID,
	)
	return err
}

func (r *invitationRepository) HasPendingDuplicate(ctx context.Context, orgID int64, givenName, familyName, email string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM invitations
	            WHERE provider_organization_id = $1
	              AND status = 'pending'
	              AND invitation_type = 'credential_delegate'
	              AND lower(invited_given_name) = lower($2)
	              AND lower(invited_family_name) = lower($3)
	              AND lower(invited_email) = lower($4)
	          )`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, orgID, givenName, familyName, email).Scan(&exists)
	return exists, err
}
