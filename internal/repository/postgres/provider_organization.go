package postgres

import (
	"context"
	"database/sql"
	"time"

	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/repository"
)

type providerOrganizationRepository struct {
	db *sql.DB
}

func NewProviderOrganizationRepository(db *sql.DB) repository.ProviderOrganizationRepository {
	return &providerOrganizationRepository{db: db}
}

const orgColumns = `id, name, npi, dpc_api_organization_id, verification_status, verification_reason,
	last_checked_at, terms_of_service_accepted_at, terms_of_service_accepted_by, config_complete,
	created_at, updated_at`

func (r *providerOrganizationRepository) Create(ctx context.Context, org *domain.ProviderOrganization) error {
	query := `INSERT INTO provider_organizations
	          (name, npi, dpc_api_organization_id, verification_status, verification_reason, config_complete, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	if org.VerificationStatus == "" {
		org.VerificationStatus = domain.VerificationStatusApproved
	}
	return r.db.QueryRowContext(ctx, query,
		org.Name, org.NPI, org.DpcAPIOrganizationID, org.VerificationStatus,
		org.VerificationReason, org.ConfigComplete, org.CreatedAt, org.UpdatedAt,
	).Scan(&org.ID)
}

func (r *providerOrganizationRepository) GetByID(ctx context.Context, id int64) (*domain.ProviderOrganization, error) {
	return r.getOne(ctx, `SELECT `+orgColumns+` FROM provider_organizations WHERE id = $1`, id)
}

func (r *providerOrganizationRepository) GetByNPI(ctx context.Context, npi string) (*domain.ProviderOrganization, error) {
	return r.getOne(ctx, `SELECT `+orgColumns+` FROM provider_organizations WHERE npi = $1`, npi)
}

func (r *providerOrganizationRepository) getOne(ctx context.Context, query string, arg any) (*domain.ProviderOrganization, error) {
	org := &domain.ProviderOrganization{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&org.ID, &org.Name, &org.NPI, &org.DpcAPIOrganizationID,
		&org.VerificationStatus, &org.VerificationReason, &org.LastCheckedAt,
		&org.TermsOfServiceAcceptedAt, &org.TermsOfServiceAcceptedBy, &org.ConfigComplete,
		&org.CreatedAt, &org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (r *providerOrganizationRepository) Update(ctx context.Context, org *domain.ProviderOrganization) error {
	query := `UPDATE provider_organizations
	          SET name = $1, dpc_api_organization_id = $2, verification_status = $3, verification_reason = $4,
	              last_checked_at = $5, terms_of_service_accepted_at = $6, terms_of_service_accepted_by = $7,
	              config_complete = $8, updated_at = $9
	          WHERE id = $10`
	org.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		org.Name, org.DpcAPIOrganizationID, org.VerificationStatus, org.VerificationReason,
		org.LastCheckedAt, org.TermsOfServiceAcceptedAt, org.TermsOfServiceAcceptedBy,
		org.ConfigComplete, org.UpdatedAt, org.ID,
	)
	return err
}
