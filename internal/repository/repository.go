package repository

import (
	"context"

	"dpc-portal-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type ProviderOrganizationRepository interface {
	Create(ctx context.Context, org *domain.ProviderOrganization) error
	GetByID(ctx context.Context, id int64) (*domain.ProviderOrganization, error)
	GetByNPI(ctx context.Context, npi string) (*domain.ProviderOrganization, error)
	Update(ctx context.Context, org *domain.ProviderOrganization) error
}

type InvitationRepository interface {
	Create(ctx context.Context, invite *domain.Invitation) error
	GetByID(ctx context.Context, id int64) (*domain.Invitation, error)
	Update(ctx context.Context, invite *domain.Invitation) error
	// HasPendingDuplicate reports whether a pending invitation with the same
	// invitee identity already exists for the organization.
	HasPendingDuplicate(ctx context.Context, orgID int64, givenName, familyName, email string) (bool, error)
}

type AoOrgLinkRepository interface {
	Create(ctx context.Context, link *domain.AoOrgLink) error
	GetByUserAndOrg(ctx context.Context, userID, orgID int64) (*domain.AoOrgLink, error)
}

type CdOrgLinkRepository interface {
	Create(ctx context.Context, link *domain.CdOrgLink) error
	Disable(ctx context.Context, id int64) error
	// HasEnabledMatch reports whether a non-disabled CD link whose user
	// matches the given identity already exists for the organization.
	HasEnabledMatch(ctx context.Context, orgID int64, givenName, familyName, email string) (bool, error)
}
