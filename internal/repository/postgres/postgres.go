package postgres

import (
	"database/sql"

	"dpc-portal-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.ProviderOrganizationRepository
	repository.InvitationRepository
	repository.AoOrgLinkRepository
	repository.CdOrgLinkRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                             db,
		UserRepository:                 NewUserRepository(db),
		ProviderOrganizationRepository: NewProviderOrganizationRepository(db),
		InvitationRepository:           NewInvitationRepository(db),
		AoOrgLinkRepository:            NewAoOrgLinkRepository(db),
		CdOrgLinkRepository:            NewCdOrgLinkRepository(db),
	}
}
