package domain

import "time"

// ProviderOrganization is the local mirror of an organization recognized by
// the DPC API, keyed by NPI.
type ProviderOrganization struct {
	ID                     int64
	Name                   string
	NPI                    string
	DpcAPIOrganizationID   string
	VerificationStatus     VerificationStatus
	VerificationReason     VerificationReason
	LastCheckedAt          *time.Time
	TermsOfServiceAcceptedAt *time.Time
	TermsOfServiceAcceptedBy *int64
	ConfigComplete         bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
