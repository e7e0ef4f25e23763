package domain

import "time"

// AoOrgLink is a validated authorized-official-to-organization relationship.
// Unique per (user, organization). Batch verification flips the status to
// rejected with a reason; it never un-rejects.
type AoOrgLink struct {
	ID                     int64
	UserID                 int64
	ProviderOrganizationID int64
	InvitationID           *int64
	VerificationStatus     VerificationStatus
	VerificationReason     VerificationReason
	LastCheckedAt          *time.Time
	CreatedAt              time.Time
}

// CdOrgLink is a validated credential-delegate-to-organization relationship.
// Every CD link traces back to the invitation that created it. Deletion is a
// soft delete via DisabledAt.
type CdOrgLink struct {
	ID                     int64
	UserID                 int64
	ProviderOrganizationID int64
	InvitationID           int64
	DisabledAt             *time.Time
	CreatedAt              time.Time
}

// Disabled reports whether the link has been soft-deleted.
func (l *CdOrgLink) Disabled() bool {
	return l.DisabledAt != nil
}
