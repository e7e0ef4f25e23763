package domain

import "time"

// User is a portal account. PacID is the PECOS identifier used for periodic
// AO re-verification in place of an SSN.
type User struct {
	ID                 int64
	Email              string
	GivenName          string
	FamilyName         string
	PacID              string
	VerificationStatus VerificationStatus
	VerificationReason VerificationReason
	LastCheckedAt      *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
