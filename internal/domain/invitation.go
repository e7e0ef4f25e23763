package domain

import (
	"errors"
	"strings"
	"time"
)

// ExpirationWindow is how long an invitation stays acceptable after creation.
// Expiry is derived from CreatedAt on read, never stored.
const ExpirationWindow = 48 * time.Hour

// ErrMissingInfo indicates the identity provider payload lacked a field the
// matching predicates require. It is not an eligibility rejection.
var ErrMissingInfo = errors.New("missing_info")

type InvitationType string

const (
	InvitationTypeAuthorizedOfficial InvitationType = "authorized_official"
	InvitationTypeCredentialDelegate InvitationType = "credential_delegate"
)

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusCancelled InvitationStatus = "cancelled"
	InvitationStatusRenewed   InvitationStatus = "renewed"
)

// Invitation is an offer to become an authorized official or credential
// delegate for a provider organization.
type Invitation struct {
	ID                     int64
	Type                   InvitationType
	Status                 InvitationStatus
	InvitedGivenName       string
	InvitedFamilyName      string
	InvitedPhone           string
	InvitedEmail           string
	VerificationCode       string
	FailedAttempts         int
	ProviderOrganizationID int64
	InvitedBy              *int64
	CreatedAt              time.Time
}

func (i *Invitation) AuthorizedOfficial() bool {
	return i.Type == InvitationTypeAuthorizedOfficial
}

func (i *Invitation) CredentialDelegate() bool {
	return i.Type == InvitationTypeCredentialDelegate
}

func (i *Invitation) Pending() bool {
	return i.Status == InvitationStatusPending
}

func (i *Invitation) Accepted() bool {
	return i.Status == InvitationStatusAccepted
}

func (i *Invitation) Cancelled() bool {
	return i.Status == InvitationStatusCancelled
}

func (i *Invitation) Renewed() bool {
	return i.Status == InvitationStatusRenewed
}

// Expired reports whether the invitation is past its acceptance window.
// An invitation exactly 48 hours old counts as expired. Status is not
// consulted; expiry is purely time-derived.
func (i *Invitation) Expired() bool {
	return !i.CreatedAt.After(time.Now().Add(-ExpirationWindow))
}

// ExpiresIn returns the hours and minutes remaining until expiry,
// floor-divided. Both are zero once the window has passed.
func (i *Invitation) ExpiresIn() (int, int) {
	remaining := time.Until(i.CreatedAt.Add(ExpirationWindow))
	if remaining < 0 {
		return 0, 0
	}
	minutes := int(remaining.Minutes())
	return minutes / 60, minutes % 60
}

// UnacceptableReason maps the current state to a display reason, or "" if
// the invitation can still be accepted. Cancellation outranks renewal,
// renewal outranks acceptance, acceptance outranks expiry.
func (i *Invitation) UnacceptableReason() string {
	switch {
	case i.Cancelled():
		return "invalid"
	case i.Renewed():
		return "ao_renewed"
	case i.Accepted():
		if i.AuthorizedOfficial() {
			return "ao_accepted"
		}
		return "cd_accepted"
	case i.Expired():
		if i.AuthorizedOfficial() {
			return "ao_expired"
		}
		return "cd_expired"
	default:
		return ""
	}
}

// ClearInviteeInfo blanks the invitee PII. Called on acceptance so accepted
// invitations retain no personal data.
func (i *Invitation) ClearInviteeInfo() {
	i.InvitedGivenName = ""
	i.InvitedFamilyName = ""
	i.InvitedPhone = ""
	i.InvitedEmail = ""
}

// UserInfo is the payload returned by the external identity provider after
// the invitee authenticates.
type UserInfo struct {
	SocialSecurityNumber string
	GivenName            string
	FamilyName           string
	Email                string
}

// EmailMatch compares the identity provider email to the invited email,
// case-insensitively.
func (i *Invitation) EmailMatch(info UserInfo) (bool, error) {
	if info.Email == "" {
		return false, ErrMissingInfo
	}
	return strings.EqualFold(info.Email, i.InvitedEmail), nil
}

// CdMatch verifies the authenticated identity against a credential delegate
// invitation. Both names must be present in the payload, but only the family
// name is compared; matching the given name is intentionally not enforced
// here (see MatchUser for the full-name comparison used elsewhere).
func (i *Invitation) CdMatch(info UserInfo) (bool, error) {
	if info.GivenName == "" || info.FamilyName == "" {
		return false, ErrMissingInfo
	}
	return strings.EqualFold(info.FamilyName, i.InvitedFamilyName), nil
}

// MatchUser reports whether an existing portal user matches the invitation.
// AO invitations match on email alone; CD invitations additionally require
// both names to match, all case-insensitively.
func (i *Invitation) MatchUser(u *User) bool {
	if !strings.EqualFold(u.Email, i.InvitedEmail) {
		return false
	}
	if i.CredentialDelegate() {
		return strings.EqualFold(u.GivenName, i.InvitedGivenName) &&
			strings.EqualFold(u.FamilyName, i.InvitedFamilyName)
	}
	return true
}
