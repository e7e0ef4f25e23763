package service

import (
	"context"
	"fmt"
	"strings"

	"dpc-portal-backend/internal/cpigateway"
	"dpc-portal-backend/internal/domain"
)

// CpiGateway is the slice of the CPI API Gateway client the verification
// service depends on.
type CpiGateway interface {
	FetchProfile(ctx context.Context, npi string) (*cpigateway.ProviderProfile, error)
	FetchMedSanctionsAndWaiversBySSN(ctx context.Context, ssn string) (*cpigateway.ProviderInfo, error)
	OrgInfo(ctx context.Context, npi string) (*cpigateway.ProviderInfo, error)
}

// AoVerificationService decides whether a person is a valid authorized
// official for an organization and whether an organization remains in good
// standing.
type AoVerificationService interface {
	// CheckEligibility composes the organization sanction check, the AO role
	// check, and the personal sanction check, in that order, folding every
	// failure into the result. It never returns an error.
	CheckEligibility(ctx context.Context, orgNPI, hashedSSN string) domain.EligibilityResult
	// CheckAoEligibility resolves the caller's AO role by SSN digest or PAC ID
	// and re-checks the official's personal sanctions. Domain failures are
	// returned as *EligibilityError.
	CheckAoEligibility(ctx context.Context, npi string, idType domain.IdentifierType, identifier string) (domain.AoRole, error)
	// GetApprovedEnrollments returns the organization's approved enrollments
	// for organization-only re-verification.
	GetApprovedEnrollments(ctx context.Context, npi string) ([]cpigateway.Enrollment, error)
	// CheckOrgMedSanctions fails with *EligibilityError if the organization
	// has a current, unwaived medical sanction.
	CheckOrgMedSanctions(ctx context.Context, npi string) error
}

// InvitationService owns the invitation lifecycle: creation, matching,
// confirmation into org links, and renewal.
type InvitationService interface {
	CreateCdInvitation(ctx context.Context, orgID, invitedBy int64, attrs CdInvitationAttrs) (*domain.Invitation, error)
	CreateAoInvitation(ctx context.Context, orgName, npi, email string) (*domain.Invitation, error)
	GetInvitation(ctx context.Context, id int64) (*domain.Invitation, error)
	AoMatch(ctx context.Context, inv *domain.Invitation, info domain.UserInfo) (domain.EligibilityResult, error)
	// ConfirmAo drives an AO invitation to acceptance. hashedSSN may be
	// empty, in which case it is derived from the identity payload.
	ConfirmAo(ctx context.Context, inv *domain.Invitation, info domain.UserInfo, hashedSSN string) (*domain.AoOrgLink, error)
	ConfirmCd(ctx context.Context, inv *domain.Invitation, info domain.UserInfo, verificationCode string) (*domain.CdOrgLink, error)
	Renew(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error)
}

// EmailService sends invitation mail through the configured SMTP relay.
type EmailService interface {
	SendAoInvite(ctx context.Context, email, orgName string, invitationID int64) error
	SendCdInvite(ctx context.Context, email, givenName, orgName, verificationCode string, invitationID int64) error
}

// CdInvitationAttrs carries the submitted fields for a new credential
// delegate invitation. EmailConfirmation is validated and discarded.
type CdInvitationAttrs struct {
	GivenName         string
	FamilyName        string
	Phone             string
	Email             string
	EmailConfirmation string
}

// EligibilityError is a permanent eligibility rejection, carrying one of the
// closed verification reasons as its message.
type EligibilityError struct {
	Reason domain.VerificationReason
}

func (e *EligibilityError) Error() string {
	return string(e.Reason)
}

// VerificationError is returned when invitation confirmation fails an
// eligibility or transport check. Reason holds the failure reason string the
// front ends key their guidance text on.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return e.Reason
}

// InvitationUnacceptableError is returned when an invitation can no longer
// be accepted (cancelled, renewed, already accepted, or expired).
type InvitationUnacceptableError struct {
	Reason string
}

func (e *InvitationUnacceptableError) Error() string {
	return fmt.Sprintf("invitation not acceptable: %s", e.Reason)
}

// ValidationErrors maps submitted field names to messages. Recoverable;
// re-rendered to the submitter.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+" "+msg)
	}
	return strings.Join(parts, ", ")
}
