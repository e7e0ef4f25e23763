package domain

// VerificationStatus is the standing of a user, organization, or AO link.
// A rejected record is never re-approved automatically; recovery requires
// manual intervention or a new invitation.
type VerificationStatus string

const (
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// VerificationReason is the closed vocabulary of reasons a record can be
// rejected. The values are stored as-is and keyed against display text by
// the portal front ends, so they must not drift.
type VerificationReason string

const (
	ReasonAoRemoval               VerificationReason = "ao_removal"
	ReasonUserMedSanction         VerificationReason = "user_med_sanction"
	ReasonNoApprovedEnrollments   VerificationReason = "no_approved_enrollments"
	ReasonOrgMedSanction          VerificationReason = "org_med_sanction"
	ReasonOrgMedSanctions         VerificationReason = "org_med_sanctions"
	ReasonAoMedSanctions          VerificationReason = "ao_med_sanctions"
	ReasonNoApprovedEnrollment    VerificationReason = "no_approved_enrollment"
	ReasonBadNpi                  VerificationReason = "bad_npi"
	ReasonUserNotAuthorizedOfficial VerificationReason = "user_not_authorized_official"
)

// FailureKind classifies a gateway transport failure. These are transient
// infrastructure conditions, distinct from eligibility rejections.
type FailureKind string

const (
	FailureApiGatewayError       FailureKind = "api_gateway_error"
	FailureInvalidEndpointCalled FailureKind = "invalid_endpoint_called"
	FailureUnexpectedError       FailureKind = "unexpected_error"
)

// ServerFailureReasons lists the failure reasons the portal renders as a
// generic server error rather than eligibility guidance.
var ServerFailureReasons = map[string]bool{
	string(FailureApiGatewayError):       true,
	string(FailureInvalidEndpointCalled): true,
	string(FailureUnexpectedError):       true,
}

// IdentifierType selects how an AO role is matched during eligibility checks.
type IdentifierType string

const (
	IdentifierSSN   IdentifierType = "ssn"    // SHA-256 hex digest compare
	IdentifierPacID IdentifierType = "pac_id" // plain compare
)

// AoRole is the enrollment role record that identified the caller as an
// authorized official.
type AoRole struct {
	RoleCode string
	SSN      string
	PacID    string
}

// EligibilityOutcome tags an EligibilityResult.
type EligibilityOutcome int

const (
	OutcomeApproved EligibilityOutcome = iota
	OutcomeRejected
	OutcomeTransportFailure
)

// EligibilityResult is the structured verdict of an eligibility check.
// Rejected carries a permanent eligibility reason; TransportFailure carries
// a transient infrastructure classification. Callers that only need the
// legacy string shape use FailureReason.
type EligibilityResult struct {
	Outcome EligibilityOutcome
	Role    AoRole             // set when Outcome is OutcomeApproved
	Reason  VerificationReason // set when Outcome is OutcomeRejected
	Failure FailureKind        // set when Outcome is OutcomeTransportFailure
}

func Approved(role AoRole) EligibilityResult {
	return EligibilityResult{Outcome: OutcomeApproved, Role: role}
}

func Rejected(reason VerificationReason) EligibilityResult {
	return EligibilityResult{Outcome: OutcomeRejected, Reason: reason}
}

func TransportFailure(kind FailureKind) EligibilityResult {
	return EligibilityResult{Outcome: OutcomeTransportFailure, Failure: kind}
}

// Success reports whether the check approved the caller.
func (r EligibilityResult) Success() bool {
	return r.Outcome == OutcomeApproved
}

// FailureReason returns the string reason for an unsuccessful result, or ""
// when the check succeeded.
func (r EligibilityResult) FailureReason() string {
	switch r.Outcome {
	case OutcomeRejected:
		return string(r.Reason)
	case OutcomeTransportFailure:
		return string(r.Failure)
	default:
		return ""
	}
}
