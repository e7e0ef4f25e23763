package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"dpc-portal-backend/internal/cpigateway"
	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/logger"
)

// aoRoleCode is the PECOS role code designating an authorized official.
const aoRoleCode = "10"

const dateLayout = "2006-01-02"

type aoVerificationService struct {
	gateway CpiGateway
}

func NewAoVerificationService(gateway CpiGateway) AoVerificationService {
	return &aoVerificationService{gateway: gateway}
}

func (s *aoVerificationService) CheckEligibility(ctx context.Context, orgNPI, hashedSSN string) domain.EligibilityResult {
	if err := s.CheckOrgMedSanctions(ctx, orgNPI); err != nil {
		return resultFromError(err)
	}
	role, err := s.CheckAoEligibility(ctx, orgNPI, domain.IdentifierSSN, hashedSSN)
	if err != nil {
		return resultFromError(err)
	}
	return domain.Approved(role)
}

func (s *aoVerificationService) CheckAoEligibility(ctx context.Context, npi string, idType domain.IdentifierType, identifier string) (domain.AoRole, error) {
	profile, err := s.gateway.FetchProfile(ctx, npi)
	if err != nil {
		return domain.AoRole{}, err
	}
	if profile.NotFound() {
		return domain.AoRole{}, &EligibilityError{Reason: domain.ReasonBadNpi}
	}

	approved := approvedEnrollments(profile.Enrollments)
	if len(approved) == 0 {
		return domain.AoRole{}, &EligibilityError{Reason: domain.ReasonNoApprovedEnrollment}
	}

	role, found := findAoRole(approved, idType, identifier)
	if !found {
		return domain.AoRole{}, &EligibilityError{Reason: domain.ReasonUserNotAuthorizedOfficial}
	}

	if err := s.checkProviderMedSanctions(ctx, role.SSN); err != nil {
		return domain.AoRole{}, err
	}
	return role, nil
}

func (s *aoVerificationService) GetApprovedEnrollments(ctx context.Context, npi string) ([]cpigateway.Enrollment, error) {
	profile, err := s.gateway.FetchProfile(ctx, npi)
	if err != nil {
		return nil, err
	}
	if profile.NotFound() {
		return nil, &EligibilityError{Reason: domain.ReasonBadNpi}
	}
	approved := approvedEnrollments(profile.Enrollments)
	if len(approved) == 0 {
		return nil, &EligibilityError{Reason: domain.ReasonNoApprovedEnrollment}
	}
	return approved, nil
}

func (s *aoVerificationService) CheckOrgMedSanctions(ctx context.Context, npi string) error {
	info, err := s.gateway.OrgInfo(ctx, npi)
	if err != nil {
		return err
	}
	// An unknown NPI here yields no sanction data; bad_npi is reported by the
	// enrollment lookup so the failure ordering stays stable.
	if info.NotFound() {
		return nil
	}
	if sanctioned(info) {
		return &EligibilityError{Reason: domain.ReasonOrgMedSanctions}
	}
	return nil
}

func (s *aoVerificationService) checkProviderMedSanctions(ctx context.Context, ssn string) error {
	info, err := s.gateway.FetchMedSanctionsAndWaiversBySSN(ctx, ssn)
	if err != nil {
		return err
	}
	if sanctioned(info) {
		return &EligibilityError{Reason: domain.ReasonAoMedSanctions}
	}
	return nil
}

// sanctioned applies the shared sanctions policy: an active waiver takes
// priority and suppresses the sanction scan entirely; otherwise any sanction
// whose reinstatement date is absent or in the future counts as current.
func sanctioned(info *cpigateway.ProviderInfo) bool {
	for _, waiver := range info.WaiverInfo {
		if end, err := time.Parse(dateLayout, waiver.EndDate); err == nil && end.After(time.Now()) {
			return false
		}
	}
	for _, sanction := range info.MedSanctions {
		if sanction.ReinstatementDate == "" {
			return true
		}
		reinstated, err := time.Parse(dateLayout, sanction.ReinstatementDate)
		if err != nil || reinstated.After(time.Now()) {
			return true
		}
	}
	return false
}

func approvedEnrollments(enrollments []cpigateway.Enrollment) []cpigateway.Enrollment {
	var approved []cpigateway.Enrollment
	for _, e := range enrollments {
		if e.Approved() {
			approved = append(approved, e)
		}
	}
	return approved
}

func findAoRole(enrollments []cpigateway.Enrollment, idType domain.IdentifierType, identifier string) (domain.AoRole, bool) {
	for _, enrollment := range enrollments {
		for _, role := range enrollment.Roles {
			if role.RoleCode != aoRoleCode {
				continue
			}
			switch idType {
			case domain.IdentifierSSN:
				if HashSSN(role.SSN) == identifier {
					return domain.AoRole{RoleCode: role.RoleCode, SSN: role.SSN, PacID: role.PacID}, true
				}
			case domain.IdentifierPacID:
				if role.PacID == identifier {
					return domain.AoRole{RoleCode: role.RoleCode, SSN: role.SSN, PacID: role.PacID}, true
				}
			}
		}
	}
	return domain.AoRole{}, false
}

// resultFromError folds eligibility and transport errors into the structured
// result shape so callers of CheckEligibility never see a raw error.
func resultFromError(err error) domain.EligibilityResult {
	var elig *EligibilityError
	if errors.As(err, &elig) {
		return domain.Rejected(elig.Reason)
	}

	var gwErr *cpigateway.GatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.StatusCode {
		case http.StatusInternalServerError:
			return domain.TransportFailure(domain.FailureApiGatewayError)
		case http.StatusNotFound:
			return domain.TransportFailure(domain.FailureInvalidEndpointCalled)
		}
	}

	logger.Error("Unexpected error during eligibility check", "error", err)
	return domain.TransportFailure(domain.FailureUnexpectedError)
}

// HashSSN returns the SHA-256 hex digest of a raw SSN. SSNs are never stored
// or compared in the clear.
func HashSSN(ssn string) string {
	digest := sha256.Sum256([]byte(ssn))
	return hex.EncodeToString(digest[:])
}
