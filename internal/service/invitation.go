package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/logger"
	"dpc-portal-backend/internal/repository"
)

// maxFailedAttempts is how many mismatched confirmation attempts an
// invitation tolerates before it is cancelled.
const maxFailedAttempts = 5

var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type invitationService struct {
	invRepo    repository.InvitationRepository
	userRepo   repository.UserRepository
	orgRepo    repository.ProviderOrganizationRepository
	aoLinkRepo repository.AoOrgLinkRepository
	cdLinkRepo repository.CdOrgLinkRepository
	verifier   AoVerificationService
	emailSvc   EmailService
}

func NewInvitationService(
	invRepo repository.InvitationRepository,
	userRepo repository.UserRepository,
	orgRepo repository.ProviderOrganizationRepository,
	aoLinkRepo repository.AoOrgLinkRepository,
	cdLinkRepo repository.CdOrgLinkRepository,
	verifier AoVerificationService,
	emailSvc EmailService,
) InvitationService {
	return &invitationService{
		invRepo:    invRepo,
		userRepo:   userRepo,
		orgRepo:    orgRepo,
		aoLinkRepo: aoLinkRepo,
		cdLinkRepo: cdLinkRepo,
		verifier:   verifier,
		emailSvc:   emailSvc,
	}
}

func (s *invitationService) CreateCdInvitation(ctx context.Context, orgID, invitedBy int64, attrs CdInvitationAttrs) (*domain.Invitation, error) {
	if errs := validateCdAttrs(attrs); len(errs) > 0 {
		return nil, errs
	}

	dupInvite, err := s.invRepo.HasPendingDuplicate(ctx, orgID, attrs.GivenName, attrs.FamilyName, attrs.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate invitation: %w", err)
	}
	dupLink := false
	if !dupInvite {
		dupLink, err = s.cdLinkRepo.HasEnabledMatch(ctx, orgID, attrs.GivenName, attrs.FamilyName, attrs.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing delegate: %w", err)
		}
	}
	if dupInvite || dupLink {
		return nil, ValidationErrors{"base": "check_if_duplicate"}
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	inv := &domain.Invitation{
		Type:                   domain.InvitationTypeCredentialDelegate,
		Status:                 domain.InvitationStatusPending,
		InvitedGivenName:       attrs.GivenName,
		InvitedFamilyName:      attrs.FamilyName,
		InvitedPhone:           normalizePhone(attrs.Phone),
		InvitedEmail:           attrs.Email,
		VerificationCode:       newVerificationCode(),
		ProviderOrganizationID: orgID,
		InvitedBy:              &invitedBy,
	}
	if err := s.invRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if err := s.emailSvc.SendCdInvite(ctx, inv.InvitedEmail, inv.InvitedGivenName, org.Name, inv.VerificationCode, inv.ID); err != nil {
		return nil, fmt.Errorf("failed to send CD invite email: %w", err)
	}

	logger.Info("Created CD invitation", "invitation_id", inv.ID, "organization_id", orgID)
	return inv, nil
}

func (s *invitationService) CreateAoInvitation(ctx context.Context, orgName, npi, email string) (*domain.Invitation, error) {
	org, err := s.orgRepo.GetByNPI(ctx, npi)
	if errors.Is(err, sql.ErrNoRows) {
		org = &domain.ProviderOrganization{Name: orgName, NPI: npi}
		if err := s.orgRepo.Create(ctx, org); err != nil {
			return nil, fmt.Errorf("failed to create provider organization: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up organization by NPI: %w", err)
	}

	inv := &domain.Invitation{
		Type:                   domain.InvitationTypeAuthorizedOfficial,
		Status:                 domain.InvitationStatusPending,
		InvitedEmail:           email,
		ProviderOrganizationID: org.ID,
	}
	if err := s.invRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if err := s.emailSvc.SendAoInvite(ctx, email, org.Name, inv.ID); err != nil {
		return nil, fmt.Errorf("failed to send AO invite email: %w", err)
	}

	logger.Info("Created AO invitation", "invitation_id", inv.ID, "organization_id", org.ID, "npi", npi)
	return inv, nil
}

func (s *invitationService) GetInvitation(ctx context.Context, id int64) (*domain.Invitation, error) {
	return s.invRepo.GetByID(ctx, id)
}

// AoMatch verifies the authenticated identity's authority over the invited
// organization. The identity payload must carry an SSN; dashes are stripped
// and only the SHA-256 digest leaves this method.
func (s *invitationService) AoMatch(ctx context.Context, inv *domain.Invitation, info domain.UserInfo) (domain.EligibilityResult, error) {
	if info.SocialSecurityNumber == "" {
		return domain.EligibilityResult{}, domain.ErrMissingInfo
	}
	org, err := s.orgRepo.GetByID(ctx, inv.ProviderOrganizationID)
	if err != nil {
		return domain.EligibilityResult{}, fmt.Errorf("failed to load organization: %w", err)
	}
	ssn := strings.ReplaceAll(info.SocialSecurityNumber, "-", "")
	return s.verifier.CheckEligibility(ctx, org.NPI, HashSSN(ssn)), nil
}

func (s *invitationService) ConfirmAo(ctx context.Context, inv *domain.Invitation, info domain.UserInfo, hashedSSN string) (*domain.AoOrgLink, error) {
	if reason := inv.UnacceptableReason(); reason != "" {
		return nil, &InvitationUnacceptableError{Reason: reason}
	}

	match, err := inv.EmailMatch(info)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, &VerificationError{Reason: "email_mismatch"}
	}

	if hashedSSN == "" {
		if info.SocialSecurityNumber == "" {
			return nil, domain.ErrMissingInfo
		}
		hashedSSN = HashSSN(strings.ReplaceAll(info.SocialSecurityNumber, "-", ""))
	}
	org, err := s.orgRepo.GetByID(ctx, inv.ProviderOrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	result := s.verifier.CheckEligibility(ctx, org.NPI, hashedSSN)
	if !result.Success() {
		return nil, &VerificationError{Reason: result.FailureReason()}
	}

	user, err := s.findOrCreateUser(ctx, info)
	if err != nil {
		return nil, err
	}
	if user.PacID != result.Role.PacID {
		user.PacID = result.Role.PacID
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to record pac id: %w", err)
		}
	}

	// The (user, organization) pair is unique; a returning AO accepting a
	// fresh invitation reuses the existing link.
	link, err := s.aoLinkRepo.GetByUserAndOrg(ctx, user.ID, inv.ProviderOrganizationID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up AO link: %w", err)
	}
	if link == nil {
		link = &domain.AoOrgLink{
			UserID:                 user.ID,
			ProviderOrganizationID: inv.ProviderOrganizationID,
			InvitationID:           &inv.ID,
		}
		if err := s.aoLinkRepo.Create(ctx, link); err != nil {
			return nil, fmt.Errorf("failed to create AO link: %w", err)
		}
	}

	if err := s.accept(ctx, inv); err != nil {
		return nil, err
	}
	logger.Info("AO invitation confirmed", "invitation_id", inv.ID, "user_id", user.ID,
		"organization_id", inv.ProviderOrganizationID)
	return link, nil
}

func (s *invitationService) ConfirmCd(ctx context.Context, inv *domain.Invitation, info domain.UserInfo, verificationCode string) (*domain.CdOrgLink, error) {
	if reason := inv.UnacceptableReason(); reason != "" {
		return nil, &InvitationUnacceptableError{Reason: reason}
	}

	nameMatch, err := inv.CdMatch(info)
	if err != nil {
		return nil, err
	}
	emailMatch, err := inv.EmailMatch(info)
	if err != nil {
		return nil, err
	}
	codeMatch := strings.EqualFold(verificationCode, inv.VerificationCode)

	if !nameMatch || !emailMatch || !codeMatch {
		if err := s.recordFailedAttempt(ctx, inv); err != nil {
			return nil, err
		}
		switch {
		case !nameMatch:
			return nil, &VerificationError{Reason: "name_mismatch"}
		case !emailMatch:
			return nil, &VerificationError{Reason: "email_mismatch"}
		default:
			return nil, &VerificationError{Reason: "code_mismatch"}
		}
	}

	user, err := s.findOrCreateUser(ctx, info)
	if err != nil {
		return nil, err
	}

	link := &domain.CdOrgLink{
		UserID:                 user.ID,
		ProviderOrganizationID: inv.ProviderOrganizationID,
		InvitationID:           inv.ID,
	}
	if err := s.cdLinkRepo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create CD link: %w", err)
	}

	if err := s.accept(ctx, inv); err != nil {
		return nil, err
	}
	logger.Info("CD invitation confirmed", "invitation_id", inv.ID, "user_id", user.ID,
		"organization_id", inv.ProviderOrganizationID)
	return link, nil
}

// Renew replaces a lapsed AO invitation. Only a pending, expired,
// authorized-official invitation renews; anything else is a no-op returning
// nil, which makes a second renewal of the same invitation harmless.
func (s *invitationService) Renew(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	if !inv.Pending() || !inv.Expired() || !inv.AuthorizedOfficial() {
		return nil, nil
	}

	org, err := s.orgRepo.GetByID(ctx, inv.ProviderOrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	replacement := &domain.Invitation{
		Type:                   inv.Type,
		Status:                 domain.InvitationStatusPending,
		InvitedEmail:           inv.InvitedEmail,
		ProviderOrganizationID: inv.ProviderOrganizationID,
		InvitedBy:              inv.InvitedBy,
	}
	if err := s.invRepo.Create(ctx, replacement); err != nil {
		return nil, fmt.Errorf("failed to create replacement invitation: %w", err)
	}

	if err := s.emailSvc.SendAoInvite(ctx, replacement.InvitedEmail, org.Name, replacement.ID); err != nil {
		return nil, fmt.Errorf("failed to send AO invite email: %w", err)
	}

	inv.Status = domain.InvitationStatusRenewed
	if err := s.invRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to mark invitation renewed: %w", err)
	}

	logger.Info("Renewed AO invitation", "invitation_id", inv.ID, "replacement_id", replacement.ID,
		"organization_id", inv.ProviderOrganizationID)
	return replacement, nil
}

func (s *invitationService) accept(ctx context.Context, inv *domain.Invitation) error {
	inv.ClearInviteeInfo()
	inv.Status = domain.InvitationStatusAccepted
	if err := s.invRepo.Update(ctx, inv); err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}
	return nil
}

func (s *invitationService) recordFailedAttempt(ctx context.Context, inv *domain.Invitation) error {
	inv.FailedAttempts++
	if inv.FailedAttempts >= maxFailedAttempts {
		inv.Status = domain.InvitationStatusCancelled
		logger.Warn("Invitation cancelled after repeated failed attempts", "invitation_id", inv.ID)
	}
	if err := s.invRepo.Update(ctx, inv); err != nil {
		return fmt.Errorf("failed to record failed attempt: %w", err)
	}
	return nil
}

func (s *invitationService) findOrCreateUser(ctx context.Context, info domain.UserInfo) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, info.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &domain.User{
		Email:      info.Email,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func validateCdAttrs(attrs CdInvitationAttrs) ValidationErrors {
	errs := ValidationErrors{}
	if attrs.GivenName == "" {
		errs["invited_given_name"] = "can't be blank"
	}
	if attrs.FamilyName == "" {
		errs["invited_family_name"] = "can't be blank"
	}
	if len(normalizePhone(attrs.Phone)) != 10 {
		errs["invited_phone"] = "is invalid"
	}
	if attrs.Email == "" {
		errs["invited_email"] = "can't be blank"
	} else if !emailRegexp.MatchString(attrs.Email) {
		errs["invited_email"] = "is invalid"
	}
	if attrs.Email != attrs.EmailConfirmation {
		errs["invited_email_confirmation"] = "doesn't match invited email"
	}
	return errs
}

func normalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

func newVerificationCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:6])
}
