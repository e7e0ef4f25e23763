package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dpc-portal-backend/internal/domain"
)

type invitationFixture struct {
	invRepo    *MockInvitationRepo
	userRepo   *MockUserRepo
	orgRepo    *MockOrgRepo
	aoLinkRepo *MockAoLinkRepo
	cdLinkRepo *MockCdLinkRepo
	verifier   *MockVerifier
	emailSvc   *MockEmailService
	svc        InvitationService
}

func newInvitationFixture() *invitationFixture {
	f := &invitationFixture{
		invRepo:    new(MockInvitationRepo),
		userRepo:   new(MockUserRepo),
		orgRepo:    new(MockOrgRepo),
		aoLinkRepo: new(MockAoLinkRepo),
		cdLinkRepo: new(MockCdLinkRepo),
		verifier:   new(MockVerifier),
		emailSvc:   new(MockEmailService),
	}
	f.svc = NewInvitationService(f.invRepo, f.userRepo, f.orgRepo, f.aoLinkRepo, f.cdLinkRepo, f.verifier, f.emailSvc)
	return f
}

func validCdAttrs() CdInvitationAttrs {
	return CdInvitationAttrs{
		GivenName:         "Lisa",
		FamilyName:        "Smith",
		Phone:             "222-555-4444",
		Email:             "lisa.smith@example.com",
		EmailConfirmation: "lisa.smith@example.com",
	}
}

func TestCreateCdInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newInvitationFixture()
		attrs := validCdAttrs()

		f.invRepo.On("HasPendingDuplicate", ctx, int64(7), attrs.GivenName, attrs.FamilyName, attrs.Email).Return(false, nil)
		f.cdLinkRepo.On("HasEnabledMatch", ctx, int64(7), attrs.GivenName, attrs.FamilyName, attrs.Email).Return(false, nil)
		f.orgRepo.On("GetByID", ctx, int64(7)).Return(&domain.ProviderOrganization{ID: 7, Name: "Health Hut"}, nil)
		f.invRepo.On("Create", ctx, mock.AnythingOfType("*domain.Invitation")).Return(nil)
		f.emailSvc.On("SendCdInvite", ctx, attrs.Email, attrs.GivenName, "Health Hut", mock.AnythingOfType("string"), int64(1)).Return(nil)

		inv, err := f.svc.CreateCdInvitation(ctx, 7, 42, attrs)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationTypeCredentialDelegate, inv.Type)
		assert.Equal(t, domain.InvitationStatusPending, inv.Status)
		assert.Equal(t, "2225554444", inv.InvitedPhone)
		assert.Len(t, inv.VerificationCode, 6)
		require.NotNil(t, inv.InvitedBy)
		assert.Equal(t, int64(42), *inv.InvitedBy)
		f.invRepo.AssertExpectations(t)
		f.emailSvc.AssertExpectations(t)
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.CreateCdInvitation(ctx, 7, 42, CdInvitationAttrs{
			Phone:             "123",
			Email:             "not-an-email",
			EmailConfirmation: "different@example.com",
		})

		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "invited_given_name")
		assert.Contains(t, errs, "invited_family_name")
		assert.Contains(t, errs, "invited_phone")
		assert.Contains(t, errs, "invited_email")
		assert.Contains(t, errs, "invited_email_confirmation")
		f.invRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DuplicatePendingInvitation", func(t *testing.T) {
		f := newInvitationFixture()
		attrs := validCdAttrs()
		f.invRepo.On("HasPendingDuplicate", ctx, int64(7), attrs.GivenName, attrs.FamilyName, attrs.Email).Return(true, nil)

		_, err := f.svc.CreateCdInvitation(ctx, 7, 42, attrs)
		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, "check_if_duplicate", errs["base"])
		f.cdLinkRepo.AssertNotCalled(t, "HasEnabledMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ExistingEnabledDelegate", func(t *testing.T) {
		f := newInvitationFixture()
		attrs := validCdAttrs()
		f.invRepo.On("HasPendingDuplicate", ctx, int64(7), attrs.GivenName, attrs.FamilyName, attrs.Email).Return(false, nil)
		f.cdLinkRepo.On("HasEnabledMatch", ctx, int64(7), attrs.GivenName, attrs.FamilyName, attrs.Email).Return(true, nil)

		_, err := f.svc.CreateCdInvitation(ctx, 7, 42, attrs)
		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, "check_if_duplicate", errs["base"])
	})
}

func TestCreateAoInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesOrganizationOnFirstSight", func(t *testing.T) {
		f := newInvitationFixture()
		f.orgRepo.On("GetByNPI", ctx, "3077494235").Return(nil, sql.ErrNoRows)
		f.orgRepo.On("Create", ctx, mock.AnythingOfType("*domain.ProviderOrganization")).Return(nil)
		f.invRepo.On("Create", ctx, mock.AnythingOfType("*domain.Invitation")).Return(nil)
		f.emailSvc.On("SendAoInvite", ctx, "ao@example.com", "Health Hut", int64(1)).Return(nil)

		inv, err := f.svc.CreateAoInvitation(ctx, "Health Hut", "3077494235", "ao@example.com")
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationTypeAuthorizedOfficial, inv.Type)
		assert.Equal(t, int64(1), inv.ProviderOrganizationID)
		f.orgRepo.AssertExpectations(t)
	})

	t.Run("ReusesExistingOrganization", func(t *testing.T) {
		f := newInvitationFixture()
		f.orgRepo.On("GetByNPI", ctx, "3077494235").Return(&domain.ProviderOrganization{ID: 9, Name: "Health Hut"}, nil)
		f.invRepo.On("Create", ctx, mock.AnythingOfType("*domain.Invitation")).Return(nil)
		f.emailSvc.On("SendAoInvite", ctx, "ao@example.com", "Health Hut", int64(1)).Return(nil)

		inv, err := f.svc.CreateAoInvitation(ctx, "Health Hut", "3077494235", "ao@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(9), inv.ProviderOrganizationID)
		f.orgRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAoMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("HashesSsnBeforeVerification", func(t *testing.T) {
		f := newInvitationFixture()
		inv := &domain.Invitation{ID: 3, ProviderOrganizationID: 7}
		f.orgRepo.On("GetByID", ctx, int64(7)).Return(&domain.ProviderOrganization{ID: 7, NPI: "1234554333"}, nil)
		f.verifier.On("CheckEligibility", ctx, "1234554333", HashSSN("111223456")).
			Return(domain.Approved(domain.AoRole{PacID: "validPacId"}))

		result, err := f.svc.AoMatch(ctx, inv, domain.UserInfo{
			SocialSecurityNumber: "111-22-3456",
			Email:                "ao@example.com",
		})
		require.NoError(t, err)
		assert.True(t, result.Success())
		f.verifier.AssertExpectations(t)
	})

	t.Run("MissingSsn", func(t *testing.T) {
		f := newInvitationFixture()
		_, err := f.svc.AoMatch(ctx, &domain.Invitation{}, domain.UserInfo{Email: "ao@example.com"})
		assert.ErrorIs(t, err, domain.ErrMissingInfo)
	})
}

func pendingAoInvitation() *domain.Invitation {
	return &domain.Invitation{
		ID:                     3,
		Type:                   domain.InvitationTypeAuthorizedOfficial,
		Status:                 domain.InvitationStatusPending,
		InvitedEmail:           "ao@example.com",
		ProviderOrganizationID: 7,
		CreatedAt:              time.Now(),
	}
}

func pendingCdInvitation() *domain.Invitation {
	return &domain.Invitation{
		ID:                     4,
		Type:                   domain.InvitationTypeCredentialDelegate,
		Status:                 domain.InvitationStatusPending,
		InvitedGivenName:       "Lisa",
		InvitedFamilyName:      "Smith",
		InvitedEmail:           "lisa.smith@example.com",
		VerificationCode:       "A1B2C3",
		ProviderOrganizationID: 7,
		CreatedAt:              time.Now(),
	}
}

func TestConfirmAo(t *testing.T) {
	ctx := context.Background()
	info := domain.UserInfo{
		GivenName:  "Bob",
		FamilyName: "Hodges",
		Email:      "ao@example.com",
	}
	hashed := HashSSN("111223456")

	t.Run("SuccessCreatesLinkAndAccepts", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()

		f.orgRepo.On("GetByID", ctx, int64(7)).Return(&domain.ProviderOrganization{ID: 7, NPI: "1234554333"}, nil)
		f.verifier.On("CheckEligibility", ctx, "1234554333", hashed).
			Return(domain.Approved(domain.AoRole{SSN: "111223456", PacID: "validPacId"}))
		f.userRepo.On("GetByEmail", ctx, "ao@example.com").Return(nil, sql.ErrNoRows)
		f.userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
		f.userRepo.On("Update", ctx, mock.MatchedBy(func(u *domain.User) bool {
			return u.PacID == "validPacId"
		})).Return(nil)
		f.aoLinkRepo.On("GetByUserAndOrg", ctx, int64(1), int64(7)).Return(nil, sql.ErrNoRows)
		f.aoLinkRepo.On("Create", ctx, mock.AnythingOfType("*domain.AoOrgLink")).Return(nil)
		f.invRepo.On("Update", ctx, inv).Return(nil)

		link, err := f.svc.ConfirmAo(ctx, inv, info, hashed)
		require.NoError(t, err)
		assert.Equal(t, int64(7), link.ProviderOrganizationID)
		assert.Equal(t, domain.InvitationStatusAccepted, inv.Status)
		assert.Empty(t, inv.InvitedEmail, "accepted invitations retain no PII")
		f.aoLinkRepo.AssertExpectations(t)
	})

	t.Run("UnacceptableInvitation", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()
		inv.CreatedAt = time.Now().Add(-50 * time.Hour)

		_, err := f.svc.ConfirmAo(ctx, inv, info, hashed)
		var unacceptable *InvitationUnacceptableError
		require.ErrorAs(t, err, &unacceptable)
		assert.Equal(t, "ao_expired", unacceptable.Reason)
	})

	t.Run("EmailMismatch", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()

		_, err := f.svc.ConfirmAo(ctx, inv, domain.UserInfo{Email: "other@example.com"}, hashed)
		var verr *VerificationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email_mismatch", verr.Reason)
	})

	t.Run("EligibilityRejection", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()
		f.orgRepo.On("GetByID", ctx, int64(7)).Return(&domain.ProviderOrganization{ID: 7, NPI: "1234554333"}, nil)
		f.verifier.On("CheckEligibility", ctx, "1234554333", hashed).
			Return(domain.Rejected(domain.ReasonAoMedSanctions))

		_, err := f.svc.ConfirmAo(ctx, inv, info, hashed)
		var verr *VerificationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "ao_med_sanctions", verr.Reason)
		f.aoLinkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DerivesHashFromRawSsnWhenAbsent", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()
		withSSN := info
		withSSN.SocialSecurityNumber = "111-22-3456"

		f.orgRepo.On("GetByID", ctx, int64(7)).Return(&domain.ProviderOrganization{ID: 7, NPI: "1234554333"}, nil)
		f.verifier.On("CheckEligibility", ctx, "1234554333", hashed).
			Return(domain.Approved(domain.AoRole{PacID: "validPacId"}))
		f.userRepo.On("GetByEmail", ctx, "ao@example.com").Return(nil, sql.ErrNoRows)
		f.userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
		f.userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
		f.aoLinkRepo.On("GetByUserAndOrg", ctx, int64(1), int64(7)).Return(nil, sql.ErrNoRows)
		f.aoLinkRepo.On("Create", ctx, mock.AnythingOfType("*domain.AoOrgLink")).Return(nil)
		f.invRepo.On("Update", ctx, inv).Return(nil)

		_, err := f.svc.ConfirmAo(ctx, inv, withSSN, "")
		require.NoError(t, err)
		f.verifier.AssertExpectations(t)
	})

	t.Run("NoSsnAtAll", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()
		_, err := f.svc.ConfirmAo(ctx, inv, info, "")
		assert.ErrorIs(t, err, domain.ErrMissingInfo)
	})
}

func TestConfirmCd(t *testing.T) {
	ctx := context.Background()
	info := domain.UserInfo{
		GivenName:  "Lisa",
		FamilyName: "Smith",
		Email:      "lisa.smith@example.com",
	}

	t.Run("SuccessCreatesLinkAndAccepts", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingCdInvitation()

		f.userRepo.On("GetByEmail", ctx, info.Email).Return(nil, sql.ErrNoRows)
		f.userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
		f.cdLinkRepo.On("Create", ctx, mock.AnythingOfType("*domain.CdOrgLink")).Return(nil)
		f.invRepo.On("Update", ctx, inv).Return(nil)

		link, err := f.svc.ConfirmCd(ctx, inv, info, "a1b2c3")
		require.NoError(t, err)
		assert.Equal(t, inv.ID, link.InvitationID)
		assert.Equal(t, domain.InvitationStatusAccepted, inv.Status)
		assert.Empty(t, inv.InvitedGivenName)
	})

	t.Run("NameMismatchRecordsFailedAttempt", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingCdInvitation()
		f.invRepo.On("Update", ctx, inv).Return(nil)

		_, err := f.svc.ConfirmCd(ctx, inv, domain.UserInfo{
			GivenName: "Lisa", FamilyName: "Jones", Email: info.Email,
		}, "A1B2C3")
		var verr *VerificationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name_mismatch", verr.Reason)
		assert.Equal(t, 1, inv.FailedAttempts)
	})

	t.Run("CodeMismatch", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingCdInvitation()
		f.invRepo.On("Update", ctx, inv).Return(nil)

		_, err := f.svc.ConfirmCd(ctx, inv, info, "WRONG1")
		var verr *VerificationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "code_mismatch", verr.Reason)
	})

	t.Run("FifthFailedAttemptCancels", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingCdInvitation()
		inv.FailedAttempts = 4
		f.invRepo.On("Update", ctx, inv).Return(nil)

		_, err := f.svc.ConfirmCd(ctx, inv, info, "WRONG1")
		require.Error(t, err)
		assert.Equal(t, domain.InvitationStatusCancelled, inv.Status)
	})

	t.Run("MissingNames", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingCdInvitation()

		_, err := f.svc.ConfirmCd(ctx, inv, domain.UserInfo{Email: info.Email}, "A1B2C3")
		assert.ErrorIs(t, err, domain.ErrMissingInfo)
		assert.Equal(t, 0, inv.FailedAttempts, "missing info is not a failed attempt")
	})
}

func TestRenew(t *testing.T) {
	ctx := context.Background()

	t.Run("ExpiredPendingAoRenews", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()
		inv.CreatedAt = time.Now().Add(-50 * time.Hour)

		f.orgRepo.On("GetByID", ctx, int64(7)).Return(&domain.ProviderOrganization{ID: 7, Name: "Health Hut"}, nil)
		f.invRepo.On("Create", ctx, mock.AnythingOfType("*domain.Invitation")).Return(nil)
		f.emailSvc.On("SendAoInvite", ctx, "ao@example.com", "Health Hut", int64(1)).Return(nil)
		f.invRepo.On("Update", ctx, inv).Return(nil)

		replacement, err := f.svc.Renew(ctx, inv)
		require.NoError(t, err)
		require.NotNil(t, replacement)
		assert.Equal(t, "ao@example.com", replacement.InvitedEmail)
		assert.Equal(t, domain.InvitationStatusRenewed, inv.Status)
	})

	t.Run("FreshInvitationIsNoOp", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()

		replacement, err := f.svc.Renew(ctx, inv)
		assert.NoError(t, err)
		assert.Nil(t, replacement)
		f.invRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("CdInvitationNeverRenews", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingCdInvitation()
		inv.CreatedAt = time.Now().Add(-50 * time.Hour)

		replacement, err := f.svc.Renew(ctx, inv)
		assert.NoError(t, err)
		assert.Nil(t, replacement)
	})

	t.Run("SecondRenewalIsHarmless", func(t *testing.T) {
		f := newInvitationFixture()
		inv := pendingAoInvitation()
		inv.Status = domain.InvitationStatusRenewed
		inv.CreatedAt = time.Now().Add(-50 * time.Hour)

		replacement, err := f.svc.Renew(ctx, inv)
		assert.NoError(t, err)
		assert.Nil(t, replacement)
	})
}
