package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"dpc-portal-backend/internal/cpigateway"
	"dpc-portal-backend/internal/domain"
)

// MockInvitationRepo
type MockInvitationRepo struct {
	mock.Mock
}

func (m *MockInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	args := m.Called(ctx, inv)
	if args.Error(0) == nil && inv.ID == 0 {
		inv.ID = 1
	}
	return args.Error(0)
}
func (m *MockInvitationRepo) GetByID(ctx context.Context, id int64) (*domain.Invitation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invitation), args.Error(1)
}
func (m *MockInvitationRepo) Update(ctx context.Context, inv *domain.Invitation) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInvitationRepo) HasPendingDuplicate(ctx context.Context, orgID int64, givenName, familyName, email string) (bool, error) {
	args := m.Called(ctx, orgID, givenName, familyName, email)
	return args.Bool(0), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockOrgRepo
type MockOrgRepo struct {
	mock.Mock
}

func (m *MockOrgRepo) Create(ctx context.Context, org *domain.ProviderOrganization) error {
	args := m.Called(ctx, org)
	if args.Error(0) == nil && org.ID == 0 {
		org.ID = 1
	}
	return args.Error(0)
}
func (m *MockOrgRepo) GetByID(ctx context.Context, id int64) (*domain.ProviderOrganization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderOrganization), args.Error(1)
}
func (m *MockOrgRepo) GetByNPI(ctx context.Context, npi string) (*domain.ProviderOrganization, error) {
	args := m.Called(ctx, npi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderOrganization), args.Error(1)
}
func (m *MockOrgRepo) Update(ctx context.Context, org *domain.ProviderOrganization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

// MockAoLinkRepo
type MockAoLinkRepo struct {
	mock.Mock
}

func (m *MockAoLinkRepo) Create(ctx context.Context, link *domain.AoOrgLink) error {
	args := m.Called(ctx, link)
	if args.Error(0) == nil && link.ID == 0 {
		link.ID = 1
	}
	return args.Error(0)
}
func (m *MockAoLinkRepo) GetByUserAndOrg(ctx context.Context, userID, orgID int64) (*domain.AoOrgLink, error) {
	args := m.Called(ctx, userID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AoOrgLink), args.Error(1)
}

// MockCdLinkRepo
type MockCdLinkRepo struct {
	mock.Mock
}

func (m *MockCdLinkRepo) Create(ctx context.Context, link *domain.CdOrgLink) error {
	args := m.Called(ctx, link)
	if args.Error(0) == nil && link.ID == 0 {
		link.ID = 1
	}
	return args.Error(0)
}
func (m *MockCdLinkRepo) Disable(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockCdLinkRepo) HasEnabledMatch(ctx context.Context, orgID int64, givenName, familyName, email string) (bool, error) {
	args := m.Called(ctx, orgID, givenName, familyName, email)
	return args.Bool(0), args.Error(1)
}

// MockVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) CheckEligibility(ctx context.Context, orgNPI, hashedSSN string) domain.EligibilityResult {
	args := m.Called(ctx, orgNPI, hashedSSN)
	return args.Get(0).(domain.EligibilityResult)
}
func (m *MockVerifier) CheckAoEligibility(ctx context.Context, npi string, idType domain.IdentifierType, identifier string) (domain.AoRole, error) {
	args := m.Called(ctx, npi, idType, identifier)
	return args.Get(0).(domain.AoRole), args.Error(1)
}
func (m *MockVerifier) GetApprovedEnrollments(ctx context.Context, npi string) ([]cpigateway.Enrollment, error) {
	args := m.Called(ctx, npi)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cpigateway.Enrollment), args.Error(1)
}
func (m *MockVerifier) CheckOrgMedSanctions(ctx context.Context, npi string) error {
	args := m.Called(ctx, npi)
	return args.Error(0)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendAoInvite(ctx context.Context, email, orgName string, invitationID int64) error {
	args := m.Called(ctx, email, orgName, invitationID)
	return args.Error(0)
}
func (m *MockEmailService) SendCdInvite(ctx context.Context, email, givenName, orgName, verificationCode string, invitationID int64) error {
	args := m.Called(ctx, email, givenName, orgName, verificationCode, invitationID)
	return args.Error(0)
}
