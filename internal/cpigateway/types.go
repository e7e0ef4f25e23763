package cpigateway

// notFoundCode is the sentinel the gateway places in a 200 JSON body when a
// provider is unknown. The HTTP status is still 200; callers must check the
// field, not the status.
const notFoundCode = "404"

// ProviderProfile is the response of the provider-profile lookup, carrying
// the organization's enrollments and their roles.
type ProviderProfile struct {
	Code        string       `json:"code,omitempty"`
	Enrollments []Enrollment `json:"enrollments"`
}

// NotFound reports whether the gateway flagged the NPI as unknown.
func (p *ProviderProfile) NotFound() bool {
	return p.Code == notFoundCode
}

// Enrollment is a PECOS enrollment record.
type Enrollment struct {
	Status string `json:"status"`
	Roles  []Role `json:"roles"`
}

// Approved reports whether the enrollment is active in PECOS.
func (e Enrollment) Approved() bool {
	return e.Status == "APPROVED"
}

// Role is an enrollment role. RoleCode "10" designates an authorized
// official. The SSN is returned in the clear by the gateway; this system
// only ever compares its SHA-256 digest against stored values.
type Role struct {
	RoleCode string `json:"roleCode"`
	SSN      string `json:"ssn"`
	PacID    string `json:"pacId"`
}

// ProviderInfo is the response of the provider info lookup, carrying
// sanctions and waivers for an individual or organization.
type ProviderInfo struct {
	Code         string        `json:"code,omitempty"`
	MedSanctions []MedSanction `json:"medSanctions"`
	WaiverInfo   []Waiver      `json:"waiverInfo"`
}

func (p *ProviderInfo) NotFound() bool {
	return p.Code == notFoundCode
}

// MedSanction is a disciplinary exclusion record. ReinstatementDate is empty
// while the sanction is still in force.
type MedSanction struct {
	SanctionCode      string `json:"sanctionCode"`
	SanctionDate      string `json:"sanctionDate"`
	ReinstatementDate string `json:"reinstatementDate"`
	Description       string `json:"description"`
}

// Waiver is a time-bounded exception nullifying sanctions until EndDate.
type Waiver struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
