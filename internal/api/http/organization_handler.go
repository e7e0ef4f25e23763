package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dpc-portal-backend/internal/repository"
)

type OrganizationHandler struct {
	orgRepo    repository.ProviderOrganizationRepository
	cdLinkRepo repository.CdOrgLinkRepository
}

func NewOrganizationHandler(orgRepo repository.ProviderOrganizationRepository, cdLinkRepo repository.CdOrgLinkRepository) *OrganizationHandler {
	return &OrganizationHandler{orgRepo: orgRepo, cdLinkRepo: cdLinkRepo}
}

type organizationResponse struct {
	ID                 int64      `json:"id"`
	Name               string     `json:"name"`
	NPI                string     `json:"npi"`
	VerificationStatus string     `json:"verification_status"`
	VerificationReason string     `json:"verification_reason,omitempty"`
	LastCheckedAt      *time.Time `json:"last_checked_at,omitempty"`
}

func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	org, err := h.orgRepo.GetByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, organizationResponse{
		ID:                 org.ID,
		Name:               org.Name,
		NPI:                org.NPI,
		VerificationStatus: string(org.VerificationStatus),
		VerificationReason: string(org.VerificationReason),
		LastCheckedAt:      org.LastCheckedAt,
	})
}

// DisableCdLink soft-deletes a credential delegate link. Disabling an
// already-disabled link is a no-op.
func (h *OrganizationHandler) DisableCdLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid link id")
		return
	}

	if err := h.cdLinkRepo.Disable(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
