package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/logger"
	"dpc-portal-backend/internal/security"
	"dpc-portal-backend/internal/service"
)

// InvitationHandler exposes the invitation lifecycle over HTTP. The identity
// payload on accept comes from the portal front end after the invitee has
// authenticated with the external identity provider; confirm trusts only the
// session token minted by accept.
type InvitationHandler struct {
	invitations service.InvitationService
	tokens      security.TokenManager
}

func NewInvitationHandler(invitations service.InvitationService, tokens security.TokenManager) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, tokens: tokens}
}

type createCdInvitationRequest struct {
	InvitedBy         int64  `json:"invited_by"`
	GivenName         string `json:"invited_given_name"`
	FamilyName        string `json:"invited_family_name"`
	Phone             string `json:"invited_phone"`
	Email             string `json:"invited_email"`
	EmailConfirmation string `json:"invited_email_confirmation"`
}

type invitationResponse struct {
	ID                 int64  `json:"id"`
	Type               string `json:"type"`
	Status             string `json:"status"`
	OrganizationID     int64  `json:"organization_id"`
	UnacceptableReason string `json:"unacceptable_reason,omitempty"`
	ExpiresInHours     int    `json:"expires_in_hours"`
	ExpiresInMinutes   int    `json:"expires_in_minutes"`
}

func newInvitationResponse(inv *domain.Invitation) invitationResponse {
	hours, minutes := inv.ExpiresIn()
	return invitationResponse{
		ID:                 inv.ID,
		Type:               string(inv.Type),
		Status:             string(inv.Status),
		OrganizationID:     inv.ProviderOrganizationID,
		UnacceptableReason: inv.UnacceptableReason(),
		ExpiresInHours:     hours,
		ExpiresInMinutes:   minutes,
	}
}

func (h *InvitationHandler) CreateCdInvitation(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.ParseInt(mux.Vars(r)["orgID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	var req createCdInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.invitations.CreateCdInvitation(r.Context(), orgID, req.InvitedBy, service.CdInvitationAttrs{
		GivenName:         req.GivenName,
		FamilyName:        req.FamilyName,
		Phone:             req.Phone,
		Email:             req.Email,
		EmailConfirmation: req.EmailConfirmation,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newInvitationResponse(inv))
}

type createAoInvitationRequest struct {
	OrganizationName string `json:"organization_name"`
	NPI              string `json:"npi"`
	Email            string `json:"email"`
}

// CreateAoInvitation starts onboarding for an organization. The organization
// row is created on first sight of the NPI.
func (h *InvitationHandler) CreateAoInvitation(w http.ResponseWriter, r *http.Request) {
	var req createAoInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NPI == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "npi and email are required")
		return
	}

	inv, err := h.invitations.CreateAoInvitation(r.Context(), req.OrganizationName, req.NPI, req.Email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newInvitationResponse(inv))
}

func (h *InvitationHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvitation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newInvitationResponse(inv))
}

type acceptRequest struct {
	GivenName            string `json:"given_name"`
	FamilyName           string `json:"family_name"`
	Email                string `json:"email"`
	SocialSecurityNumber string `json:"social_security_number,omitempty"`
}

type acceptResponse struct {
	SessionToken string `json:"session_token"`
}

// Accept validates the authenticated identity against the invitation and, for
// authorized officials, runs the eligibility check. On success it mints a
// short-lived session token carrying the identity claims; the raw SSN is
// hashed before it enters the token.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvitation(w, r)
	if !ok {
		return
	}
	if reason := inv.UnacceptableReason(); reason != "" {
		writeJSON(w, http.StatusGone, map[string]string{"error": reason})
		return
	}

	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	info := domain.UserInfo{
		SocialSecurityNumber: req.SocialSecurityNumber,
		GivenName:            req.GivenName,
		FamilyName:           req.FamilyName,
		Email:                req.Email,
	}

	match, err := inv.EmailMatch(info)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if !match {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "email_mismatch"})
		return
	}

	hashedSSN := ""
	if inv.AuthorizedOfficial() {
		result, err := h.invitations.AoMatch(r.Context(), inv, info)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		if !result.Success() {
			h.writeVerificationFailure(w, result.FailureReason())
			return
		}
		hashedSSN = service.HashSSN(strings.ReplaceAll(req.SocialSecurityNumber, "-", ""))
	}

	token, err := h.tokens.GenerateSessionToken(inv.ID, info, hashedSSN)
	if err != nil {
		logger.Error("Failed to generate session token", "invitation_id", inv.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, acceptResponse{SessionToken: token})
}

type confirmRequest struct {
	VerificationCode string `json:"verification_code,omitempty"`
}

type confirmResponse struct {
	Status         string `json:"status"`
	UserID         int64  `json:"user_id"`
	OrganizationID int64  `json:"organization_id"`
}

// Confirm finishes the flow using the session token from Accept. The identity
// payload is rebuilt from the token claims, never from the request body.
func (h *InvitationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvitation(w, r)
	if !ok {
		return
	}

	claims, ok := h.sessionClaims(w, r, inv.ID)
	if !ok {
		return
	}
	info := domain.UserInfo{
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Email:      claims.Email,
	}

	var req confirmRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var resp confirmResponse
	if inv.AuthorizedOfficial() {
		link, err := h.invitations.ConfirmAo(r.Context(), inv, info, claims.HashedSSN)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		resp = confirmResponse{Status: "accepted", UserID: link.UserID, OrganizationID: link.ProviderOrganizationID}
	} else {
		link, err := h.invitations.ConfirmCd(r.Context(), inv, info, req.VerificationCode)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		resp = confirmResponse{Status: "accepted", UserID: link.UserID, OrganizationID: link.ProviderOrganizationID}
	}
	writeJSON(w, http.StatusOK, resp)
}

type renewResponse struct {
	Renewed      bool   `json:"renewed"`
	InvitationID *int64 `json:"invitation_id,omitempty"`
}

func (h *InvitationHandler) Renew(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvitation(w, r)
	if !ok {
		return
	}

	replacement, err := h.invitations.Renew(r.Context(), inv)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if replacement == nil {
		writeJSON(w, http.StatusOK, renewResponse{Renewed: false})
		return
	}
	writeJSON(w, http.StatusCreated, renewResponse{Renewed: true, InvitationID: &replacement.ID})
}

func (h *InvitationHandler) loadInvitation(w http.ResponseWriter, r *http.Request) (*domain.Invitation, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invitation id")
		return nil, false
	}
	inv, err := h.invitations.GetInvitation(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	return inv, true
}

func (h *InvitationHandler) sessionClaims(w http.ResponseWriter, r *http.Request, invitationID int64) (*security.SessionClaims, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return nil, false
	}
	claims, err := h.tokens.ValidateSessionToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			writeError(w, http.StatusUnauthorized, "session token has expired")
		} else {
			writeError(w, http.StatusUnauthorized, "invalid session token")
		}
		return nil, false
	}
	if claims.InvitationID != invitationID {
		writeError(w, http.StatusForbidden, "session token does not match invitation")
		return nil, false
	}
	return claims, true
}

// writeVerificationFailure distinguishes transient gateway failures, rendered
// as a generic server error, from eligibility rejections the invitee should
// see guidance for.
func (h *InvitationHandler) writeVerificationFailure(w http.ResponseWriter, reason string) {
	if domain.ServerFailureReasons[reason] {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "server_error"})
		return
	}
	writeJSON(w, http.StatusForbidden, map[string]string{"error": reason})
}

func (h *InvitationHandler) writeServiceError(w http.ResponseWriter, err error) {
	var validation service.ValidationErrors
	var unacceptable *service.InvitationUnacceptableError
	var verification *service.VerificationError

	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": validation})
	case errors.As(err, &unacceptable):
		writeJSON(w, http.StatusGone, map[string]string{"error": unacceptable.Reason})
	case errors.As(err, &verification):
		h.writeVerificationFailure(w, verification.Reason)
	case errors.Is(err, domain.ErrMissingInfo):
		writeError(w, http.StatusBadRequest, "missing_info")
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	default:
		logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
