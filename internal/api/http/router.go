package http

import (
	"github.com/gorilla/mux"
)

// NewRouter wires the invitation flow and health endpoints.
func NewRouter(invitations *InvitationHandler, organizations *OrganizationHandler, health *HealthHandler) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/ao-invitations", invitations.CreateAoInvitation).Methods("POST")
	api.HandleFunc("/organizations/{orgID:[0-9]+}/cd-invitations", invitations.CreateCdInvitation).Methods("POST")
	api.HandleFunc("/organizations/{id:[0-9]+}", organizations.GetOrganization).Methods("GET")
	api.HandleFunc("/cd-links/{id:[0-9]+}", organizations.DisableCdLink).Methods("DELETE")
	api.HandleFunc("/invitations/{id:[0-9]+}", invitations.GetInvitation).Methods("GET")
	api.HandleFunc("/invitations/{id:[0-9]+}/accept", invitations.Accept).Methods("POST")
	api.HandleFunc("/invitations/{id:[0-9]+}/confirm", invitations.Confirm).Methods("POST")
	api.HandleFunc("/invitations/{id:[0-9]+}/renew", invitations.Renew).Methods("POST")

	r.HandleFunc("/health", health.Check).Methods("GET")
	return r
}
