package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type emailService struct {
	host      string
	port      int
	username  string
	password  string
	from      string
	portalURL string
}

func NewEmailService(host string, port int, username, password, from, portalURL string) EmailService {
	return &emailService{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		from:      from,
		portalURL: portalURL,
	}
}

func (s *emailService) SendAoInvite(ctx context.Context, email, orgName string, invitationID int64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Register for Data at the Point of Care - %s", orgName))

	body := fmt.Sprintf(
		"Hello,\n\nAs the Authorized Official for %s, you have been invited to register for access to the DPC API.\n\n"+
			"Use the link below to verify your identity and accept the invitation. The invitation expires 48 hours after it was sent.\n\n"+
			"%s/invitations/%d/accept\n\nThe DPC Team",
		orgName, s.portalURL, invitationID)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send AO invite email: %w", err)
	}
	return nil
}

func (s *emailService) SendCdInvite(ctx context.Context, email, givenName, orgName, verificationCode string, invitationID int64) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", fmt.Sprintf("Invitation to manage credentials for %s", orgName))

	body := fmt.Sprintf(
		"Hello %s,\n\nYou have been invited to manage DPC API credentials on behalf of %s.\n\n"+
			"Use the link below to accept the invitation, and enter this verification code when prompted:\n\n"+
			"    %s\n\n%s/invitations/%d/accept\n\n"+
			"The invitation expires 48 hours after it was sent.\n\nThe DPC Team",
		givenName, orgName, verificationCode, s.portalURL, invitationID)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send CD invite email: %w", err)
	}
	return nil
}
