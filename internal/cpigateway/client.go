package cpigateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"dpc-portal-backend/internal/config"
	"dpc-portal-backend/internal/logger"
)

const tokenPath = "/oauth2/default/v1/token"

// GatewayError is returned when the gateway answers with an HTTP error
// status. Callers map the status to a transport failure classification.
type GatewayError struct {
	StatusCode int
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("cpi gateway returned status %d", e.StatusCode)
}

// Client talks to the CPI API Gateway, authenticating via an OAuth2
// client-credentials grant against the CMS IDM token endpoint. The access
// token is cached per client instance and refreshed transparently when it
// expires.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  oauth2.TokenSource
}

func NewClient(cfg config.CpiGatewayConfig) *Client {
	oauth := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     strings.TrimSuffix(cfg.OauthURL, "/") + tokenPath,
		Scopes:       []string{"READ"},
	}
	ctx := context.Background()
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    oauth.Client(ctx),
		tokens:  oauth.TokenSource(ctx),
	}
}

// FetchProfile looks up a provider's enrollments and roles by organization
// NPI. An unknown NPI comes back as a 200 body with code "404"; check
// ProviderProfile.NotFound, not the error.
func (c *Client) FetchProfile(ctx context.Context, npi string) (*ProviderProfile, error) {
	body := map[string]any{
		"providerID": map[string]any{"npi": npi},
	}
	var profile ProviderProfile
	if err := c.post(ctx, "fetch_profile", "/api/1.0/ppr/providers/profile", body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FetchMedSanctionsAndWaiversBySSN looks up an individual's sanctions and
// waivers by SSN.
func (c *Client) FetchMedSanctionsAndWaiversBySSN(ctx context.Context, ssn string) (*ProviderInfo, error) {
	body := map[string]any{
		"providerID": map[string]any{
			"providerType": "ind",
			"identity": map[string]any{
				"idType": "ssn",
				"id":     ssn,
			},
		},
		"dataSets": map[string]any{
			"subjectAreas": map[string]any{"all": true},
		},
	}
	var info ProviderInfo
	if err := c.post(ctx, "fetch_med_sanctions_and_waivers_by_ssn", "/api/1.0/ppr/providers", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// OrgInfo looks up organization-level provider info, including sanctions and
// waivers, by NPI.
func (c *Client) OrgInfo(ctx context.Context, npi string) (*ProviderInfo, error) {
	body := map[string]any{
		"providerID": map[string]any{
			"providerType": "org",
			"npi":          npi,
		},
		"dataSets": map[string]any{
			"subjectAreas": map[string]any{"all": true},
		},
	}
	var info ProviderInfo
	if err := c.post(ctx, "org_info", "/api/1.0/ppr/providers", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Healthcheck reports whether a token can be obtained from the IDM endpoint.
// OAuth errors are swallowed and reported as false.
func (c *Client) Healthcheck(ctx context.Context) bool {
	_, err := c.tokens.Token()
	if err != nil {
		logger.Warn("CPI gateway healthcheck failed", "error", err)
		return false
	}
	return true
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	url := c.baseURL + path
	logger.GatewayCall(operation, url)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.GatewayResult(operation, 0, time.Since(start), err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		logger.GatewayResult(operation, resp.StatusCode, time.Since(start), gwErr)
		return gwErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.GatewayResult(operation, resp.StatusCode, time.Since(start), err)
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}

	logger.GatewayResult(operation, resp.StatusCode, time.Since(start), nil)
	return nil
}
