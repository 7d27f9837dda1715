package sso

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ems/internal/platform/config"
)

// Identity resolves employee identity details from the company SSO service.
type Identity interface {
	RoleByEmployeeNumber(ctx context.Context, employeeNumber string) (string, error)
	DeviceTokens(ctx context.Context, employeeNumber string) ([]string, error)
}

type noopIdentity struct{}

func (noopIdentity) RoleByEmployeeNumber(ctx context.Context, employeeNumber string) (string, error) {
	return "", nil
}

func (noopIdentity) DeviceTokens(ctx context.Context, employeeNumber string) ([]string, error) {
	return nil, nil
}

type httpIdentity struct {
	cfg    config.Config
	client *http.Client
}

// New returns the SSO identity client, or a noop when SSO is not configured.
func New(cfg config.Config) Identity {
	if cfg.SSOBaseURL == "" {
		return noopIdentity{}
	}
	return &httpIdentity{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.SSOTimeout},
	}
}

func (s *httpIdentity) RoleByEmployeeNumber(ctx context.Context, employeeNumber string) (string, error) {
	var out struct {
		Role string `json:"role"`
	}
	if err := s.get(ctx, "/api/identity/role", employeeNumber, &out); err != nil {
		return "", err
	}
	return out.Role, nil
}

func (s *httpIdentity) DeviceTokens(ctx context.Context, employeeNumber string) ([]string, error) {
	var out struct {
		Tokens []string `json:"tokens"`
	}
	if err := s.get(ctx, "/api/identity/device-tokens", employeeNumber, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

func (s *httpIdentity) get(ctx context.Context, path, employeeNumber string, out any) error {
	u := fmt.Sprintf("%s%s?employeeNumber=%s", s.cfg.SSOBaseURL, path, url.QueryEscape(employeeNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if s.cfg.SSOAPIKey != "" {
		req.Header.Set("X-Api-Key", s.cfg.SSOAPIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sso lookup failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
