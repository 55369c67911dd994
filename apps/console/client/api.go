// Package client talks to the maintenance HTTP API and keeps the console's sign-in state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/maintenance/core/dashboard"
	"github.com/trezcool/maintenance/core/session"
	"github.com/trezcool/maintenance/core/user"
)

const profileNotFoundMsg = "profile not found"

type (
	API struct {
		baseURL string
		http    *http.Client
	}

	// Token is the answer to a login or a token refresh.
	Token struct {
		Token       string    `json:"token"`
		PrincipalID string    `json:"principal_id"`
		Role        user.Role `json:"role"`
		Landing     string    `json:"landing"`
	}

	// APIError is a non-2xx answer of the API.
	APIError struct {
		Code     int
		Message  string
		Redirect string
	}
)

func (e *APIError) Error() string {
	if e.Redirect != "" {
		return fmt.Sprintf("%d: %s (redirect to %s)", e.Code, e.Message, e.Redirect)
	}
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

// Login exchanges credentials for a token.
// A rejected pair is returned as a *session.AuthenticationError, a missing profile as session.ErrProfileNotFound.
func (api *API) Login(ctx context.Context, email, pwd string) (Token, error) {
	var tok Token
	body := map[string]string{"email": email, "password": pwd}
	if err := api.do(ctx, http.MethodPost, "/v1/auth/login", "", body, &tok); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.Code == http.StatusBadRequest:
				return Token{}, session.NewAuthenticationError(session.InvalidCredentials, apiErr)
			case apiErr.Code == http.StatusForbidden && apiErr.Message == profileNotFoundMsg:
				return Token{}, session.ErrProfileNotFound
			}
		}
		return Token{}, errors.Wrap(err, "logging in")
	}
	return tok, nil
}

func (api *API) Refresh(ctx context.Context, token string) (Token, error) {
	var tok Token
	if err := api.do(ctx, http.MethodPost, "/v1/auth/token-refresh", token, nil, &tok); err != nil {
		return Token{}, errors.Wrap(err, "refreshing token")
	}
	return tok, nil
}

// Profile returns session.ErrProfileNotFound when the API knows no profile for id.
func (api *API) Profile(ctx context.Context, token, id string) (session.Profile, error) {
	var p session.Profile
	if err := api.do(ctx, http.MethodGet, "/v1/profiles/"+id, token, nil, &p); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return session.Profile{}, session.ErrProfileNotFound
		}
		return session.Profile{}, errors.Wrap(err, "getting profile")
	}
	return p, nil
}

func (api *API) Sections(ctx context.Context) ([]session.Section, error) {
	var sections []session.Section
	if err := api.do(ctx, http.MethodGet, "/v1/sections", "", nil, &sections); err != nil {
		return nil, errors.Wrap(err, "listing sections")
	}
	return sections, nil
}

// Dashboard returns the summary cards of section.
func (api *API) Dashboard(ctx context.Context, token string, section session.Section) (dashboard.Summary, error) {
	var summary dashboard.Summary
	if err := api.do(ctx, http.MethodGet, "/v1"+section.Root+"/dashboard", token, nil, &summary); err != nil {
		return dashboard.Summary{}, errors.Wrap(err, "getting dashboard")
	}
	return summary, nil
}

func (api *API) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, api.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := api.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "decoding response")
}

// decodeError reads {"error": ..., "redirect": ...} bodies. Field error maps are flattened.
func decodeError(code int, data []byte) error {
	apiErr := &APIError{Code: code, Message: http.StatusText(code)}

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return apiErr
	}
	if msg, ok := body["error"].(string); ok {
		apiErr.Message = msg
		if redirect, ok := body["redirect"].(string); ok {
			apiErr.Redirect = redirect
		}
		return apiErr
	}

	fields := make([]string, 0, len(body))
	for fld, msg := range body {
		fields = append(fields, fmt.Sprintf("%s: %v", fld, msg))
	}
	if len(fields) > 0 {
		sort.Strings(fields)
		apiErr.Message = strings.Join(fields, "; ")
	}
	return apiErr
}
