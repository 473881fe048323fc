// Package backend is the HTTP client for the profile store, the usage-limit
// service and the document generation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nomoreats/builder/internal/profile"
	"github.com/nomoreats/builder/internal/sections"
)

const (
	DefaultBaseURL = "http://localhost:8001"
	defaultTimeout = 60 * time.Second
	// maxErrorBody bounds how much of a failed response is read for its detail.
	maxErrorBody = 64 << 10
)

// ErrNotFound is returned when the store holds no profile for the requested
// owner and field. It is the same value as profile.ErrNotFound.
var ErrNotFound = profile.ErrNotFound

// APIError is a non-success response. Detail carries the service-provided
// message when the body had one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned HTTP %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned HTTP %d", e.Status)
}

// Client talks to the backend. It never retries; every call maps to exactly
// one request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for baseURL. A zero timeout uses 60 seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a Client that sends requests through hc.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Limits is the usage snapshot reported by GET /user_limits.
type Limits struct {
	TailorCredits int      `json:"tailor_credits"`
	UsedFields    []string `json:"used_fields"`
	FieldLimit    int      `json:"field_limit"`
}

// Generated is the result of a plain export.
type Generated struct {
	PDFURL string `json:"pdf_url"`
}

// Tailored is the result of a tailoring call. RemainingCredits is the new
// authoritative balance.
type Tailored struct {
	PDFURL           string `json:"pdf_url"`
	RemainingCredits int    `json:"remaining_credits"`
}

// FetchProfile returns the stored profile for owner and field, or an error
// wrapping ErrNotFound when none exists.
func (c *Client) FetchProfile(ctx context.Context, ownerID string, field sections.Field) (profile.Profile, error) {
	var p profile.Profile
	path := "/get_user_profile/" + url.PathEscape(ownerID) + "/" + url.PathEscape(string(field))
	if err := c.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return profile.Profile{}, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns every stored profile of owner, across fields.
func (c *Client) ListProfiles(ctx context.Context, ownerID string) ([]profile.Profile, error) {
	var resp struct {
		Profiles []profile.Profile `json:"profiles"`
	}
	if err := c.do(ctx, http.MethodGet, "/user_profiles/"+url.PathEscape(ownerID), nil, &resp); err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	if resp.Profiles == nil {
		return []profile.Profile{}, nil
	}
	return resp.Profiles, nil
}

// GetLimits returns the usage snapshot of owner.
func (c *Client) GetLimits(ctx context.Context, ownerID string) (Limits, error) {
	var l Limits
	if err := c.do(ctx, http.MethodGet, "/user_limits/"+url.PathEscape(ownerID), nil, &l); err != nil {
		return Limits{}, fmt.Errorf("getting limits: %w", err)
	}
	return l, nil
}

// GenerateResume exports p exactly as given.
func (c *Client) GenerateResume(ctx context.Context, p profile.Profile) (Generated, error) {
	body := struct {
		UserProfile profile.Profile `json:"user_profile"`
	}{p}
	var out Generated
	if err := c.do(ctx, http.MethodPost, "/generate_resume", body, &out); err != nil {
		return Generated{}, fmt.Errorf("generating resume: %w", err)
	}
	return out, nil
}

// GenerateTailored exports owner's stored profile tailored to jobDescription.
// Each call consumes one tailoring credit.
func (c *Client) GenerateTailored(ctx context.Context, ownerID, jobDescription string) (Tailored, error) {
	body := struct {
		OwnerID        string `json:"clerk_user_id"`
		JobDescription string `json:"job_description"`
	}{ownerID, jobDescription}
	var out Tailored
	if err := c.do(ctx, http.MethodPost, "/generate_tailored_cv", body, &out); err != nil {
		return Tailored{}, fmt.Errorf("generating tailored resume: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Detail: detailOf(raw)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// detailOf extracts the "detail" member of an error body. String details are
// returned as is; structured ones (validation errors) are returned as JSON.
func detailOf(raw []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}
	return string(env.Detail)
}

// Detail returns the service-provided message carried by err, if any.
func Detail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}
