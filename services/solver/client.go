package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/examplan/core"
	"github.com/trezcool/examplan/core/schedule"
	"github.com/trezcool/examplan/core/user"
)

// APIError is a non-2xx reply from the scheduling service, carrying the
// extracted server message when the body had one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// IsUnauthorized reports whether err is an HTTP 401 from the service: the
// session is invalid and the caller must re-authenticate.
func IsUnauthorized(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// IsForbidden reports whether err is an HTTP 403: the session is still valid
// but the user lacks the privilege. Distinct from IsUnauthorized on purpose.
func IsForbidden(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.Status == http.StatusForbidden
}

// Client talks to the exam-scheduling service. Authentication rides on the
// `auth_token` cookie held in the client's jar after a successful Login.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        core.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The caller is responsible for the
// cookie jar when overriding.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithLogger(log core.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type authResponse struct {
	OK   bool      `json:"ok"`
	User user.User `json:"user"`
}

// Me probes the identity endpoint using the held cookie.
func (c *Client) Me(ctx context.Context) (user.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return user.User{}, err
	}
	if !resp.OK {
		return user.User{}, &APIError{Status: http.StatusUnauthorized, Message: "unauthorized"}
	}
	return resp.User, nil
}

// Login exchanges credentials for an auth cookie and the user identity.
func (c *Client) Login(ctx context.Context, username, password string) (user.User, error) {
	body := map[string]string{"username": username, "password": password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return user.User{}, err
	}
	if !resp.OK {
		return user.User{}, &APIError{Status: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	return resp.User, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// PublicSchedule fetches the currently published schedule; no auth required.
func (c *Client) PublicSchedule(ctx context.Context) (schedule.Result, error) {
	var res schedule.Result
	if err := c.do(ctx, http.MethodGet, "/api/public/schedule", nil, &res); err != nil {
		return schedule.Result{}, err
	}
	return res, nil
}

// Generate posts the whole config snapshot and returns the computed schedule.
func (c *Client) Generate(ctx context.Context, algo string, cfg schedule.Config) (schedule.Result, error) {
	body := struct {
		Algo   string          `json:"algo"`
		Config schedule.Config `json:"config"`
	}{Algo: algo, Config: cfg}

	var res schedule.Result
	if err := c.do(ctx, http.MethodPost, "/api/schedule", body, &res); err != nil {
		return schedule.Result{}, err
	}
	return res, nil
}

// Publish makes an already-generated schedule publicly visible. It posts only
// the schedule id, never the config.
func (c *Client) Publish(ctx context.Context, scheduleID int64) error {
	body := map[string]int64{"scheduleId": scheduleID}
	var resp struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/admin/schedule/publish", body, &resp); err != nil {
		return err
	}
	if !resp.OK {
		return &APIError{Status: http.StatusInternalServerError, Message: "publish rejected"}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshalling request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: extractError(respBody)}
		if c.log != nil {
			c.log.Debug(fmt.Sprintf("%s %s: %v", method, path, apiErr))
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrap(err, "unmarshalling response")
		}
	}
	return nil
}

// extractError pulls the `.error` text out of a JSON error body, if any.
func extractError(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}
