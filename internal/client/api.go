// Package client is a small Go client for the time ledger HTTP API, used by
// the interactive command-line tool.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/atinyakov/timeledger/internal/models"
)

const sessionCookie = "sid"

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// NewHTTPClient returns an HTTP client. When caFile is set, its PEM
// certificates are the only trusted roots, which lets the client talk to a
// server using a self-signed development certificate.
func NewHTTPClient(caFile string) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{Timeout: 10 * time.Second}, nil
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{Transport: transport, Timeout: 10 * time.Second}, nil
}

// Client calls the API on behalf of one user. Token is the session token;
// it is updated from Set-Cookie headers on every response.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
}

// New creates a Client for baseURL, e.g. "https://localhost:8080".
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.Token})
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name != sessionCookie {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			c.Token = ""
		} else {
			c.Token = ck.Value
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

// Signup creates an account and logs in.
func (c *Client) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/signup",
		map[string]string{"name": name, "email": email, "password": password}, &out)
	return out.User, err
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	return out.User, err
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.Token = ""
	return err
}

// DeleteAccount removes the logged-in user and all their data.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/auth/account", nil, nil)
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodGet, "/api/me", nil, &out)
	return out.User, err
}

// NewEntry is the payload for CreateEntry.
type NewEntry struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	ActivityName string    `json:"activity_name"`
	Category     string    `json:"category,omitempty"`
	Energy       *int      `json:"energy,omitempty"`
	Intent       *string   `json:"intent,omitempty"`
}

func (c *Client) ListEntries(ctx context.Context) ([]models.Entry, error) {
	var out struct {
		Entries []models.Entry `json:"entries"`
	}
	err := c.do(ctx, http.MethodGet, "/api/entries", nil, &out)
	return out.Entries, err
}

func (c *Client) CreateEntry(ctx context.Context, e NewEntry) (*models.Entry, error) {
	var out struct {
		Entry *models.Entry `json:"entry"`
	}
	err := c.do(ctx, http.MethodPost, "/api/entries", e, &out)
	return out.Entry, err
}

func (c *Client) DeleteEntry(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/entries/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out struct {
		Categories []models.Category `json:"categories"`
	}
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out.Categories, err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	var out struct {
		Category *models.Category `json:"category"`
	}
	err := c.do(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &out)
	return out.Category, err
}

func (c *Client) ListReflections(ctx context.Context) ([]models.Reflection, error) {
	var out struct {
		Reflections []models.Reflection `json:"reflections"`
	}
	err := c.do(ctx, http.MethodGet, "/api/reflections", nil, &out)
	return out.Reflections, err
}

// Reflect writes a reflection for date (YYYY-MM-DD).
func (c *Client) Reflect(ctx context.Context, date, content string) (*models.Reflection, error) {
	var out struct {
		Reflection *models.Reflection `json:"reflection"`
	}
	err := c.do(ctx, http.MethodPost, "/api/reflections", map[string]string{"date": date, "content": content}, &out)
	return out.Reflection, err
}

// Export downloads everything the user owns.
func (c *Client) Export(ctx context.Context) (*models.Export, error) {
	var out models.Export
	if err := c.do(ctx, http.MethodGet, "/api/entries/export/json", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
