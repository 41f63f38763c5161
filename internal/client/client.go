// Package client talks to the feedback API on behalf of the feedbackctl CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/deadwick/feedback-service/internal/core/domain"
)

const defaultTimeout = 30 * time.Second

// TokenSource returns the bearer token of the current session, or "".
type TokenSource func() string

// Client is a thin JSON client for the /v1 API. It satisfies
// session.Verifier so a local session.Store can log in through it.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func New(baseURL string, httpClient *http.Client, token TokenSource) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		token:   token,
	}
}

type identityBody struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

func (b identityBody) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:          b.ID,
		Email:       b.Email,
		Role:        domain.ParseRole(b.Role),
		DisplayName: b.DisplayName,
	}
}

type loginBody struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      identityBody `json:"user"`
}

// Verify logs in and returns the identity with the issued bearer token.
func (c *Client) Verify(ctx context.Context, email, password string) (*domain.Identity, error) {
	var out loginBody
	if err := c.postPublic(ctx, "/v1/auth/login", credentials(email, password), &out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User.ID == "" {
		return nil, fmt.Errorf("%w: empty login response", domain.ErrAuthentication)
	}
	identity := out.User.toDomain()
	identity.Token = out.Token
	return identity, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.Identity, error) {
	var out identityBody
	if err := c.postPublic(ctx, "/v1/auth/register", credentials(email, password), &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Me returns the identity the server holds for the current token.
func (c *Client) Me(ctx context.Context) (*domain.Identity, error) {
	var out identityBody
	if err := c.get(ctx, "/v1/auth/me", &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

type feedbackBody struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	DisplayName string    `json:"display_name"`
	Message     string    `json:"message"`
	Rating      int       `json:"rating"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (b feedbackBody) toDomain() domain.FeedbackRecord {
	return domain.FeedbackRecord{
		ID:          b.ID,
		AuthorID:    b.AuthorID,
		DisplayName: b.DisplayName,
		Message:     b.Message,
		Rating:      b.Rating,
		ImageRef:    b.ImageURL,
		CreatedAt:   b.CreatedAt,
	}
}

type feedbackListBody struct {
	Items []feedbackBody `json:"items"`
	Count int            `json:"count"`
}

// ListPublic returns the public feed.
func (c *Client) ListPublic(ctx context.Context) ([]domain.FeedbackRecord, error) {
	return c.list(ctx, "/v1/feedback")
}

// ListAll returns the admin management list.
func (c *Client) ListAll(ctx context.Context) ([]domain.FeedbackRecord, error) {
	return c.list(ctx, "/v1/admin/feedback")
}

// ListOwn returns the caller's submissions.
func (c *Client) ListOwn(ctx context.Context) ([]domain.FeedbackRecord, error) {
	return c.list(ctx, "/v1/me/feedback")
}

func (c *Client) list(ctx context.Context, path string) ([]domain.FeedbackRecord, error) {
	var out feedbackListBody
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	records := make([]domain.FeedbackRecord, 0, len(out.Items))
	for _, item := range out.Items {
		records = append(records, item.toDomain())
	}
	return records, nil
}

// Image is an optional attachment for Submit.
type Image struct {
	Name string
	Data []byte
}

// Submit posts a feedback entry as multipart form data.
func (c *Client) Submit(ctx context.Context, message string, rating int, image *Image) (*domain.FeedbackRecord, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("message", message)
	_ = mw.WriteField("rating", strconv.Itoa(rating))
	if image != nil {
		part, err := mw.CreateFormFile("image", filepath.Base(image.Name))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/feedback", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out feedbackBody
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	rec := out.toDomain()
	return &rec, nil
}

// Delete removes a feedback entry. Admin only.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/v1/admin/feedback/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func credentials(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// postPublic sends a JSON body without the bearer token. Login and register
// must work even when the stored token has gone stale.
func (c *Client) postPublic(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Del("Authorization")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return apiError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError maps a failed response back onto the domain sentinels so callers
// can match with errors.Is the same way the server does.
func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Message != "":
			msg = body.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		sentinel = domain.ErrValidation
	case http.StatusUnauthorized:
		sentinel = domain.ErrAuthentication
	case http.StatusForbidden:
		sentinel = domain.ErrAuthorization
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusConflict:
		sentinel = domain.ErrUserExists
	case http.StatusBadGateway:
		sentinel = domain.ErrStorage
	case http.StatusServiceUnavailable:
		sentinel = domain.ErrPersistence
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
