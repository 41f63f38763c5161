package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStore talks to the Supabase Storage REST API.
type SupabaseStore struct {
	baseURL    string
	apiKey     string
	bucket     string
	httpClient *http.Client
}

func NewSupabaseStore(baseURL, apiKey, bucket string, httpClient *http.Client) *SupabaseStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		bucket:     bucket,
		httpClient: httpClient,
	}
}

// Put uploads without upsert, so an existing key is rejected by the server.
func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	if err := s.do(req); err != nil {
		return "", err
	}
	return s.publicURL(key), nil
}

func (s *SupabaseStore) Remove(ctx context.Context, key string) error {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s", s.baseURL, s.bucket)

	body, _ := json.Marshal(map[string][]string{"prefixes": {key}})
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	return s.do(req)
}

func (s *SupabaseStore) KeyFromURL(raw string) (string, error) {
	prefix := s.publicURL("")
	if !strings.HasPrefix(raw, prefix) {
		return "", ErrForeignURL
	}
	key := strings.TrimPrefix(raw, prefix)
	if key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

func (s *SupabaseStore) publicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}

func (s *SupabaseStore) setHeaders(req *http.Request) {
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
}

func (s *SupabaseStore) do(req *http.Request) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		if errResp.Message != "" {
			return fmt.Errorf("supabase storage: status %d: %s", resp.StatusCode, errResp.Message)
		}
		if errResp.Error != "" {
			return fmt.Errorf("supabase storage: status %d: %s", resp.StatusCode, errResp.Error)
		}
	}
	return fmt.Errorf("supabase storage: status %d", resp.StatusCode)
}
