package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tally/internal/cache"
	"tally/internal/core"
)

// RemoteService is the client for an external authentication service.
// Verify responses are cached briefly so that session restoration and
// per-request checks do not hammer the collaborator.
type RemoteService struct {
	baseURL     string
	httpClient  *http.Client
	verifyCache *cache.LRU[core.User]
}

func NewRemoteService(baseURL string) *RemoteService {
	return &RemoteService{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		verifyCache: cache.NewLRU[core.User](128, 5*time.Minute),
	}
}

type authResponse struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
	Error string    `json:"error"`
}

func (s *RemoteService) Register(ctx context.Context, email, name, password string) (Credentials, error) {
	body := map[string]string{"email": email, "name": name, "password": password}
	resp, err := s.post(ctx, "/auth/register", body)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: resp.User, Token: resp.Token}, nil
}

func (s *RemoteService) Login(ctx context.Context, email, password string) (Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := s.post(ctx, "/auth/login", body)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: resp.User, Token: resp.Token}, nil
}

func (s *RemoteService) Verify(ctx context.Context, token string) (core.User, error) {
	if u, ok := s.verifyCache.Get(token); ok {
		return u, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/verify", nil)
	if err != nil {
		return core.User{}, core.NewPersistenceError("build verify request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.do(req)
	if err != nil {
		return core.User{}, err
	}
	s.verifyCache.Set(token, resp.User)
	return resp.User, nil
}

func (s *RemoteService) post(ctx context.Context, path string, body any) (*authResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, core.NewPersistenceError("encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, core.NewPersistenceError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

// do executes the request and maps the response into the error taxonomy:
// 4xx becomes an AuthError carrying the service's message, everything else
// that fails becomes a PersistenceError.
func (s *RemoteService) do(req *http.Request) (*authResponse, error) {
	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, core.NewPersistenceError("call auth service", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, core.NewPersistenceError("read auth response", err)
	}

	var resp authResponse
	if len(raw) > 0 {
		// Tolerate non-JSON error bodies; the status code decides below.
		_ = json.Unmarshal(raw, &resp)
	}

	switch {
	case httpResp.StatusCode >= 200 && httpResp.StatusCode < 300:
		return &resp, nil
	case httpResp.StatusCode >= 400 && httpResp.StatusCode < 500:
		msg := resp.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = fmt.Sprintf("auth service rejected request (%d)", httpResp.StatusCode)
		}
		return nil, core.NewAuthError(msg)
	default:
		return nil, core.NewPersistenceError("auth service",
			fmt.Errorf("unexpected status %d", httpResp.StatusCode))
	}
}
