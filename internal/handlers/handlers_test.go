package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"familylink/internal/database"
	"familylink/internal/repository"
	"familylink/internal/security"
	"familylink/internal/service"
)

type testServer struct {
	*httptest.Server
	t *testing.T
}

type apiResponse struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Error    string          `json:"error"`
	Data     json.RawMessage `json:"data"`
	User     json.RawMessage `json:"user"`
	Profile  json.RawMessage `json:"profile"`
	Parent   json.RawMessage `json:"parent"`
	Redirect string          `json:"redirect"`
	Token    string          `json:"token"`
	Valid    *bool           `json:"valid"`
}

type userView struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	ParentID   *int64 `json:"parent_id"`
	ParentCode string `json:"parent_code"`
}

func newTestServer(t *testing.T, ratePerMinute int) *testServer {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	tokens := security.NewTokenManager("test-secret", "familylink-test")

	router := NewRouter(Deps{
		Auth:      service.NewAuthService(db, users, sessions, tokens, nil, time.Hour),
		Parents:   service.NewParentService(db, users, sessions),
		Children:  service.NewChildService(db, users),
		Limiter:   security.NewRateLimiter(ratePerMinute, time.Minute),
		StartedAt: time.Now(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, t: t}
}

// do sends a JSON request with an optional bearer token and decodes the envelope
func (s *testServer) do(method, path, token string, body any) (int, apiResponse) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func (s *testServer) expect(method, path, token string, body any, status int) apiResponse {
	s.t.Helper()
	got, resp := s.do(method, path, token, body)
	if got != status {
		s.t.Fatalf("%s %s = %d (%s), want %d", method, path, got, resp.Error, status)
	}
	return resp
}

func decodeInto(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func (s *testServer) register(username, role, code string) userView {
	s.t.Helper()
	resp := s.expect(http.MethodPost, "/auth/register", "", map[string]string{
		"username":    username,
		"email":       username + "@example.com",
		"password":    "password123",
		"role":        role,
		"parent_code": code,
	}, http.StatusCreated)
	var u userView
	decodeInto(s.t, resp.User, &u)
	return u
}

func (s *testServer) login(username string) string {
	s.t.Helper()
	resp := s.expect(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
	}, http.StatusOK)
	if resp.Token == "" {
		s.t.Fatalf("login(%s) returned no token", username)
	}
	return resp.Token
}
