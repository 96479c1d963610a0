package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arnavchau/authd/internal/auth"
	"github.com/arnavchau/authd/internal/clickhouse"
	"github.com/arnavchau/authd/internal/middleware"
	"github.com/arnavchau/authd/internal/service"
	"github.com/arnavchau/authd/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type stubActivitySource struct {
	events    []clickhouse.AuthEvent
	err       error
	lastEmail string
	lastLimit int
}

func (s *stubActivitySource) GetRecentEvents(ctx context.Context, email string, limit int) ([]clickhouse.AuthEvent, error) {
	s.lastEmail = email
	s.lastLimit = limit
	return s.events, s.err
}

func newActivityTestServer(source ActivitySource) *httptest.Server {
	store := storage.NewMemoryUserStorage()
	jwtManager := auth.NewJWTManager("test-secret-key", time.Hour)
	userService := service.NewUserService(store, jwtManager, bcrypt.MinCost, nil)
	gate := middleware.NewGate(jwtManager)
	handler := NewAuthHandler(userService)
	activity := NewActivityHandler(userService, source)

	mux := http.NewServeMux()
	mux.HandleFunc("/register", handler.Register)
	mux.HandleFunc("/login", handler.Login)
	mux.HandleFunc("/profile/activity", gate.RequireAuth(activity.Activity))

	return httptest.NewServer(mux)
}

func getWithToken(t *testing.T, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestActivityEndpoint(t *testing.T) {
	occurred := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	source := &stubActivitySource{
		events: []clickhouse.AuthEvent{
			{
				EventType:  "login_ok",
				Email:      "a@x.com",
				OccurredAt: occurred,
				IPAddress:  "203.0.113.7",
				Browser:    "Firefox",
				OS:         "Linux",
				DeviceType: "desktop",
			},
			{
				EventType:  "register",
				Email:      "a@x.com",
				OccurredAt: occurred.Add(-time.Hour),
			},
		},
	}
	server := newActivityTestServer(source)
	defer server.Close()

	token := registerAndLogin(t, server.URL)

	resp := getWithToken(t, server.URL+"/profile/activity", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	result := decodeBody(t, resp)
	events, ok := result["events"].([]interface{})
	if !ok {
		t.Fatalf("expected events array in response, got %v", result)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first, ok := events[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected event object, got %v", events[0])
	}
	if first["type"] != "login_ok" {
		t.Errorf("expected type 'login_ok', got %v", first["type"])
	}
	if first["ip"] != "203.0.113.7" {
		t.Errorf("expected ip '203.0.113.7', got %v", first["ip"])
	}
	if first["browser"] != "Firefox" {
		t.Errorf("expected browser 'Firefox', got %v", first["browser"])
	}

	// The query runs against the stored, normalized email.
	if source.lastEmail != "a@x.com" {
		t.Errorf("expected query for 'a@x.com', got %q", source.lastEmail)
	}
	if source.lastLimit != activityLimit {
		t.Errorf("expected limit %d, got %d", activityLimit, source.lastLimit)
	}
}

func TestActivityEndpoint_EmptyHistory(t *testing.T) {
	server := newActivityTestServer(&stubActivitySource{})
	defer server.Close()

	token := registerAndLogin(t, server.URL)

	resp := getWithToken(t, server.URL+"/profile/activity", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	result := decodeBody(t, resp)
	events, ok := result["events"].([]interface{})
	if !ok {
		t.Fatalf("expected events array in response, got %v", result)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestActivityEndpoint_NoHeader(t *testing.T) {
	server := newActivityTestServer(&stubActivitySource{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/profile/activity")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", resp.StatusCode)
	}
}

func TestActivityEndpoint_SourceError(t *testing.T) {
	server := newActivityTestServer(&stubActivitySource{err: errors.New("connection refused")})
	defer server.Close()

	token := registerAndLogin(t, server.URL)

	resp := getWithToken(t, server.URL+"/profile/activity", token)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.StatusCode)
	}

	result := decodeBody(t, resp)
	if result["error"] != "server error" {
		t.Errorf("expected error 'server error', got %v", result["error"])
	}
}
