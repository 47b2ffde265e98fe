package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		keys       string
		header     string
		wantStatus int
		wantErr    string
	}{
		{"disabled", "", "", http.StatusOK, ""},
		{"disabled blank list", " , ", "", http.StatusOK, ""},
		{"missing header", "secret", "", http.StatusUnauthorized, "authorization required"},
		{"wrong token", "secret", "Bearer wrong-token", http.StatusUnauthorized, "invalid token"},
		{"correct token", "secret", "Bearer secret", http.StatusOK, ""},
		{"case-insensitive scheme", "secret", "BEARER secret", http.StatusOK, ""},
		{"basic scheme", "secret", "Basic c2VjcmV0", http.StatusUnauthorized, "authorization required"},
		{"no scheme", "secret", "secret", http.StatusUnauthorized, "authorization required"},
		{"rotated new key", "new-key, old-key", "Bearer new-key", http.StatusOK, ""},
		{"rotated old key", "new-key, old-key", "Bearer old-key", http.StatusOK, ""},
		{"rotated unknown key", "new-key, old-key", "Bearer other", http.StatusUnauthorized, "invalid token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := authMiddleware(tc.keys, okHandler)
			req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, w.Code)
			}
			if tc.wantErr == "" {
				return
			}
			if w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header on 401")
			}
			var body errorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error != tc.wantErr {
				t.Errorf("error: got %q, want %q", body.Error, tc.wantErr)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                 "",
		"Bearer abc123":    "abc123",
		"bearer abc123":    "abc123",
		"Bearer  padded  ": "padded",
		"Token abc123":     "",
		"Bearerabc123":     "",
		"Bearer":           "",
	}
	for hdr, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		if got := bearerToken(req); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", hdr, got, want)
		}
	}
}
