package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestServiceToken(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		token      string
		method     string
		authHeader string
		wantStatus int
	}{
		{
			name:       "no token configured allows all",
			token:      "",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid token",
			token:      "secret",
			method:     http.MethodGet,
			authHeader: "Bearer secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing header",
			token:      "secret",
			method:     http.MethodGet,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong token",
			token:      "secret",
			method:     http.MethodGet,
			authHeader: "Bearer wrong",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			token:      "secret",
			method:     http.MethodGet,
			authHeader: "Basic secret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "options preflight bypasses auth",
			token:      "secret",
			method:     http.MethodOptions,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := ServiceToken(tt.token)(next)

			req := httptest.NewRequest(tt.method, "/api/v1/alerts", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
