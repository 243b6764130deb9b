package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithOriginVerify(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		secret string
		path   string
		header string
		want   int
	}{
		{"disabled", "", "/api/ai/analyze", "", http.StatusOK},
		{"matching header", "s3cret", "/api/ai/analyze", "s3cret", http.StatusOK},
		{"missing header", "s3cret", "/api/ai/analyze", "", http.StatusForbidden},
		{"wrong header", "s3cret", "/api/ai/analyze", "nope", http.StatusForbidden},
		{"health is open", "s3cret", "/health", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originVerifySecret = tt.secret
			t.Cleanup(func() { originVerifySecret = "" })

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("x-origin-verify", tt.header)
			}
			rec := httptest.NewRecorder()
			withOriginVerify(ok).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
