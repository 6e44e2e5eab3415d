package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/good-yellow-bee/countdown/internal/api/auth"
)

func TestJWTAuth_ValidToken(t *testing.T) {
	secret := []byte("test-secret-key-32-bytes-long!!")
	jwtService := auth.NewJWTService(secret, 15*time.Minute)

	token, err := jwtService.GenerateToken("shop-a")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	var gotShop string
	var gotClaims *auth.Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotShop = GetShop(r.Context())
		gotClaims = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	wrapped := JWTAuth(jwtService)(handler)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotShop != "shop-a" {
		t.Errorf("shop = %q, want %q", gotShop, "shop-a")
	}
	if gotClaims == nil || gotClaims.Shop != "shop-a" {
		t.Errorf("claims = %+v", gotClaims)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	jwtService := auth.NewJWTService([]byte("test-secret-key-32-bytes-long!!"), 15*time.Minute)
	other := auth.NewJWTService([]byte("another-secret-32-bytes-long!!!"), 15*time.Minute)
	foreign, _ := other.GenerateToken("shop-a")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"no token", "Bearer"},
		{"garbage token", "Bearer not-a-token"},
		{"foreign secret", "Bearer " + foreign},
	}

	called := false
	wrapped := JWTAuth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if called {
				t.Error("handler should not be called")
			}
		})
	}
}

func TestGetShop_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if GetShop(req.Context()) != "" {
		t.Error("expected empty shop")
	}
	if GetClaims(req.Context()) != nil {
		t.Error("expected nil claims")
	}
}
