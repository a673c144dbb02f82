package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"llm-insurance/internal/service"
)

func protectedRouter(tokens TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuthMiddleware(zap.NewNop(), tokens), func(c *gin.Context) {
		subject, ok := GetAuthSubject(c)
		if !ok || subject != "alice01" {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func doProtected(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware_AllowsValidAccessToken(t *testing.T) {
	tokens := service.NewTokenService("secret", 15*time.Minute)
	token, err := tokens.Issue("alice01")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rec := doProtected(protectedRouter(tokens), "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doProtected(protectedRouter(tokens), "bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected case-insensitive scheme, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_RejectsMissingToken(t *testing.T) {
	tokens := service.NewTokenService("secret", 15*time.Minute)
	for _, header := range []string{"", "Basic abc", "Bearer"} {
		rec := doProtected(protectedRouter(tokens), header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestJWTAuthMiddleware_RejectsForeignToken(t *testing.T) {
	tokens := service.NewTokenService("secret", 15*time.Minute)
	foreign, _ := service.NewTokenService("other", 15*time.Minute).Issue("alice01")

	rec := doProtected(protectedRouter(tokens), "Bearer "+foreign)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTAuthMiddleware_NotConfigured(t *testing.T) {
	rec := doProtected(protectedRouter(nil), "Bearer x")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
