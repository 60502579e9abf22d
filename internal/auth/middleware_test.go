package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/auth"
)

func setupProtectedRouter(t *testing.T) (*gin.Engine, *auth.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, err := auth.NewService("test-secret", time.Hour, newMemoryUserStore())
	if err != nil {
		t.Fatalf("failed to create auth service: %v", err)
	}

	router := gin.New()
	router.GET("/whoami", auth.Middleware(svc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ownerId": auth.OwnerID(c)})
	})

	return router, svc
}

func registerTestUser(t *testing.T, svc *auth.Service, username string) *auth.AuthResult {
	t.Helper()
	result, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Password: "s3cret!",
	})
	if err != nil {
		t.Fatalf("register %s returned error: %v", username, err)
	}
	return result
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	router, _ := setupProtectedRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	router, _ := setupProtectedRouter(t)

	cases := map[string]func(*http.Request){
		"garbage header":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") },
		"garbage cookie":    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: "nope"}) },
		"malformed scheme":  func(r *http.Request) { r.Header.Set("Authorization", "Token abc") },
		"empty bearer body": func(r *http.Request) { r.Header.Set("Authorization", "Bearer ") },
	}

	for name, decorate := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		decorate(req)
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", name, rec.Code)
		}
	}
}

func TestMiddlewareAcceptsHeaderToken(t *testing.T) {
	router, svc := setupProtectedRouter(t)
	result := registerTestUser(t, svc, "alice")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareCookieTakesPrecedence(t *testing.T) {
	router, svc := setupProtectedRouter(t)
	cookieUser := registerTestUser(t, svc, "cookie-user")
	headerUser := registerTestUser(t, svc, "header-user")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: cookieUser.Token})
	req.Header.Set("Authorization", "Bearer "+headerUser.Token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if want := cookieUser.User.ID; !strings.Contains(body, want) {
		t.Fatalf("expected identity resolved from cookie (%s), got %s", want, body)
	}
}

func TestTokenFromRequestFallsBackToHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	if got := auth.TokenFromRequest(req); got != "header-token" {
		t.Fatalf("expected header token, got %q", got)
	}

	req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: "cookie-token"})
	if got := auth.TokenFromRequest(req); got != "cookie-token" {
		t.Fatalf("expected cookie token to win, got %q", got)
	}
}
