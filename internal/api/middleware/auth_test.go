package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/anshfreight/ifta-miles/internal/core/domain"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret, username, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/reports", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return rec, c, handler(c)
}

func TestJWT_ValidToken(t *testing.T) {
	token := signedToken(t, testSecret, "maria", domain.RoleAnalyst, time.Hour)
	_, c, err := invoke(t, JWT(testSecret), "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Get(ContextKeyUsername) != "maria" {
		t.Errorf("username not set on context: %v", c.Get(ContextKeyUsername))
	}
	if c.Get(ContextKeyRole) != domain.RoleAnalyst {
		t.Errorf("role not set on context: %v", c.Get(ContextKeyRole))
	}
}

func TestJWT_MissingHeader(t *testing.T) {
	_, _, err := invoke(t, JWT(testSecret), "")
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestJWT_MalformedHeader(t *testing.T) {
	_, _, err := invoke(t, JWT(testSecret), "Token abc")
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestJWT_WrongSecret(t *testing.T) {
	token := signedToken(t, "other-secret", "maria", domain.RoleAnalyst, time.Hour)
	_, _, err := invoke(t, JWT(testSecret), "Bearer "+token)
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestJWT_ExpiredToken(t *testing.T) {
	token := signedToken(t, testSecret, "maria", domain.RoleAnalyst, -time.Hour)
	_, _, err := invoke(t, JWT(testSecret), "Bearer "+token)
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestRequireRole_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRole, domain.RoleAdmin)

	handler := RequireRole(domain.RoleAdmin, domain.RoleAnalyst)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Rejects(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRole, "viewer")

	handler := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	assertHTTPStatus(t, handler(c), http.StatusForbidden)
}

func assertHTTPStatus(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != want {
		t.Errorf("expected status %d, got %d", want, he.Code)
	}
}
