package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func testAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-battery-staple"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &AuthHandler{Secret: []byte("test-secret"), AdminHash: string(hash)}
}

func loginContext(e *echo.Echo, payload string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLoginIssuesToken(t *testing.T) {
	auth := testAuthHandler(t)
	ctx, rec := loginContext(echo.New(), `{"password":"correct-battery-staple"}`)

	if err := auth.login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response decode: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected token in response body")
	}
	parsed, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) { return auth.Secret, nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub != "admin" {
		t.Fatalf("expected subject admin, got %q (%v)", sub, err)
	}

	if got := rec.Header().Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
		t.Fatalf("expected bearer header, got %q", got)
	}
	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "auth" {
			cookie = ck
		}
	}
	if cookie == nil || cookie.Value != resp.Token || !cookie.HttpOnly {
		t.Fatalf("expected httponly auth cookie matching token, got %+v", cookie)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth := testAuthHandler(t)
	ctx, _ := loginContext(echo.New(), `{"password":"not-the-password"}`)

	err := auth.login(ctx)
	if err == nil {
		t.Fatalf("expected error for wrong password")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 http error, got %#v", err)
	}
}

func TestLoginRejectsShortPassword(t *testing.T) {
	auth := testAuthHandler(t)
	ctx, _ := loginContext(echo.New(), `{"password":"short"}`)

	err := auth.login(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 http error, got %#v", err)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	auth := testAuthHandler(t)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()

	if err := auth.logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "auth" {
			cookie = ck
		}
	}
	if cookie == nil || cookie.MaxAge != -1 || cookie.Value != "" {
		t.Fatalf("expected expired auth cookie, got %+v", cookie)
	}
}

func authedHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("user_id").(string))
	}
}

func TestWithAuthAcceptsBearerHeader(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := signJWT("admin", secret, time.Hour)
	if err != nil {
		t.Fatalf("signJWT: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()

	if err := withAuth(secret)(authedHandler())(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if rec.Body.String() != "admin" {
		t.Fatalf("expected user_id admin, got %q", rec.Body.String())
	}
}

func TestWithAuthAcceptsCookie(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := signJWT("admin", secret, time.Hour)
	if err != nil {
		t.Fatalf("signJWT: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: tok})
	rec := httptest.NewRecorder()

	if err := withAuth(secret)(authedHandler())(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if rec.Body.String() != "admin" {
		t.Fatalf("expected user_id admin, got %q", rec.Body.String())
	}
}

func TestWithAuthRejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()

	err := withAuth([]byte("test-secret"))(authedHandler())(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 http error, got %#v", err)
	}
}

func TestWithAuthRejectsForgedToken(t *testing.T) {
	tok, err := signJWT("admin", []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("signJWT: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()

	err = withAuth([]byte("test-secret"))(authedHandler())(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 http error, got %#v", err)
	}
}
