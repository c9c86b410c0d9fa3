package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ums-dashboard/bff/internal/application/auth"
	"github.com/ums-dashboard/bff/internal/config"
	"github.com/ums-dashboard/bff/internal/domain"
	"github.com/ums-dashboard/bff/internal/infrastructure/backend"
	"github.com/ums-dashboard/bff/internal/infrastructure/sealer"
)

// --- helpers ---

func newTestSealer(t *testing.T) *sealer.Sealer {
	t.Helper()
	s, err := sealer.New(strings.Repeat("k", sealer.MinSecretLen))
	require.NoError(t, err)
	return s
}

// newAuthHandler wires a real service against the given fake backend, the
// way the router does in production.
func newAuthHandler(t *testing.T, backendURL string) (*AuthHandler, *sealer.Sealer) {
	t.Helper()
	s := newTestSealer(t)
	bc := backend.NewClient(&config.Config{BackendBaseURL: backendURL, BackendTimeout: 2 * time.Second})
	return NewAuthHandler(auth.NewService(bc, s), s), s
}

func responseCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- login ---

func TestLogin_SetsPendingAuthCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"userId":7,"role":"USER"}}`))
	}))
	defer srv.Close()
	h, s := newAuthHandler(t, srv.URL)

	body := `{"email":"alice@example.com","password":"hunter22"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"userId":7,"role":"USER"}}`, rr.Body.String())

	pending := responseCookie(t, rr, domain.CookiePending)
	require.NotNil(t, pending)
	assert.Equal(t, 300, pending.MaxAge)
	assert.True(t, pending.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, pending.SameSite)
	assert.Equal(t, "/", pending.Path)

	var claims domain.PendingAuth
	require.NoError(t, s.Unseal(pending.Value, &claims))
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "USER", claims.Role)

	// No session cookie until the OTP is verified.
	assert.Nil(t, responseCookie(t, rr, domain.CookieSession))
}

func TestLogin_BadCredentials_RelayedStatus_NoCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
	}))
	defer srv.Close()
	h, _ := newAuthHandler(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.com","password":"x"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"message":"bad credentials"}`, rr.Body.String())
	assert.Empty(t, rr.Result().Cookies())
}

func TestLogin_InvalidBody(t *testing.T) {
	h, _ := newAuthHandler(t, "http://backend.invalid")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_MissingFields_FailsValidation(t *testing.T) {
	h, _ := newAuthHandler(t, "http://backend.invalid")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_BackendDown_502(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	h, _ := newAuthHandler(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.com","password":"pw"}`))
	rr := httptest.NewRecorder()
	h.Login(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"message":"backend unavailable"}`, rr.Body.String())
}

// --- signup ---

func TestSignup_ForwardsFreshMultipart_SetsPendingCookie(t *testing.T) {
	var upstreamCookies []*http.Cookie
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/signup", r.URL.Path)
		upstreamCookies = r.Cookies()
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "carol@example.com", r.FormValue("email"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"email":"carol@example.com","teamCode":"RKT-42"}}`))
	}))
	defer srv.Close()
	h, s := newAuthHandler(t, srv.URL)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("email", "carol@example.com"))
	require.NoError(t, w.WriteField("password", "pw123456"))
	require.NoError(t, w.WriteField("teamCode", "RKT-42"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	// Browser cookies on the incoming request must not reach the backend.
	req.AddCookie(&http.Cookie{Name: "tracking", Value: "secret"})
	rr := httptest.NewRecorder()
	h.Signup(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Empty(t, upstreamCookies)

	pending := responseCookie(t, rr, domain.CookiePending)
	require.NotNil(t, pending)
	var claims domain.PendingAuth
	require.NoError(t, s.Unseal(pending.Value, &claims))
	assert.Equal(t, "carol@example.com", claims.Email)
	assert.Equal(t, "RKT-42", claims.TeamCode)

	team := responseCookie(t, rr, domain.CookieTeam)
	require.NotNil(t, team)
	assert.Equal(t, 300, team.MaxAge)
}

// --- verify ---

func pendingCookieFor(t *testing.T, s *sealer.Sealer, pending domain.PendingAuth) *http.Cookie {
	t.Helper()
	sealed, err := s.Seal(pending, domain.PendingTTL)
	require.NoError(t, err)
	return &http.Cookie{Name: domain.CookiePending, Value: sealed}
}

func TestVerify_Success_SetsSessionClearsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/verify", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice@example.com", body["email"])
		assert.Equal(t, "123456", body["code"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"token":"abc","role":"USER"}}`))
	}))
	defer srv.Close()
	h, s := newAuthHandler(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"code":"123456"}`))
	req.AddCookie(pendingCookieFor(t, s, domain.PendingAuth{Email: "alice@example.com", UserID: 7, Role: "USER"}))
	rr := httptest.NewRecorder()
	h.Verify(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	session := responseCookie(t, rr, domain.CookieSession)
	require.NotNil(t, session)
	assert.Equal(t, 1200, session.MaxAge)
	var claims domain.SessionClaims
	require.NoError(t, s.Unseal(session.Value, &claims))
	assert.Equal(t, "abc", claims.Token)

	cleared := responseCookie(t, rr, domain.CookiePending)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestVerify_NoPendingCookie_OTPSessionExpired(t *testing.T) {
	h, _ := newAuthHandler(t, "http://backend.invalid")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"code":"123456"}`))
	rr := httptest.NewRecorder()
	h.Verify(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"OTP session expired"}`, rr.Body.String())
}

func TestVerify_CorruptPendingCookie_OTPSessionExpired(t *testing.T) {
	h, _ := newAuthHandler(t, "http://backend.invalid")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"code":"123456"}`))
	req.AddCookie(&http.Cookie{Name: domain.CookiePending, Value: "garbage"})
	rr := httptest.NewRecorder()
	h.Verify(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"OTP session expired"}`, rr.Body.String())
}

func TestVerify_PendingWithoutEmail_OTPSessionInvalid(t *testing.T) {
	h, s := newAuthHandler(t, "http://backend.invalid")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"code":"123456"}`))
	req.AddCookie(pendingCookieFor(t, s, domain.PendingAuth{Role: "USER"}))
	rr := httptest.NewRecorder()
	h.Verify(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"message":"OTP session invalid"}`, rr.Body.String())
}

func TestVerify_WrongCode_RelaysRejection_KeepsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid code"}`))
	}))
	defer srv.Close()
	h, s := newAuthHandler(t, srv.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify", strings.NewReader(`{"code":"000000"}`))
	req.AddCookie(pendingCookieFor(t, s, domain.PendingAuth{Email: "alice@example.com"}))
	rr := httptest.NewRecorder()
	h.Verify(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	// No cookie writes: the browser keeps its pending cookie for a retry.
	assert.Empty(t, rr.Result().Cookies())
}

// --- logout ---

func TestLogout_ClearsAllSealedCookies(t *testing.T) {
	h, _ := newAuthHandler(t, "http://backend.invalid")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	for _, name := range []string{domain.CookieSession, domain.CookiePending, domain.CookieTeam} {
		c := responseCookie(t, rr, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
}
