package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/ums-dashboard/bff/internal/domain"
	"github.com/ums-dashboard/bff/internal/infrastructure/backend"
	"github.com/ums-dashboard/bff/internal/infrastructure/sealer"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Outcome is everything a handler needs to answer the browser: the relayed
// backend response plus the cookie writes that must land on that same
// response. Cookies are applied before the body, all-or-nothing.
type Outcome struct {
	Status      int
	ContentType string
	Body        []byte
	Cookies     []domain.SetCookie
}

// BackendClient is the slice of the backend API the state machine needs.
type BackendClient interface {
	Do(ctx context.Context, req backend.Request) (*backend.Response, error)
}

// Service drives the UNAUTHENTICATED → PENDING_OTP → AUTHENTICATED
// transitions. It never stores anything server-side: each transition's whole
// result is the backend response plus sealed cookies.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Outcome, error)
	Signup(ctx context.Context, form *multipart.Form) (*Outcome, error)
	Verify(ctx context.Context, code string, pending *domain.PendingAuth) (*Outcome, error)
}

type service struct {
	backend BackendClient
	sealer  *sealer.Sealer
}

func NewService(bc BackendClient, s *sealer.Sealer) Service {
	return &service{backend: bc, sealer: s}
}

// loginPayload is the unwrapped shape of a successful login response.
type loginPayload struct {
	Email  string          `json:"email"`
	UserID int64           `json:"userId"`
	Role   string          `json:"role"`
	Team   *domain.TeamRef `json:"team"`
}

// signupPayload is the unwrapped shape of a successful signup response.
type signupPayload struct {
	Email    string `json:"email"`
	TeamCode string `json:"teamCode"`
}

// verifyPayload is the unwrapped shape of a successful verify response.
type verifyPayload struct {
	Token string          `json:"token"`
	Role  string          `json:"role"`
	Team  *domain.TeamRef `json:"team"`
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Outcome, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}
	resp, err := s.backend.Do(ctx, backend.Request{
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	out := &Outcome{Status: resp.Status, ContentType: resp.ContentType, Body: resp.Body}
	if !success(resp) {
		// Backend rejection relays verbatim; no cookies, state unchanged.
		return out, nil
	}

	var p loginPayload
	if err := json.Unmarshal(backend.UnwrapEnvelope(resp.Body), &p); err != nil {
		return out, nil
	}
	// The backend may omit the email from its payload; the credential the
	// user just submitted is then the address the OTP was sent to.
	email := p.Email
	if email == "" {
		email = req.Email
	}
	pending := domain.PendingAuth{Email: email, UserID: p.UserID, Role: p.Role, Team: p.Team}
	out.Cookies, err = s.pendingCookies(pending, p.Team)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Signup(ctx context.Context, form *multipart.Form) (*Outcome, error) {
	body, contentType, err := backend.EncodeMultipart(form)
	if err != nil {
		return nil, fmt.Errorf("re-encode signup form: %w", err)
	}
	resp, err := s.backend.Do(ctx, backend.Request{
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}
	out := &Outcome{Status: resp.Status, ContentType: resp.ContentType, Body: resp.Body}
	if !success(resp) {
		return out, nil
	}

	var p signupPayload
	if err := json.Unmarshal(backend.UnwrapEnvelope(resp.Body), &p); err != nil {
		return out, nil
	}
	if p.Email == "" {
		p.Email = formValue(form, "email")
	}
	if p.TeamCode == "" {
		p.TeamCode = formValue(form, "teamCode")
	}
	pending := domain.PendingAuth{Email: p.Email, TeamCode: p.TeamCode}
	// The team is not resolved server-side until verification, so the team
	// cookie carries the invite code alone.
	var team *domain.TeamRef
	if p.TeamCode != "" {
		team = &domain.TeamRef{Code: p.TeamCode}
	}
	out.Cookies, err = s.pendingCookies(pending, team)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Verify(ctx context.Context, code string, pending *domain.PendingAuth) (*Outcome, error) {
	body, err := json.Marshal(map[string]string{"email": pending.Email, "code": code})
	if err != nil {
		return nil, fmt.Errorf("marshal verify request: %w", err)
	}
	resp, err := s.backend.Do(ctx, backend.Request{
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/verify",
		Body:        bytes.NewReader(body),
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	out := &Outcome{Status: resp.Status, ContentType: resp.ContentType, Body: resp.Body}
	if !success(resp) {
		// Wrong code: relay the rejection and leave the pending cookie
		// untouched so the user may retry.
		return out, nil
	}

	var p verifyPayload
	if err := json.Unmarshal(backend.UnwrapEnvelope(resp.Body), &p); err != nil || p.Token == "" {
		return out, nil
	}
	sealedSession, err := s.sealer.Seal(domain.SessionClaims{Token: p.Token}, domain.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("seal session cookie: %w", err)
	}
	cookies := []domain.SetCookie{
		{Name: domain.CookieSession, Value: sealedSession, MaxAge: int(domain.SessionTTL.Seconds())},
		// Pending auth is one-time use: clear it so this verify cannot replay.
		{Name: domain.CookiePending, Value: "", MaxAge: -1},
	}
	if p.Team != nil {
		sealedTeam, err := s.sealer.Seal(domain.TeamClaims{Team: *p.Team}, domain.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("seal team cookie: %w", err)
		}
		cookies = append(cookies, domain.SetCookie{
			Name:   domain.CookieTeam,
			Value:  sealedTeam,
			MaxAge: int(domain.SessionTTL.Seconds()),
		})
	}
	out.Cookies = cookies
	return out, nil
}

// pendingCookies seals the pending-auth cookie and, when a team is known,
// its sibling team cookie, both on the 5-minute pending lifetime.
func (s *service) pendingCookies(pending domain.PendingAuth, team *domain.TeamRef) ([]domain.SetCookie, error) {
	sealedPending, err := s.sealer.Seal(pending, domain.PendingTTL)
	if err != nil {
		return nil, fmt.Errorf("seal pending-auth cookie: %w", err)
	}
	cookies := []domain.SetCookie{
		{Name: domain.CookiePending, Value: sealedPending, MaxAge: int(domain.PendingTTL.Seconds())},
	}
	if team != nil {
		sealedTeam, err := s.sealer.Seal(domain.TeamClaims{Team: *team}, domain.PendingTTL)
		if err != nil {
			return nil, fmt.Errorf("seal team cookie: %w", err)
		}
		cookies = append(cookies, domain.SetCookie{
			Name:   domain.CookieTeam,
			Value:  sealedTeam,
			MaxAge: int(domain.PendingTTL.Seconds()),
		})
	}
	return cookies, nil
}

func success(resp *backend.Response) bool {
	return resp.Status >= 200 && resp.Status <= 299 && resp.IsJSON()
}

func formValue(form *multipart.Form, field string) string {
	if vs := form.Value[field]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
