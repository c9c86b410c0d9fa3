package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ums-dashboard/bff/internal/application/auth"
	"github.com/ums-dashboard/bff/internal/domain"
	"github.com/ums-dashboard/bff/internal/infrastructure/sealer"
	"github.com/ums-dashboard/bff/internal/pkg/validate"
)

// AuthHandler drives the login → OTP → session flow. It owns the cookie
// reads; the service owns the backend calls and cookie sealing.
type AuthHandler struct {
	svc    auth.Service
	sealer *sealer.Sealer
}

func NewAuthHandler(svc auth.Service, s *sealer.Sealer) *AuthHandler {
	return &AuthHandler{svc: svc, sealer: s}
}

type verifyRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}
	writeOutcome(w, out)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	out, err := h.svc.Signup(r.Context(), r.MultipartForm)
	if err != nil {
		writeServiceError(w, "signup", err)
		return
	}
	writeOutcome(w, out)
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	// A missing or unsealable pending cookie reads the same: the OTP window
	// is gone and the user must restart the flow.
	c, err := r.Cookie(domain.CookiePending)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "OTP session expired")
		return
	}
	var pending domain.PendingAuth
	if err := h.sealer.Unseal(c.Value, &pending); err != nil {
		writeMessage(w, http.StatusBadRequest, "OTP session expired")
		return
	}
	if pending.Email == "" {
		writeMessage(w, http.StatusBadRequest, "OTP session invalid")
		return
	}

	out, err := h.svc.Verify(r.Context(), req.Code, &pending)
	if err != nil {
		writeServiceError(w, "verify", err)
		return
	}
	writeOutcome(w, out)
}

// Logout mirrors session creation: every sealed cookie is cleared.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	applyCookies(w, []domain.SetCookie{
		{Name: domain.CookieSession, Value: "", MaxAge: -1},
		{Name: domain.CookiePending, Value: "", MaxAge: -1},
		{Name: domain.CookieTeam, Value: "", MaxAge: -1},
	})
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}

func writeOutcome(w http.ResponseWriter, out *auth.Outcome) {
	applyCookies(w, out.Cookies)
	relayBody(w, out.Status, out.ContentType, out.Body)
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, domain.ErrBackendUnavailable) {
		slog.Warn("backend unreachable", "op", op, "err", err)
		writeMessage(w, http.StatusBadGateway, "backend unavailable")
		return
	}
	slog.Error("auth flow failed", "op", op, "err", err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}
