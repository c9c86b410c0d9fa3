package domain

import "time"

// Cookie names shared by the auth handlers and the session middleware.
const (
	CookieSession = "ums_token"
	CookiePending = "ums_pending_auth"
	CookieTeam    = "ums_team"
)

// Cookie lifetimes. The team cookie always matches the phase that set it:
// PendingTTL alongside a pending-auth cookie, SessionTTL alongside a session.
const (
	SessionTTL = 20 * time.Minute
	PendingTTL = 5 * time.Minute
)

// TeamRef identifies a team by whatever the backend has resolved so far.
// Right after signup only the invite code is known; login and verify
// responses carry the numeric id and name as well.
type TeamRef struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

// SessionClaims is the payload sealed into the ums_token cookie.
type SessionClaims struct {
	Token string `json:"token"`
}

// PendingAuth is the payload sealed into the ums_pending_auth cookie between
// credential submission and OTP verification. UserID and Role are advisory
// UI hints only; the backend's verify response is the authoritative identity.
type PendingAuth struct {
	Email    string   `json:"email"`
	UserID   int64    `json:"userId,omitempty"`
	Role     string   `json:"role,omitempty"`
	Team     *TeamRef `json:"team,omitempty"`
	TeamCode string   `json:"teamCode,omitempty"`
}

// TeamClaims is the payload sealed into the ums_team cookie.
type TeamClaims struct {
	Team TeamRef `json:"team"`
}

// SetCookie is a cookie write produced by the auth service for the handler
// to apply. MaxAge -1 clears the cookie. All writes for one response are
// applied before the body so the browser never sees a partial cookie set.
type SetCookie struct {
	Name   string
	Value  string
	MaxAge int
}
