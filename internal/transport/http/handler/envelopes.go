package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ums-dashboard/bff/internal/domain"
)

// MessageEnvelope is the fixed body of every locally-generated response.
// Backend responses never pass through it; they are relayed verbatim.
type MessageEnvelope struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// applyCookies writes every cookie operation for this response with the
// shared flags: httpOnly, SameSite=Lax, Path=/. Writes happen before the
// body, so sibling cookies land together or not at all.
func applyCookies(w http.ResponseWriter, cookies []domain.SetCookie) {
	for _, c := range cookies {
		http.SetCookie(w, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     "/",
			MaxAge:   c.MaxAge,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// relayBody re-emits a backend response toward the browser: JSON stays JSON,
// anything else goes out as plain text, and the backend status is preserved
// verbatim in both branches.
func relayBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	if strings.Contains(contentType, "application/json") {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
