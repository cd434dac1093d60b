// Package web provides page rendering and the transient flash notice cookie.
package web

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// flashCookie carries one transient notice across a redirect.
const flashCookie = "flash"

// Flash notice levels.
const (
	FlashOK    = "ok"
	FlashWarn  = "warn"
	FlashError = "error"
)

// Flash is a one-shot user-facing notice.
type Flash struct {
	Level   string
	Message string
}

// SetFlash queues a notice for the next rendered page.
// The value is base64-encoded so punctuation survives cookie encoding.
func SetFlash(w http.ResponseWriter, level, message string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(level + "|" + message))
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending notice, if any, and clears it.
func PopFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	level, message, found := strings.Cut(string(decoded), "|")
	if !found || message == "" {
		return nil
	}

	return &Flash{Level: level, Message: message}
}
