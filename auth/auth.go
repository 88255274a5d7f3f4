// Package auth implements signed-cookie sessions and the request identity
// boundary. A session cookie carries the user id and an absolute expiry,
// both covered by an HMAC-SHA256 signature. Middleware resolves the cookie
// into an Identity exactly once per request; handlers read the resolved
// identity from the request context instead of touching session state.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	sessionCookieName = "session"

	// SessionLifetime is the absolute maximum age of a session. Cookies
	// older than this are treated as anonymous regardless of signature.
	SessionLifetime = 30 * time.Minute
)

type ctxKey string

const identityCtxKey = ctxKey("identity")

// Identity is the per-request identity context resolved from the session.
type Identity struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// UserLoader resolves a session's user id into a full Identity. Returning
// ok=false means the user no longer exists (or is not allowed); the session
// is then cleared and the request proceeds anonymously.
type UserLoader func(ctx context.Context, uid uint) (Identity, bool)

// Secret returns SESSION_SECRET or a default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie binding the user id for SessionLifetime.
func CreateSession(w http.ResponseWriter, userID uint) {
	expires := time.Now().Add(SessionLifetime)
	payload := strconv.FormatUint(uint64(userID), 10) + "." + strconv.FormatInt(expires.Unix(), 10)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    payload + "." + sign(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie signature and expiry and returns the
// user id. Tampered, malformed, or expired cookies all return ok=false.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 3 {
		return 0, false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(payload))) {
		return 0, false
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() >= expUnix {
		return 0, false
	}
	id64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

// WithIdentity stores a resolved identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

// IdentityFromContext extracts the resolved identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityCtxKey).(Identity)
	return v, ok
}

// Middleware resolves the session into an Identity and attaches it to the
// request context. Sessions referring to deleted users are cleared.
func Middleware(load UserLoader, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := ParseSession(r); ok {
			if id, found := load(r.Context(), uid); found {
				r = r.WithContext(WithIdentity(r.Context(), id))
			} else {
				ClearSession(w)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser redirects anonymous HTML callers to the login page. API
// clients (Accept: application/json without text/html) get 401 JSON.
// The redirect is a control-flow contract, not an error.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			accept := r.Header.Get("Accept")
			if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"unauthorized"}`)
				return
			}
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
