// Package middleware provides net/http glue around the engine: a
// cookie-based session guard, a per-IP request throttle and a JSON error
// writer. Everything here is optional; the engine itself is
// transport-agnostic.
package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/aungsithu-dev/phoneauth"
)

// Cookie names used by the session guard.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// Guard authenticates the request from its token cookies before calling
// next. When the access token had to be minted from the refresh token,
// the rotated pair is written back as cookies on the way in. The
// authenticated user ID is available to next via
// phoneauth.UserIDFromContext.
func Guard(engine *phoneauth.Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := phoneauth.WithClientIP(r.Context(), clientIP(r))

		access := cookieValue(r, AccessCookie)
		refresh := cookieValue(r, RefreshCookie)

		result, err := engine.Authenticate(ctx, access, refresh)
		if err != nil {
			ClearSessionCookies(w)
			WriteError(w, err)
			return
		}

		if result.Rotated != nil {
			SetSessionCookies(w, result.Rotated)
		}

		ctx = phoneauth.WithUserID(ctx, result.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Throttle applies the engine's per-IP fixed-window request limit before
// calling next.
func Throttle(engine *phoneauth.Engine, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ctx := phoneauth.WithClientIP(r.Context(), ip)

		if err := engine.Throttle(ctx, ip); err != nil {
			WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetSessionCookies writes the token pair as HttpOnly cookies with
// lifetimes matching the tokens.
func SetSessionCookies(w http.ResponseWriter, pair *phoneauth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.AccessTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(pair.RefreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookies expires both token cookies.
func ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

type errorBody struct {
	Kind    phoneauth.Kind `json:"kind"`
	Message string         `json:"message"`
}

// WriteError maps an engine error onto an HTTP status and a small JSON
// body. Unclassified errors become a 500.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errorBody{Kind: phoneauth.KindServer, Message: "internal server error"}

	if engineErr, ok := phoneauth.AsError(err); ok {
		status = engineErr.Status
		body = errorBody{Kind: engineErr.Kind, Message: engineErr.Message}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
