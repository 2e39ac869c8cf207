package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/credgate/credgate"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the verified session claims injected by [Guard].
func ClaimsFromContext(ctx context.Context) (*credgate.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*credgate.Claims)
	return claims, ok
}

// Guard verifies the session token of every request and rejects the request
// with 401 when it is missing, invalid, or expired. The token is read from
// the cookie named cookieName, with an Authorization bearer header as
// fallback for non-browser clients.
func Guard(service *credgate.Service, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if service == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := sessionToken(r, cookieName)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := service.VerifySession(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) (string, bool) {
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, true
		}
	}

	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
