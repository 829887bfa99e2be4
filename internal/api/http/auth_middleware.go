package http

import (
	"net/http"
	"strings"

	"clan-rental-backend/internal/config"
	"clan-rental-backend/internal/security"

	"github.com/gorilla/mux"
)

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Middleware authenticates requests according to the security level of the
// matched route and stores the token claims in the request context.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, r, errUnauthenticated)
			return
		}

		claims, err := a.tokenManager.ValidateToken(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if err := checkSecurityLevel(level, claims); err != nil {
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// extractToken reads a bearer token from the Authorization header. Websocket
// clients that cannot set headers pass it as the access_token query parameter.
func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		return strings.TrimSpace(token[7:])
	}
	if token != "" {
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}

func checkSecurityLevel(level config.SecurityLevel, claims *security.UserClaims) error {
	switch level {
	case config.SecurityAccess:
		if claims.Type != security.TokenTypeAccess {
			return security.ErrWrongTokenType
		}
	case config.SecurityRefresh:
		if claims.Type != security.TokenTypeRefresh {
			return security.ErrWrongTokenType
		}
	}
	return nil
}
