package middleware

import (
	"net/http"
	"strings"

	"github.com/SmartSpecsAI/smartspecs-backend/logging"
	"github.com/SmartSpecsAI/smartspecs-backend/utils"
)

// JWTAuthMiddleware rejects requests without a valid bearer token. The
// validated display name and role are copied into request headers so
// downstream handlers can attribute changes without re-parsing the token.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Set("X-User-Name", claims.Name)
		r.Header.Set("Role", claims.Role)
		next.ServeHTTP(w, r)
	})
}
