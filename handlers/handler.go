package handlers

import (
	"fmt"
	"net/http"
)

// checkRole verifies the role the gateway middleware stamped on the request.
func checkRole(r *http.Request, allowedRoles []string) error {
	userRole := r.Header.Get("Role")
	if userRole == "" {
		return fmt.Errorf("role is missing in request header")
	}

	for _, role := range allowedRoles {
		if role == userRole {
			return nil
		}
	}
	return fmt.Errorf("access forbidden: user does not have the required role")
}

// actorName returns the display name the auth middleware attached, or
// "Unknown" when the request carries none.
func actorName(r *http.Request) string {
	if name := r.Header.Get("X-User-Name"); name != "" {
		return name
	}
	return "Unknown"
}
