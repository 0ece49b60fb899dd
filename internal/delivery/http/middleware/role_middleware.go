package middleware

import (
	"net/http"

	"dental-referral-tracker/internal/domain/entity"
	"dental-referral-tracker/pkg/response"
)

// RequireRole creates a middleware that checks if the staff member has any of the required roles.
// Role is read from context (set by AuthMiddleware from JWT claims)
func RequireRole(allowed ...entity.StaffRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRoleFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			staffRole := entity.ParseStaffRole(role)
			for _, a := range allowed {
				if staffRole == a {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "You don't have permission to access this resource")
		})
	}
}

// RequireManager guards the management area
func RequireManager(next http.Handler) http.Handler {
	return RequireRole(entity.StaffRoleManager)(next)
}
