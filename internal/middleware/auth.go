package middleware

import (
	"context"
	"net/http"

	"ticketcore/internal/models"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalResolver extracts the calling principal from a request. The
// transactional core trusts the edge to authenticate; it only needs the
// identity and role the edge has already verified.
type PrincipalResolver interface {
	Resolve(r *http.Request) (*models.Principal, error)
}

// HeaderPrincipalResolver reads the principal from trusted headers set by
// the API gateway.
type HeaderPrincipalResolver struct{}

// Resolve reads X-Principal-ID and X-Principal-Role. A missing ID means an
// anonymous request; role defaults to user.
func (HeaderPrincipalResolver) Resolve(r *http.Request) (*models.Principal, error) {
	id := r.Header.Get("X-Principal-ID")
	if id == "" {
		return nil, nil
	}

	role := models.Role(r.Header.Get("X-Principal-Role"))
	switch role {
	case models.RoleUser, models.RoleStaff, models.RoleAdmin:
	default:
		role = models.RoleUser
	}

	return &models.Principal{ID: id, Role: role}, nil
}

// LoadPrincipal attaches the resolved principal to the request context.
// Requests without a principal pass through; enforcement happens in
// RequirePrincipal and RequireRole.
func LoadPrincipal(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolver.Resolve(r)
			if err != nil {
				http.Error(w, "invalid principal", http.StatusBadRequest)
				return
			}
			if principal != nil {
				ctx := context.WithValue(r.Context(), principalKey, principal)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipalFromContext returns the principal attached by LoadPrincipal,
// or nil for anonymous requests.
func GetPrincipalFromContext(ctx context.Context) *models.Principal {
	principal, _ := ctx.Value(principalKey).(*models.Principal)
	return principal
}

// RequirePrincipal rejects anonymous requests
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPrincipalFromContext(r.Context()) == nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff rejects requests whose principal is not staff or admin
func RequireStaff(next http.Handler) http.Handler {
	return requireRole(next, func(p *models.Principal) bool { return p.IsStaff() })
}

// RequireAdmin rejects requests whose principal is not admin
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(next, func(p *models.Principal) bool { return p.IsAdmin() })
}

func requireRole(next http.Handler, allowed func(*models.Principal) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := GetPrincipalFromContext(r.Context())
		if principal == nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		if !allowed(principal) {
			http.Error(w, "insufficient role", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
