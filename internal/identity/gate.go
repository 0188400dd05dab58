package identity

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/linemk/nirvana-shop/internal/lib/api/response"
	"github.com/linemk/nirvana-shop/internal/lib/metrics"
)

const msgRoleNotFound = "Forbidden: Role not found in sessionClaims. Set role in the identity provider public metadata or configure the provider lookup."

// RequireAdmin монтируется после RequireUser и пропускает только администраторов.
func RequireAdmin(log *slog.Logger, resolver RoleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "identity.RequireAdmin"

			caller, ok := CallerFromContext(r.Context())
			if !ok {
				response.Error(w, http.StatusUnauthorized, msgNotSignedIn)
				return
			}

			lookup := resolver.ResolveRole(r.Context(), caller)
			metrics.RoleLookup(lookup.Source, lookup.Found)

			if !lookup.Found {
				log.Info("admin access denied: no role", slog.String("op", op), slog.String("userID", caller.ID))
				response.Error(w, http.StatusForbidden, msgRoleNotFound)
				return
			}
			if lookup.Role != RoleAdmin {
				log.Info("admin access denied",
					slog.String("op", op),
					slog.String("userID", caller.ID),
					slog.String("role", lookup.Role),
					slog.String("source", lookup.Source),
				)
				response.Error(w, http.StatusForbidden, fmt.Sprintf("Forbidden: User role is %q, admin required.", lookup.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
