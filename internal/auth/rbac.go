package auth

import "net/http"

// RequireAuth rejects requests with no session in context. Handlers mounted
// behind SessionAuth already have one; this guards handlers that might be
// wired up without it by mistake.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			respondUnauthenticated(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAccountType rejects sessions whose AccountType is not one of allowed.
// Used for endpoints that only OWNER (or only OWNER+RESELLER) may reach,
// before the handler even gets to apply row-level scope predicates.
func RequireAccountType(allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := FromContext(r.Context())
			if s == nil {
				respondUnauthenticated(w, "authentication required")
				return
			}
			if !allowedSet[s.AccountType] {
				respondForbidden(w, "account type not permitted for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func respondForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"error":"forbidden","message":"` + message + `"}`))
}
