package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/novachain/admin-settlement/pkg/auth"
)

// RequireAdmin rejects requests without a valid bearer token and stores the
// resolved credential on the request context.
func RequireAdmin(verifier auth.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromHeader(r.Header.Get("Authorization"))
			cred, err := verifier.Verify(token)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithCredential(r.Context(), cred)))
		}
		return http.HandlerFunc(fn)
	}
}
