package middleware

import (
	"net/http"

	"github.com/JonMunkholm/crudtables/internal/access"
)

// Grants stores the request's capability set with access.WithSet. A caller
// presenting a key listed in keyGrants gets that key's set; everyone else
// gets fallback.
func Grants(fallback access.Set, keyGrants map[string]access.Set) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			set := fallback
			if key := r.Header.Get(APIKeyHeader); key != "" {
				for k, s := range keyGrants {
					if validKey(key, []string{k}) {
						set = s
						break
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(access.WithSet(r.Context(), set)))
		})
	}
}
