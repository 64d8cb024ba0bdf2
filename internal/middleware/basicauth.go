package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// BasicAuth returns a huma middleware that requires the given credentials.
// With an empty password every request is let through.
func BasicAuth(api huma.API, realm, user, password string) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if password == "" {
			next(ctx)

			return
		}

		req := http.Request{Header: http.Header{"Authorization": []string{ctx.Header("Authorization")}}}

		u, p, ok := req.BasicAuth()
		if ok && secureEqual(u, user) && secureEqual(p, password) {
			next(ctx)

			return
		}

		ctx.SetHeader("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
		_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "authentication required")
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
