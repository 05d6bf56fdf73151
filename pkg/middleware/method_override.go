package middleware

import (
	"net/http"
	"strings"
)

// MethodOverride lets HTML forms express PATCH/PUT/DELETE through a hidden
// _method field on a POST, the way the forum's server-rendered forms submit
// mutations. It wraps the router so the override applies before dispatch.
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			if err := r.ParseForm(); err == nil {
				switch strings.ToUpper(r.PostForm.Get("_method")) {
				case http.MethodPut:
					r.Method = http.MethodPut
				case http.MethodPatch:
					r.Method = http.MethodPatch
				case http.MethodDelete:
					r.Method = http.MethodDelete
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}
