package http

import "net/http"

// NotFoundHandler answers requests that match no route with a JSON 404 naming
// the method and path, so clients can tell a bad route from a missing record.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
}
