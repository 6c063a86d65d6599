package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/AGmitmanipal/BACKEND/internal/auth"
)

const (
	headerRequesterID   = "X-Requester-ID"
	headerRequesterRole = "X-Requester-Role"
)

var errMissingRequester = errors.New("missing " + headerRequesterID + " header")

// IdentityVerifier turns a bearer token into the caller's identity.
type IdentityVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Authenticate attaches the caller's identity to the request context. With a
// nil verifier the identity is read from the X-Requester-ID and
// X-Requester-Role headers, for local development.
func Authenticate(verifier IdentityVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			id  auth.Identity
			err error
		)
		if verifier == nil {
			id, err = headerIdentity(r)
		} else {
			var token string
			token, err = auth.BearerToken(r.Header.Get("Authorization"))
			if err == nil {
				id, err = verifier.Verify(token)
			}
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, err.Error())
			return
		}

		noteRequester(r.Context(), id.RequesterID)
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func headerIdentity(r *http.Request) (auth.Identity, error) {
	requesterID := strings.TrimSpace(r.Header.Get(headerRequesterID))
	if requesterID == "" {
		return auth.Identity{}, errMissingRequester
	}
	role := strings.TrimSpace(r.Header.Get(headerRequesterRole))
	if role == "" {
		role = auth.RoleUser
	}
	return auth.Identity{RequesterID: requesterID, Role: role}, nil
}

// RequireRole rejects authenticated callers that lack role.
func RequireRole(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}
		if id.Role != role {
			writeError(w, http.StatusForbidden, codeForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
