package httpapi

import (
	"context"
	"net/http"
	"strings"

	"taskkeeper/internal/server/models"
)

type ctxKey int

const (
	ctxKeyUser ctxKey = iota
	ctxKeyToken
)

// authenticate resolves the Authorization header to a user. The token must
// carry a valid signature and still be present in the user's session list;
// either failure produces the same 401.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, http.StatusUnauthorized, "please authenticate")
			return
		}

		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser, user)
		ctx = context.WithValue(ctx, ctxKeyToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(ctxKeyUser).(*models.User)
	return user
}

func requestToken(r *http.Request) string {
	token, _ := r.Context().Value(ctxKeyToken).(string)
	return token
}
