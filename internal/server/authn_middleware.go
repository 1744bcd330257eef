package server

import (
	"net/http"
	"strings"

	"github.com/jacksonlee411/peopleops/internal/routing"
	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
	"go.uber.org/zap"
)

const (
	accessTokenCookie = "access_token"
	tokenCookie       = "token"
	employeeIDCookie  = "employeeId"
)

type tokenVerifier interface {
	Verify(raw string) (iamtypes.Identity, error)
}

// bearerToken picks the token: Authorization header, then the access_token
// cookie, then the token cookie.
func bearerToken(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}
	for _, name := range []string{accessTokenCookie, tokenCookie} {
		if c, err := r.Cookie(name); err == nil && strings.TrimSpace(c.Value) != "" {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}

func isHealthPath(path string) bool {
	return path == "/health" || path == "/healthz"
}

func withAuthentication(classifier *routing.Classifier, verifier tokenVerifier, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isHealthPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		rc := classifier.Classify(r.URL.Path)

		raw := bearerToken(r)
		if raw == "" {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthenticated", "unauthenticated")
			return
		}
		id, err := verifier.Verify(raw)
		if err != nil {
			logger.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "invalid_token", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}
