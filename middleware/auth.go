package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"linksnap/auth"

	"github.com/rs/zerolog/log"
)

// UserAuth validates Bearer tokens issued by the identity endpoints.
type UserAuth struct {
	jwtManager *auth.JWTManager
}

// NewUserAuth creates the authentication middleware.
func NewUserAuth(jwtManager *auth.JWTManager) *UserAuth {
	return &UserAuth{jwtManager: jwtManager}
}

// Protect requires a valid token and rejects the request otherwise.
func (ua *UserAuth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := ua.claimsFromHeader(r)
		if err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected unauthenticated request")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Invalid or missing authorization token",
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), claims)))
	})
}

// Optional extracts user identity when a token is present but lets
// anonymous requests through untouched. The link endpoints use this: a
// session merely names the owner, it is not required.
func (ua *UserAuth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := ua.claimsFromHeader(r); err == nil {
			r = r.WithContext(withUser(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (ua *UserAuth) claimsFromHeader(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, auth.ErrInvalidToken
	}
	return ua.jwtManager.ValidateToken(parts[1])
}

func withUser(ctx context.Context, claims *auth.Claims) context.Context {
	ctx = context.WithValue(ctx, "userID", claims.UserID)
	return context.WithValue(ctx, "userEmail", claims.Email)
}

// GetUserID extracts the authenticated user id from the request context.
// Returns "" for anonymous requests.
func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		return ""
	}
	return userID
}

// GetUserEmail extracts the authenticated user email from the request context.
func GetUserEmail(r *http.Request) string {
	email, ok := r.Context().Value("userEmail").(string)
	if !ok {
		return ""
	}
	return email
}
