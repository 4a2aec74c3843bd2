package chi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jobxpress/creditgate/internal/logger"
)

// Claims are the Supabase access token claims the service reads.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
}

type userKey struct{}

// ContextWithUser stores the caller in the context.
func ContextWithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the caller set by JWTMiddleware.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok && u.ID != ""
}

// JWTMiddleware validates HS256 access tokens and puts the subject into the context.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(w, r)
			if !ok {
				return
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return key, nil
			})
			if err != nil || claims.Subject == "" {
				logger.FromContext(r.Context()).Debug("access token rejected", zap.Error(err))
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid access token")
				return
			}

			ctx := ContextWithUser(r.Context(), User{ID: claims.Subject, Email: claims.Email})
			ctx = logger.With(ctx, zap.String("user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IssueToken signs an access token shaped like the ones Supabase issues.
func IssueToken(secret, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
