package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errHeaderFormat  = errors.New("invalid authorization header format")
	errTokenExpired  = errors.New("token expired")
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid token claims")
)

type identity struct {
	userID string
	role   string
}

// AuthMiddleware validates JWT tokens and extracts user claims
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, jwtSecret)
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err), zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", id.userID),
				zap.String("role", id.role),
			)

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present
// and lets anonymous requests through unchanged. Public pages use it to tell
// a signed-in admin from a visitor.
func OptionalAuth(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := authenticate(r, jwtSecret)
			if err != nil {
				if !errors.Is(err, errMissingHeader) {
					logger.Debug("Ignoring unusable token", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

func authenticate(r *http.Request, jwtSecret string) (identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return identity{}, errMissingHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return identity{}, errHeaderFormat
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return identity{}, errTokenExpired
		}
		return identity{}, errInvalidToken
	}
	if !token.Valid {
		return identity{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}, errInvalidClaims
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return identity{}, errInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok {
		return identity{}, errInvalidClaims
	}

	return identity{userID: userID, role: role}, nil
}

func withIdentity(ctx context.Context, id identity) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id.userID)
	return context.WithValue(ctx, UserRoleKey, id.role)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
