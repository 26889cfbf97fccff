package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     exp.Unix(),
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// Feature: car-showroom, Property 16: Dashboard endpoints reject missing tokens
func TestProperty_ProtectedEndpointsRejectMissingTokens(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("requests without authorization header are rejected", prop.ForAll(
		func(pathSuffix string, method string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())

			req := httptest.NewRequest(method, "/api/dashboard/"+pathSuffix, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AlphaString(),
		gen.OneConstOf("GET", "POST", "PUT", "DELETE"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: car-showroom, Property 17: Expired tokens are rejected
func TestProperty_ExpiredTokensAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("expired tokens are rejected with 401", prop.ForAll(
		func(userID string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())

			req := httptest.NewRequest("GET", "/api/dashboard/cars", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, userID, "admin", time.Now().Add(-time.Hour)))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: car-showroom, Property 18: Valid tokens put the caller in context
func TestProperty_ValidTokensAllowProcessing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("valid tokens reach the handler with identity attached", prop.ForAll(
		func(userID string) bool {
			var gotID, gotRole string
			handler := AuthMiddleware(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r.Context())
				gotRole, _ = GetUserRole(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/dashboard/cars", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, userID, "admin", time.Now().Add(time.Hour)))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusOK && gotID == userID && gotRole == "admin"
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: car-showroom, Property 19: Malformed headers are rejected
func TestProperty_MalformedHeadersRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("garbage bearer tokens are rejected", prop.ForAll(
		func(invalidToken string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())

			req := httptest.NewRequest("GET", "/api/dashboard/cars", nil)
			req.Header.Set("Authorization", "Bearer "+invalidToken)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.AnyString(),
	))

	properties.Property("tokens without Bearer prefix are rejected", prop.ForAll(
		func(userID string) bool {
			handler := AuthMiddleware(testSecret, zap.NewNop())(okHandler())

			req := httptest.NewRequest("GET", "/api/dashboard/cars", nil)
			req.Header.Set("Authorization", signToken(t, userID, "admin", time.Now().Add(time.Hour)))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return w.Code == http.StatusUnauthorized
		},
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAuthMiddleware_RejectsForeignSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, _ := token.SignedString([]byte("another-secret"))

	req := httptest.NewRequest("GET", "/api/dashboard/cars", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	AuthMiddleware(testSecret, zap.NewNop())(okHandler()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	var signed bool
	handler := OptionalAuth(testSecret, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signed = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantSigned bool
	}{
		{"anonymous", "", false},
		{"valid token", "Bearer " + signToken(t, "u1", "admin", time.Now().Add(time.Hour)), true},
		{"expired token", "Bearer " + signToken(t, "u1", "admin", time.Now().Add(-time.Hour)), false},
		{"garbage", "Bearer nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed = false
			req := httptest.NewRequest("GET", "/api/session", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantSigned, signed)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
	}{
		{"admin", "admin", http.StatusOK},
		{"other role", "viewer", http.StatusForbidden},
		{"no identity", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdmin(zap.NewNop())(okHandler())
			req := httptest.NewRequest("GET", "/api/dashboard/cars", nil)
			if tt.role != "" {
				req = req.WithContext(withIdentity(req.Context(), identity{userID: "u1", role: tt.role}))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
