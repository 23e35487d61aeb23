package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/daily-journal/internal/request"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

// AdminIssuer is the iss claim of admin tokens
const AdminIssuer = "daily-journal"

var errNoSecret = errors.New("admin secret is not configured")

// NewAdminToken signs an HS256 admin token for subject valid for ttl
func NewAdminToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errNoSecret
	}
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(AdminIssuer).
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// VerifyAdminToken checks the signature, expiry and issuer and returns the subject
func VerifyAdminToken(secret []byte, token string) (string, error) {
	if len(secret) == 0 {
		return "", errNoSecret
	}
	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(AdminIssuer),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse/verify token: %w", err)
	}
	if tok.Subject() == "" {
		return "", errors.New("token missing subject claim")
	}
	return tok.Subject(), nil
}

// AdminAuth requires a valid bearer admin token. With no secret configured
// every request is refused.
func AdminAuth(secret []byte, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(secret) == 0 {
				writeError(w, r, http.StatusServiceUnavailable, "Service Unavailable", "Admin API is disabled")
				return
			}

			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || scheme != "Bearer" || token == "" {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header")
				return
			}

			subject, err := VerifyAdminToken(secret, token)
			if err != nil {
				logger.Info("admin_token_rejected",
					zap.String("path", r.URL.Path),
					zap.String("client_ip", request.ClientIP(r)),
					zap.Error(err),
				)
				writeError(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithAdmin(r.Context(), subject)))
		})
	}
}
