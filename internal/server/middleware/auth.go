// Package middleware authenticates callers and scopes flock routes to their
// owner.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/config"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

const (
	userKey  = "flocktrack.user"
	flockKey = "flocktrack.flock"
)

// UserResolver maps a verified identity onto a stored user.
type UserResolver interface {
	Resolve(ctx context.Context, identity models.Identity) (*models.User, error)
}

// FlockAuthorizer checks flock ownership.
type FlockAuthorizer interface {
	Authorize(ctx context.Context, userID, flockID string) (*models.Flock, error)
}

// Claims is the bearer token payload issued by the identity provider.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate verifies the HS256 bearer token and loads (or lazily creates)
// the calling user.
func Authenticate(cfg config.AuthConfig, users UserResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	secret := []byte(cfg.JWTSecret)

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		var claims Claims
		_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || claims.Subject == "" {
			logger.Debug("rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := users.Resolve(c.Request.Context(), models.Identity{
			ExternalID: claims.Subject,
			Name:       claims.Name,
			Email:      claims.Email,
			ImageURL:   claims.Picture,
		})
		if err != nil {
			logger.Error("failed to resolve user", zap.String("subject", claims.Subject), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unable to resolve user"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireFlock rejects requests on flocks the caller does not own. The flock
// ID is read from the flockID path parameter.
func RequireFlock(flocks FlockAuthorizer, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		flock, err := flocks.Authorize(c.Request.Context(), user.ID, c.Param("flockID"))
		if err != nil {
			status := ErrorStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("failed to authorize flock access", zap.Error(err))
			}
			c.AbortWithStatusJSON(status, gin.H{"error": ErrorMessage(err)})
			return
		}

		c.Set(flockKey, flock)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside Authenticate.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentFlock returns the flock authorized by RequireFlock.
func CurrentFlock(c *gin.Context) *models.Flock {
	if v, ok := c.Get(flockKey); ok {
		if flock, ok := v.(*models.Flock); ok {
			return flock
		}
	}
	return nil
}

// ErrorStatus maps domain errors onto HTTP status codes.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is the client-facing text of err. Internal failures are not
// described.
func ErrorMessage(err error) string {
	if ErrorStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// SignToken issues an HS256 token for claims. The server only verifies
// tokens; this is used by tooling and tests.
func SignToken(secret string, claims Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
