package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mamadbah2/flocktrack/internal/config"
	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

const testSecret = "test-secret"

type stubUsers struct{ seen []models.Identity }

func (s *stubUsers) Resolve(_ context.Context, identity models.Identity) (*models.User, error) {
	s.seen = append(s.seen, identity)
	return &models.User{Base: models.Base{ID: "user-" + identity.ExternalID}, ExternalID: identity.ExternalID, Name: identity.Name}, nil
}

type stubFlocks map[string]string

func (s stubFlocks) Authorize(_ context.Context, userID, flockID string) (*models.Flock, error) {
	owner, ok := s[flockID]
	if !ok {
		return nil, fmt.Errorf("flock %s: %w", flockID, models.ErrNotFound)
	}
	if owner != userID {
		return nil, fmt.Errorf("flock %s: %w", flockID, models.ErrForbidden)
	}
	return &models.Flock{Base: models.Base{ID: flockID}, UserID: owner}, nil
}

func newEngine(users UserResolver, flocks FlockAuthorizer, issuer string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", Authenticate(config.AuthConfig{JWTSecret: testSecret, Issuer: issuer}, users, nil))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, CurrentUser(c))
	})
	api.GET("/flocks/:flockID", RequireFlock(flocks, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentFlock(c).ID})
	})
	return r
}

func token(t *testing.T, subject, issuer string, expires time.Time) string {
	t.Helper()
	signed, err := SignToken(testSecret, Claims{
		Name: "Aissatou",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func get(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	users := &stubUsers{}
	r := newEngine(users, stubFlocks{}, "flocktrack")
	later := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		bearer string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
		{"expired", token(t, "ext-1", "flocktrack", time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"wrong issuer", token(t, "ext-1", "someone-else", later), http.StatusUnauthorized},
		{"no subject", token(t, "", "flocktrack", later), http.StatusUnauthorized},
		{"valid", token(t, "ext-1", "flocktrack", later), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := get(r, "/api/me", tt.bearer); rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	if len(users.seen) != 1 || users.seen[0].ExternalID != "ext-1" || users.seen[0].Name != "Aissatou" {
		t.Fatalf("unexpected identities resolved: %+v", users.seen)
	}
}

func TestAuthenticateRejectsOtherSigningMethods(t *testing.T) {
	r := newEngine(&stubUsers{}, stubFlocks{}, "")
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "ext-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}
	if rec := get(r, "/api/me", unsigned); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireFlock(t *testing.T) {
	r := newEngine(&stubUsers{}, stubFlocks{"f1": "user-ext-1", "f2": "user-ext-2"}, "")
	bearer := token(t, "ext-1", "", time.Now().Add(time.Hour))

	for path, want := range map[string]int{
		"/api/flocks/f1":      http.StatusOK,
		"/api/flocks/f2":      http.StatusForbidden,
		"/api/flocks/missing": http.StatusNotFound,
	} {
		if rec := get(r, path, bearer); rec.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := map[error]int{
		fmt.Errorf("x: %w", models.ErrNotFound):   http.StatusNotFound,
		fmt.Errorf("x: %w", models.ErrValidation): http.StatusBadRequest,
		fmt.Errorf("x: %w", models.ErrForbidden):  http.StatusForbidden,
		fmt.Errorf("x: %w", models.ErrConflict):   http.StatusConflict,
		fmt.Errorf("boom"):                        http.StatusInternalServerError,
	}
	for err, want := range tests {
		if got := ErrorStatus(err); got != want {
			t.Fatalf("ErrorStatus(%v) = %d, want %d", err, got, want)
		}
	}
	if ErrorMessage(fmt.Errorf("dsn=secret")) != "internal error" {
		t.Fatal("internal errors must not leak")
	}
}
