package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "invoiceflow/internal/errors"
	"invoiceflow/internal/models"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserByID(id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func testUser() *models.User {
	return &models.User{Base: models.Base{ID: "0190a2b4-0000-7000-8000-000000000001"}, Name: "Ada", Email: "ada@test.com"}
}

func setupAuthRouter(users UserLookup) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(users))
	r.GET("/test", func(c *gin.Context) {
		user := c.MustGet(UserKey).(*models.User)
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString(UserIDKey), "email": user.Email})
	})
	return r
}

func signed(t *testing.T, claims *JWTClaims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func TestGenerateAndParseToken(t *testing.T) {
	user := testUser()

	token, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != user.ID || claims.Subject != user.ID {
		t.Errorf("expected user id %s, got %s / %s", user.ID, claims.UserID, claims.Subject)
	}
	if claims.Email != user.Email {
		t.Errorf("expected email %s, got %s", user.Email, claims.Email)
	}
	if claims.Issuer != "invoiceflow-api" {
		t.Errorf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now().Add(time.Hour)) {
		t.Errorf("expected a long-lived token, got %v", claims.ExpiresAt)
	}
}

func TestParseTokenRejects(t *testing.T) {
	user := testUser()
	base := func() *JWTClaims {
		return &JWTClaims{
			UserID: user.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"

	noUser := base()
	noUser.UserID = ""

	tests := map[string]string{
		"expired":      signed(t, expired, jwt.SigningMethodHS256, getJWTKey()),
		"wrong_key":    signed(t, base(), jwt.SigningMethodHS256, []byte("other-secret")),
		"wrong_issuer": signed(t, wrongIssuer, jwt.SigningMethodHS256, getJWTKey()),
		"no_user":      signed(t, noUser, jwt.SigningMethodHS256, getJWTKey()),
		"none_alg":     signed(t, base(), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseToken(token); err == nil {
				t.Error("expected token to be rejected")
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	user := testUser()
	users := fakeUsers{user.ID: user}
	valid, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orphan, err := GenerateToken(&models.User{Base: models.Base{ID: "0190a2b4-0000-7000-8000-00000000dead"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{name: "valid", header: "Bearer " + valid, wantCode: http.StatusOK},
		{name: "missing_header", wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "wrong_scheme", header: "Basic " + valid, wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "empty_token", header: "Bearer ", wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "bad_token", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantErr: "INVALID_TOKEN"},
		{name: "deleted_user", header: "Bearer " + orphan, wantCode: http.StatusUnauthorized, wantErr: "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := doRequest(setupAuthRouter(users), http.MethodGet, headers)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantErr != "" {
				assertErrorCode(t, rec, tt.wantErr)
				return
			}
			body := parseBody(t, rec)
			if body["userID"] != user.ID || body["email"] != user.Email {
				t.Errorf("expected user in context, got %v", body)
			}
		})
	}
}
