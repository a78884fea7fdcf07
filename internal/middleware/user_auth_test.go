package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func newAuthRouter(t *testing.T) (*gin.Engine, *primitive.ObjectID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen primitive.ObjectID
	r := gin.New()
	r.GET("/protected", UserAuth(testSecret), func(c *gin.Context) {
		value, _ := c.Get("userId")
		seen = value.(primitive.ObjectID)
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestUserAuthInjectsUserID(t *testing.T) {
	r, seen := newAuthRouter(t)

	userID := primitive.NewObjectID()
	signed := signToken(t, jwt.MapClaims{
		"userId": userID.Hex(),
		"email":  "user@example.com",
		"exp":    time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if *seen != userID {
		t.Fatalf("expected userId %s in context, got %s", userID.Hex(), seen.Hex())
	}
}

func TestUserAuthRejectsMissingHeader(t *testing.T) {
	r, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserAuthRejectsExpiredToken(t *testing.T) {
	r, _ := newAuthRouter(t)

	signed := signToken(t, jwt.MapClaims{
		"userId": primitive.NewObjectID().Hex(),
		"exp":    time.Now().Add(-time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestUserAuthRejectsMalformedObjectID(t *testing.T) {
	r, _ := newAuthRouter(t)

	signed := signToken(t, jwt.MapClaims{
		"userId": "not-an-object-id",
		"exp":    time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
