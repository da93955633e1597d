package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/pulse-backend/internal/platform/logger"
)

func authRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewAuthMiddleware(logger.Nop(), secret).RequireAuth())
	r.GET("/api/model", func(c *gin.Context) {
		c.String(http.StatusOK, Operator(c))
	})
	return r
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

func TestAuthDisabledWithoutSecret(t *testing.T) {
	if rec := get(authRouter(""), "/api/model", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthAcceptsSignedToken(t *testing.T) {
	r := authRouter("s3cret")
	tok, err := SignToken("s3cret", "facilitator", time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}
	rec := get(r, "/api/model", tok)
	if rec.Code != http.StatusOK || rec.Body.String() != "facilitator" {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec := get(r, "/api/model?token="+tok, ""); rec.Code != http.StatusOK {
		t.Fatalf("query token status = %d", rec.Code)
	}
}

func TestAuthRejects(t *testing.T) {
	r := authRouter("s3cret")
	wrongKey, _ := SignToken("other", "facilitator", time.Hour)
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "facilitator",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	expiredTok, _ := expired.SignedString([]byte("s3cret"))
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "facilitator"}).SignedString([]byte("s3cret"))
	noSub, _ := SignToken("s3cret", "", time.Hour)

	for name, tok := range map[string]string{
		"missing":   "",
		"wrong key": wrongKey,
		"expired":   expiredTok,
		"no expiry": noExp,
		"no sub":    noSub,
		"garbage":   "not.a.jwt",
	} {
		if rec := get(r, "/api/model", tok); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d", name, rec.Code)
		}
	}
}
