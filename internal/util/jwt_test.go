package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"wellbeing_dashboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTRoundTrip(t *testing.T) {
	p := model.Principal{UserID: "u1", Role: model.RoleSchool, SchoolID: "s1"}

	token, err := GenerateJWT(p, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, p, claims.Principal())
}

func TestParseJWTRejects(t *testing.T) {
	p := model.Principal{UserID: "u1", Role: model.RoleAdmin}

	expired, err := GenerateJWT(p, testSecret, -time.Minute)
	require.NoError(t, err)
	wrongKey, err := GenerateJWT(p, "another-secret-another-secret-xx", time.Hour)
	require.NoError(t, err)
	anonymous, err := GenerateJWT(model.Principal{Role: model.RoleAdmin}, testSecret, time.Hour)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "u1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": wrongKey,
		"no user":   anonymous,
		"hs512":     hs512,
		"garbage":   "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJWT(token, testSecret)
			assert.Error(t, err)
		})
	}
}

func TestContextAccessors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetUserFromContext(c))
	assert.Empty(t, GetTokenFromContext(c))

	c.Set(ContextUserKey, "not claims")
	assert.Nil(t, GetUserFromContext(c))

	claims := &Claims{UserID: "u1"}
	c.Set(ContextUserKey, claims)
	c.Set(ContextTokenKey, "tok")
	assert.Same(t, claims, GetUserFromContext(c))
	assert.Equal(t, "tok", GetTokenFromContext(c))
}

func TestParsePositiveInt(t *testing.T) {
	assert.Equal(t, 3, ParsePositiveInt("3", 1))
	assert.Equal(t, 1, ParsePositiveInt("0", 1))
	assert.Equal(t, 1, ParsePositiveInt("-2", 1))
	assert.Equal(t, 1, ParsePositiveInt("x", 1))
	assert.Equal(t, 1, ParsePositiveInt("", 1))
}
