package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-attendance/internal/auth"
	"github.com/iliyamo/event-attendance/internal/utils"
)

const testSigningSecret = "test-signing-secret"

// protectedEcho mounts JWTAuth and RequireRole in front of a handler
// that echoes the injected claims, mirroring how the routers stack
// these middlewares.
func protectedEcho(roles ...string) *echo.Echo {
	e := echo.New()
	g := e.Group("/v1", JWTAuth(testSigningSecret), RequireRole(roles...))
	g.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
		})
	})
	return e
}

func getWhoami(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsMintedToken(t *testing.T) {
	e := protectedEcho(auth.RoleAttendee)
	tok, err := utils.NewAccessToken(testSigningSecret, 7, auth.RoleAttendee, 15)
	require.NoError(t, err)

	rec := getWhoami(e, tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"ATTENDEE"`)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	e := protectedEcho(auth.RoleAttendee)
	rec := getWhoami(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	e := protectedEcho(auth.RoleAttendee)
	tok, err := utils.NewAccessToken("some-other-secret", 7, auth.RoleAttendee, 15)
	require.NoError(t, err)

	rec := getWhoami(e, tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	e := protectedEcho(auth.RoleAttendee)
	tok, err := utils.NewAccessToken(testSigningSecret, 7, auth.RoleAttendee, -5)
	require.NoError(t, err)

	rec := getWhoami(e, tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsUnsignedToken(t *testing.T) {
	e := protectedEcho(auth.RoleAttendee)
	// alg=none must never pass, whatever the claims say.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  7,
		"role": auth.RoleAdmin,
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec := getWhoami(e, raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	e := protectedEcho(auth.RoleAttendee)
	rec := getWhoami(e, "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleRejectsDisallowedRole(t *testing.T) {
	e := protectedEcho(auth.RoleOrganiser, auth.RoleAdmin)
	tok, err := utils.NewAccessToken(testSigningSecret, 7, auth.RoleAttendee, 15)
	require.NoError(t, err)

	rec := getWhoami(e, tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAcceptsAnyListedRole(t *testing.T) {
	e := protectedEcho(auth.RoleOrganiser, auth.RoleAdmin)
	for _, role := range []string{auth.RoleOrganiser, auth.RoleAdmin} {
		tok, err := utils.NewAccessToken(testSigningSecret, 7, role, 15)
		require.NoError(t, err)

		rec := getWhoami(e, tok.Token)
		assert.Equal(t, http.StatusOK, rec.Code, "role %s", role)
	}
}
