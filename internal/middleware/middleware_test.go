package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
	appErrors "github.com/noah-isme/faculty-timetable-api/pkg/errors"
)

type tokenValidatorStub struct {
	claims map[string]*models.JWTClaims
}

func (s tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator := tokenValidatorStub{claims: map[string]*models.JWTClaims{
		"admin":   {UserID: "u-1", Role: models.RoleAdmin},
		"faculty": {UserID: "u-2", FacultyID: "fac-1", Role: models.RoleFaculty},
	}}
	router := gin.New()
	router.GET("/faculty/:id", JWT(validator), RBAC(roles...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func serve(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	router := newProtectedRouter(string(models.RoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, serve(router, "/faculty/fac-1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, "/faculty/fac-1", "forged").Code)

	req := httptest.NewRequest(http.MethodGet, "/faculty/fac-1", nil)
	req.Header.Set("Authorization", "Basic admin")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestRBACAllowsRolesAndSelf(t *testing.T) {
	router := newProtectedRouter(string(models.RoleAdmin), RoleSelf)

	assert.Equal(t, http.StatusNoContent, serve(router, "/faculty/fac-9", "admin").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, "/faculty/fac-1", "faculty").Code)

	rec := serve(router, "/faculty/fac-9", "faculty")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestRBACWithoutSelfRejectsFaculty(t *testing.T) {
	router := newProtectedRouter(string(models.RoleAdmin), string(models.RoleSuperAdmin))

	assert.Equal(t, http.StatusForbidden, serve(router, "/faculty/fac-1", "faculty").Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, serve(router, "/", "").Code)
}

type observedRequest struct {
	method string
	path   string
	status int
}

type observerStub struct {
	seen []observedRequest
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.seen = append(o.seen, observedRequest{method: method, path: path, status: status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/timetables/faculty/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, "/timetables/faculty/fac-1", "")
	serve(router, "/nowhere", "")

	require.Len(t, observer.seen, 2)
	assert.Equal(t, observedRequest{method: http.MethodGet, path: "/timetables/faculty/:id", status: http.StatusOK}, observer.seen[0])
	assert.Equal(t, observedRequest{method: http.MethodGet, path: "/nowhere", status: http.StatusNotFound}, observer.seen[1])
}

func TestResponseMetaCarriesCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	serve(router, "/", "")

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
	assert.NotContains(t, meta, "started_at")
}
