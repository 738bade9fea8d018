package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymsync/internal/apperr"
	"gymsync/internal/guard"
	"gymsync/internal/models"
	"gymsync/internal/rbac"
	"gymsync/internal/response"
	"gymsync/internal/security"
)

type stubVerifier struct {
	accounts map[string]models.Account
}

func (v stubVerifier) Verify(_ context.Context, raw string) (models.Account, security.Token, error) {
	account, ok := v.accounts[raw]
	if !ok {
		return models.Account{}, security.Token{}, apperr.ErrUnauthenticated
	}
	return account, security.Token{Format: security.FormatSigned, Claims: &security.Claims{Role: account.Role}, Role: account.Role}, nil
}

var render = response.NewRenderer(zerolog.Nop(), false)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	all := append(handlers, func(c *gin.Context) {
		account, _ := CurrentAccount(c)
		c.JSON(http.StatusOK, gin.H{"id": account.ID})
	})
	r.GET("/*path", all...)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsBearerAndCookie(t *testing.T) {
	verifier := stubVerifier{accounts: map[string]models.Account{
		"good": {ID: "acc-1", Role: models.RoleMember},
	}}
	r := newRouter(Auth(verifier, render))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"acc-1"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"})
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"UNAUTHENTICATED"`)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"})
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestCredential(t *testing.T) {
	cases := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"bearer wins over cookie", "Bearer abc", "from-cookie", "abc"},
		{"basic falls back to cookie", "Basic Zm9vOmJhcg==", "from-cookie", "from-cookie"},
		{"empty bearer falls back to cookie", "Bearer ", "from-cookie", "from-cookie"},
		{"cookie only", "", "from-cookie", "from-cookie"},
		{"nothing", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				c.Request.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: TokenCookie, Value: tc.cookie})
			}
			assert.Equal(t, tc.want, Credential(c))
		})
	}
}

func TestRequireRolesAndPermission(t *testing.T) {
	verifier := stubVerifier{accounts: map[string]models.Account{
		"admin":  {ID: "a", Role: models.RoleSuperAdmin},
		"member": {ID: "m", Role: models.RoleMember},
	}}
	registry := rbac.Default()

	byRole := newRouter(Auth(verifier, render), RequireRoles(registry, render, models.RoleSuperAdmin))
	byPerm := newRouter(Auth(verifier, render), RequirePermission(registry, render, rbac.PermReviewApplications))

	for _, r := range []*gin.Engine{byRole, byPerm} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer admin")
		assert.Equal(t, http.StatusOK, serve(r, req).Code)

		req = httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer member")
		w := serve(r, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), `"FORBIDDEN"`)
	}
}

func TestRequireApproved(t *testing.T) {
	verifier := stubVerifier{accounts: map[string]models.Account{
		"pending":  {ID: "p", Role: models.RoleGymOwner, Status: models.StatusPending},
		"rejected": {ID: "r", Role: models.RoleGymOwner, Status: models.StatusRejected},
		"owner":    {ID: "o", Role: models.RoleGymOwner, Status: models.StatusApproved},
	}}
	r := newRouter(Auth(verifier, render), RequireApproved(render))

	cases := map[string]int{"pending": http.StatusForbidden, "rejected": http.StatusForbidden, "owner": http.StatusOK}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		assert.Equal(t, want, serve(r, req).Code, token)
	}
}

func TestRouteGuardRedirects(t *testing.T) {
	codec := security.NewCodec("secret", time.Hour, true)
	g := guard.New(codec, rbac.Default())
	r := newRouter(RouteGuard(g, CookieConfig{}, render, zerolog.Nop()))

	member, _, err := codec.Issue(models.Account{ID: "m", Email: "m@gym.com", Role: models.RoleMember})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/trainer/clients", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: member})
	w := serve(r, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard/member", w.Header().Get("Location"))
	assert.Empty(t, w.Header().Values("Set-Cookie"))

	req = httptest.NewRequest(http.MethodGet, "/dashboard/member", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "tampered"})
	w = serve(r, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, guard.EntryPoint, w.Header().Get("Location"))
	cookies := strings.Join(w.Header().Values("Set-Cookie"), "\n")
	assert.Contains(t, cookies, "token=;")
	assert.Contains(t, cookies, "role=;")

	req = httptest.NewRequest(http.MethodGet, "/dashboard/member", nil)
	req.Header.Set("Authorization", "Bearer "+member)
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/dashboard/member", nil)
	req.Header.Set("Accept", "application/json")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id\n")
	assert.NotEqual(t, "bad id\n", serve(r, req).Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS([]string{"http://localhost:3000"}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(engine, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.com")
	w = serve(engine, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	assert.Equal(t, http.StatusNoContent, serve(engine, req).Code)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Recovery(render))
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"INTERNAL_ERROR"`)
	assert.NotContains(t, w.Body.String(), "boom")
}
