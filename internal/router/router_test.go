package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

const secret = "router-test-secret"

func newTestRouter(t *testing.T, limiterHits *int) *echo.Echo {
	t.Helper()
	svc := service.NewBookingService(repository.NewMemoryStore(), nil, nil, nil, service.Options{})
	limiter := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			*limiterHits++
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too_many_requests"})
		}
	}
	return New(Deps{
		Bookings:  handler.NewBookingHandler(svc, nil),
		JWTSecret: secret,
		RateLimit: limiter,
		Log:       zap.NewNop(),
	})
}

func call(e *echo.Echo, method, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, 5, role, time.Minute)
	require.NoError(t, err)
	return tok.Token
}

func TestOperationalRoutes(t *testing.T) {
	var hits int
	e := newTestRouter(t, &hits)

	rec := call(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = call(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouteGuards(t *testing.T) {
	var hits int
	e := newTestRouter(t, &hits)
	customer := bearer(t, utils.RoleCustomer)
	admin := bearer(t, utils.RoleAdmin)

	assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, "/v1/shows/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/v1/bookings", "").Code)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/bookings", customer).Code)
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/v1/bookings", bearer(t, "GUEST")).Code)

	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/v1/admin/bookings", customer).Code)
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/v1/admin/bookings/pending", admin).Code)
	assert.Equal(t, http.StatusForbidden, call(e, http.MethodPost, "/v1/bookings/BK1/approve", customer).Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodPost, "/v1/bookings/BK1/reject", admin).Code)

	assert.Equal(t, 0, hits)
	assert.Equal(t, http.StatusTooManyRequests, call(e, http.MethodPost, "/v1/bookings", customer).Code)
	assert.Equal(t, 1, hits)
}
