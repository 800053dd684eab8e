package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/middleware"
	"github.com/quickkiraana/kiraana/pkg/reqid"
)

type resolverFunc func(ctx context.Context, token string) (models.Identity, error)

func (f resolverFunc) Resolve(ctx context.Context, token string) (models.Identity, error) {
	return f(ctx, token)
}

var tokens = resolverFunc(func(_ context.Context, token string) (models.Identity, error) {
	switch token {
	case "good":
		return models.Identity{ShopID: "S1", ShopName: "Ravi Stores"}, nil
	case "broken-store":
		return models.Identity{}, apperr.E(apperr.Internal, "lookup", assert.AnError)
	case "stale":
		return models.Identity{}, apperr.E(apperr.InvalidToken, "Token has expired", nil)
	case "orphan":
		return models.Identity{}, apperr.E(apperr.Unauthenticated, "shop gone", nil)
	}
	return models.Identity{}, apperr.E(apperr.InvalidToken, "Token is not valid", nil)
})

func echoIdentity(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromCtx(r.Context())
		require.True(t, ok)
		w.Write([]byte(id.ShopID)) //nolint:errcheck
	})
}

func TestGuard(t *testing.T) {
	logger.Discard()
	h := middleware.Guard(tokens)(echoIdentity(t))

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, `{"msg":"No token, authorization denied"}`},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, `{"msg":"No token, authorization denied"}`},
		{"invalid", "Bearer forged", http.StatusUnauthorized, `{"msg":"Token is not valid"}`},
		{"expired", "Bearer stale", http.StatusUnauthorized, `{"msg":"Token has expired"}`},
		{"unauthenticated", "Bearer orphan", http.StatusUnauthorized, `{"msg":"Token is not valid"}`},
		{"store down", "Bearer broken-store", http.StatusInternalServerError, `{"msg":"Server Error"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/orders/my-orders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/orders/my-orders", nil)
	req.Header.Set("Authorization", "bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "S1", rec.Body.String())
}

func TestGuardQuery(t *testing.T) {
	logger.Discard()
	h := middleware.GuardQuery(tokens, "token")(echoIdentity(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/feed?token=good", nil))
	assert.Equal(t, "S1", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/feed", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", middleware.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", middleware.BearerToken("  Bearer   abc "))
	assert.Equal(t, "", middleware.BearerToken("abc"))
	assert.Equal(t, "", middleware.BearerToken("Token abc"))
}

func TestRecovery(t *testing.T) {
	logger.Discard()
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"msg":"Server Error"}`, rec.Body.String())
}

func TestLoggerInjectsRequestLogger(t *testing.T) {
	logger.Discard()
	var injected bool
	h := reqid.Middleware()(middleware.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		injected = logger.WithCtx(r.Context()) != logger.L
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, injected)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(reqid.Header))
}

func TestCORSPreflight(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions("https://shop.example.com"))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute)
	defer l.Stop()
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9", middleware.ClientIP(req))
}
