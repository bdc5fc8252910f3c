package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/personal-finance-api/internal/config"
)

func newLimiterContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestTokenBucket_DisabledPassesThrough(t *testing.T) {
	t.Parallel()

	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)

	c, rec := newLimiterContext(http.MethodPost, "/v1/auth/login")
	reached := false
	err := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	require.True(t, reached)
	require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestTokenBucket_NilClientPassesThrough(t *testing.T) {
	t.Parallel()

	// Enabled in config but Redis never came up.
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 5}, nil)

	c, _ := newLimiterContext(http.MethodPost, "/v1/auth/login")
	reached := false
	require.NoError(t, mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c))
	require.True(t, reached)
}

func TestRateKey_Strategies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		strategy string
		userID   string
		want     string
	}{
		{"ip", "ip", "", "rl:ip:192.0.2.1"},
		{"user anonymous", "user", "", "rl:user:anon"},
		{"user", "user", "u-1", "rl:user:u-1"},
		{"ip and route", "ip_route", "", "rl:ip:192.0.2.1:route:POST /v1/auth/login"},
		{"default combines all", "", "u-1", "rl:ip:192.0.2.1:user:u-1:route:POST /v1/auth/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// httptest requests carry RemoteAddr 192.0.2.1:1234.
			c, _ := newLimiterContext(http.MethodPost, "/v1/auth/login")
			c.SetPath("/v1/auth/login")
			if tt.userID != "" {
				c.Set(ctxUserID, tt.userID)
			}
			cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}
			require.Equal(t, tt.want, rateKey(cfg, c))
		})
	}
}

func TestAsInt64(t *testing.T) {
	t.Parallel()

	require.EqualValues(t, 7, asInt64(int64(7)))
	require.EqualValues(t, 7, asInt64(7))
	require.EqualValues(t, 7, asInt64(7.9))
	require.EqualValues(t, 7, asInt64("7"))
	require.EqualValues(t, 0, asInt64("seven"))
	require.EqualValues(t, 0, asInt64(nil))
}
