package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/personal-finance-api/internal/config"
)

func TestRedisCache_DisabledPassesThrough(t *testing.T) {
	t.Parallel()

	mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/categories", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	require.NoError(t, mw(func(c echo.Context) error {
		reached = true
		return c.String(http.StatusOK, "fresh")
	})(c))
	require.True(t, reached)
	require.Empty(t, rec.Header().Get("X-Cache"))
}

func TestPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Add("Vary", "Accept")
	body := []byte(`{"categories":[]}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	require.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	require.Equal(t, "Accept", gotHdr.Get("Vary"))
	require.Equal(t, body, gotBody)
}

func TestPayloadRoundTrip_EmptyBody(t *testing.T) {
	t.Parallel()

	payload, err := encodePayload(http.StatusOK, http.Header{}, nil)
	require.NoError(t, err)

	status, _, body, ok := decodePayload(payload)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Empty(t, body)
}

func TestDecodePayload_Corrupt(t *testing.T) {
	t.Parallel()

	for _, bs := range [][]byte{
		nil,
		{},
		{0, 0, 0},
		{0, 0, 0, 200, 0, 0, 0, 99}, // header length beyond the payload
		{0, 0, 0, 200, 0, 0, 0, 2, '{', 'x'},
	} {
		_, _, _, ok := decodePayload(bs)
		require.False(t, ok, "payload %v", bs)
	}
}

func TestCacheKey_ScopedToUser(t *testing.T) {
	t.Parallel()

	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "user_route_query"}

	build := func(userID, target string) string {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/reports/summary")
		if userID != "" {
			c.Set(ctxUserID, userID)
		}
		return cacheKey(cfg, c)
	}

	alice := build("u-1", "/v1/reports/summary?from=2025-01-01")
	bob := build("u-2", "/v1/reports/summary?from=2025-01-01")
	require.NotEqual(t, alice, bob)

	// Same user and query always land on the same entry.
	require.Equal(t, alice, build("u-1", "/v1/reports/summary?from=2025-01-01"))

	// The query contributes under user_route_query.
	require.NotEqual(t, alice, build("u-1", "/v1/reports/summary?from=2025-02-01"))

	// Keys are an opaque digest under the configured prefix.
	require.Regexp(t, `^cache:[0-9a-f]{40}$`, alice)
}

func TestCacheKey_UserRouteIgnoresQuery(t *testing.T) {
	t.Parallel()

	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "user_route"}

	build := func(target string) string {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/categories")
		c.Set(ctxUserID, "u-1")
		return cacheKey(cfg, c)
	}

	require.Equal(t, build("/v1/categories?x=1"), build("/v1/categories?x=2"))
}

func TestCaptureWriter_Limit(t *testing.T) {
	t.Parallel()

	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 4}

	n, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	n, err = cw.Write([]byte("defg"))
	require.NoError(t, err)
	require.Equal(t, 4, n)

	// The buffer stops at the limit while size keeps counting.
	require.Equal(t, "abcd", cw.buf.String())
	require.EqualValues(t, 7, cw.size)
}
