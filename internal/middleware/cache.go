package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/portfolio/internal/cache"
)

const (
	// CacheHeader reports HIT or MISS on cacheable responses.
	CacheHeader = "X-Cache"

	cacheHit  = "HIT"
	cacheMiss = "MISS"
)

// CacheMiddleware serves GET responses from the response cache.
type CacheMiddleware struct {
	cache *cache.ResponseCache
}

func NewCacheMiddleware(c *cache.ResponseCache) *CacheMiddleware {
	return &CacheMiddleware{cache: c}
}

// Cache replays a stored response when one exists for the request URI and
// stores 200 responses otherwise. Redis failures only skip the cache.
func (m *CacheMiddleware) Cache() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !m.cache.Enabled() || req.Method != http.MethodGet {
				return next(c)
			}

			ctx := req.Context()
			logger := GetLogger(c)

			// Paged bodies embed absolute links, so the host is part of the key.
			key, err := m.cache.Key(ctx, req.Method, c.Scheme()+"://"+req.Host+req.URL.RequestURI())
			if err != nil {
				logger.Warn().Err(err).Msg("response cache unavailable")
				return next(c)
			}

			entry, err := m.cache.Get(ctx, key)
			if err != nil {
				logger.Warn().Err(err).Msg("response cache read failed")
			} else if entry != nil {
				c.Response().Header().Set(CacheHeader, cacheHit)
				return c.Blob(entry.Status, entry.ContentType, entry.Body)
			}

			c.Response().Header().Set(CacheHeader, cacheMiss)

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec
			err = next(c)
			c.Response().Writer = rec.ResponseWriter

			if err != nil || c.Response().Status != http.StatusOK {
				return err
			}

			stored := &cache.Entry{
				Status:      http.StatusOK,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			}
			if err := m.cache.Set(ctx, key, stored); err != nil {
				logger.Warn().Err(err).Msg("response cache write failed")
			}

			return nil
		}
	}
}

// bodyRecorder copies everything written to the client into body.
type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("response writer does not support hijacking")
}

func (w *bodyRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
