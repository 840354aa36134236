package middleware

import (
	"bytes"
	"errors"
	"hash/fnv"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/keeper/base/log"
	"github.com/x-xyz/keeper/service/cache"
	"github.com/x-xyz/keeper/service/cache/provider"
)

const (
	httpCachePfx = "httpCache"
	headerCache  = "X-Cache"
	cacheHit     = "HIT"
	cacheMiss    = "MISS"
)

// cachedResponse is what one successful GET leaves in the cache.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// recorder tees the body the handler writes and remembers its status.
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// requestKey hashes the path and the query with keys and values sorted, so parameter
// order does not split the cache.
func requestKey(req *http.Request) string {
	params := req.URL.Query()
	for _, vs := range params {
		sort.Strings(vs)
	}
	h := fnv.New64a()
	h.Write([]byte(req.URL.Path))
	h.Write([]byte{'?'})
	h.Write([]byte(params.Encode()))
	return strconv.FormatUint(h.Sum64(), 36)
}

// CacheHttp serves repeated GETs of the same url from p for ttl. Only 2xx responses are stored.
func CacheHttp(p provider.Provider, ttl time.Duration) echo.MiddlewareFunc {
	responses := cache.New(cache.Config{
		TTL:      ttl,
		Prefix:   httpCachePfx,
		Provider: p,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			cont := requestCtx(c)
			key := requestKey(c.Request())

			hit := cachedResponse{}
			err := responses.Get(cont, key, &hit)
			if err == nil {
				c.Response().Header().Set(headerCache, cacheHit)
				return c.Blob(hit.Status, hit.ContentType, hit.Body)
			}
			if !errors.Is(err, cache.ErrNotFound) {
				cont.WithField("err", err).Warn("response cache read failed")
			}

			c.Response().Header().Set(headerCache, cacheMiss)
			rec := &recorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := rec.status
			if status == 0 {
				status = c.Response().Status
			}
			if status < http.StatusOK || status >= http.StatusMultipleChoices {
				return nil
			}
			if err := responses.Set(cont, key, cachedResponse{
				Status:      status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			}); err != nil {
				cont.WithFields(log.Fields{"err": err, "path": c.Request().URL.Path}).Warn("response cache write failed")
			}
			return nil
		}
	}
}
