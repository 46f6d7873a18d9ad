// Package restapi serves a read-only JSON view of a workspace.
package restapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"fgtools.fluvialgeomorph.org/internal/app"
)

// Page size bounds for list endpoints.
const (
	defaultPageSize = 250
	maxPageSize     = 5000
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: newRateLimiter(app.Config.RateLimit, time.Second),
	}
}

// Handler returns the router wrapped in the middleware chain. Request
// logging is outermost so rejected requests are logged too. extra registers
// additional routes, such as the debug pages, on the same router.
func (api *RestAPI) Handler(extra ...func(*httprouter.Router)) http.Handler {
	router := httprouter.New()
	api.SetRoutes(router)
	for _, register := range extra {
		register(router)
	}

	var handler http.Handler = router
	if api.rateLimiter != nil {
		handler = api.rateLimiter.rateLimitHandler(handler)
	}
	handler = gzipJSON(defaultGzip)(handler)
	handler = api.WithSecurityHeaders(handler)
	return NewRequestLoggingMiddleware(api.Logger)(handler)
}

// Close stops background work started by NewRestAPI.
func (api *RestAPI) Close() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
