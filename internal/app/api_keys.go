package app

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the inspection API key when it is not in the query.
const APIKeyHeader = "X-API-Key"

// RequestAPIKey returns the key sent with r. The key query parameter wins
// over the header.
func RequestAPIKey(r *http.Request) string {
	if key := r.URL.Query().Get("key"); key != "" {
		return key
	}
	return r.Header.Get(APIKeyHeader)
}

// RequestHasInvalidAPIKey reports whether r must be refused.
func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	return !app.AcceptsAPIKey(RequestAPIKey(r))
}

// AcceptsAPIKey reports whether key opens the inspection API. With no keys
// configured every request is accepted.
func (app *Application) AcceptsAPIKey(key string) bool {
	if len(app.Config.ApiKeys) == 0 {
		return true
	}
	if key == "" {
		return false
	}
	accepted := 0
	for _, k := range app.Config.ApiKeys {
		accepted |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return accepted == 1
}
