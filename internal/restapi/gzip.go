package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Content types eligible for gzip. Debug pages are served as-is.
var gzipContentTypes = []string{"application/json", "application/geo+json"}

// gzipSettings decide which responses are gzipped.
type gzipSettings struct {
	minBytes int
	level    int
}

var defaultGzip = gzipSettings{minBytes: 1024, level: 5}

// gzipJSON gzips JSON bodies of at least minBytes for clients that accept it.
// Settings gzhttp rejects leave responses uncompressed.
func gzipJSON(s gzipSettings) func(http.Handler) http.Handler {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(s.minBytes),
		gzhttp.CompressionLevel(s.level),
		gzhttp.ContentTypes(gzipContentTypes),
	)
	return func(next http.Handler) http.Handler {
		if err != nil {
			return next
		}
		return wrap(next)
	}
}
