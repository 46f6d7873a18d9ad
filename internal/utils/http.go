package utils

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// Format suffixes a client may append to a dataset name or route id.
var pathSuffixes = []string{".geojson", ".json"}

// PathID returns the named path parameter as a dataset name or route id:
// one trailing format suffix is dropped and the rest must pass ValidateID.
func PathID(r *http.Request, param string) (string, error) {
	id := httprouter.ParamsFromContext(r.Context()).ByName(param)
	for _, s := range pathSuffixes {
		if trimmed, ok := strings.CutSuffix(id, s); ok {
			id = trimmed
			break
		}
	}
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}
