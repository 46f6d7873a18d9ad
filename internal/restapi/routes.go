package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.Handler(http.MethodGet, "/api/current-time.json", validateAPIKey(api, api.currentTimeHandler))
	router.Handler(http.MethodGet, "/api/datasets", validateAPIKey(api, api.datasetsHandler))
	router.Handler(http.MethodGet, "/api/datasets/:name", validateAPIKey(api, api.datasetHandler))
	router.Handler(http.MethodGet, "/api/datasets/:name/points", validateAPIKey(api, api.pointsHandler))
	router.Handler(http.MethodGet, "/api/datasets/:name/routes/:id/shape", validateAPIKey(api, api.shapeHandler))
	router.Handler(http.MethodGet, "/api/datasets/:name/cross-sections", validateAPIKey(api, api.crossSectionsHandler))
	router.Handler(http.MethodGet, "/api/workspace/counts", validateAPIKey(api, api.tableCountsHandler))
	router.NotFound = http.HandlerFunc(api.notFound)
}
