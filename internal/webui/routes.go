package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/debug/datasets", webUI.debugIndexHandler)
	router.HandlerFunc(http.MethodGet, "/debug/datasets/:name", webUI.debugDatasetHandler)
}
