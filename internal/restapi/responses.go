package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// respond writes the envelope with its Code as the HTTP status. An envelope
// that cannot be encoded is replaced by a 500 envelope.
func (api *RestAPI) respond(w http.ResponseWriter, r *http.Request, envelope models.ResponseModel) {
	body, err := json.Marshal(envelope)
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "error encoding response", err,
			slog.String("component", "restapi"),
			slog.String("path", r.URL.Path))
		envelope = models.NewResponse(http.StatusInternalServerError, nil, "internal server error")
		body, _ = json.Marshal(envelope)
	}
	status := envelope.Code
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// notFound answers unknown paths, datasets and route ids.
func (api *RestAPI) notFound(w http.ResponseWriter, r *http.Request) {
	api.respond(w, r, models.NewResponse(http.StatusNotFound, nil, "resource not found"))
}
