package restapi

import (
	"errors"
	"net/http"
	"time"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/utils"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	entry := models.NewCurrentTime(time.Now())
	api.respond(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences()))
}

func (api *RestAPI) datasetsHandler(w http.ResponseWriter, r *http.Request) {
	datasets, err := api.Workspace.ListDatasets(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	if datasets == nil {
		datasets = []fgdb.Dataset{}
	}
	api.respond(w, r, models.NewListResponse(datasets, models.NewEmptyReferences(), false))
}

func (api *RestAPI) datasetHandler(w http.ResponseWriter, r *http.Request) {
	dataset, ok := api.lookupDataset(w, r)
	if !ok {
		return
	}
	api.respond(w, r, models.NewEntryResponse(dataset, models.NewEmptyReferences()))
}

func (api *RestAPI) tableCountsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := api.Workspace.TableCounts(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.respond(w, r, models.NewEntryResponse(counts, models.NewEmptyReferences()))
}

// lookupDataset resolves the :name parameter. When kinds is non-empty the
// dataset must be one of them. It writes the error response itself and
// reports whether the caller should continue.
func (api *RestAPI) lookupDataset(w http.ResponseWriter, r *http.Request, kinds ...string) (fgdb.Dataset, bool) {
	name, err := utils.PathID(r, "name")
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return fgdb.Dataset{}, false
	}

	dataset, err := api.Workspace.GetDataset(r.Context(), name)
	if errors.Is(err, fgdb.ErrDatasetNotFound) {
		api.notFound(w, r)
		return fgdb.Dataset{}, false
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return fgdb.Dataset{}, false
	}

	if len(kinds) == 0 {
		return dataset, true
	}
	for _, kind := range kinds {
		if kind == dataset.Kind {
			return dataset, true
		}
	}
	api.validationErrorResponse(w, r, map[string][]string{
		"name": {"dataset " + dataset.Name + " holds " + dataset.Kind},
	})
	return fgdb.Dataset{}, false
}

func datasetReferences(dataset fgdb.Dataset, routeIDs []string) models.ReferencesModel {
	refs := models.NewEmptyReferences()
	refs.Datasets = append(refs.Datasets, dataset)
	for _, id := range routeIDs {
		refs.Routes = append(refs.Routes, map[string]string{"id": id})
	}
	return refs
}
