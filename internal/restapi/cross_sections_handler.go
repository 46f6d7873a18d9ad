package restapi

import (
	"net/http"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/utils"
)

// crossSectionsHandler lists cross sections in seq order, optionally for one
// reach or one loop.
func (api *RestAPI) crossSectionsHandler(w http.ResponseWriter, r *http.Request) {
	dataset, ok := api.lookupDataset(w, r, fgdb.KindCrossSections)
	if !ok {
		return
	}

	query := r.URL.Query()
	fieldErrors := make(map[string][]string)
	reach := query.Get("reachName")
	if reach != "" {
		if err := utils.ValidateID(reach); err != nil {
			fieldErrors["reachName"] = append(fieldErrors["reachName"], err.Error())
		}
	}
	loop := utils.ParseIntParam(query, "loop", -1, fieldErrors)
	offset := utils.ParseIntParam(query, "offset", 0, fieldErrors)
	limit := utils.ParseIntParam(query, "limit", defaultPageSize, fieldErrors)
	for k, v := range utils.ValidatePage(offset, limit, maxPageSize) {
		fieldErrors[k] = append(fieldErrors[k], v...)
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	var preds []fgdb.Predicate
	if reach != "" {
		preds = append(preds, fgdb.Where("reach_name", fgdb.Eq, reach))
	}
	if loop >= 0 {
		preds = append(preds, fgdb.Where("loop", fgdb.Eq, loop))
	}

	records, _, err := api.Workspace.CrossSections(r.Context(), dataset.Name, preds...)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	page, limitExceeded := paginate(records, offset, limit)
	api.respond(w, r, models.NewListResponse(page, datasetReferences(dataset, nil), limitExceeded))
}
