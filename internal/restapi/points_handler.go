package restapi

import (
	"net/http"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/utils"
)

// pointsHandler lists the station points of a dataset, optionally filtered
// to one route and a measure range, one page at a time.
func (api *RestAPI) pointsHandler(w http.ResponseWriter, r *http.Request) {
	dataset, ok := api.lookupDataset(w, r, fgdb.KindStations)
	if !ok {
		return
	}

	query := r.URL.Query()
	fieldErrors := make(map[string][]string)
	routeID := query.Get("routeId")
	if routeID != "" {
		if err := utils.ValidateID(routeID); err != nil {
			fieldErrors["routeId"] = append(fieldErrors["routeId"], err.Error())
		}
	}
	minMeasure, hasMin := utils.ParseFloatParam(query, "minMeasure", fieldErrors)
	maxMeasure, hasMax := utils.ParseFloatParam(query, "maxMeasure", fieldErrors)
	offset := utils.ParseIntParam(query, "offset", 0, fieldErrors)
	limit := utils.ParseIntParam(query, "limit", defaultPageSize, fieldErrors)
	for k, v := range utils.ValidateMeasureRange(minMeasure, maxMeasure, hasMin, hasMax) {
		fieldErrors[k] = append(fieldErrors[k], v...)
	}
	for k, v := range utils.ValidatePage(offset, limit, maxPageSize) {
		fieldErrors[k] = append(fieldErrors[k], v...)
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	var preds []fgdb.Predicate
	if routeID != "" {
		preds = append(preds, fgdb.Where("route_id", fgdb.Eq, routeID))
	}
	if hasMin {
		preds = append(preds, fgdb.Where("measure", fgdb.Ge, minMeasure))
	}
	if hasMax {
		preds = append(preds, fgdb.Where("measure", fgdb.Le, maxMeasure))
	}

	points, err := api.Workspace.StationPoints(r.Context(), dataset.Name, preds...)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	page, limitExceeded := paginate(points, offset, limit)
	list := make([]pointEntry, len(page))
	for i, p := range page {
		list[i] = newPointEntry(p)
	}
	api.respond(w, r, models.NewListResponse(list, datasetReferences(dataset, routeIDs(page)), limitExceeded))
}

// pointEntry is the wire form of a station point. An undefined measure is
// sent as null.
type pointEntry struct {
	RouteID    string            `json:"routeId"`
	Vertex     int               `json:"vertex"`
	Measure    *float64          `json:"measure"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Z          *float64          `json:"z,omitempty"`
	Attributes models.Attributes `json:"attributes,omitempty"`
}

func newPointEntry(p models.StationPoint) pointEntry {
	e := pointEntry{
		RouteID:    p.RouteID,
		Vertex:     p.Vertex,
		X:          p.X,
		Y:          p.Y,
		Z:          p.Z,
		Attributes: p.Attributes,
	}
	if p.HasMeasure() {
		e.Measure = models.Float64Ptr(p.Measure)
	}
	return e
}

func paginate[T any](items []T, offset, limit int) ([]T, bool) {
	if offset >= len(items) {
		return []T{}, false
	}
	end := offset + limit
	if end >= len(items) {
		return items[offset:], false
	}
	return items[offset:end], true
}

func routeIDs(points []models.StationPoint) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range points {
		if !seen[p.RouteID] {
			seen[p.RouteID] = true
			ids = append(ids, p.RouteID)
		}
	}
	return ids
}
