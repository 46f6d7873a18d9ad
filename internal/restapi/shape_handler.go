package restapi

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-polyline"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/models"
	"fgtools.fluvialgeomorph.org/internal/utils"
)

// shapeHandler encodes one route of a lines or stations dataset as a
// polyline of (y, x) pairs.
func (api *RestAPI) shapeHandler(w http.ResponseWriter, r *http.Request) {
	dataset, ok := api.lookupDataset(w, r, fgdb.KindLines, fgdb.KindStations)
	if !ok {
		return
	}
	routeID, err := utils.PathID(r, "id")
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	ctx := r.Context()
	where := fgdb.Where("route_id", fgdb.Eq, routeID)
	var path orb.LineString
	switch dataset.Kind {
	case fgdb.KindLines:
		lines, _, err := api.Workspace.Lines(ctx, dataset.Name, where)
		if err != nil {
			api.serverErrorResponse(w, r, err)
			return
		}
		for _, l := range lines {
			path = appendPath(path, l.Geometry)
		}
	case fgdb.KindStations:
		points, err := api.Workspace.StationPoints(ctx, dataset.Name, where)
		if err != nil {
			api.serverErrorResponse(w, r, err)
			return
		}
		for _, p := range points {
			path = appendPath(path, orb.LineString{{p.X, p.Y}})
		}
	}

	if len(path) == 0 {
		api.notFound(w, r)
		return
	}

	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Y(), p.X()}
	}
	encoded := string(polyline.EncodeCoords(coords))

	entry := models.ShapeEntry{
		RouteID: routeID,
		Points:  encoded,
		Length:  len(encoded),
		Count:   len(path),
	}
	api.respond(w, r, models.NewEntryResponse(entry, datasetReferences(dataset, []string{routeID})))
}

// appendPath extends path with next, dropping a leading vertex that repeats
// the current end.
func appendPath(path, next orb.LineString) orb.LineString {
	for _, p := range next {
		if len(path) > 0 && path[len(path)-1].Equal(p) {
			continue
		}
		path = append(path, p)
	}
	return path
}
