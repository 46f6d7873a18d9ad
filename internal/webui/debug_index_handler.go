package webui

import (
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/utils"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// maxDumpFeatures caps how many features a debug page dumps.
const maxDumpFeatures = 200

type debugData struct {
	Title string
	Pre   string
}

var dumper = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   dumper.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	datasets, err := webUI.Workspace.ListDatasets(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	counts, err := webUI.Workspace.TableCounts(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeDebugData(w, "Workspace", map[string]interface{}{
		"run_id":   webUI.Workspace.RunID(),
		"datasets": datasets,
		"tables":   counts,
	})
}

func (webUI *WebUI) debugDatasetHandler(w http.ResponseWriter, r *http.Request) {
	name, err := utils.PathID(r, "name")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	dataset, err := webUI.Workspace.GetDataset(ctx, name)
	if errors.Is(err, fgdb.ErrDatasetNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var features interface{}
	switch dataset.Kind {
	case fgdb.KindLines:
		lines, _, ferr := webUI.Workspace.Lines(ctx, name)
		features, err = head(lines), ferr
	case fgdb.KindStations:
		points, ferr := webUI.Workspace.StationPoints(ctx, name)
		features, err = head(points), ferr
	case fgdb.KindCrossSections:
		records, _, ferr := webUI.Workspace.CrossSections(ctx, name)
		features, err = head(records), ferr
	case fgdb.KindLoopPoints:
		points, ferr := webUI.Workspace.LoopPoints(ctx, name)
		features, err = head(points), ferr
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeDebugData(w, "Dataset "+dataset.Name+" ("+dataset.Kind+")", map[string]interface{}{
		"dataset":  dataset,
		"features": features,
	})
}

func head[T any](items []T) []T {
	if len(items) > maxDumpFeatures {
		return items[:maxDumpFeatures]
	}
	return items
}
