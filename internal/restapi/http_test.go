package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/fgdb"
	"fgtools.fluvialgeomorph.org/internal/app"
	"fgtools.fluvialgeomorph.org/internal/appconf"
	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

// createTestApi returns an API over an in-memory workspace seeded with a
// lines, a stations and a cross section dataset. Requests need key=TEST.
func createTestApi(t *testing.T) (*RestAPI, *bytes.Buffer) {
	t.Helper()
	client, err := fgdb.NewClient(fgdb.NewConfig(":memory:", appconf.Test, false))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	var buf bytes.Buffer
	application := &app.Application{
		Config: appconf.Config{
			Env:       appconf.EnvFlagToEnvironment("test"),
			ApiKeys:   []string{"TEST"},
			RateLimit: 100,
		},
		Logger:    logging.NewStructuredLogger(&buf, slog.LevelDebug),
		Workspace: client,
	}
	seedWorkspace(t, client)

	api := NewRestAPI(application)
	t.Cleanup(api.Close)
	return api, &buf
}

func seedWorkspace(t *testing.T, client *fgdb.Client) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, client.WriteLines(ctx, "flowline", models.Meter, []fgdb.LineFeature{
		{FID: 1, RouteID: "R", Geometry: orb.LineString{{0, 0}, {500, 0}}},
		{FID: 2, RouteID: "R", Geometry: orb.LineString{{500, 0}, {1000, 0}}},
		{FID: 3, RouteID: "S", Geometry: orb.LineString{{0, 0}, {0, 100}}},
	}))

	var points []models.StationPoint
	for i := 0; i <= 10; i++ {
		points = append(points, models.StationPoint{
			RouteID: "R", Vertex: i, Measure: float64(i) / 10, X: float64(i) * 100, Y: 0,
		})
	}
	points = append(points,
		models.StationPoint{RouteID: "S", Vertex: 0, Measure: 0, X: 0, Y: 0},
		models.StationPoint{RouteID: "S", Vertex: 1, Measure: 0.1, X: 0, Y: 100},
	)
	require.NoError(t, client.WriteStationPoints(ctx, "stations", models.Meter, points,
		map[string]float64{"R": 0, "S": 0}))

	xs := func(seq int, reach string, x float64) models.CrossSectionRecord {
		return models.CrossSectionRecord{
			Seq:       seq,
			ReachName: reach,
			Geometry:  orb.LineString{{x, -50}, {x, 50}},
		}
	}
	second := xs(2, "lower", 200)
	second.Loop = models.IntPtr(1)
	second.Bend = models.IntPtr(1)
	require.NoError(t, client.WriteCrossSections(ctx, "xs", models.Meter, []models.CrossSectionRecord{
		xs(3, "upper", 300), xs(1, "upper", 100), second,
	}))
}

// serveApiAndRetrieveEndpoint runs endpoint through the full middleware
// chain and decodes the JSON body.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	resp, body := serveAndDecode(t, api, endpoint)
	var model models.ResponseModel
	require.NoError(t, json.Unmarshal(body, &model))
	return resp, model
}

func serveAndDecode(t *testing.T, api *RestAPI, endpoint string) (*http.Response, []byte) {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.Close(slog.Default(), resp.Body, endpoint)

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, body.Bytes()
}

func fieldErrors(t *testing.T, body []byte) map[string][]string {
	t.Helper()
	var parsed struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	return parsed.FieldErrors
}

func listOf(t *testing.T, model models.ResponseModel) ([]interface{}, map[string]interface{}) {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok)
	list, ok := data["list"].([]interface{})
	require.True(t, ok)
	return list, data
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok)
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok)
	return entry
}
