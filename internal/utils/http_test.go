package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestPathID(t *testing.T) {
	testCases := []struct {
		name    string
		path    string
		want    string
		wantErr string
	}{
		{name: "plain dataset", path: "flowline_points", want: "flowline_points"},
		{name: "json suffix", path: "xs.json", want: "xs"},
		{name: "geojson suffix", path: "flowline.geojson", want: "flowline"},
		{name: "only one suffix dropped", path: "reach.json.json", want: "reach.json"},
		{name: "dotted name", path: "reach.2024.json", want: "reach.2024"},
		{name: "suffix only", path: ".json", wantErr: "id cannot be empty"},
		{name: "bad characters", path: "xs;drop", wantErr: "id contains invalid characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := httprouter.New()

			var got string
			var err error
			router.HandlerFunc(http.MethodGet, "/api/datasets/:name", func(w http.ResponseWriter, r *http.Request) {
				got, err = PathID(r, "name")
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/datasets/"+tc.path, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
