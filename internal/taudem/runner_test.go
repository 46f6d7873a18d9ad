package taudem

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fgtools.fluvialgeomorph.org/internal/logging"
	"fgtools.fluvialgeomorph.org/internal/models"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	failOn string
	output string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.failOn != "" && len(args) > 2 && args[2] == f.failOn {
		return []byte(f.output), errors.New("exit status 1")
	}
	return []byte(f.output), nil
}

func testContext(buf *bytes.Buffer) context.Context {
	return logging.WithLogger(context.Background(), logging.NewStructuredLogger(buf, slog.LevelDebug))
}

func TestContributingAreaRunsStagesInOrder(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeRunner{output: "ok"}
	r := NewRunner("", "", 4)
	r.Commands = fake

	out, err := r.ContributingArea(testContext(&buf), "/data/dem.tif", "/scratch")
	require.NoError(t, err)
	assert.Equal(t, "/scratch/sca.tif", out.ContributingArea)
	assert.Equal(t, "/scratch/ad8.asc", out.FlowAccumGrid)

	require.Len(t, fake.calls, 6)
	assert.Equal(t, "mpiexec", fake.calls[0].name)
	assert.Equal(t, []string{"-n", "4", "pitremove", "-z", "/data/dem.tif", "-fel", "/scratch/fel.tif"}, fake.calls[0].args)
	assert.Equal(t, []string{"-n", "4", "D8FlowDir", "-fel", "/scratch/fel.tif", "-p", "/scratch/p.tif", "-sd8", "/scratch/sd8.tif"}, fake.calls[1].args)
	assert.Equal(t, []string{"-n", "4", "AreaD8", "-p", "/scratch/p.tif", "-ad8", "/scratch/ad8.tif", "-nc"}, fake.calls[2].args)
	assert.Equal(t, call{name: "gdal_translate", args: []string{"-of", "AAIGrid", "/scratch/ad8.tif", "/scratch/ad8.asc"}}, fake.calls[3])
	assert.Equal(t, "DinfFlowDir", fake.calls[4].args[2])
	assert.Equal(t, []string{"-n", "4", "AreaDinf", "-ang", "/scratch/ang.tif", "-sca", "/scratch/sca.tif", "-nc"}, fake.calls[5].args)
}

func TestFailureSurfacesToolOutput(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeRunner{failOn: "D8FlowDir", output: "ERROR: could not open fel.tif"}
	r := NewRunner("/opt/mpi/bin/mpiexec", "", 0)
	r.Commands = fake

	_, err := r.ContributingArea(testContext(&buf), "dem.tif", "out")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrExternalToolFailure))
	assert.Contains(t, err.Error(), "ERROR: could not open fel.tif")
	assert.Len(t, fake.calls, 2, "later stages do not run")
	assert.Equal(t, "1", fake.calls[0].args[1])
	assert.Contains(t, buf.String(), "external tool failed")
}

func TestThreshold(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeRunner{}
	r := NewRunner("", "", 2)
	r.Commands = fake

	require.NoError(t, r.Threshold(testContext(&buf), "sca.tif", "src.tif", 5000))
	assert.Equal(t, "-thresh 5000", strings.Join(fake.calls[0].args[7:], " "))

	err := r.Threshold(testContext(&buf), "sca.tif", "src.tif", 0)
	assert.True(t, errors.Is(err, models.ErrInvalidParameter))
}

func TestStreamNetworkConvertsToASCII(t *testing.T) {
	var buf bytes.Buffer
	fake := &fakeRunner{}
	r := NewRunner("", "/usr/bin/gdal_translate", 2)
	r.Commands = fake

	out, err := r.StreamNetwork(testContext(&buf), "/h/sca.tif", "/h", 100)
	require.NoError(t, err)
	assert.Equal(t, StreamOutputs{Streams: "/h/src.tif", StreamsGrid: "/h/src.asc"}, out)
	require.Len(t, fake.calls, 2)
	assert.Equal(t, "/usr/bin/gdal_translate", fake.calls[1].name)
	assert.Equal(t, []string{"-of", "AAIGrid", "/h/src.tif", "/h/src.asc"}, fake.calls[1].args)
}
