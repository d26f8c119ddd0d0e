package fleet

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/liftsim/core/model"
)

type stubSource struct {
	views []model.UnitView
	done  []model.CompletionRecord
}

func (s stubSource) Snapshot() []model.UnitView                  { return s.views }
func (s stubSource) RecentCompletions() []model.CompletionRecord { return s.done }

func TestStatusHandler(t *testing.T) {
	src := stubSource{views: []model.UnitView{
		{ID: 0, Position: 3.5, Phase: model.PhaseMoving, Heading: model.HeadingUp, PendingStops: []int{5, 7}},
	}}
	srv := httptest.NewServer(NewMux(src))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/fleet/status")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []model.UnitView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 1)
	assert.Equal(t, 3.5, views[0].Position)
	assert.Equal(t, []int{5, 7}, views[0].PendingStops)
}

func TestStatusHandler_MethodNotAllowed(t *testing.T) {
	srv := httptest.NewServer(NewStatusHandler(stubSource{}))
	defer srv.Close()
	resp, err := http.Post(srv.URL, "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestKPIHandler(t *testing.T) {
	src := stubSource{done: []model.CompletionRecord{
		{Wait: 2 * time.Second},
		{Wait: 4 * time.Second},
	}}
	srv := httptest.NewServer(NewMux(src))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/fleet/kpi")
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	var kpi WaitKPI
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&kpi))
	assert.Equal(t, 2, kpi.Count)
	assert.InDelta(t, 3.0, kpi.Mean, 1e-9)
	assert.InDelta(t, 4.0, kpi.Max, 1e-9)
}

func TestComputeWaitKPI_Empty(t *testing.T) {
	assert.Equal(t, WaitKPI{}, ComputeWaitKPI(nil))
}
