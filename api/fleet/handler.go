// Package fleet exposes read-only fleet state over HTTP: the current
// snapshot and wait-time KPIs derived from recent completions.
package fleet

import (
	"encoding/json"
	"net/http"

	"github.com/kilianp07/liftsim/core/model"
)

// StateSource is the read-only slice of the dispatcher the API consumes.
type StateSource interface {
	Snapshot() []model.UnitView
	RecentCompletions() []model.CompletionRecord
}

// NewStatusHandler returns an HTTP handler exposing the fleet snapshot
// via GET /api/fleet/status.
func NewStatusHandler(src StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(src.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewKPIHandler exposes wait-time KPIs via GET /api/fleet/kpi.
func NewKPIHandler(src StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		kpi := ComputeWaitKPI(src.RecentCompletions())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(kpi)
	})
}

// NewMux routes both handlers on one mux.
func NewMux(src StateSource) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/fleet/status", NewStatusHandler(src))
	mux.Handle("/api/fleet/kpi", NewKPIHandler(src))
	return mux
}
