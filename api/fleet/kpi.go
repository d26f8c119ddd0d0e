package fleet

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/liftsim/core/model"
)

// WaitKPI aggregates observed wait durations, in seconds.
type WaitKPI struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean_s"`
	StdDev float64 `json:"stddev_s"`
	P95    float64 `json:"p95_s"`
	Max    float64 `json:"max_s"`
}

// ComputeWaitKPI summarizes the wait durations of the given completions.
func ComputeWaitKPI(recs []model.CompletionRecord) WaitKPI {
	if len(recs) == 0 {
		return WaitKPI{}
	}
	waits := make([]float64, len(recs))
	for i, r := range recs {
		waits[i] = r.Wait.Seconds()
	}
	sort.Float64s(waits)
	kpi := WaitKPI{
		Count: len(waits),
		Mean:  stat.Mean(waits, nil),
		P95:   stat.Quantile(0.95, stat.Empirical, waits, nil),
		Max:   waits[len(waits)-1],
	}
	if len(waits) > 1 {
		kpi.StdDev = stat.StdDev(waits, nil)
	}
	return kpi
}
