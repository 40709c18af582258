package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/contagion/components"
)

// Series records currently-infected counts per category and in total,
// one point per tick.
type Series struct {
	Ticks      []int
	ByCategory [components.NumCategories][]float64
	Total      []float64
}

// NewSeries creates a series with room for n points.
func NewSeries(n int) *Series {
	s := &Series{
		Ticks: make([]int, 0, n),
		Total: make([]float64, 0, n),
	}
	for i := range s.ByCategory {
		s.ByCategory[i] = make([]float64, 0, n)
	}
	return s
}

// Append adds the point for one tick.
func (s *Series) Append(p PopulationStats) {
	s.Ticks = append(s.Ticks, p.Tick)
	total := 0
	for i, c := range p.Categories {
		n := c.CurrentlyInfected()
		s.ByCategory[i] = append(s.ByCategory[i], float64(n))
		total += n
	}
	s.Total = append(s.Total, float64(total))
}

// Len returns the number of recorded ticks.
func (s *Series) Len() int {
	return len(s.Ticks)
}

// RunSummary condenses a run into a handful of numbers.
type RunSummary struct {
	Ticks          int     `json:"ticks"`
	Created        int     `json:"created"`
	Deaths         int     `json:"deaths"`
	AttackRate     float64 `json:"attack_rate"`
	PeakInfected   float64 `json:"peak_infected"`
	PeakTick       int     `json:"peak_tick"`
	MeanInfected   float64 `json:"mean_infected"`
	StdDevInfected float64 `json:"stddev_infected"`
	MedianInfected float64 `json:"median_infected"`
}

// Summarize computes the run summary from the series and the final counters.
func Summarize(s *Series, final PopulationStats) RunSummary {
	totals := final.Totals()
	sum := RunSummary{
		Ticks:      final.Tick,
		Created:    totals.TotalCreated,
		Deaths:     totals.Dead,
		AttackRate: final.AttackRate(),
	}
	if s == nil || s.Len() == 0 {
		return sum
	}

	idx := floats.MaxIdx(s.Total)
	sum.PeakInfected = s.Total[idx]
	sum.PeakTick = s.Ticks[idx]
	sum.MeanInfected, sum.StdDevInfected = stat.MeanStdDev(s.Total, nil)
	if s.Len() < 2 {
		sum.StdDevInfected = 0
	}

	sorted := make([]float64, len(s.Total))
	copy(sorted, s.Total)
	sort.Float64s(sorted)
	sum.MedianInfected = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return sum
}

// LogValue implements slog.LogValuer for structured logging.
func (r RunSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("ticks", r.Ticks),
		slog.Int("created", r.Created),
		slog.Int("deaths", r.Deaths),
		slog.Float64("attack_rate", r.AttackRate),
		slog.Float64("peak_infected", r.PeakInfected),
		slog.Int("peak_tick", r.PeakTick),
		slog.Float64("mean_infected", r.MeanInfected),
		slog.Float64("stddev_infected", r.StdDevInfected),
		slog.Float64("median_infected", r.MedianInfected),
	)
}
