package telemetry

import "log/slog"

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int `csv:"-"`
	WindowEndTick   int `csv:"window_end"`

	// Population counts at window end
	Population int `csv:"population"`
	Alive      int `csv:"alive"`
	Created    int `csv:"created"`
	Dead       int `csv:"dead"`

	// Infection state at window end
	Asymptomatic       int     `csv:"asymptomatic"`
	Symptomatic        int     `csv:"symptomatic"`
	CumulativeInfected int     `csv:"cumulative_infected"`
	AttackRate         float64 `csv:"attack_rate"`

	// Currently infected per age category at window end
	AdultInfected   int `csv:"adult_infected"`
	ElderlyInfected int `csv:"elderly_infected"`
	YouthInfected   int `csv:"youth_infected"`
	InfantInfected  int `csv:"infant_infected"`

	// Events during window
	NewInfections int `csv:"new_infections"`
	Deaths        int `csv:"deaths"`
	Arrivals      int `csv:"arrivals"`

	// Movement attempts during window
	MovesAccepted  int     `csv:"moves_accepted"`
	MovesRejected  int     `csv:"moves_rejected"`
	MovesBlocked   int     `csv:"moves_blocked"`
	MovesSkipped   int     `csv:"moves_skipped"`
	MoveAcceptRate float64 `csv:"move_accept_rate"`
	MeanResamples  float64 `csv:"mean_resamples"`
}

// ActiveInfections returns asymptomatic plus symptomatic agents.
func (s WindowStats) ActiveInfections() int {
	return s.Asymptomatic + s.Symptomatic
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStartTick),
		slog.Int("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Int("alive", s.Alive),
		slog.Int("created", s.Created),
		slog.Int("dead", s.Dead),
		slog.Int("asymptomatic", s.Asymptomatic),
		slog.Int("symptomatic", s.Symptomatic),
		slog.Int("cumulative_infected", s.CumulativeInfected),
		slog.Float64("attack_rate", s.AttackRate),
		slog.Int("new_infections", s.NewInfections),
		slog.Int("deaths", s.Deaths),
		slog.Int("arrivals", s.Arrivals),
		slog.Int("moves_accepted", s.MovesAccepted),
		slog.Int("moves_rejected", s.MovesRejected),
		slog.Int("moves_blocked", s.MovesBlocked),
		slog.Int("moves_skipped", s.MovesSkipped),
		slog.Float64("move_accept_rate", s.MoveAcceptRate),
		slog.Float64("mean_resamples", s.MeanResamples),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"alive", s.Alive,
		"dead", s.Dead,
		"asymptomatic", s.Asymptomatic,
		"symptomatic", s.Symptomatic,
		"cumulative_infected", s.CumulativeInfected,
		"attack_rate", s.AttackRate,
		"adult_infected", s.AdultInfected,
		"elderly_infected", s.ElderlyInfected,
		"youth_infected", s.YouthInfected,
		"infant_infected", s.InfantInfected,
		"new_infections", s.NewInfections,
		"deaths", s.Deaths,
		"arrivals", s.Arrivals,
		"moves_accepted", s.MovesAccepted,
		"moves_blocked", s.MovesBlocked,
	)
}
