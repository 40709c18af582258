package components

import "fmt"

// HealthState is the disease phase of an agent.
type HealthState uint8

const (
	Healthy HealthState = iota
	Asymptomatic
	Symptomatic
	Dead
)

// String returns the lowercase label for a HealthState.
func (s HealthState) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Asymptomatic:
		return "asymptomatic"
	case Symptomatic:
		return "symptomatic"
	case Dead:
		return "dead"
	}
	return fmt.Sprintf("HealthState(%d)", uint8(s))
}

// MarshalText encodes the state by label for JSON and YAML output.
func (s HealthState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a label produced by MarshalText.
func (s *HealthState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "healthy":
		*s = Healthy
	case "asymptomatic":
		*s = Asymptomatic
	case "symptomatic":
		*s = Symptomatic
	case "dead":
		*s = Dead
	default:
		return fmt.Errorf("unknown health state %q", string(b))
	}
	return nil
}

// Health pairs a state with the days spent infected.
// The day counter only exists while the agent is infectious.
type Health struct {
	state HealthState
	days  int
}

// State returns the current phase.
func (h Health) State() HealthState {
	return h.state
}

// Days returns the days since infection and whether the counter is meaningful.
func (h Health) Days() (int, bool) {
	if h.state == Asymptomatic || h.state == Symptomatic {
		return h.days, true
	}
	return 0, false
}

func infected() Health {
	return Health{state: Asymptomatic}
}
