package components

import (
	"math"
	"math/rand"
	"testing"
)

func TestCategoryForAge(t *testing.T) {
	tests := []struct {
		name string
		lo   int
		hi   int
		want AgeCategory
	}{
		{"infant", 0, 4, CategoryInfant},
		{"youth", 5, 14, CategoryYouth},
		{"adult", 15, 64, CategoryAdult},
		{"elderly", 65, 82, CategoryElderly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for age := tt.lo; age <= tt.hi; age++ {
				if got := CategoryForAge(age); got != tt.want {
					t.Errorf("CategoryForAge(%d) = %d, want %d", age, got, tt.want)
				}
			}
		})
	}
}

func TestCategoryForAge_EveryAgeMapped(t *testing.T) {
	for age := 0; age <= MaxAge; age++ {
		if c := CategoryForAge(age); !c.Valid() {
			t.Errorf("age %d mapped to invalid category %d", age, c)
		}
	}
}

func TestSusceptibility(t *testing.T) {
	if got := SusceptibilityForAge(0); got != 1.0 {
		t.Errorf("susceptibility(0) = %v, want 1.0", got)
	}
	if got := SusceptibilityForAge(82); math.Abs(got-0.000274) > 1e-6 {
		t.Errorf("susceptibility(82) = %v, want ~0.000274", got)
	}
	for age := 1; age <= MaxAge; age++ {
		if SusceptibilityForAge(age) >= SusceptibilityForAge(age-1) {
			t.Fatalf("susceptibility not strictly decreasing at age %d", age)
		}
	}
}

func TestRoll_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[float64]bool)
	for i := 0; i < 20000; i++ {
		p := Roll(rng)
		if p < 0.01 || p > 1.0 {
			t.Fatalf("roll %v outside [0.01, 1.00]", p)
		}
		seen[p] = true
	}
	if len(seen) != 100 {
		t.Errorf("expected 100 distinct values, saw %d", len(seen))
	}
}

func TestIDAllocator_Monotonic(t *testing.T) {
	var ids IDAllocator
	for want := AgentID(0); want < 10; want++ {
		if got := ids.Next(); got != want {
			t.Fatalf("Next() = %d, want %d", got, want)
		}
	}
	if ids.Issued() != 10 {
		t.Errorf("Issued() = %d, want 10", ids.Issued())
	}
}

// symptomatic returns an agent that has just become symptomatic.
func symptomatic() *Agent {
	a := NewAgent(1, 30, 0)
	a.SeedInfection()
	a.Advance(0, 100)
	return a
}

func TestExpose_NoOpWhenNotHealthy(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	asym := NewAgent(1, 0, 0)
	asym.SeedInfection()

	dead := NewAgent(2, 0, 0)
	dead.SeedInfection()
	dead.Advance(0, 0)
	dead.Advance(0, 0)
	if dead.State() != Dead {
		t.Fatalf("setup: expected dead agent, got %s", dead.State())
	}

	for _, a := range []*Agent{asym, symptomatic(), dead} {
		before := a.Health
		for i := 0; i < 100; i++ {
			if a.Expose(rng, 1.0) {
				t.Fatalf("Expose returned true for %s agent", before.State())
			}
		}
		if a.Health != before {
			t.Errorf("Expose changed %s agent health to %+v", before.State(), a.Health)
		}
	}
}

func TestExpose_EmpiricalRate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const trials = 100000
	success := 0
	for i := 0; i < trials; i++ {
		a := NewAgent(AgentID(i), 0, 0)
		if a.Expose(rng, 0.5) {
			success++
			if a.State() != Asymptomatic {
				t.Fatalf("infected agent in state %s", a.State())
			}
			if days, ok := a.Health.Days(); !ok || days != 0 {
				t.Fatalf("fresh infection days = %d,%v", days, ok)
			}
		}
	}
	rate := float64(success) / trials
	if math.Abs(rate-0.5) > 0.02 {
		t.Errorf("empirical infection rate = %v, want 0.50 +/- 0.02", rate)
	}
}

func TestAdvance_AsymptomaticTransition(t *testing.T) {
	for _, asymLen := range []int{0, 1, 3, 7} {
		a := NewAgent(1, 20, 0)
		a.SeedInfection()
		for day := 1; day <= asymLen+1; day++ {
			a.Advance(asymLen, 50)
			want := Asymptomatic
			if day > asymLen {
				want = Symptomatic
			}
			if a.State() != want {
				t.Fatalf("asymLen=%d day %d: state %s, want %s", asymLen, day, a.State(), want)
			}
		}
	}
}

func TestAdvance_Death(t *testing.T) {
	a := NewAgent(1, 20, 0)
	a.SeedInfection()

	if a.Advance(0, 0) {
		t.Fatal("agent died on first advance")
	}
	if days, ok := a.Health.Days(); !ok || days != 1 || a.State() != Symptomatic {
		t.Fatalf("after first advance: state %s days %d", a.State(), days)
	}
	if !a.Advance(0, 0) {
		t.Fatal("expected death on second advance")
	}
	if a.State() != Dead {
		t.Errorf("state = %s, want dead", a.State())
	}
	if _, ok := a.Health.Days(); ok {
		t.Error("dead agent should have no day counter")
	}
	if a.Advance(0, 0) {
		t.Error("dead agent reported death twice")
	}
}

func TestAdvance_HealthyNoOp(t *testing.T) {
	a := NewAgent(1, 20, 0)
	if a.Advance(0, 0) || a.State() != Healthy {
		t.Error("healthy agent should not progress")
	}
}

func TestSeedInfection_Overwrites(t *testing.T) {
	a := symptomatic()
	a.SeedInfection()
	if days, ok := a.Health.Days(); a.State() != Asymptomatic || !ok || days != 0 {
		t.Errorf("SeedInfection left state %s days %d", a.State(), days)
	}
}

func TestAttemptMove_SymptomaticNeverMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a := symptomatic()
	for nOrigin := 0; nOrigin < 6; nOrigin++ {
		for nDest := 0; nDest < 6; nDest++ {
			if a.AttemptMove(rng, nOrigin, nDest, 7, DefaultMobility()) {
				t.Fatalf("symptomatic agent moved (%d -> %d)", nOrigin, nDest)
			}
		}
	}
	if a.Location != 0 {
		t.Errorf("location changed to %d", a.Location)
	}
}

func TestAttemptMove_AsymptomaticCanMove(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := NewAgent(1, 30, 0)
	a.SeedInfection()
	if !a.AttemptMove(rng, 1, 1, 3, DefaultMobility()) {
		t.Fatal("move with delta 0 should always be accepted")
	}
	if a.Location != 3 {
		t.Errorf("location = %d, want 3", a.Location)
	}
}

func TestMoveProbability(t *testing.T) {
	tests := []struct {
		name   string
		origin int
		dest   int
		beta   float64
		want   float64
	}{
		{"equal", 2, 2, 1, 1},
		{"denser", 1, 4, 2, 1},
		{"sparser by one", 3, 2, 1, math.Exp(-1)},
		{"sparser by two beta 3", 4, 2, 3, math.Exp(-6)},
		{"zero beta", 5, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoveProbability(tt.origin, tt.dest, tt.beta)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("MoveProbability(%d, %d, %v) = %v, want %v", tt.origin, tt.dest, tt.beta, got, tt.want)
			}
		})
	}
}

func TestHealthState_TextRoundTrip(t *testing.T) {
	for _, s := range []HealthState{Healthy, Asymptomatic, Symptomatic, Dead} {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", s, err)
		}
		var got HealthState
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != s {
			t.Errorf("round trip %s -> %s", s, got)
		}
	}
}
