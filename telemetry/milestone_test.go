package telemetry

import "testing"

func findMilestone(ms []Milestone, typ MilestoneType) *Milestone {
	for i := range ms {
		if ms[i].Type == typ {
			return &ms[i]
		}
	}
	return nil
}

func TestMilestoneDetector_FirstDeathOnce(t *testing.T) {
	md := NewMilestoneDetector(10, 0.25, 0.5)

	if m := findMilestone(md.Check(WindowStats{WindowEndTick: 10, Created: 10, Alive: 10}), MilestoneFirstDeath); m != nil {
		t.Fatal("first_death without deaths")
	}
	m := findMilestone(md.Check(WindowStats{WindowEndTick: 20, Created: 10, Alive: 9, Dead: 1}), MilestoneFirstDeath)
	if m == nil || m.Tick != 20 {
		t.Fatalf("expected first_death at 20, got %+v", m)
	}
	if findMilestone(md.Check(WindowStats{WindowEndTick: 30, Created: 10, Alive: 8, Dead: 2}), MilestoneFirstDeath) != nil {
		t.Error("first_death fired twice")
	}
}

func TestMilestoneDetector_EpidemicPeak(t *testing.T) {
	md := NewMilestoneDetector(10, 0.25, 0.5)

	for i, active := range []int{2, 6, 10, 9} {
		ms := md.Check(WindowStats{WindowEndTick: (i + 1) * 10, Asymptomatic: active, Created: 100, Alive: 100})
		if findMilestone(ms, MilestoneEpidemicPeak) != nil {
			t.Fatalf("peak fired early at window %d", i)
		}
	}

	ms := md.Check(WindowStats{WindowEndTick: 50, Asymptomatic: 4, Symptomatic: 3, Created: 100, Alive: 100})
	m := findMilestone(ms, MilestoneEpidemicPeak)
	if m == nil {
		t.Fatal("expected epidemic_peak after a 30% drop")
	}
	if m.Tick != 30 {
		t.Errorf("peak tick = %d, want 30", m.Tick)
	}
}

func TestMilestoneDetector_InfectionExtinction(t *testing.T) {
	md := NewMilestoneDetector(10, 0.25, 0.5)

	if findMilestone(md.Check(WindowStats{WindowEndTick: 10}), MilestoneInfectionExtinction) != nil {
		t.Fatal("extinction before any infection")
	}
	md.Check(WindowStats{WindowEndTick: 20, Symptomatic: 1, CumulativeInfected: 1})

	m := findMilestone(md.Check(WindowStats{WindowEndTick: 30, CumulativeInfected: 1}), MilestoneInfectionExtinction)
	if m == nil || m.Tick != 30 {
		t.Fatalf("expected infection_extinction at 30, got %+v", m)
	}
}

func TestMilestoneDetector_PopulationCollapse(t *testing.T) {
	md := NewMilestoneDetector(10, 0.25, 0.5)

	if findMilestone(md.Check(WindowStats{WindowEndTick: 10, Created: 10, Alive: 5}), MilestonePopulationCollapse) != nil {
		t.Fatal("collapse at exactly the threshold")
	}
	if findMilestone(md.Check(WindowStats{WindowEndTick: 20, Created: 10, Alive: 4}), MilestonePopulationCollapse) == nil {
		t.Fatal("expected population_collapse below threshold")
	}
	if findMilestone(md.Check(WindowStats{WindowEndTick: 30, Created: 10, Alive: 3}), MilestonePopulationCollapse) != nil {
		t.Error("population_collapse fired twice")
	}
}

func TestMilestoneDetector_InfectionSurge(t *testing.T) {
	md := NewMilestoneDetector(10, 0.25, 0.5)

	for i := 0; i < 5; i++ {
		md.Check(WindowStats{WindowEndTick: (i + 1) * 10, NewInfections: 2})
	}

	ms := md.Check(WindowStats{WindowEndTick: 60, NewInfections: 8})
	if findMilestone(ms, MilestoneInfectionSurge) == nil {
		t.Error("expected infection_surge at 4x the average")
	}
}
