package orrery

import (
	"math"
	"testing"
)

func TestHillRadiusEstimate(t *testing.T) {
	r := hillRadiusEstimate(EarthMass, SolarMass, AU)
	if r <= 0 || r >= AU {
		t.Fatalf("expected a Hill radius well inside 1 AU, got %v", r)
	}
}

func TestDetectCloseEncounterSubsetDisabledByDefault(t *testing.T) {
	bodies := circularTwoBody()
	cfg := DefaultCloseEncounterConfig()
	subset, _ := detectCloseEncounterSubset(bodies, cfg, 60)
	if len(subset) != 0 {
		t.Fatalf("expected empty subset when disabled, got %v", subset)
	}
}

func TestDetectCloseEncounterSubsetTripsOnTightApproach(t *testing.T) {
	// Two equal masses on a near-collision course: tiny separation gives a
	// huge acceleration, well above any reasonable threshold.
	a := NewBody("A", BodyAsteroid, 1e20, 1000, Vec3{0, 0, 0}, Vec3{1, 0, 0})
	a.ID = 0
	b := NewBody("B", BodyAsteroid, 1e20, 1000, Vec3{1e4, 0, 0}, Vec3{-1, 0, 0})
	b.ID = 1
	bodies := []Body{a, b}

	ComputeAccelerationsDirect(bodies, DefaultForceConfig())
	for i := range bodies {
		bodies[i].PrevAcceleration = bodies[i].Acceleration
	}
	ComputeAccelerationsDirect(bodies, DefaultForceConfig())

	cfg := DefaultCloseEncounterConfig()
	cfg.Enabled = true
	cfg.Integrator = CloseEncounterRK45
	cfg.HillFactor = 1e6 // generous so the distance gate passes

	subset, reason := detectCloseEncounterSubset(bodies, cfg, 1)
	if len(subset) != 2 {
		t.Fatalf("expected both bodies in the subset, got %v (reason=%q)", subset, reason)
	}
}

func TestTrialIntegrateSubsetGaussRadauConverges(t *testing.T) {
	sun := NewStar("Sun", SolarMass, SolarRadius)
	sun.ID = 0
	v := math.Sqrt(G * SolarMass / AU)
	earth := NewPlanet("Earth", EarthMass, EarthRadius, AU, v)
	earth.ID = 1
	bodies := []Body{sun, earth}

	ComputeAccelerationsDirect(bodies, DefaultForceConfig())

	prePos := []Vec3{bodies[0].Position, bodies[1].Position}
	preVel := []Vec3{bodies[0].Velocity, bodies[1].Velocity}
	postPos := prePos
	postVel := preVel

	cfg := DefaultCloseEncounterConfig()
	subset := []int{0, 1}

	result := trialIntegrateSubsetGaussRadau(bodies, subset, 60, prePos, preVel, postPos, postVel, DefaultForceConfig(), cfg)
	if !result.accepted {
		t.Fatalf("expected gauss-radau trial to converge, got reason=%q", result.reason)
	}
	if len(result.positions) != 2 || len(result.velocities) != 2 {
		t.Fatalf("expected 2 resulting positions/velocities, got %d/%d", len(result.positions), len(result.velocities))
	}
}

func TestCloseEncounterSwitcherEventLogCapped(t *testing.T) {
	switcher := NewCloseEncounterSwitcher()
	for i := 0; i < 300; i++ {
		switcher.logEvent(CloseEncounterRK45, []uint32{1, 2}, float64(i), 60, "enter", 0.1, 3)
	}
	if len(switcher.Events()) != closeEncounterEventCap {
		t.Fatalf("expected event log capped at %d, got %d", closeEncounterEventCap, len(switcher.Events()))
	}
}

func TestStepWithCloseEncounterDisabledMatchesBaseline(t *testing.T) {
	a := circularTwoBody()
	b := circularTwoBody()

	cfg := DefaultIntegratorConfig()
	ceCfg := DefaultCloseEncounterConfig()

	InitializeAccelerations(a, ComputeAccelerationsDirect, cfg.ForceConfig)
	InitializeAccelerations(b, ComputeAccelerationsDirect, cfg.ForceConfig)

	switcher := NewCloseEncounterSwitcher()
	StepWithCloseEncounter(a, cfg, ceCfg, ComputeAccelerationsDirect, switcher, 0)
	Step(b, cfg, ComputeAccelerationsDirect)

	for i := range a {
		if a[i].Position != b[i].Position {
			t.Fatalf("disabled close-encounter switcher should match baseline step exactly, body %d diverged", i)
		}
	}
}
