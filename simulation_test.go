package orrery

import (
	"math"
	"testing"
)

func TestSimulationAddBodyAssignsIDs(t *testing.T) {
	sim := NewSimulation(1)
	sunID := sim.AddStar("Sun", SolarMass, SolarRadius)
	earthID := sim.AddPlanet("Earth", EarthMass, EarthRadius, AU, 29784)

	if sunID != 0 || earthID != 1 {
		t.Fatalf("expected sequential ids 0,1, got %d,%d", sunID, earthID)
	}
	if sim.BodyCount() != 2 {
		t.Fatalf("expected 2 active bodies, got %d", sim.BodyCount())
	}
}

func TestSimulationAddMoonResolvesParent(t *testing.T) {
	sim := NewSimulation(1)
	earthID := sim.AddPlanet("Earth", EarthMass, EarthRadius, AU, 29784)
	moonID, ok := sim.AddMoon("Moon", MoonMass, MoonRadius, earthID, 3.844e8, 1022)
	if !ok {
		t.Fatalf("expected moon add to succeed")
	}
	moon := sim.GetBody(moonID)
	if moon == nil || moon.ParentID == nil || *moon.ParentID != earthID {
		t.Fatalf("expected moon parent to be earth, got %+v", moon)
	}
}

func TestSimulationAddMoonFailsForUnknownParent(t *testing.T) {
	sim := NewSimulation(1)
	if _, ok := sim.AddMoon("Moon", MoonMass, MoonRadius, 999, 1e8, 1000); ok {
		t.Fatalf("expected moon add to fail for unknown parent")
	}
}

func TestSimulationFinalizeDerivedFillsPlanetFields(t *testing.T) {
	sim := NewSimulation(1)
	sim.AddStar("Sun", SolarMass, SolarRadius)
	earthID := sim.AddPlanet("Earth", EarthMass, EarthRadius, AU, 29784)
	sim.FinalizeDerived()

	earth := sim.GetBody(earthID)
	if earth.EquilibriumTemp <= 0 {
		t.Fatalf("expected equilibrium temperature to be derived, got %v", earth.EquilibriumTemp)
	}
}

func TestSimulationStepAdvancesTimeAndTick(t *testing.T) {
	sim := NewSimulation(1)
	sim.AddStar("Sun", SolarMass, SolarRadius)
	sim.AddPlanet("Earth", EarthMass, EarthRadius, AU, math.Sqrt(G*SolarMass/AU))

	sim.SetDt(60)
	sim.Step()

	if sim.Tick() != 1 {
		t.Fatalf("expected tick 1, got %d", sim.Tick())
	}
	if sim.Time() != 60 {
		t.Fatalf("expected time 60, got %v", sim.Time())
	}
}

func TestSimulationSnapshotRestoreRoundTrip(t *testing.T) {
	sim := NewSimulation(7)
	sim.AddStar("Sun", SolarMass, SolarRadius)
	sim.AddPlanet("Earth", EarthMass, EarthRadius, AU, math.Sqrt(G*SolarMass/AU))
	sim.SetDt(3600)
	sim.StepN(10)

	data, err := sim.ToJSON()
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}

	restored, err := SimulationFromJSON(data)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if restored.Tick() != sim.Tick() || restored.Time() != sim.Time() {
		t.Fatalf("tick/time mismatch after restore: got tick=%d time=%v, want tick=%d time=%v",
			restored.Tick(), restored.Time(), sim.Tick(), sim.Time())
	}
	if restored.BodyCount() != sim.BodyCount() {
		t.Fatalf("body count mismatch after restore")
	}
}

func TestSimulationCollisionMergesReduceBodyCount(t *testing.T) {
	sim := NewSimulation(1)
	sim.AddBody(NewBody("A", BodyAsteroid, 1e15, 1000, Vec3{0, 0, 0}, Zero3))
	sim.AddBody(NewBody("B", BodyAsteroid, 1e15, 1000, Vec3{500, 0, 0}, Zero3))

	for i := range sim.bodies {
		sim.bodies[i].CollisionRadius = 1000
	}

	sim.SetDt(1)
	sim.Step()

	if sim.BodyCount() != 1 {
		t.Fatalf("expected overlapping bodies to merge down to 1, got %d", sim.BodyCount())
	}
}

func TestSimulationFlatAccessorsMatchBodyCount(t *testing.T) {
	sim := NewSimulation(1)
	sim.AddStar("Sun", SolarMass, SolarRadius)
	sim.AddPlanet("Earth", EarthMass, EarthRadius, AU, math.Sqrt(G*SolarMass/AU))
	sim.AddBody(NewBody("Probe", BodyTestParticle, 0, 1, Vec3{2 * AU, 0, 0}, Zero3))

	positions := sim.PositionsFlat()
	velocities := sim.VelocitiesFlat()

	if len(positions) != 3*sim.BodyCount() || len(velocities) != 3*sim.BodyCount() {
		t.Fatalf("expected flat accessors sized 3*BodyCount, got pos=%d vel=%d bodies=%d",
			len(positions), len(velocities), sim.BodyCount())
	}
	if sim.MassiveBodyCount() != sim.BodyCount()-1 {
		t.Fatalf("expected test-particle probe excluded from massive count, got %d (total %d)",
			sim.MassiveBodyCount(), sim.BodyCount())
	}
}

func TestSimulationAutoSwitchesToBarnesHut(t *testing.T) {
	sim := NewSimulation(1)
	cfg := sim.Config()
	cfg.BarnesHutThreshold = 2
	sim.SetConfig(cfg)

	sim.AddStar("Sun", SolarMass, SolarRadius)
	sim.AddPlanet("Earth", EarthMass, EarthRadius, AU, 29784)
	sim.AddPlanet("Mars", 6.39e23, 3.39e6, 1.5*AU, 24000)

	if sim.resolveForceMethod() != ForceBarnesHut {
		t.Fatalf("expected auto-switch to Barnes-Hut above threshold")
	}
}
