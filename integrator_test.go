package orrery

import (
	"math"
	"testing"
)

func circularTwoBody() []Body {
	sun := NewStar("Sun", SolarMass, SolarRadius)
	sun.ID = 0
	v := math.Sqrt(G * SolarMass / AU)
	earth := NewPlanet("Earth", EarthMass, EarthRadius, AU, v)
	earth.ID = 1
	return []Body{sun, earth}
}

func TestStepVelocityVerletConservesEnergy(t *testing.T) {
	bodies := circularTwoBody()
	cfg := DefaultIntegratorConfig()
	cfg.Dt = 3600 // 1 hour
	cfg.Substeps = 1

	InitializeAccelerations(bodies, ComputeAccelerationsDirect, cfg.ForceConfig)
	e0 := ComputeTotalEnergy(bodies, cfg.ForceConfig.Softening)

	for i := 0; i < 24*30; i++ { // a month of hourly ticks
		Step(bodies, cfg, ComputeAccelerationsDirect)
	}

	e1 := ComputeTotalEnergy(bodies, cfg.ForceConfig.Softening)
	relErr := math.Abs((e1 - e0) / e0)
	if relErr > 1e-4 {
		t.Fatalf("energy drifted too much: e0=%v e1=%v relErr=%v", e0, e1, relErr)
	}
}

func TestStepDeterministic(t *testing.T) {
	cfg := DefaultIntegratorConfig()
	cfg.Dt = 60
	cfg.Substeps = 2

	a := circularTwoBody()
	b := circularTwoBody()

	InitializeAccelerations(a, ComputeAccelerationsDirect, cfg.ForceConfig)
	InitializeAccelerations(b, ComputeAccelerationsDirect, cfg.ForceConfig)

	for i := 0; i < 100; i++ {
		Step(a, cfg, ComputeAccelerationsDirect)
		Step(b, cfg, ComputeAccelerationsDirect)
	}

	for i := range a {
		if a[i].Position != b[i].Position || a[i].Velocity != b[i].Velocity {
			t.Fatalf("body %d diverged between identical runs", i)
		}
	}
}

func TestStepInactiveBodyUnaffected(t *testing.T) {
	bodies := circularTwoBody()
	bodies[1].IsActive = false
	cfg := DefaultIntegratorConfig()

	InitializeAccelerations(bodies, ComputeAccelerationsDirect, cfg.ForceConfig)
	before := bodies[1].Position
	Step(bodies, cfg, ComputeAccelerationsDirect)

	if bodies[1].Position != before {
		t.Fatalf("inactive body moved: before=%+v after=%+v", before, bodies[1].Position)
	}
}

func TestStepEulerDriftsMoreThanVerlet(t *testing.T) {
	verletCfg := DefaultIntegratorConfig()
	verletCfg.Dt = 3600
	verletCfg.Substeps = 1

	eulerCfg := verletCfg
	eulerCfg.Method = IntegratorEuler

	verletBodies := circularTwoBody()
	eulerBodies := circularTwoBody()

	InitializeAccelerations(verletBodies, ComputeAccelerationsDirect, verletCfg.ForceConfig)
	InitializeAccelerations(eulerBodies, ComputeAccelerationsDirect, eulerCfg.ForceConfig)

	e0 := ComputeTotalEnergy(verletBodies, verletCfg.ForceConfig.Softening)

	for i := 0; i < 24*30; i++ {
		Step(verletBodies, verletCfg, ComputeAccelerationsDirect)
		Step(eulerBodies, eulerCfg, ComputeAccelerationsDirect)
	}

	verletErr := math.Abs((ComputeTotalEnergy(verletBodies, verletCfg.ForceConfig.Softening) - e0) / e0)
	eulerErr := math.Abs((ComputeTotalEnergy(eulerBodies, eulerCfg.ForceConfig.Softening) - e0) / e0)

	if eulerErr <= verletErr {
		t.Fatalf("expected euler energy error (%v) to exceed verlet (%v)", eulerErr, verletErr)
	}
}
