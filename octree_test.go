package orrery

import (
	"math"
	"testing"
)

func twoBodySystem() []Body {
	sun := NewStar("Sun", SolarMass, SolarRadius)
	sun.ID = 0
	earth := NewPlanet("Earth", EarthMass, EarthRadius, AU, math.Sqrt(G*SolarMass/AU))
	earth.ID = 1
	return []Body{sun, earth}
}

func TestOctreeMatchesDirectForTwoBodies(t *testing.T) {
	cfg := DefaultForceConfig()

	direct := twoBodySystem()
	ComputeAccelerationsDirect(direct, cfg)

	tree := twoBodySystem()
	ComputeAccelerationsBarnesHut(tree, cfg)

	for i := range direct {
		d := direct[i].Acceleration
		bh := tree[i].Acceleration
		if math.Abs(d.Length()-bh.Length()) > 1e-6*math.Max(d.Length(), 1) {
			t.Fatalf("body %d: direct accel %+v vs barnes-hut %+v diverge", i, d, bh)
		}
	}
}

func TestOctreeManyBodiesBoundedError(t *testing.T) {
	rng := NewPcg32(7, 1)
	bodies := make([]Body, 0, 50)
	sun := NewStar("Sun", SolarMass, SolarRadius)
	sun.ID = 0
	bodies = append(bodies, sun)

	for i := 1; i < 50; i++ {
		dist := AU * (0.5 + rng.NextF64()*4)
		speed := math.Sqrt(G*SolarMass/dist) * (0.9 + rng.NextF64()*0.2)
		angle := rng.NextF64() * 2 * math.Pi
		pos := Vec3{dist * math.Cos(angle), dist * math.Sin(angle), 0}
		vel := Vec3{-speed * math.Sin(angle), speed * math.Cos(angle), 0}
		b := NewBody("asteroid", BodyAsteroid, 1e15, 100, pos, vel)
		b.ID = uint32(i)
		bodies = append(bodies, b)
	}

	direct := make([]Body, len(bodies))
	copy(direct, bodies)
	ComputeAccelerationsDirect(direct, DefaultForceConfig())

	tree := make([]Body, len(bodies))
	copy(tree, bodies)
	cfg := DefaultForceConfig()
	cfg.BarnesHutTheta = 0.5
	ComputeAccelerationsBarnesHut(tree, cfg)

	var maxRelErr float64
	for i := range direct {
		d := direct[i].Acceleration.Length()
		bh := tree[i].Acceleration.Length()
		if d <= 0 {
			continue
		}
		relErr := math.Abs(d-bh) / d
		if relErr > maxRelErr {
			maxRelErr = relErr
		}
	}
	if maxRelErr > 0.05 {
		t.Fatalf("barnes-hut relative error too high: %v", maxRelErr)
	}
}

func TestOctreeEmptyBuild(t *testing.T) {
	tree := NewOctree()
	tree.Build(nil)
	acc := tree.AccelerationAt(Vec3{1, 1, 1}, 0.5, 1)
	if acc != Zero3 {
		t.Fatalf("expected zero acceleration from empty tree, got %+v", acc)
	}
}

func TestOctreeIgnoresTestMasses(t *testing.T) {
	sun := NewStar("Sun", SolarMass, SolarRadius)
	sun.ID = 0
	probe := NewBody("probe", BodyTestParticle, 0, 1, Vec3{AU, 0, 0}, Zero3)
	probe.ID = 1

	bodies := []Body{sun, probe}
	tree := NewOctree()
	tree.Build(bodies)

	if tree.root.bodyCount != 1 {
		t.Fatalf("expected only the massive body to be inserted, got count %d", tree.root.bodyCount)
	}
}
