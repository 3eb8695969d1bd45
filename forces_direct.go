package orrery

import "math"

// ForceConfig tunes the gravity kernels: global softening fallback and the
// Barnes-Hut opening angle (unused by the direct kernel, but carried
// together since both are part of the serialized force configuration).
type ForceConfig struct {
	Softening       float64
	BarnesHutTheta  float64
}

// DefaultForceConfig returns the default force configuration.
func DefaultForceConfig() ForceConfig {
	return ForceConfig{
		Softening:      DefaultSoftening,
		BarnesHutTheta: DefaultBarnesHutTheta,
	}
}

// AccelerationFunc is the common signature of the direct and Barnes-Hut
// kernels, letting Simulation select between them by body count.
type AccelerationFunc func(bodies []Body, cfg ForceConfig)

// gravitationalAcceleration returns the softened Newtonian acceleration on
// a sink at posI due to a source of mass massJ at posJ:
// a = G*m_j*(x_j-x_i) / (|x_j-x_i|^2 + eps^2)^(3/2).
func gravitationalAcceleration(posI, posJ Vec3, massJ, softeningSquared float64) Vec3 {
	if massJ <= 0 {
		return Zero3
	}
	r := posJ.Sub(posI)
	rSquared := r.LengthSquared()
	denom := pow15(rSquared + softeningSquared)
	if denom <= 0 {
		return Zero3
	}
	return r.Scale(G * massJ / denom)
}

// pow15 returns x^1.5, matching the source's "(r^2+eps^2)^(3/2)" shape.
func pow15(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x * math.Sqrt(x)
}

// ComputeAccelerationsDirect computes gravitational acceleration for every
// feels_gravity body against every contributes_gravity source, O(N^2).
// Bodies are visited in slice (insertion) order on both axes, giving stable
// floating-point summation order and therefore identical bits across runs.
func ComputeAccelerationsDirect(bodies []Body, cfg ForceConfig) {
	n := len(bodies)
	for i := range bodies {
		bodies[i].Acceleration = Zero3
	}

	for i := 0; i < n; i++ {
		if !bodies[i].IsActive || !bodies[i].FeelsGravity {
			continue
		}
		acc := Zero3
		for j := 0; j < n; j++ {
			if i == j || !bodies[j].IsActive || !bodies[j].ContributesGravity {
				continue
			}
			eps := bodies[i].EffectiveSoftening(cfg.Softening)
			if other := bodies[j].EffectiveSoftening(cfg.Softening); other > eps {
				eps = other
			}
			acc = acc.Add(gravitationalAcceleration(bodies[i].Position, bodies[j].Position, bodies[j].Mass, eps*eps))
		}
		bodies[i].Acceleration = acc
	}
}

// ComputePotentialEnergy returns U = -G*sum(i<j) m_i*m_j/r_ij over active
// contributes_gravity bodies.
func ComputePotentialEnergy(bodies []Body, softening float64) float64 {
	softeningSquared := softening * softening
	energy := 0.0
	n := len(bodies)
	for i := 0; i < n; i++ {
		if !bodies[i].IsActive || !bodies[i].ContributesGravity {
			continue
		}
		for j := i + 1; j < n; j++ {
			if !bodies[j].IsActive || !bodies[j].ContributesGravity {
				continue
			}
			rSquared := bodies[i].Position.DistanceSquared(bodies[j].Position)
			r := math.Sqrt(rSquared + softeningSquared)
			if r > 0 {
				energy -= G * bodies[i].Mass * bodies[j].Mass / r
			}
		}
	}
	return energy
}

// ComputeKineticEnergy returns T = sum 0.5*m*v^2 over active
// contributes_gravity bodies.
func ComputeKineticEnergy(bodies []Body) float64 {
	energy := 0.0
	for i := range bodies {
		b := &bodies[i]
		if b.IsActive && b.ContributesGravity {
			energy += 0.5 * b.Mass * b.Velocity.LengthSquared()
		}
	}
	return energy
}

// ComputeTotalEnergy returns kinetic + potential energy.
func ComputeTotalEnergy(bodies []Body, softening float64) float64 {
	return ComputeKineticEnergy(bodies) + ComputePotentialEnergy(bodies, softening)
}

// ComputeTotalMomentum returns the total linear momentum of the massive
// subsystem.
func ComputeTotalMomentum(bodies []Body) Vec3 {
	p := Zero3
	for i := range bodies {
		b := &bodies[i]
		if b.IsActive && b.ContributesGravity {
			p = p.Add(b.Velocity.Scale(b.Mass))
		}
	}
	return p
}

// ComputeCenterOfMass returns the mass-weighted centroid of the massive
// subsystem.
func ComputeCenterOfMass(bodies []Body) Vec3 {
	totalMass := 0.0
	weighted := Zero3
	for i := range bodies {
		b := &bodies[i]
		if b.IsActive && b.ContributesGravity {
			totalMass += b.Mass
			weighted = weighted.Add(b.Position.Scale(b.Mass))
		}
	}
	if totalMass > 0 {
		return weighted.Div(totalMass)
	}
	return Zero3
}

// ComputeAngularMomentum returns the total angular momentum of the massive
// subsystem about center.
func ComputeAngularMomentum(bodies []Body, center Vec3) Vec3 {
	l := Zero3
	for i := range bodies {
		b := &bodies[i]
		if b.IsActive && b.ContributesGravity {
			r := b.Position.Sub(center)
			p := b.Velocity.Scale(b.Mass)
			l = l.Add(r.Cross(p))
		}
	}
	return l
}
