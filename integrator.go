package orrery

// IntegratorType selects the per-substep update rule.
type IntegratorType int

const (
	// IntegratorVelocityVerlet is the default symplectic, 2nd-order method:
	// best long-term energy conservation for orbital mechanics.
	IntegratorVelocityVerlet IntegratorType = iota
	// IntegratorEuler is 1st order with poor energy conservation; kept for
	// comparison and testing only.
	IntegratorEuler
	// IntegratorLeapfrog is equivalent to Velocity-Verlet in a
	// kick-drift-kick formulation, velocities offset by a half step.
	IntegratorLeapfrog
)

// IntegratorConfig configures the main per-tick integration loop.
type IntegratorConfig struct {
	// Dt is the tick's time step in seconds.
	Dt float64
	// Substeps divides Dt into equal sub-intervals, each independently
	// integrated.
	Substeps uint32
	// Method selects the update rule.
	Method IntegratorType
	// ForceConfig parameterizes whichever acceleration kernel is supplied
	// to Step.
	ForceConfig ForceConfig
}

// DefaultIntegratorConfig returns a 60Hz Velocity-Verlet configuration with
// 4 substeps per tick.
func DefaultIntegratorConfig() IntegratorConfig {
	return IntegratorConfig{
		Dt:          1.0 / 60.0,
		Substeps:    4,
		Method:      IntegratorVelocityVerlet,
		ForceConfig: DefaultForceConfig(),
	}
}

// InitializeAccelerations must be called once before the first Step, since
// Velocity-Verlet's first substep needs body.Acceleration already populated
// from the initial configuration.
func InitializeAccelerations(bodies []Body, accel AccelerationFunc, cfg ForceConfig) {
	accel(bodies, cfg)
}

// stepVelocityVerlet advances bodies by dt using the symplectic
// Velocity-Verlet scheme:
//  1. x(t+dt) = x(t) + v(t)*dt + 0.5*a(t)*dt^2
//  2. recompute a(t+dt) from the new positions
//  3. v(t+dt) = v(t) + 0.5*(a(t)+a(t+dt))*dt
func stepVelocityVerlet(bodies []Body, dt float64, cfg ForceConfig, accel AccelerationFunc) {
	halfDtSquared := 0.5 * dt * dt
	halfDt := 0.5 * dt

	for i := range bodies {
		b := &bodies[i]
		if !b.IsActive {
			continue
		}
		b.PrevAcceleration = b.Acceleration
		b.Position = b.Position.Add(b.Velocity.Scale(dt)).Add(b.Acceleration.Scale(halfDtSquared))
	}

	accel(bodies, cfg)

	for i := range bodies {
		b := &bodies[i]
		if !b.IsActive {
			continue
		}
		b.Velocity = b.Velocity.Add(b.PrevAcceleration.Add(b.Acceleration).Scale(halfDt))
	}
}

// stepEuler advances bodies by dt using forward Euler. Diagnostic only: not
// selected by any default configuration.
func stepEuler(bodies []Body, dt float64, cfg ForceConfig, accel AccelerationFunc) {
	accel(bodies, cfg)
	for i := range bodies {
		b := &bodies[i]
		if !b.IsActive {
			continue
		}
		b.Velocity = b.Velocity.Add(b.Acceleration.Scale(dt))
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
	}
}

// stepLeapfrog advances bodies by dt using kick-drift-kick leapfrog,
// numerically equivalent to Velocity-Verlet.
func stepLeapfrog(bodies []Body, dt float64, cfg ForceConfig, accel AccelerationFunc) {
	halfDt := 0.5 * dt

	for i := range bodies {
		b := &bodies[i]
		if !b.IsActive {
			continue
		}
		b.Velocity = b.Velocity.Add(b.Acceleration.Scale(halfDt))
	}

	for i := range bodies {
		b := &bodies[i]
		if !b.IsActive {
			continue
		}
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
	}

	accel(bodies, cfg)

	for i := range bodies {
		b := &bodies[i]
		if !b.IsActive {
			continue
		}
		b.Velocity = b.Velocity.Add(b.Acceleration.Scale(halfDt))
	}
}

// Step performs one full tick of integration: config.Dt split into
// config.Substeps equal sub-steps, each integrated by the configured
// method using accel as the acceleration kernel.
func Step(bodies []Body, cfg IntegratorConfig, accel AccelerationFunc) {
	substeps := cfg.Substeps
	if substeps == 0 {
		substeps = 1
	}
	substepDt := cfg.Dt / float64(substeps)

	for s := uint32(0); s < substeps; s++ {
		switch cfg.Method {
		case IntegratorEuler:
			stepEuler(bodies, substepDt, cfg.ForceConfig, accel)
		case IntegratorLeapfrog:
			stepLeapfrog(bodies, substepDt, cfg.ForceConfig, accel)
		default:
			stepVelocityVerlet(bodies, substepDt, cfg.ForceConfig, accel)
		}
	}
}
