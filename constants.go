package orrery

// Physical and astronomical constants (SI units throughout).
//
// Grounded on original_source/gradual_gen/gens/gen4/rust/core/src/units.rs,
// the only corpus file carrying these as named constants; the canonical
// src/physics-core/src/constants.rs module referenced by the other
// original-source files was not part of the retrieved set.
const (
	// G is the Newtonian gravitational constant, m^3/(kg*s^2).
	G = 6.67430e-11

	// StefanBoltzmann is sigma, W/(m^2*K^4).
	StefanBoltzmann = 5.670374419e-8

	// BoltzmannConstant is k_B, J/K.
	BoltzmannConstant = 1.380649e-23

	// GasConstant is R, J/(mol*K).
	GasConstant = 8.31446

	// AU is one astronomical unit, m.
	AU = 1.496e11

	// SolarMass is M_sun, kg.
	SolarMass = 1.989e30
	// SolarRadius is R_sun, m.
	SolarRadius = 6.957e8
	// SolarLuminosity is L_sun, W.
	SolarLuminosity = 3.828e26

	// EarthMass is M_earth, kg.
	EarthMass = 5.972e24
	// EarthRadius is R_earth, m.
	EarthRadius = 6.371e6

	// MoonMass is M_moon, kg.
	MoonMass = 7.342e22
	// MoonRadius is R_moon, m.
	MoonRadius = 1.7374e6

	// DefaultSoftening is the default global gravitational softening
	// length epsilon, m.
	DefaultSoftening = 1e4

	// DefaultBarnesHutTheta is the default Barnes-Hut opening angle.
	DefaultBarnesHutTheta = 0.5

	// DefaultBarnesHutThreshold is the body count above which the
	// Simulation auto-switches to the Barnes-Hut kernel.
	DefaultBarnesHutThreshold = 10000
)
