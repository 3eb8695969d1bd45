package orrery

import "math"

// limbDarkeningPoint is one (Teff, u, v) sample of the quadratic
// limb-darkening lookup table, interpolated linearly by effective
// temperature.
type limbDarkeningPoint struct {
	teff float64
	u, v float64
}

// limbDarkeningTable is a coarse Teff -> (u,v) lookup spanning M through O
// stars, grounded on the piecewise table in star.rs.
var limbDarkeningTable = []limbDarkeningPoint{
	{2400, 0.93, 0.12},
	{3700, 0.85, 0.18},
	{5200, 0.70, 0.24},
	{5772, 0.64, 0.26}, // Sun
	{6000, 0.60, 0.27},
	{7500, 0.48, 0.30},
	{10000, 0.35, 0.28},
	{30000, 0.20, 0.20},
}

func lookupLimbDarkening(teff float64) (u, v float64) {
	tbl := limbDarkeningTable
	if teff <= tbl[0].teff {
		return tbl[0].u, tbl[0].v
	}
	if teff >= tbl[len(tbl)-1].teff {
		last := tbl[len(tbl)-1]
		return last.u, last.v
	}
	for i := 1; i < len(tbl); i++ {
		if teff <= tbl[i].teff {
			lo, hi := tbl[i-1], tbl[i]
			frac := (teff - lo.teff) / (hi.teff - lo.teff)
			return lo.u + frac*(hi.u-lo.u), lo.v + frac*(hi.v-lo.v)
		}
	}
	last := tbl[len(tbl)-1]
	return last.u, last.v
}

// massLuminosity applies the piecewise main-sequence mass-luminosity
// relation (solar units in, solar units out).
func massLuminosity(massSolar float64) float64 {
	switch {
	case massSolar < 0.43:
		return 0.23 * math.Pow(massSolar, 2.3)
	case massSolar < 2:
		return math.Pow(massSolar, 4)
	case massSolar < 20:
		return 1.4 * math.Pow(massSolar, 3.5)
	default:
		return 32000 * massSolar
	}
}

// massRadius applies the piecewise main-sequence mass-radius relation
// (solar units in, solar units out).
func massRadius(massSolar float64) float64 {
	if massSolar < 1 {
		return math.Pow(massSolar, 0.8)
	}
	return math.Pow(massSolar, 0.57)
}

// spectralTypeFor classifies a star by effective temperature into the
// standard OBAFGKM sequence (cool brown-dwarf-like remainders fall to "M").
func spectralTypeFor(teff float64) string {
	switch {
	case teff >= 30000:
		return "O"
	case teff >= 10000:
		return "B"
	case teff >= 7500:
		return "A"
	case teff >= 6000:
		return "F"
	case teff >= 5200:
		return "G"
	case teff >= 3700:
		return "K"
	default:
		return "M"
	}
}

// deriveStar fills star-specific fields from mass and radius when they are
// still at their zero default, leaving any already-set field untouched.
func deriveStar(b *Body) {
	massSolar := b.Mass / SolarMass

	if b.Luminosity == 0 {
		b.Luminosity = massLuminosity(massSolar) * SolarLuminosity
	}

	if b.Radius == 0 {
		b.Radius = massRadius(massSolar) * SolarRadius
	}

	if b.EffectiveTemp == 0 && b.Radius > 0 {
		denom := 4 * math.Pi * b.Radius * b.Radius * StefanBoltzmann
		if denom > 0 {
			b.EffectiveTemp = math.Pow(b.Luminosity/denom, 0.25)
		}
	}

	if b.SpectralType == "" && b.EffectiveTemp > 0 {
		b.SpectralType = spectralTypeFor(b.EffectiveTemp)
	}

	if b.LimbDarkeningU == 0 && b.LimbDarkeningV == 0 && b.EffectiveTemp > 0 {
		b.LimbDarkeningU, b.LimbDarkeningV = lookupLimbDarkening(b.EffectiveTemp)
	}

	if b.MainSequenceLife == 0 && b.Luminosity > 0 {
		const secondsPerGyr = 1e9 * 365.25 * 86400
		b.MainSequenceLife = 10 * secondsPerGyr * massSolar / (b.Luminosity / SolarLuminosity)
	}

	if b.MassLossRate == 0 {
		// Rough solar-wind-scale estimate: stronger for hotter, more
		// luminous stars.
		b.MassLossRate = 2e-14 * (b.Luminosity / SolarLuminosity) * SolarMass / 365.25 / 86400
	}

	if b.FlareRate == 0 && b.EffectiveTemp > 0 {
		// Cooler stars flare more often per unit time (M-dwarf activity).
		b.FlareRate = 50.0 / math.Max(b.EffectiveTemp/1000, 1)
	}

	if b.SpotFraction == 0 && b.EffectiveTemp > 0 {
		b.SpotFraction = math.Min(0.3, 2000.0/b.EffectiveTemp*0.02)
	}
}
