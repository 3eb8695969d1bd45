package orrery

import (
	"math"

	"github.com/ready-steady/ode/dopri"
)

// CloseEncounterIntegrator selects the subset-scoped trial integrator used
// during a detected close encounter.
type CloseEncounterIntegrator int

const (
	CloseEncounterNone CloseEncounterIntegrator = iota
	CloseEncounterRK45
	CloseEncounterGaussRadau5
)

func (i CloseEncounterIntegrator) String() string {
	switch i {
	case CloseEncounterRK45:
		return "rk45"
	case CloseEncounterGaussRadau5:
		return "gauss-radau"
	default:
		return "none"
	}
}

// CloseEncounterConfig configures detection thresholds and trial integrator
// behavior for the close-encounter switcher.
type CloseEncounterConfig struct {
	Enabled            bool
	Integrator         CloseEncounterIntegrator
	HillFactor         float64
	AccelThreshold     float64
	JerkThreshold      float64
	MaxSubsetSize      int
	MaxTrialSubsteps   int
	RK45AbsTol         float64
	RK45RelTol         float64
	GaussRadauMaxIters int
	GaussRadauTol      float64
}

// DefaultCloseEncounterConfig returns the switcher disabled, with the
// thresholds and limits that apply once enabled.
func DefaultCloseEncounterConfig() CloseEncounterConfig {
	return CloseEncounterConfig{
		Enabled:            false,
		Integrator:         CloseEncounterNone,
		HillFactor:         3.0,
		AccelThreshold:     1.0,
		JerkThreshold:      0.1,
		MaxSubsetSize:      8,
		MaxTrialSubsteps:   128,
		RK45AbsTol:         1.0e-2,
		RK45RelTol:         1.0e-6,
		GaussRadauMaxIters: 6,
		GaussRadauTol:      1.0e-9,
	}
}

// CloseEncounterEvent records a switcher transition (enter, or exit — an
// exit can be caused by a rejected trial while active), for diagnostics and
// optional snapshot inclusion.
type CloseEncounterEvent struct {
	ID          uint64   `json:"id"`
	Time        float64  `json:"time"`
	Dt          float64  `json:"dt"`
	Integrator  string   `json:"integrator"`
	BodyIDs     []uint32 `json:"body_ids"`
	Reason      string   `json:"reason"`
	MaxRelError float64  `json:"max_rel_error"`
	Steps       int      `json:"steps"`
}

// hillRadiusEstimate returns distance*(m_small/(3*m_large))^(1/3), the
// mutual Hill radius used to gate close-encounter detection.
func hillRadiusEstimate(m1, m2, distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	mSmall, mLarge := m1, m2
	if mSmall > mLarge {
		mSmall, mLarge = mLarge, mSmall
	}
	if mSmall <= 0 || mLarge <= 0 {
		return 0
	}
	return distance * math.Cbrt(mSmall/(3*mLarge))
}

// detectCloseEncounterSubset scans pairs of active, massive bodies and
// returns the union of bodies that trip the distance + (accel OR jerk)
// thresholds, capped at cfg.MaxSubsetSize (scanning stops at the first pair
// that would not fit), plus a human-readable reason string naming which
// threshold the first tripping pair crossed.
func detectCloseEncounterSubset(bodies []Body, cfg CloseEncounterConfig, dt float64) ([]int, string) {
	if !cfg.Enabled || cfg.Integrator == CloseEncounterNone || dt <= 0 {
		return nil, ""
	}

	marked := make([]bool, len(bodies))
	var subset []int
	reason := ""

	for i := range bodies {
		bi := &bodies[i]
		if !bi.IsActive || bi.Mass <= 0 {
			continue
		}
		for j := i + 1; j < len(bodies); j++ {
			bj := &bodies[j]
			if !bj.IsActive || bj.Mass <= 0 {
				continue
			}

			dist := bi.Position.Distance(bj.Position)
			hill := hillRadiusEstimate(bi.Mass, bj.Mass, dist)
			if hill <= 0 || dist > cfg.HillFactor*hill {
				continue
			}

			accelI := bi.Acceleration.Length()
			accelJ := bj.Acceleration.Length()
			jerkI := bi.Acceleration.Sub(bi.PrevAcceleration).Length() / dt
			jerkJ := bj.Acceleration.Sub(bj.PrevAcceleration).Length() / dt

			accelHit := math.Max(accelI, accelJ) >= cfg.AccelThreshold
			jerkHit := math.Max(jerkI, jerkJ) >= cfg.JerkThreshold

			if accelHit || jerkHit {
				added := 0
				if !marked[i] {
					added++
				}
				if !marked[j] {
					added++
				}
				if len(subset)+added > cfg.MaxSubsetSize {
					return subset, reason
				}
				if !marked[i] {
					marked[i] = true
					subset = append(subset, i)
				}
				if !marked[j] {
					marked[j] = true
					subset = append(subset, j)
				}
				if reason == "" {
					switch {
					case accelHit && jerkHit:
						reason = "accel and jerk thresholds tripped"
					case accelHit:
						reason = "accel threshold tripped"
					default:
						reason = "jerk threshold tripped"
					}
				}
				if len(subset) >= cfg.MaxSubsetSize {
					return subset, reason
				}
			}
		}
	}

	return subset, reason
}

// closeEncounterTrialResult is the outcome of a subset trial integration.
type closeEncounterTrialResult struct {
	accepted   bool
	steps      int
	maxError   float64
	positions  []Vec3
	velocities []Vec3
	reason     string
}

// subsetMembership returns a boolean membership set over global body
// indices for quick "is this source part of the subset" checks.
func subsetMembership(subset []int, n int) []bool {
	member := make([]bool, n)
	for _, idx := range subset {
		member[idx] = true
	}
	return member
}

// subsetAccelerations computes the acceleration on every local (subset)
// body given their current trial positions: exact pairwise terms among
// subset bodies, plus point-mass terms from every non-subset massive
// source at its position linearly interpolated between the pre- and
// post-baseline-step snapshot at time fraction frac in [0,1].
func subsetAccelerations(localPositions []Vec3, subset []int, bodies []Body, member []bool, frac float64, prePos, postPos []Vec3, force ForceConfig) []Vec3 {
	accelerations := make([]Vec3, len(subset))

	for li, gi := range subset {
		if !bodies[gi].FeelsGravity {
			continue
		}
		acc := Zero3

		for lj, gj := range subset {
			if li == lj || !bodies[gj].ContributesGravity {
				continue
			}
			eps := bodies[gi].EffectiveSoftening(force.Softening)
			if other := bodies[gj].EffectiveSoftening(force.Softening); other > eps {
				eps = other
			}
			acc = acc.Add(gravitationalAcceleration(localPositions[li], localPositions[lj], bodies[gj].Mass, eps*eps))
		}

		for gk := range bodies {
			if member[gk] || !bodies[gk].IsActive || !bodies[gk].ContributesGravity {
				continue
			}
			interpPos := prePos[gk].Lerp(postPos[gk], frac)
			eps := bodies[gi].EffectiveSoftening(force.Softening)
			if other := bodies[gk].EffectiveSoftening(force.Softening); other > eps {
				eps = other
			}
			acc = acc.Add(gravitationalAcceleration(localPositions[li], interpPos, bodies[gk].Mass, eps*eps))
		}

		accelerations[li] = acc
	}

	return accelerations
}

func packSubsetState(subset []int, positions, velocities []Vec3) []float64 {
	state := make([]float64, len(subset)*6)
	for li, gi := range subset {
		base := li * 6
		state[base+0] = positions[gi].X
		state[base+1] = positions[gi].Y
		state[base+2] = positions[gi].Z
		state[base+3] = velocities[gi].X
		state[base+4] = velocities[gi].Y
		state[base+5] = velocities[gi].Z
	}
	return state
}

func unpackSubsetState(state []float64, n int) ([]Vec3, []Vec3) {
	positions := make([]Vec3, n)
	velocities := make([]Vec3, n)
	for li := 0; li < n; li++ {
		base := li * 6
		positions[li] = Vec3{state[base+0], state[base+1], state[base+2]}
		velocities[li] = Vec3{state[base+3], state[base+4], state[base+5]}
	}
	return positions, velocities
}

func subsetDerivative(subset []int, bodies []Body, member []bool, dt float64, prePos, postPos []Vec3, force ForceConfig) func(t float64, state, deriv []float64) {
	n := len(subset)
	return func(t float64, state, deriv []float64) {
		positions, velocities := unpackSubsetState(state, n)
		frac := 0.0
		if dt > 0 {
			frac = t / dt
		}
		accelerations := subsetAccelerations(positions, subset, bodies, member, frac, prePos, postPos, force)
		for li := 0; li < n; li++ {
			base := li * 6
			deriv[base+0] = velocities[li].X
			deriv[base+1] = velocities[li].Y
			deriv[base+2] = velocities[li].Z
			deriv[base+3] = accelerations[li].X
			deriv[base+4] = accelerations[li].Y
			deriv[base+5] = accelerations[li].Z
		}
	}
}

// maxAbsDiff returns the largest component-wise absolute difference
// between two equal-length slices.
func maxAbsDiff(a, b []float64) float64 {
	maxDiff := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}

func maxAbsValue(a []float64) float64 {
	maxVal := 0.0
	for _, v := range a {
		if av := math.Abs(v); av > maxVal {
			maxVal = av
		}
	}
	return maxVal
}

func anyNonFinite(a []float64) bool {
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// trialIntegrateSubsetRK45 integrates the subset across dt with
// Dormand-Prince RK4(5) (via ready-steady/ode/dopri), using step-doubling
// (full-step vs. two half-steps) as the embedded error estimator: the
// trial is accepted when the worst normalized difference
// (abs_tol + rel_tol*max(|state|)) is at most 1.
func trialIntegrateSubsetRK45(bodies []Body, subset []int, dt float64, prePos, preVel, postPos, postVel []Vec3, force ForceConfig, ceCfg CloseEncounterConfig) closeEncounterTrialResult {
	n := len(subset)
	if n == 0 {
		return closeEncounterTrialResult{accepted: false, reason: "empty subset"}
	}
	if dt/2 < 1e-15 {
		return closeEncounterTrialResult{accepted: false, reason: "rk45: step underflow"}
	}

	member := subsetMembership(subset, len(bodies))
	deriv := subsetDerivative(subset, bodies, member, dt, prePos, postPos, force)
	initial := packSubsetState(subset, prePos, preVel)

	integrator, err := dopri.New(dopri.DefaultConfig())
	if err != nil {
		return closeEncounterTrialResult{accepted: false, reason: "rk45: integrator init failed"}
	}

	fullResult, _, err := integrator.Compute(deriv, initial, []float64{0, dt})
	if err != nil || len(fullResult) == 0 {
		return closeEncounterTrialResult{accepted: false, reason: "rk45: full-step integration failed"}
	}
	full := fullResult[len(fullResult)-1]

	midResult, _, err := integrator.Compute(deriv, initial, []float64{0, dt / 2})
	if err != nil || len(midResult) == 0 {
		return closeEncounterTrialResult{accepted: false, reason: "rk45: half-step integration failed"}
	}
	mid := midResult[len(midResult)-1]

	refinedResult, _, err := integrator.Compute(deriv, mid, []float64{dt / 2, dt})
	if err != nil || len(refinedResult) == 0 {
		return closeEncounterTrialResult{accepted: false, reason: "rk45: second half-step integration failed"}
	}
	refined := refinedResult[len(refinedResult)-1]

	if anyNonFinite(full) || anyNonFinite(refined) {
		return closeEncounterTrialResult{accepted: false, reason: "rk45: non-finite result"}
	}

	scale := ceCfg.RK45AbsTol + ceCfg.RK45RelTol*math.Max(maxAbsValue(refined), maxAbsValue(initial))
	errNorm := 0.0
	if scale > 0 {
		errNorm = maxAbsDiff(full, refined) / scale
	}

	if errNorm > 1.0 {
		return closeEncounterTrialResult{accepted: false, maxError: errNorm, reason: "rk45: error estimate exceeded tolerance"}
	}

	positions, velocities := unpackSubsetState(refined, n)
	return closeEncounterTrialResult{accepted: true, steps: 3, maxError: errNorm, positions: positions, velocities: velocities}
}

// radauIIA3 is the standard 3-stage, 5th-order Radau IIA Butcher tableau
// (implicit, stiffly accurate: c3=1 and row 3 equals b).
var (
	radauSqrt6 = math.Sqrt(6)
	radauC     = [3]float64{(4 - radauSqrt6) / 10, (4 + radauSqrt6) / 10, 1.0}
	radauA     = [3][3]float64{
		{(88 - 7*radauSqrt6) / 360, (296 - 169*radauSqrt6) / 1800, (-2 + 3*radauSqrt6) / 225},
		{(296 + 169*radauSqrt6) / 1800, (88 + 7*radauSqrt6) / 360, (-2 - 3*radauSqrt6) / 225},
		{(16 - radauSqrt6) / 36, (16 + radauSqrt6) / 36, 1.0 / 9.0},
	}
	radauB = [3]float64{(16 - radauSqrt6) / 36, (16 + radauSqrt6) / 36, 1.0 / 9.0}
)

// trialIntegrateSubsetGaussRadau integrates the subset across dt with a
// fixed-point-iterated, 3-stage implicit Radau IIA step: the three stage
// derivatives are iterated until the largest change between successive
// iterations drops below ceCfg.GaussRadauTol, or the iteration cap is hit
// (non-convergence rejects the trial).
func trialIntegrateSubsetGaussRadau(bodies []Body, subset []int, dt float64, prePos, preVel, postPos, postVel []Vec3, force ForceConfig, ceCfg CloseEncounterConfig) closeEncounterTrialResult {
	n := len(subset)
	if n == 0 {
		return closeEncounterTrialResult{accepted: false, reason: "empty subset"}
	}

	member := subsetMembership(subset, len(bodies))
	deriv := subsetDerivative(subset, bodies, member, dt, prePos, postPos, force)
	y0 := packSubsetState(subset, prePos, preVel)
	stateLen := len(y0)

	k := [3][]float64{make([]float64, stateLen), make([]float64, stateLen), make([]float64, stateLen)}
	initialDeriv := make([]float64, stateLen)
	deriv(0, y0, initialDeriv)
	for s := 0; s < 3; s++ {
		copy(k[s], initialDeriv)
	}

	stageState := make([]float64, stateLen)
	newK := [3][]float64{make([]float64, stateLen), make([]float64, stateLen), make([]float64, stateLen)}

	maxIters := ceCfg.GaussRadauMaxIters
	if maxIters <= 0 {
		maxIters = 6
	}

	converged := false
	iterUsed := 0
	var maxDelta float64

	for iter := 0; iter < maxIters; iter++ {
		iterUsed = iter + 1
		maxDelta = 0

		for s := 0; s < 3; s++ {
			for i := 0; i < stateLen; i++ {
				sum := 0.0
				for j := 0; j < 3; j++ {
					sum += radauA[s][j] * k[j][i]
				}
				stageState[i] = y0[i] + dt*sum
			}
			deriv(radauC[s]*dt, stageState, newK[s])
			if d := maxAbsDiff(newK[s], k[s]); d > maxDelta {
				maxDelta = d
			}
		}

		for s := 0; s < 3; s++ {
			copy(k[s], newK[s])
		}

		if maxDelta < ceCfg.GaussRadauTol {
			converged = true
			break
		}
	}

	if !converged {
		return closeEncounterTrialResult{accepted: false, steps: iterUsed, maxError: maxDelta, reason: "gauss-radau: fixed-point iteration did not converge"}
	}

	y1 := make([]float64, stateLen)
	for i := 0; i < stateLen; i++ {
		y1[i] = y0[i] + dt*(radauB[0]*k[0][i]+radauB[1]*k[1][i]+radauB[2]*k[2][i])
	}

	if anyNonFinite(y1) {
		return closeEncounterTrialResult{accepted: false, steps: iterUsed, reason: "gauss-radau: non-finite result"}
	}

	positions, velocities := unpackSubsetState(y1, n)
	return closeEncounterTrialResult{accepted: true, steps: iterUsed, maxError: maxDelta, positions: positions, velocities: velocities}
}

// CloseEncounterSwitcher owns the event ring buffer and enter/exit state
// machine across ticks: inactive -> active -> inactive.
type CloseEncounterSwitcher struct {
	events      []CloseEncounterEvent
	nextEventID uint64
	active      bool
	lastBodyIDs []uint32
}

// NewCloseEncounterSwitcher returns a switcher with an empty event log.
func NewCloseEncounterSwitcher() *CloseEncounterSwitcher {
	return &CloseEncounterSwitcher{nextEventID: 1}
}

// Events returns the most recent close-encounter events, oldest first.
func (s *CloseEncounterSwitcher) Events() []CloseEncounterEvent {
	return s.events
}

// SetEvents restores the event log and id counter from a snapshot.
func (s *CloseEncounterSwitcher) SetEvents(events []CloseEncounterEvent) {
	s.events = append([]CloseEncounterEvent(nil), events...)
	for _, e := range events {
		if e.ID >= s.nextEventID {
			s.nextEventID = e.ID + 1
		}
	}
}

const closeEncounterEventCap = 256

func (s *CloseEncounterSwitcher) logEvent(integrator CloseEncounterIntegrator, bodyIDs []uint32, simTime, dt float64, reason string, maxError float64, steps int) {
	event := CloseEncounterEvent{
		ID:          s.nextEventID,
		Time:        simTime,
		Dt:          dt,
		Integrator:  integrator.String(),
		BodyIDs:     bodyIDs,
		Reason:      reason,
		MaxRelError: maxError,
		Steps:       steps,
	}
	s.nextEventID++
	s.events = append(s.events, event)
	if len(s.events) > closeEncounterEventCap {
		s.events = s.events[len(s.events)-closeEncounterEventCap:]
	}
}

// StepWithCloseEncounter advances bodies by one tick: it runs the baseline
// integrator step unconditionally, and — when the switcher is enabled and
// a subset trips the detection thresholds — also trial-integrates that
// subset with the configured high-order method, committing the refined
// result in place of the baseline on acceptance. simTime is the
// simulation time BEFORE this tick, used for event timestamps.
func StepWithCloseEncounter(bodies []Body, integratorCfg IntegratorConfig, ceCfg CloseEncounterConfig, accel AccelerationFunc, switcher *CloseEncounterSwitcher, simTime float64) {
	dt := integratorCfg.Dt
	subset, reason := detectCloseEncounterSubset(bodies, ceCfg, dt)

	if len(subset) == 0 || !ceCfg.Enabled || ceCfg.Integrator == CloseEncounterNone {
		if switcher.active {
			switcher.logEvent(ceCfg.Integrator, switcher.lastBodyIDs, simTime, dt, "exit", 0, 0)
			switcher.active = false
			switcher.lastBodyIDs = nil
		}
		Step(bodies, integratorCfg, accel)
		return
	}

	prePos := make([]Vec3, len(bodies))
	preVel := make([]Vec3, len(bodies))
	for i := range bodies {
		prePos[i] = bodies[i].Position
		preVel[i] = bodies[i].Velocity
	}

	Step(bodies, integratorCfg, accel)

	postPos := make([]Vec3, len(bodies))
	postVel := make([]Vec3, len(bodies))
	for i := range bodies {
		postPos[i] = bodies[i].Position
		postVel[i] = bodies[i].Velocity
	}

	var trial closeEncounterTrialResult
	switch ceCfg.Integrator {
	case CloseEncounterRK45:
		trial = trialIntegrateSubsetRK45(bodies, subset, dt, prePos, preVel, postPos, postVel, integratorCfg.ForceConfig, ceCfg)
	case CloseEncounterGaussRadau5:
		trial = trialIntegrateSubsetGaussRadau(bodies, subset, dt, prePos, preVel, postPos, postVel, integratorCfg.ForceConfig, ceCfg)
	default:
		trial = closeEncounterTrialResult{accepted: false, reason: "disabled"}
	}

	if trial.accepted {
		for local, gi := range subset {
			bodies[gi].Position = trial.positions[local]
			bodies[gi].Velocity = trial.velocities[local]
		}

		accel(bodies, integratorCfg.ForceConfig)
		for i := range bodies {
			bodies[i].PrevAcceleration = bodies[i].Acceleration
		}

		bodyIDs := make([]uint32, len(subset))
		for local, gi := range subset {
			bodyIDs[local] = bodies[gi].ID
		}

		if !switcher.active {
			enterReason := "enter"
			if reason != "" {
				enterReason = "enter; " + reason
			}
			switcher.logEvent(ceCfg.Integrator, bodyIDs, simTime, dt, enterReason, trial.maxError, trial.steps)
		}
		switcher.active = true
		switcher.lastBodyIDs = bodyIDs
	} else if switcher.active {
		switcher.logEvent(ceCfg.Integrator, switcher.lastBodyIDs, simTime, dt, "exit; "+trial.reason, 0, 0)
		switcher.active = false
		switcher.lastBodyIDs = nil
	}
}
