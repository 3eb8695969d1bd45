package orrery

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// ForceMethod selects which gravity kernel Simulation.Step uses.
type ForceMethod int

const (
	// ForceDirect is the accurate O(N^2) kernel, the default.
	ForceDirect ForceMethod = iota
	// ForceBarnesHut is the O(N log N) approximation, auto-selected above
	// SimulationConfig.BarnesHutThreshold bodies.
	ForceBarnesHut
)

// SimulationConfig groups every tunable the orchestrator consults.
type SimulationConfig struct {
	Integrator          IntegratorConfig
	CloseEncounter      CloseEncounterConfig
	ForceMethod         ForceMethod
	BarnesHutThreshold  int
}

// DefaultSimulationConfig returns direct force evaluation, Velocity-Verlet,
// and the close-encounter switcher disabled — auto-switching to Barnes-Hut
// above 10,000 bodies.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Integrator:         DefaultIntegratorConfig(),
		CloseEncounter:     DefaultCloseEncounterConfig(),
		ForceMethod:        ForceDirect,
		BarnesHutThreshold: DefaultBarnesHutThreshold,
	}
}

// Simulation is the deterministic, single-threaded orchestrator: body
// storage, the PRNG, tick bookkeeping, the close-encounter event log, and
// the operations a host drives a tick with.
type Simulation struct {
	bodies []Body
	config SimulationConfig
	rng    *Pcg32

	time     float64
	tick     uint64
	sequence uint64

	switcher *CloseEncounterSwitcher

	nextID   uint32
	needInit bool

	logger kitlog.Logger
}

// NewSimulation returns a simulation seeded deterministically, logging to
// stdout in logfmt via a per-instance logger.
func NewSimulation(seed uint64) *Simulation {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "subsys", "orrery")

	return &Simulation{
		bodies:   make([]Body, 0, 100),
		config:   DefaultSimulationConfig(),
		rng:      NewPcg32(seed, 1),
		switcher: NewCloseEncounterSwitcher(),
		needInit: true,
		logger:   logger,
	}
}

// NewSimulationWithConfig returns a simulation with a custom configuration.
func NewSimulationWithConfig(seed uint64, config SimulationConfig) *Simulation {
	sim := NewSimulation(seed)
	sim.config = config
	return sim
}

// AddBody assigns the body a fresh ID, fills its intrinsic derived
// quantities, appends it, and marks accelerations as needing
// (re-)initialization.
func (s *Simulation) AddBody(b Body) uint32 {
	b.ID = s.nextID
	s.nextID++
	deriveOnInsert(&b)
	s.bodies = append(s.bodies, b)
	s.needInit = true
	return b.ID
}

// AddStar constructs and adds a star at the origin.
func (s *Simulation) AddStar(name string, mass, radius float64) uint32 {
	return s.AddBody(NewStar(name, mass, radius))
}

// AddPlanet constructs and adds a planet on a circular orbit about the
// origin.
func (s *Simulation) AddPlanet(name string, mass, radius, orbitalDistance, orbitalVelocity float64) uint32 {
	return s.AddBody(NewPlanet(name, mass, radius, orbitalDistance, orbitalVelocity))
}

// AddMoon constructs and adds a moon relative to an existing parent body.
// Returns (0, false) if parentID does not resolve to an active body.
func (s *Simulation) AddMoon(name string, mass, radius float64, parentID uint32, orbitalDistance, orbitalVelocity float64) (uint32, bool) {
	parent := s.GetBody(parentID)
	if parent == nil {
		return 0, false
	}
	return s.AddBody(NewMoon(name, mass, radius, parent, orbitalDistance, orbitalVelocity)), true
}

// GetBody returns a pointer to the body with the given id, or nil.
func (s *Simulation) GetBody(id uint32) *Body {
	for i := range s.bodies {
		if s.bodies[i].ID == id {
			return &s.bodies[i]
		}
	}
	return nil
}

// RemoveBody deactivates the body with the given id. Returns false if not
// found.
func (s *Simulation) RemoveBody(id uint32) bool {
	b := s.GetBody(id)
	if b == nil {
		return false
	}
	b.IsActive = false
	return true
}

// Bodies returns the full body slice, active and inactive alike.
func (s *Simulation) Bodies() []Body {
	return s.bodies
}

// ActiveBodies returns only the active bodies, as a fresh slice.
func (s *Simulation) ActiveBodies() []Body {
	active := make([]Body, 0, len(s.bodies))
	for _, b := range s.bodies {
		if b.IsActive {
			active = append(active, b)
		}
	}
	return active
}

// FinalizeDerived re-derives every planet/moon's properties using the
// first active star as parent context; call after bulk-loading a
// scenario. Fields already set are left untouched.
func (s *Simulation) FinalizeDerived() {
	var parentStar *Body
	for i := range s.bodies {
		if s.bodies[i].IsActive && s.bodies[i].Type == BodyStar {
			parentStar = &s.bodies[i]
			break
		}
	}

	for i := range s.bodies {
		switch s.bodies[i].Type {
		case BodyPlanet, BodyMoon:
			deriveWithParent(&s.bodies[i], parentStar)
		}
	}
}

func (s *Simulation) resolveForceMethod() ForceMethod {
	if len(s.bodies) > s.config.BarnesHutThreshold {
		return ForceBarnesHut
	}
	return s.config.ForceMethod
}

func (s *Simulation) resolveAccelFunc() AccelerationFunc {
	if s.resolveForceMethod() == ForceBarnesHut {
		return ComputeAccelerationsBarnesHut
	}
	return ComputeAccelerationsDirect
}

// Step advances the simulation by one tick: lazily initializes
// accelerations, runs the (possibly close-encounter-switched) integration
// step, then resolves any resulting collisions.
func (s *Simulation) Step() {
	accel := s.resolveAccelFunc()

	if s.needInit {
		InitializeAccelerations(s.bodies, accel, s.config.Integrator.ForceConfig)
		s.needInit = false
	}

	StepWithCloseEncounter(s.bodies, s.config.Integrator, s.config.CloseEncounter, accel, s.switcher, s.time)

	if merges := ProcessCollisions(s.bodies); merges > 0 {
		s.logger.Log("level", "info", "event", "collision", "merges", merges, "tick", s.tick)
	}

	s.time += s.config.Integrator.Dt
	s.tick++
	s.sequence++
}

// StepN advances the simulation by n ticks.
func (s *Simulation) StepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.Step()
	}
}

// Time returns the current simulation time in seconds.
func (s *Simulation) Time() float64 { return s.time }

// Tick returns the current tick count.
func (s *Simulation) Tick() uint64 { return s.tick }

// BodyCount returns the number of active bodies.
func (s *Simulation) BodyCount() int {
	count := 0
	for _, b := range s.bodies {
		if b.IsActive {
			count++
		}
	}
	return count
}

// TotalEnergy returns the system's current kinetic + potential energy.
func (s *Simulation) TotalEnergy() float64 {
	return ComputeTotalEnergy(s.bodies, s.config.Integrator.ForceConfig.Softening)
}

// MassiveBodyCount returns the number of active, gravity-contributing
// bodies — the set a force kernel actually sources from.
func (s *Simulation) MassiveBodyCount() int {
	count := 0
	for i := range s.bodies {
		if s.bodies[i].IsMassive() {
			count++
		}
	}
	return count
}

// PositionsFlat returns active-body positions as a flat [x0,y0,z0,x1,...]
// slice, convenient for a renderer consuming a single contiguous buffer.
func (s *Simulation) PositionsFlat() []float64 {
	flat := make([]float64, 0, 3*len(s.bodies))
	for _, b := range s.bodies {
		if b.IsActive {
			flat = append(flat, b.Position.X, b.Position.Y, b.Position.Z)
		}
	}
	return flat
}

// VelocitiesFlat returns active-body velocities as a flat
// [vx0,vy0,vz0,vx1,...] slice, matching PositionsFlat's layout.
func (s *Simulation) VelocitiesFlat() []float64 {
	flat := make([]float64, 0, 3*len(s.bodies))
	for _, b := range s.bodies {
		if b.IsActive {
			flat = append(flat, b.Velocity.X, b.Velocity.Y, b.Velocity.Z)
		}
	}
	return flat
}

// Random draws the next deterministic pseudo-random float64 in [0, 1).
func (s *Simulation) Random() float64 {
	return s.rng.NextF64()
}

// RNGState returns the PRNG's (state, inc) pair for serialization.
func (s *Simulation) RNGState() (uint64, uint64) {
	return s.rng.State()
}

// SetDt updates the tick time step.
func (s *Simulation) SetDt(dt float64) { s.config.Integrator.Dt = dt }

// SetSubsteps updates the number of substeps per tick.
func (s *Simulation) SetSubsteps(substeps uint32) { s.config.Integrator.Substeps = substeps }

// SetTheta updates the Barnes-Hut opening angle.
func (s *Simulation) SetTheta(theta float64) { s.config.Integrator.ForceConfig.BarnesHutTheta = theta }

// SetForceMethod updates the force method and flags accelerations as
// needing re-initialization.
func (s *Simulation) SetForceMethod(method ForceMethod) {
	s.config.ForceMethod = method
	s.needInit = true
}

// SetCloseEncounterIntegrator selects (or disables, via CloseEncounterNone)
// the close-encounter trial integrator.
func (s *Simulation) SetCloseEncounterIntegrator(integrator CloseEncounterIntegrator) {
	s.config.CloseEncounter.Integrator = integrator
	s.config.CloseEncounter.Enabled = integrator != CloseEncounterNone
}

// SetCloseEncounterThresholds updates the detection thresholds; non-positive
// arguments leave the corresponding field unchanged.
func (s *Simulation) SetCloseEncounterThresholds(hillFactor, accel, jerk float64) {
	if hillFactor > 0 {
		s.config.CloseEncounter.HillFactor = hillFactor
	}
	if accel > 0 {
		s.config.CloseEncounter.AccelThreshold = accel
	}
	if jerk > 0 {
		s.config.CloseEncounter.JerkThreshold = jerk
	}
}

// Config returns a copy of the current configuration.
func (s *Simulation) Config() SimulationConfig { return s.config }

// SetConfig replaces the configuration wholesale and flags accelerations as
// needing re-initialization.
func (s *Simulation) SetConfig(config SimulationConfig) {
	s.config = config
	s.needInit = true
}

// CloseEncounterEvents returns the switcher's retained event log.
func (s *Simulation) CloseEncounterEvents() []CloseEncounterEvent {
	return s.switcher.Events()
}

// Snapshot captures the current state, including retained close-encounter
// events when any exist.
func (s *Simulation) Snapshot() Snapshot {
	snap := NewSnapshot(s.sequence, s.time, s.tick, s.rng, append([]Body(nil), s.bodies...), s.config.Integrator.ForceConfig, s.config.Integrator)
	if events := s.switcher.Events(); len(events) > 0 {
		snap = snap.WithMetadata(SnapshotMetadata{CloseEncounterEvents: append([]CloseEncounterEvent(nil), events...)})
	}
	return snap
}

// Restore replaces simulation state from a snapshot, validating it first.
func (s *Simulation) Restore(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.sequence = snap.Sequence
	s.time = snap.Time
	s.tick = snap.Tick
	s.bodies = append([]Body(nil), snap.Bodies...)
	s.rng = Pcg32FromState(snap.RNGState[0], snap.RNGState[1])
	s.config.Integrator = snap.IntegratorConfig.toIntegratorConfig(snap.ForceConfig.toForceConfig())
	s.needInit = true

	s.switcher = NewCloseEncounterSwitcher()
	if snap.Metadata != nil && len(snap.Metadata.CloseEncounterEvents) > 0 {
		s.switcher.SetEvents(snap.Metadata.CloseEncounterEvents)
	}

	var maxID uint32
	for _, b := range s.bodies {
		if b.ID > maxID {
			maxID = b.ID
		}
	}
	s.nextID = maxID + 1
	if len(s.bodies) == 0 {
		s.nextID = 0
	}

	return nil
}

// ToJSON serializes the simulation's current snapshot.
func (s *Simulation) ToJSON() ([]byte, error) {
	return s.Snapshot().ToJSON()
}

// SimulationFromJSON constructs a simulation by deserializing and
// restoring a snapshot.
func SimulationFromJSON(data []byte) (*Simulation, error) {
	snap, err := SnapshotFromJSON(data)
	if err != nil {
		return nil, err
	}
	sim := NewSimulation(snap.RNGState[0])
	if err := sim.Restore(snap); err != nil {
		return nil, err
	}
	return sim, nil
}
