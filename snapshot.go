package orrery

import "encoding/json"

// SnapshotVersion is the current snapshot format version. A Snapshot whose
// Version differs fails Validate.
const SnapshotVersion uint32 = 1

// SerializableForceConfig is ForceConfig's JSON-stable projection.
type SerializableForceConfig struct {
	Softening      float64 `json:"softening"`
	BarnesHutTheta float64 `json:"barnes_hut_theta"`
}

func toSerializableForceConfig(cfg ForceConfig) SerializableForceConfig {
	return SerializableForceConfig{Softening: cfg.Softening, BarnesHutTheta: cfg.BarnesHutTheta}
}

func (s SerializableForceConfig) toForceConfig() ForceConfig {
	return ForceConfig{Softening: s.Softening, BarnesHutTheta: s.BarnesHutTheta}
}

// integratorMethodName and parseIntegratorMethodName round-trip
// IntegratorType through its string label, the way the source formats the
// Rust enum with "{:?}".
func integratorMethodName(m IntegratorType) string {
	switch m {
	case IntegratorEuler:
		return "Euler"
	case IntegratorLeapfrog:
		return "Leapfrog"
	default:
		return "VelocityVerlet"
	}
}

func parseIntegratorMethodName(name string) IntegratorType {
	switch name {
	case "Euler":
		return IntegratorEuler
	case "Leapfrog":
		return IntegratorLeapfrog
	default:
		return IntegratorVelocityVerlet
	}
}

// SerializableIntegratorConfig is IntegratorConfig's JSON-stable projection
// (force config is carried alongside it at the Snapshot level, not nested
// here, matching the source's separate force_config/integrator_config
// top-level fields; close-encounter settings are not serialized).
type SerializableIntegratorConfig struct {
	Dt       float64 `json:"dt"`
	Substeps uint32  `json:"substeps"`
	Method   string  `json:"method"`
}

func toSerializableIntegratorConfig(cfg IntegratorConfig) SerializableIntegratorConfig {
	return SerializableIntegratorConfig{Dt: cfg.Dt, Substeps: cfg.Substeps, Method: integratorMethodName(cfg.Method)}
}

func (s SerializableIntegratorConfig) toIntegratorConfig(force ForceConfig) IntegratorConfig {
	return IntegratorConfig{Dt: s.Dt, Substeps: s.Substeps, Method: parseIntegratorMethodName(s.Method), ForceConfig: force}
}

// RNGState is the PCG32 (state, inc) pair, serialized as a 2-element array
// to mirror the source's (u64, u64) tuple.
type RNGState [2]uint64

// SnapshotMetadata carries optional descriptive and diagnostic fields that
// do not affect simulation semantics.
type SnapshotMetadata struct {
	Name                string                `json:"name,omitempty"`
	Description         string                `json:"description,omitempty"`
	CreatedAt           *uint64               `json:"created_at,omitempty"`
	Author              string                `json:"author,omitempty"`
	Preset              string                `json:"preset,omitempty"`
	CloseEncounterEvents []CloseEncounterEvent `json:"close_encounter_events,omitempty"`
}

// Snapshot is the versioned, JSON-serializable state of a Simulation at one
// instant: enough to fully restore determinism (RNG state included).
type Snapshot struct {
	Version           uint32                       `json:"version"`
	Sequence          uint64                       `json:"sequence"`
	Time              float64                      `json:"time"`
	Tick              uint64                       `json:"tick"`
	RNGState          RNGState                     `json:"rng_state"`
	Bodies            []Body                       `json:"bodies"`
	ForceConfig       SerializableForceConfig      `json:"force_config"`
	IntegratorConfig  SerializableIntegratorConfig `json:"integrator_config"`
	Metadata          *SnapshotMetadata            `json:"metadata,omitempty"`
}

// NewSnapshot builds a snapshot from simulation state.
func NewSnapshot(sequence uint64, time float64, tick uint64, rng *Pcg32, bodies []Body, force ForceConfig, integrator IntegratorConfig) Snapshot {
	state, inc := rng.State()
	return Snapshot{
		Version:          SnapshotVersion,
		Sequence:         sequence,
		Time:             time,
		Tick:             tick,
		RNGState:         RNGState{state, inc},
		Bodies:           bodies,
		ForceConfig:      toSerializableForceConfig(force),
		IntegratorConfig: toSerializableIntegratorConfig(integrator),
	}
}

// WithMetadata returns a copy of the snapshot carrying the given metadata.
func (s Snapshot) WithMetadata(metadata SnapshotMetadata) Snapshot {
	s.Metadata = &metadata
	return s
}

// ToJSON serializes the snapshot.
func (s Snapshot) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// ToJSONIndent serializes the snapshot as pretty-printed JSON.
func (s Snapshot) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// SnapshotFromJSON deserializes a snapshot.
func SnapshotFromJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Validate checks the invariants a restored snapshot must satisfy:
// matching format version, every body individually valid, and no duplicate
// body IDs.
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return ErrVersionMismatch
	}

	seen := make(map[uint32]bool, len(s.Bodies))
	for i := range s.Bodies {
		b := &s.Bodies[i]
		if !b.IsValid() {
			return ErrInvalidBody
		}
		if seen[b.ID] {
			return ErrDuplicateBodyID
		}
		seen[b.ID] = true
	}

	return nil
}

// ActiveBodyCount returns the number of active bodies in the snapshot.
func (s Snapshot) ActiveBodyCount() int {
	count := 0
	for i := range s.Bodies {
		if s.Bodies[i].IsActive {
			count++
		}
	}
	return count
}

// MassiveBodyCount returns the number of active, gravity-contributing
// bodies in the snapshot.
func (s Snapshot) MassiveBodyCount() int {
	count := 0
	for i := range s.Bodies {
		if s.Bodies[i].IsActive && s.Bodies[i].ContributesGravity {
			count++
		}
	}
	return count
}

// DeltaSnapshot carries only the bodies that changed (or were added/removed)
// between two full snapshots, for efficient network sync.
type DeltaSnapshot struct {
	BaseSequence    uint64  `json:"base_sequence"`
	Sequence        uint64  `json:"sequence"`
	Time            float64 `json:"time"`
	ChangedBodies   []Body  `json:"changed_bodies"`
	RemovedBodyIDs  []uint32 `json:"removed_body_ids"`
}

// DeltaFromDiff computes the delta from old to new, following the
// position/velocity/mass/radius thresholds in bodyChanged.
func DeltaFromDiff(old, new Snapshot) DeltaSnapshot {
	oldByID := make(map[uint32]*Body, len(old.Bodies))
	for i := range old.Bodies {
		oldByID[old.Bodies[i].ID] = &old.Bodies[i]
	}

	var changed []Body
	for i := range new.Bodies {
		nb := &new.Bodies[i]
		ob, existed := oldByID[nb.ID]
		if !existed || bodyChanged(ob, nb) {
			changed = append(changed, *nb)
		}
	}

	newActiveByID := make(map[uint32]bool, len(new.Bodies))
	for i := range new.Bodies {
		if new.Bodies[i].IsActive {
			newActiveByID[new.Bodies[i].ID] = true
		}
	}

	var removed []uint32
	for i := range old.Bodies {
		ob := &old.Bodies[i]
		if ob.IsActive && !newActiveByID[ob.ID] {
			removed = append(removed, ob.ID)
		}
	}

	return DeltaSnapshot{
		BaseSequence:   old.Sequence,
		Sequence:       new.Sequence,
		Time:           new.Time,
		ChangedBodies:  changed,
		RemovedBodyIDs: removed,
	}
}

// ToJSON serializes the delta.
func (d DeltaSnapshot) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}

// DeltaSnapshotFromJSON deserializes a delta.
func DeltaSnapshotFromJSON(data []byte) (DeltaSnapshot, error) {
	var d DeltaSnapshot
	if err := json.Unmarshal(data, &d); err != nil {
		return DeltaSnapshot{}, err
	}
	return d, nil
}

// bodyChanged reports whether old and new differ enough to be worth
// resending: activity flip, position > 1 m, velocity > 0.01 m/s, mass >
// 1 kg, or radius > 0.1 m.
func bodyChanged(old, new *Body) bool {
	const (
		posThreshold    = 1.0
		velThreshold    = 0.01
		massThreshold   = 1.0
		radiusThreshold = 0.1
	)

	if old.IsActive != new.IsActive {
		return true
	}
	if old.Position.Sub(new.Position).Length() > posThreshold {
		return true
	}
	if old.Velocity.Sub(new.Velocity).Length() > velThreshold {
		return true
	}
	if absFloat(old.Mass-new.Mass) > massThreshold {
		return true
	}
	if absFloat(old.Radius-new.Radius) > radiusThreshold {
		return true
	}
	return false
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
