package orrery

import "errors"

// Sentinel errors. ErrVersionMismatch, ErrInvalidBody and
// ErrDuplicateBodyID are validation failures returned from
// Snapshot.Validate, and so from Restore/SimulationFromJSON.
// ErrBodyNotFound and ErrSelfMerge are returned by MergeBodies.
var (
	ErrVersionMismatch = errors.New("orrery: incompatible snapshot version")
	ErrInvalidBody     = errors.New("orrery: invalid body in snapshot")
	ErrDuplicateBodyID = errors.New("orrery: duplicate body id in snapshot")
	ErrBodyNotFound    = errors.New("orrery: body not found")
	ErrSelfMerge       = errors.New("orrery: cannot merge a body with itself")
)
