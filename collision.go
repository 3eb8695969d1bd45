package orrery

import "math"

// CollisionEvent describes one detected overlap between two active bodies.
type CollisionEvent struct {
	BodyA            uint32
	BodyB            uint32
	ContactPoint     Vec3
	RelativeVelocity Vec3
}

// DetectCollisions returns every pairwise overlap among active bodies,
// using each body's effective collision radius (CollisionRadius when set,
// else mean radius).
func DetectCollisions(bodies []Body) []CollisionEvent {
	var collisions []CollisionEvent
	n := len(bodies)

	for i := 0; i < n; i++ {
		if !bodies[i].IsActive {
			continue
		}
		for j := i + 1; j < n; j++ {
			if !bodies[j].IsActive {
				continue
			}

			distance := bodies[i].Position.Distance(bodies[j].Position)
			combinedRadius := bodies[i].effectiveCollisionRadius() + bodies[j].effectiveCollisionRadius()

			if distance < combinedRadius {
				direction := bodies[j].Position.Sub(bodies[i].Position).Normalize()
				contact := bodies[i].Position.Add(direction.Scale(bodies[i].effectiveCollisionRadius()))
				relVel := bodies[j].Velocity.Sub(bodies[i].Velocity)

				collisions = append(collisions, CollisionEvent{
					BodyA:            bodies[i].ID,
					BodyB:            bodies[j].ID,
					ContactPoint:     contact,
					RelativeVelocity: relVel,
				})
			}
		}
	}

	return collisions
}

// MergeBodies performs the inelastic merge of idB into idA's slot (or vice
// versa): the survivor is whichever has the greater mass, ties going to the
// lower id. The survivor's mass, velocity, and position update to conserve
// total mass and linear momentum exactly; its radius and collision radius
// scale by the constant-density cube-root rule. The absorbed body is
// deactivated and its mass zeroed.
func MergeBodies(bodies []Body, idA, idB uint32) error {
	idxA := indexOfBodyID(bodies, idA)
	idxB := indexOfBodyID(bodies, idB)
	if idxA < 0 || idxB < 0 {
		return ErrBodyNotFound
	}
	if idxA == idxB {
		return ErrSelfMerge
	}

	survivorIdx, absorbedIdx := idxA, idxB
	switch {
	case bodies[idxA].Mass > bodies[idxB].Mass:
		survivorIdx, absorbedIdx = idxA, idxB
	case bodies[idxB].Mass > bodies[idxA].Mass:
		survivorIdx, absorbedIdx = idxB, idxA
	default:
		// ties -> lower id
		if bodies[idxA].ID < bodies[idxB].ID {
			survivorIdx, absorbedIdx = idxA, idxB
		} else {
			survivorIdx, absorbedIdx = idxB, idxA
		}
	}

	absorbedMass := bodies[absorbedIdx].Mass
	absorbedPosition := bodies[absorbedIdx].Position
	absorbedVelocity := bodies[absorbedIdx].Velocity

	survivor := &bodies[survivorIdx]
	oldMass := survivor.Mass
	totalMass := oldMass + absorbedMass

	survivor.Velocity = survivor.Velocity.Scale(oldMass).Add(absorbedVelocity.Scale(absorbedMass)).Div(totalMass)
	survivor.Position = survivor.Position.Scale(oldMass).Add(absorbedPosition.Scale(absorbedMass)).Div(totalMass)

	if oldMass > 0 {
		volumeRatio := totalMass / oldMass
		cubeRoot := math.Cbrt(volumeRatio)
		survivor.Radius *= cubeRoot
		if survivor.CollisionRadius > 0 {
			survivor.CollisionRadius *= cubeRoot
		}
	}
	survivor.Mass = totalMass

	bodies[absorbedIdx].IsActive = false
	bodies[absorbedIdx].Mass = 0

	return nil
}

// ProcessCollisions repeatedly detects and merges overlapping bodies until
// none remain, capped at 1000 merges to guard against pathological
// configurations. Returns the number of merges performed.
func ProcessCollisions(bodies []Body) int {
	mergeCount := 0

	for {
		collisions := DetectCollisions(bodies)
		if len(collisions) == 0 {
			break
		}

		first := collisions[0]
		if err := MergeBodies(bodies, first.BodyA, first.BodyB); err == nil {
			mergeCount++
		}

		if mergeCount >= 1000 {
			break
		}
	}

	return mergeCount
}

// IsInsideRocheLimit reports whether secondary lies within primary's Roche
// limit, r_Roche = 2.44*R_primary*(rho_primary/rho_secondary)^(1/3), using
// each body's effective collision radius as its physical radius.
func IsInsideRocheLimit(primary, secondary *Body) bool {
	rp := primary.effectiveCollisionRadius()
	rs := secondary.effectiveCollisionRadius()
	if rp <= 0 || rs <= 0 {
		return false
	}

	rhoPrimary := 3 * primary.Mass / (4 * math.Pi * rp * rp * rp)
	rhoSecondary := 3 * secondary.Mass / (4 * math.Pi * rs * rs * rs)
	if rhoSecondary <= 0 {
		return false
	}

	rocheLimit := 2.44 * rp * math.Cbrt(rhoPrimary/rhoSecondary)
	distance := primary.Position.Distance(secondary.Position)
	return distance < rocheLimit
}

func indexOfBodyID(bodies []Body, id uint32) int {
	for i := range bodies {
		if bodies[i].ID == id {
			return i
		}
	}
	return -1
}
