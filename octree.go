package orrery

import "math"

// octreeMaxDepth caps recursion to avoid runaway subdivision on nearly
// coincident bodies.
const octreeMaxDepth = 32

// octreeNode is one cell of the Barnes-Hut tree: center, half-size, the
// accumulated mass/center-of-mass of everything inserted beneath it, up to
// 8 children, and — when it is a single-body leaf — the index of that
// body. Ownership is a simple nested-owned-child tree; an arena-of-nodes
// layout would also satisfy the same query semantics.
type octreeNode struct {
	center       Vec3
	halfSize     float64
	totalMass    float64
	centerOfMass Vec3
	children     [8]*octreeNode
	bodyIndex    int // -1 when not a single-body leaf
	bodyCount    int
}

func newOctreeNode(center Vec3, halfSize float64) *octreeNode {
	return &octreeNode{center: center, halfSize: halfSize, bodyIndex: -1}
}

// octantIndex returns which of the 8 octants pos falls into relative to
// the node's center.
func (n *octreeNode) octantIndex(pos Vec3) int {
	idx := 0
	if pos.X >= n.center.X {
		idx |= 1
	}
	if pos.Y >= n.center.Y {
		idx |= 2
	}
	if pos.Z >= n.center.Z {
		idx |= 4
	}
	return idx
}

func (n *octreeNode) childCenter(octant int) Vec3 {
	offset := n.halfSize * 0.5
	sx, sy, sz := -offset, -offset, -offset
	if octant&1 != 0 {
		sx = offset
	}
	if octant&2 != 0 {
		sy = offset
	}
	if octant&4 != 0 {
		sz = offset
	}
	return Vec3{n.center.X + sx, n.center.Y + sy, n.center.Z + sz}
}

func (n *octreeNode) ensureChild(octant int) *octreeNode {
	if n.children[octant] == nil {
		n.children[octant] = newOctreeNode(n.childCenter(octant), n.halfSize*0.5)
	}
	return n.children[octant]
}

// insert recursively inserts body bodies[idx], promoting an occupied leaf
// to an internal node and re-homing the incumbent when necessary.
func (n *octreeNode) insert(bodies []Body, idx, depth int) {
	body := &bodies[idx]
	if !body.IsActive || body.Mass <= 0 {
		return
	}

	newTotalMass := n.totalMass + body.Mass
	n.centerOfMass = n.centerOfMass.Scale(n.totalMass).Add(body.Position.Scale(body.Mass)).Div(newTotalMass)
	n.totalMass = newTotalMass
	n.bodyCount++

	if depth >= octreeMaxDepth {
		return
	}

	switch {
	case n.bodyIndex < 0 && n.bodyCount == 1:
		n.bodyIndex = idx
	case n.bodyIndex < 0:
		octant := n.octantIndex(body.Position)
		n.ensureChild(octant).insert(bodies, idx, depth+1)
	default:
		existingIdx := n.bodyIndex
		n.bodyIndex = -1

		existingOctant := n.octantIndex(bodies[existingIdx].Position)
		n.ensureChild(existingOctant).insert(bodies, existingIdx, depth+1)

		newOctant := n.octantIndex(body.Position)
		n.ensureChild(newOctant).insert(bodies, idx, depth+1)
	}
}

// accelerationAt evaluates the Barnes-Hut approximation at pos: if this
// cell is empty, return zero; if it is far enough (cell-size/distance <
// theta) or a single-body leaf, treat it as a point mass; otherwise
// recurse into children.
func (n *octreeNode) accelerationAt(pos Vec3, theta, softeningSquared float64) Vec3 {
	if n.bodyCount == 0 || n.totalMass <= 0 {
		return Zero3
	}

	r := n.centerOfMass.Sub(pos)
	rSquared := r.LengthSquared()

	if rSquared < softeningSquared*0.01 {
		return Zero3
	}

	distance := math.Sqrt(rSquared)
	cellSize := n.halfSize * 2

	if cellSize/distance < theta || n.bodyIndex >= 0 {
		denom := pow15(rSquared + softeningSquared)
		if denom > 0 {
			return r.Scale(G * n.totalMass / denom)
		}
		return Zero3
	}

	acc := Zero3
	for _, child := range n.children {
		if child != nil {
			acc = acc.Add(child.accelerationAt(pos, theta, softeningSquared))
		}
	}
	return acc
}

// Octree is a Barnes-Hut octree over a body array's gravity-contributing
// bodies, built fresh each step and discarded when the step returns — no
// tree state survives across ticks.
type Octree struct {
	root     *octreeNode
	center   Vec3
	halfSize float64
}

// NewOctree returns an empty octree.
func NewOctree() *Octree {
	return &Octree{halfSize: 1}
}

// Build constructs the tree over bodies' massive, active members.
func (t *Octree) Build(bodies []Body) {
	min, max := computeBounds(bodies)

	t.center = min.Add(max).Scale(0.5)
	extent := max.Sub(min).Scale(0.5).Abs()
	t.halfSize = math.Max(extent.X, math.Max(extent.Y, extent.Z))
	t.halfSize *= 1.1
	if t.halfSize < 1e6 {
		t.halfSize = 1e12
	}

	t.root = newOctreeNode(t.center, t.halfSize)
	for idx := range bodies {
		if bodies[idx].IsActive && bodies[idx].IsMassive() {
			t.root.insert(bodies, idx, 0)
		}
	}
}

func computeBounds(bodies []Body) (Vec3, Vec3) {
	min := Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64}
	max := Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64}
	found := false

	for i := range bodies {
		b := &bodies[i]
		if !b.IsActive || !b.IsMassive() {
			continue
		}
		found = true
		min = min.Min(b.Position)
		max = max.Max(b.Position)
	}

	if !found {
		return Zero3, Zero3
	}
	return min, max
}

// AccelerationAt queries the tree for the approximate acceleration at pos.
func (t *Octree) AccelerationAt(pos Vec3, theta, softeningSquared float64) Vec3 {
	if t.root == nil {
		return Zero3
	}
	return t.root.accelerationAt(pos, theta, softeningSquared)
}

// ComputeAccelerationsBarnesHut computes gravitational acceleration for
// every active feels_gravity body using a freshly built Barnes-Hut octree
// over gravity-contributing sources. Other bodies keep their previous
// Acceleration value.
func ComputeAccelerationsBarnesHut(bodies []Body, cfg ForceConfig) {
	softeningSquared := cfg.Softening * cfg.Softening

	tree := NewOctree()
	tree.Build(bodies)

	for i := range bodies {
		if !bodies[i].IsActive || !bodies[i].FeelsGravity {
			continue
		}
		eps := bodies[i].EffectiveSoftening(cfg.Softening)
		if eps > cfg.Softening {
			softeningSquared = eps * eps
		}
		bodies[i].Acceleration = tree.AccelerationAt(bodies[i].Position, cfg.BarnesHutTheta, softeningSquared)
	}
}
