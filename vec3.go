package orrery

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec3 is a 3D double-precision vector used throughout the engine for
// position, velocity, and acceleration. Values are plain data with no
// hidden aliasing; every method returns a new Vec3 rather than mutating
// the receiver.
type Vec3 struct {
	X, Y, Z float64
}

// Zero3, UnitX, UnitY, UnitZ are the standard basis constants.
var (
	Zero3 = Vec3{0, 0, 0}
	UnitX = Vec3{1, 0, 0}
	UnitY = Vec3{0, 1, 0}
	UnitZ = Vec3{0, 0, 1}
)

// NewVec3 builds a vector from components.
func NewVec3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// Array returns the vector as a [3]float64, the representation the Dot
// helper below feeds to gonum/floats.
func (v Vec3) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Div returns v / s. Division by zero is the caller's contract violation;
// the result follows IEEE-754 semantics.
func (v Vec3) Div(s float64) Vec3 { return Vec3{v.X / s, v.Y / s, v.Z / s} }

// Neg returns -v.
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }

// Dot returns the inner product, computed via gonum/floats the way teacher
// math.go computes Dot via mat64.
func (v Vec3) Dot(o Vec3) float64 {
	a, b := v.Array(), o.Array()
	return floats.Dot(a[:], b[:])
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// LengthSquared returns |v|^2, avoiding the sqrt.
func (v Vec3) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// Length returns the Euclidean magnitude.
func (v Vec3) Length() float64 { return math.Sqrt(v.LengthSquared()) }

// Distance returns |v - o|.
func (v Vec3) Distance(o Vec3) float64 { return v.Sub(o).Length() }

// DistanceSquared returns |v - o|^2.
func (v Vec3) DistanceSquared(o Vec3) float64 { return v.Sub(o).LengthSquared() }

// Normalize returns the unit vector, or Zero3 if v has zero length.
func (v Vec3) Normalize() Vec3 {
	n := v.Length()
	if n > 0 {
		return v.Div(n)
	}
	return Zero3
}

// NormalizeWithLength returns both the unit vector and the original length.
func (v Vec3) NormalizeWithLength() (Vec3, float64) {
	n := v.Length()
	if n > 0 {
		return v.Div(n), n
	}
	return Zero3, 0
}

// Min returns the component-wise minimum.
func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{math.Min(v.X, o.X), math.Min(v.Y, o.Y), math.Min(v.Z, o.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{math.Max(v.X, o.X), math.Max(v.Y, o.Y), math.Max(v.Z, o.Z)}
}

// Abs returns the component-wise absolute value.
func (v Vec3) Abs() Vec3 { return Vec3{math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)} }

// Lerp linearly interpolates between v and o at fraction t.
func (v Vec3) Lerp(o Vec3, t float64) Vec3 { return v.Add(o.Sub(v).Scale(t)) }

// IsNaN reports whether any component is NaN.
func (v Vec3) IsNaN() bool { return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) }

// IsInf reports whether any component is infinite.
func (v Vec3) IsInf() bool {
	return math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0)
}

// IsFinite reports whether every component is finite.
func (v Vec3) IsFinite() bool { return !v.IsNaN() && !v.IsInf() }
