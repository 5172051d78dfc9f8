package ifc

import (
	"math"

	"cogentcore.org/core/math32"
)

// vec is a double precision point. Georeferenced files place geometry far
// from the origin, so everything stays in float64 until normalization.
type vec [3]float64

func (a vec) add(b vec) vec       { return vec{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec) sub(b vec) vec       { return vec{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec) scale(s float64) vec { return vec{a[0] * s, a[1] * s, a[2] * s} }
func (a vec) dot(b vec) float64   { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec) length() float64     { return math.Sqrt(a.dot(a)) }
func (a vec) cross(b vec) vec {
	return vec{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a vec) normal() vec {
	l := a.length()
	if l == 0 {
		return a
	}

	return a.scale(1 / l)
}

// yUp converts from the IFC Z-up convention to the scene's Y-up one.
func (a vec) yUp() vec {
	return vec{a[0], a[2], -a[1]}
}

func (a vec) vector3() math32.Vector3 {
	return math32.Vec3(float32(a[0]), float32(a[1]), float32(a[2]))
}

// transform maps local coordinates to a parent frame: origin plus three
// column axes, which may carry a scale.
type transform struct {
	origin  vec
	x, y, z vec
}

var identity = transform{x: vec{1, 0, 0}, y: vec{0, 1, 0}, z: vec{0, 0, 1}}

func (t transform) apply(p vec) vec {
	return t.origin.add(t.dir(p))
}

func (t transform) dir(d vec) vec {
	return t.x.scale(d[0]).add(t.y.scale(d[1])).add(t.z.scale(d[2]))
}

// then returns the transform applying child first and t second.
func (t transform) then(child transform) transform {
	return transform{
		origin: t.apply(child.origin),
		x:      t.dir(child.x),
		y:      t.dir(child.y),
		z:      t.dir(child.z),
	}
}

// frame builds an orthonormal right handed frame from a main axis and a
// reference direction, the way IfcAxis2Placement3D is defined.
func frame(origin, axis, ref vec) transform {
	z := axis.normal()
	if z.length() == 0 {
		z = vec{0, 0, 1}
	}
	if ref.length() == 0 || ref.normal().cross(z).length() < 1e-9 {
		ref = vec{1, 0, 0}
		if math.Abs(z[0]) > 0.9 {
			ref = vec{0, 1, 0}
		}
	}
	x := ref.sub(z.scale(ref.dot(z))).normal()
	y := z.cross(x)

	return transform{origin: origin, x: x, y: y, z: z}
}
