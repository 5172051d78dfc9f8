package ifc

import "math"

// newellNormal returns the area weighted normal of a possibly non planar
// polygon.
func newellNormal(pts []vec) vec {
	var n vec
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}

	return n
}

type point2 [2]float64

func cross2(a, b, c point2) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func inTriangle(p, a, b, c point2) bool {
	return cross2(a, b, p) >= 0 && cross2(b, c, p) >= 0 && cross2(c, a, p) >= 0
}

// project flattens pts onto the plane of their normal so that the winding
// around the normal becomes counter clockwise.
func project(pts []vec) []point2 {
	n := newellNormal(pts).normal()
	ref := vec{1, 0, 0}
	if math.Abs(n[0]) > 0.9 {
		ref = vec{0, 1, 0}
	}
	u := ref.sub(n.scale(ref.dot(n))).normal()
	v := n.cross(u)

	res := make([]point2, len(pts))
	for i, p := range pts {
		res[i] = point2{p.dot(u), p.dot(v)}
	}

	return res
}

// triangulate splits a simple polygon into triangles by ear clipping. The
// triangles keep the winding of the polygon. Indices refer to pts.
func triangulate(pts []vec) [][3]int {
	switch len(pts) {
	case 0, 1, 2:
		return nil
	case 3:
		return [][3]int{{0, 1, 2}}
	}

	flat := project(pts)
	scale := 0.0
	for _, p := range flat {
		scale = math.Max(scale, math.Max(math.Abs(p[0]), math.Abs(p[1])))
	}
	eps := 1e-12 * scale * scale

	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	tris := make([][3]int, 0, len(pts)-2)

outer:
	for len(idx) > 3 {
		for i := range idx {
			prev, cur, next := idx[(i+len(idx)-1)%len(idx)], idx[i], idx[(i+1)%len(idx)]
			area := cross2(flat[prev], flat[cur], flat[next])
			if math.Abs(area) <= eps {
				// collinear vertex, drop it without a triangle
				idx = append(idx[:i], idx[i+1:]...)

				continue outer
			}
			if area < 0 {
				continue
			}
			ear := true
			for _, other := range idx {
				if other == prev || other == cur || other == next {
					continue
				}
				if inTriangle(flat[other], flat[prev], flat[cur], flat[next]) {
					ear = false

					break
				}
			}
			if ear {
				tris = append(tris, [3]int{prev, cur, next})
				idx = append(idx[:i], idx[i+1:]...)

				continue outer
			}
		}

		// self intersecting input, fan what is left
		for i := 1; i+1 < len(idx); i++ {
			tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
		}

		return tris
	}

	if len(idx) == 3 && math.Abs(cross2(flat[idx[0]], flat[idx[1]], flat[idx[2]])) > eps {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}

	return tris
}
