package scene

import (
	"cogentcore.org/core/math32"

	"github.com/askiada/go-ifcview/pkg/bbox"
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	Position math32.Vector3
	Target   math32.Vector3
	Up       math32.Vector3
	// FOV is the vertical field of view in degrees.
	FOV float32
}

// DefaultCamera is the initial camera of the viewer.
func DefaultCamera() Camera {
	return Camera{
		Position: math32.Vec3(12, 6, 8),
		Target:   math32.Vec3(0, 0, -10),
		Up:       math32.Vec3(0, 1, 0),
		FOV:      60,
	}
}

// direction is the unit vector from the target to the camera.
func (c Camera) direction() math32.Vector3 {
	dir := c.Position.Sub(c.Target)
	if dir.Length() == 0 {
		return math32.Vec3(1, 1, 1).Normal()
	}

	return dir.Normal()
}

// Frame returns cam moved along its current viewing direction so that the
// sphere of v exactly fits the vertical field of view.
func Frame(cam Camera, v bbox.Volume) Camera {
	fov := cam.FOV
	if fov <= 0 || fov >= 180 {
		fov = 60
	}
	radius := v.Radius
	if radius <= 0 {
		radius = 1
	}
	distance := radius / math32.Sin(math32.DegToRad(fov)/2)

	res := cam
	res.FOV = fov
	res.Target = v.Center
	res.Position = v.Center.Add(cam.direction().MulScalar(distance))
	if res.Up.Length() == 0 {
		res.Up = math32.Vec3(0, 1, 0)
	}

	return res
}

// Tween returns steps cameras moving from from to to. The last one is to.
func Tween(from, to Camera, steps int) []Camera {
	if steps < 1 {
		steps = 1
	}
	res := make([]Camera, steps)
	for i := 1; i <= steps; i++ {
		// ease out: fast start, slow arrival
		t := float32(i) / float32(steps)
		t = 1 - (1-t)*(1-t)

		cam := to
		cam.Position = lerp(from.Position, to.Position, t)
		cam.Target = lerp(from.Target, to.Target, t)
		res[i-1] = cam
	}
	res[steps-1] = to

	return res
}

func lerp(a, b math32.Vector3, t float32) math32.Vector3 {
	return a.Add(b.Sub(a).MulScalar(t))
}
