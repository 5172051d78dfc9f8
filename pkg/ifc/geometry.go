package ifc

import (
	"image/color"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// circleSegments is the number of edges of a tessellated circle profile.
const circleSegments = 24

// maxDepth bounds placement chains and nested mapped items.
const maxDepth = 64

var errDepth = errors.New("reference chain too deep")

// rawMesh is the geometry of one representation item, in file length units
// and IFC axes.
type rawMesh struct {
	positions []vec
	indices   []uint32
	color     color.RGBA
	styled    bool
}

func (m *rawMesh) polygon(pts []vec) {
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	base := uint32(len(m.positions))
	for _, tri := range triangulate(pts) {
		m.indices = append(m.indices, base+uint32(tri[0]), base+uint32(tri[1]), base+uint32(tri[2]))
	}
	m.positions = append(m.positions, pts...)
}

func (m *rawMesh) empty() bool {
	return len(m.indices) == 0
}

// geometry resolves the representation items of one file. It is safe for
// concurrent use once built.
type geometry struct {
	file *File
	// unit converts file lengths to metres.
	unit   float64
	styles map[int]color.RGBA

	mu         sync.Mutex
	placements map[int]transform
	skipped    map[string]int
}

func newGeometry(file *File) *geometry {
	g := &geometry{
		file:       file,
		unit:       lengthUnit(file),
		styles:     make(map[int]color.RGBA),
		placements: make(map[int]transform),
		skipped:    make(map[string]int),
	}
	for _, styled := range file.ByType("IFCSTYLEDITEM") {
		item := styled.Arg(0)
		if item.Kind != KindRef {
			continue
		}
		for _, ref := range styled.Arg(1).Refs() {
			if c, ok := g.styleColour(file.Get(ref), 0); ok {
				g.styles[item.Ref] = c

				break
			}
		}
	}

	return g
}

func (g *geometry) skip(typ string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.skipped[typ]++
}

// skippedTypes lists unsupported item types with their counts.
func (g *geometry) skippedTypes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	res := make([]string, 0, len(g.skipped))
	for typ := range g.skipped {
		res = append(res, typ)
	}
	sort.Strings(res)

	return res
}

func (g *geometry) styleColour(e *Entity, depth int) (color.RGBA, bool) {
	if e == nil || depth > 4 {
		return color.RGBA{}, false
	}
	switch e.Type {
	case "IFCPRESENTATIONSTYLEASSIGNMENT":
		for _, ref := range e.Arg(0).Refs() {
			if c, ok := g.styleColour(g.file.Get(ref), depth+1); ok {
				return c, true
			}
		}
	case "IFCSURFACESTYLE":
		for _, ref := range e.Arg(2).Refs() {
			if c, ok := g.styleColour(g.file.Get(ref), depth+1); ok {
				return c, true
			}
		}
	case "IFCSURFACESTYLESHADING", "IFCSURFACESTYLERENDERING":
		rgb := g.file.Deref(e.Arg(0))
		if rgb == nil || rgb.Type != "IFCCOLOURRGB" {
			return color.RGBA{}, false
		}
		r, _ := rgb.Arg(1).Float()
		gr, _ := rgb.Arg(2).Float()
		b, _ := rgb.Arg(3).Float()
		transparency, _ := e.Arg(1).Float()

		return color.RGBA{
			R: channel(r),
			G: channel(gr),
			B: channel(b),
			A: channel(1 - transparency),
		}, true
	}

	return color.RGBA{}, false
}

func channel(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, f)) * 255))
}

var unitPrefixes = map[string]float64{
	"EXA":   1e18,
	"PETA":  1e15,
	"TERA":  1e12,
	"GIGA":  1e9,
	"MEGA":  1e6,
	"KILO":  1e3,
	"HECTO": 1e2,
	"DECA":  1e1,
	"DECI":  1e-1,
	"CENTI": 1e-2,
	"MILLI": 1e-3,
	"MICRO": 1e-6,
	"NANO":  1e-9,
	"PICO":  1e-12,
}

// lengthUnit returns the size of the file's length unit in metres.
func lengthUnit(file *File) float64 {
	var units []*Entity
	for _, assignment := range file.ByType("IFCUNITASSIGNMENT") {
		for _, ref := range assignment.Arg(0).Refs() {
			units = append(units, file.Get(ref))
		}
	}
	if len(units) == 0 {
		units = file.ByType("IFCSIUNIT")
	}
	for _, unit := range units {
		if unit == nil || unit.Arg(1).Str != "LENGTHUNIT" {
			continue
		}
		if scale, ok := unitScale(file, unit); ok {
			return scale
		}
	}

	return 1
}

func unitScale(file *File, unit *Entity) (float64, bool) {
	switch unit.Type {
	case "IFCSIUNIT":
		if prefix := unit.Arg(2); prefix.Kind == KindEnum {
			scale, ok := unitPrefixes[prefix.Str]

			return scale, ok
		}

		return 1, true
	case "IFCCONVERSIONBASEDUNIT":
		measure := file.Deref(unit.Arg(3))
		if measure == nil {
			return 0, false
		}
		factor, ok := measure.Arg(0).Float()
		if !ok {
			return 0, false
		}
		base := file.Deref(measure.Arg(1))
		if base == nil {
			return factor, true
		}
		scale, ok := unitScale(file, base)

		return factor * scale, ok
	}

	return 0, false
}

func (g *geometry) point(e *Entity) vec {
	var p vec
	if e == nil {
		return p
	}
	for i, c := range e.Arg(0).List {
		if i > 2 {
			break
		}
		p[i], _ = c.Float()
	}

	return p
}

func (g *geometry) direction(v Value) vec {
	e := g.file.Deref(v)
	if e == nil || e.Type != "IFCDIRECTION" {
		return vec{}
	}

	return g.point(e)
}

// axisPlacement reads IfcAxis2Placement3D and IfcAxis2Placement2D. Missing
// placements are the identity.
func (g *geometry) axisPlacement(e *Entity) transform {
	if e == nil {
		return identity
	}
	origin := g.point(g.file.Deref(e.Arg(0)))
	switch e.Type {
	case "IFCAXIS2PLACEMENT3D":
		return frame(origin, g.direction(e.Arg(1)), g.direction(e.Arg(2)))
	case "IFCAXIS2PLACEMENT2D":
		return frame(origin, vec{0, 0, 1}, g.direction(e.Arg(1)))
	}

	return identity
}

// placement resolves an IfcLocalPlacement chain to world coordinates.
func (g *geometry) placement(v Value, depth int) (transform, error) {
	e := g.file.Deref(v)
	if e == nil || e.Type != "IFCLOCALPLACEMENT" {
		return identity, nil
	}
	if depth > maxDepth {
		return identity, errors.Wrapf(errDepth, "placement #%d", e.ID)
	}

	g.mu.Lock()
	t, ok := g.placements[e.ID]
	g.mu.Unlock()
	if ok {
		return t, nil
	}

	parent, err := g.placement(e.Arg(0), depth+1)
	if err != nil {
		return identity, err
	}
	t = parent.then(g.axisPlacement(g.file.Deref(e.Arg(1))))

	g.mu.Lock()
	g.placements[e.ID] = t
	g.mu.Unlock()

	return t, nil
}

// operator reads IfcCartesianTransformationOperator3D and its non uniform
// variant.
func (g *geometry) operator(e *Entity) transform {
	if e == nil {
		return identity
	}
	origin := g.point(g.file.Deref(e.Arg(2)))
	t := frame(origin, g.direction(e.Arg(4)), g.direction(e.Arg(0)))
	sx := 1.0
	if s, ok := e.Arg(3).Float(); ok {
		sx = s
	}
	sy, sz := sx, sx
	if e.Type == "IFCCARTESIANTRANSFORMATIONOPERATOR3DNONUNIFORM" {
		if s, ok := e.Arg(5).Float(); ok {
			sy = s
		}
		if s, ok := e.Arg(6).Float(); ok {
			sz = s
		}
	}
	t.x, t.y, t.z = t.x.scale(sx), t.y.scale(sy), t.z.scale(sz)

	return t
}

// bodyItems returns the representation items to mesh for a product shape.
// Body representations win; without one every 3D representation is used.
func (g *geometry) bodyItems(shape *Entity) []*Entity {
	var body, other []*Entity
	for _, ref := range shape.Arg(2).Refs() {
		rep := g.file.Get(ref)
		if rep == nil {
			continue
		}
		items := make([]*Entity, 0, len(rep.Arg(3).List))
		for _, item := range rep.Arg(3).Refs() {
			if e := g.file.Get(item); e != nil {
				items = append(items, e)
			}
		}
		switch rep.Arg(1).Str {
		case "Body":
			body = append(body, items...)
		case "Axis", "Box", "FootPrint", "Annotation", "Profile":
		default:
			other = append(other, items...)
		}
	}
	if len(body) > 0 {
		return body
	}

	return other
}

// item meshes one representation item in the frame t into m.
func (g *geometry) item(e *Entity, t transform, m *rawMesh, depth int) error {
	if depth > maxDepth {
		return errors.Wrapf(errDepth, "item #%d", e.ID)
	}
	if !m.styled {
		if c, ok := g.styles[e.ID]; ok {
			m.color, m.styled = c, true
		}
	}

	switch e.Type {
	case "IFCTRIANGULATEDFACESET", "IFCTRIANGULATEDIRREGULARNETWORK":
		g.triangulatedFaceSet(e, t, m)
	case "IFCPOLYGONALFACESET":
		g.polygonalFaceSet(e, t, m)
	case "IFCFACETEDBREP", "IFCFACETEDBREPWITHVOIDS":
		g.shell(g.file.Deref(e.Arg(0)), t, m)
	case "IFCSHELLBASEDSURFACEMODEL", "IFCFACEBASEDSURFACEMODEL":
		for _, ref := range e.Arg(0).Refs() {
			g.shell(g.file.Get(ref), t, m)
		}
	case "IFCCLOSEDSHELL", "IFCOPENSHELL", "IFCCONNECTEDFACESET":
		g.shell(e, t, m)
	case "IFCEXTRUDEDAREASOLID":
		g.extrusion(e, t, m)
	case "IFCBOOLEANRESULT", "IFCBOOLEANCLIPPINGRESULT":
		// no CSG: the first operand stands in for the result
		first := g.file.Deref(e.Arg(1))
		if first == nil {
			return nil
		}

		return g.item(first, t, m, depth+1)
	case "IFCMAPPEDITEM":
		source := g.file.Deref(e.Arg(0))
		if source == nil {
			return nil
		}
		local := t.then(g.operator(g.file.Deref(e.Arg(1)))).then(g.axisPlacement(g.file.Deref(source.Arg(0))))
		rep := g.file.Deref(source.Arg(1))
		if rep == nil {
			return nil
		}
		for _, ref := range rep.Arg(3).Refs() {
			child := g.file.Get(ref)
			if child == nil {
				continue
			}
			err := g.item(child, local, m, depth+1)
			if err != nil {
				return err
			}
		}
	default:
		g.skip(e.Type)
	}

	return nil
}

// pointList reads IfcCartesianPointList3D/2D coordinates.
func (g *geometry) pointList(v Value, t transform) []vec {
	e := g.file.Deref(v)
	if e == nil {
		return nil
	}
	res := make([]vec, 0, len(e.Arg(0).List))
	for _, coords := range e.Arg(0).List {
		var p vec
		for i, c := range coords.List {
			if i > 2 {
				break
			}
			p[i], _ = c.Float()
		}
		res = append(res, t.apply(p))
	}

	return res
}

// indexList reads a list of 1-based indices, remapped through pn when given.
func indexList(v Value, pn []int) []int {
	res := make([]int, 0, len(v.List))
	for _, item := range v.List {
		if item.Kind != KindInt {
			continue
		}
		i := int(item.Int)
		if pn != nil {
			if i < 1 || i > len(pn) {
				return nil
			}
			i = pn[i-1]
		}
		res = append(res, i-1)
	}

	return res
}

func pnIndex(v Value) []int {
	if v.Kind != KindList {
		return nil
	}
	res := make([]int, 0, len(v.List))
	for _, item := range v.List {
		res = append(res, int(item.Int))
	}

	return res
}

func (g *geometry) triangulatedFaceSet(e *Entity, t transform, m *rawMesh) {
	pts := g.pointList(e.Arg(0), t)
	pn := pnIndex(e.Arg(4))
	if e.Type == "IFCTRIANGULATEDIRREGULARNETWORK" {
		pn = nil
	}
	base := uint32(len(m.positions))
	m.positions = append(m.positions, pts...)
	for _, tri := range e.Arg(3).List {
		idx := indexList(tri, pn)
		if len(idx) != 3 || !inRange(idx, len(pts)) {
			continue
		}
		m.indices = append(m.indices, base+uint32(idx[0]), base+uint32(idx[1]), base+uint32(idx[2]))
	}
}

func (g *geometry) polygonalFaceSet(e *Entity, t transform, m *rawMesh) {
	pts := g.pointList(e.Arg(0), t)
	pn := pnIndex(e.Arg(3))
	for _, ref := range e.Arg(2).Refs() {
		face := g.file.Get(ref)
		if face == nil {
			continue
		}
		idx := indexList(face.Arg(0), pn)
		if !inRange(idx, len(pts)) {
			continue
		}
		polygon := make([]vec, len(idx))
		for i, j := range idx {
			polygon[i] = pts[j]
		}
		m.polygon(polygon)
	}
}

func inRange(idx []int, n int) bool {
	for _, i := range idx {
		if i < 0 || i >= n {
			return false
		}
	}

	return true
}

// shell meshes the outer bound of every face. Inner bounds are ignored.
func (g *geometry) shell(e *Entity, t transform, m *rawMesh) {
	if e == nil {
		return
	}
	for _, ref := range e.Arg(0).Refs() {
		face := g.file.Get(ref)
		if face == nil {
			continue
		}
		bounds := face.Arg(0).Refs()
		var bound *Entity
		for _, b := range bounds {
			candidate := g.file.Get(b)
			if candidate == nil {
				continue
			}
			if candidate.Type == "IFCFACEOUTERBOUND" || bound == nil {
				bound = candidate
			}
		}
		if bound == nil {
			continue
		}
		loop := g.file.Deref(bound.Arg(0))
		if loop == nil || loop.Type != "IFCPOLYLOOP" {
			g.skip(typeOf(loop))

			continue
		}
		refs := loop.Arg(0).Refs()
		polygon := make([]vec, 0, len(refs))
		for _, p := range refs {
			polygon = append(polygon, t.apply(g.point(g.file.Get(p))))
		}
		if orientation := bound.Arg(1); orientation.Kind == KindEnum && orientation.Str == "F" {
			for i, j := 0, len(polygon)-1; i < j; i, j = i+1, j-1 {
				polygon[i], polygon[j] = polygon[j], polygon[i]
			}
		}
		m.polygon(polygon)
	}
}

func typeOf(e *Entity) string {
	if e == nil {
		return "$"
	}

	return e.Type
}

// profile returns the outline of a profile definition in its own plane.
func (g *geometry) profile(e *Entity) []vec {
	if e == nil {
		return nil
	}
	var outline []vec
	switch e.Type {
	case "IFCRECTANGLEPROFILEDEF":
		x, _ := e.Arg(3).Float()
		y, _ := e.Arg(4).Float()
		outline = []vec{{-x / 2, -y / 2}, {x / 2, -y / 2}, {x / 2, y / 2}, {-x / 2, y / 2}}
	case "IFCCIRCLEPROFILEDEF":
		r, _ := e.Arg(3).Float()
		outline = make([]vec, circleSegments)
		for i := range outline {
			a := 2 * math.Pi * float64(i) / circleSegments
			outline[i] = vec{r * math.Cos(a), r * math.Sin(a)}
		}
	case "IFCARBITRARYCLOSEDPROFILEDEF", "IFCARBITRARYPROFILEDEFWITHVOIDS":
		return g.curve(g.file.Deref(e.Arg(2)))
	default:
		g.skip(e.Type)

		return nil
	}

	position := g.axisPlacement(g.file.Deref(e.Arg(2)))
	for i, p := range outline {
		outline[i] = position.apply(p)
	}

	return outline
}

// curve returns the points of a closed 2D curve.
func (g *geometry) curve(e *Entity) []vec {
	if e == nil {
		return nil
	}
	var pts []vec
	switch e.Type {
	case "IFCPOLYLINE":
		for _, ref := range e.Arg(0).Refs() {
			pts = append(pts, g.point(g.file.Get(ref)))
		}
	case "IFCINDEXEDPOLYCURVE":
		all := g.pointList(e.Arg(0), identity)
		segments := e.Arg(1)
		if segments.Kind != KindList {
			pts = all
			break
		}
		// arcs are approximated by their three defining points
		for _, seg := range segments.List {
			if seg.Kind != KindTyped || len(seg.List) != 1 {
				continue
			}
			for _, i := range indexList(seg.List[0], nil) {
				if i < 0 || i >= len(all) {
					continue
				}
				if len(pts) > 0 && pts[len(pts)-1] == all[i] {
					continue
				}
				pts = append(pts, all[i])
			}
		}
	default:
		g.skip(e.Type)

		return nil
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}

	return pts
}

// extrusion meshes an IfcExtrudedAreaSolid: both caps and one quad per
// profile edge.
func (g *geometry) extrusion(e *Entity, t transform, m *rawMesh) {
	outline := g.profile(g.file.Deref(e.Arg(0)))
	if len(outline) < 3 {
		return
	}
	depth, _ := e.Arg(3).Float()
	dir := g.direction(e.Arg(2)).normal().scale(depth)
	if dir.length() == 0 {
		return
	}

	// counter clockwise seen from the extrusion direction
	if newellNormal(outline).dot(vec{0, 0, 1})*dir[2] < 0 {
		for i, j := 0, len(outline)-1; i < j; i, j = i+1, j-1 {
			outline[i], outline[j] = outline[j], outline[i]
		}
	}

	local := t.then(g.axisPlacement(g.file.Deref(e.Arg(1))))
	n := len(outline)
	bottom := make([]vec, n)
	top := make([]vec, n)
	for i, p := range outline {
		bottom[n-1-i] = local.apply(p)
		top[i] = local.apply(p.add(dir))
	}
	m.polygon(bottom)
	m.polygon(top)

	for i := range outline {
		a, b := outline[i], outline[(i+1)%n]
		m.polygon([]vec{
			local.apply(a),
			local.apply(b),
			local.apply(b.add(dir)),
			local.apply(a.add(dir)),
		})
	}
}

// product meshes every body item of one product, one mesh per item.
func (g *geometry) product(e *Entity) ([]*rawMesh, error) {
	t, err := g.placement(e.Arg(5), 0)
	if err != nil {
		return nil, err
	}
	shape := g.file.Deref(e.Arg(6))
	if shape == nil {
		return nil, nil
	}

	var res []*rawMesh
	for _, item := range g.bodyItems(shape) {
		m := &rawMesh{color: defaultColour(e.Type)}
		err = g.item(item, t, m, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "%s #%d", e.Type, e.ID)
		}
		if !m.empty() {
			res = append(res, m)
		}
	}

	return res, nil
}

// isProduct reports whether e carries an object placement and a product
// definition shape.
func (f *File) isProduct(e *Entity) bool {
	if len(e.Args) < 7 {
		return false
	}
	shape := f.Deref(e.Args[6])
	if shape == nil || shape.Type != "IFCPRODUCTDEFINITIONSHAPE" {
		return false
	}
	placement := e.Args[5]

	return placement.Kind == KindNull || placement.Kind == KindRef
}

var defaultColours = map[string]color.RGBA{
	"IFCWALL":              {R: 220, G: 217, B: 210, A: 255},
	"IFCWALLSTANDARDCASE":  {R: 220, G: 217, B: 210, A: 255},
	"IFCSLAB":              {R: 180, G: 180, B: 180, A: 255},
	"IFCROOF":              {R: 160, G: 82, B: 45, A: 255},
	"IFCWINDOW":            {R: 150, G: 200, B: 230, A: 120},
	"IFCPLATE":             {R: 150, G: 200, B: 230, A: 120},
	"IFCDOOR":              {R: 140, G: 100, B: 60, A: 255},
	"IFCBEAM":              {R: 170, G: 170, B: 190, A: 255},
	"IFCCOLUMN":            {R: 170, G: 170, B: 190, A: 255},
	"IFCMEMBER":            {R: 170, G: 170, B: 190, A: 255},
	"IFCSTAIR":             {R: 200, G: 190, B: 170, A: 255},
	"IFCSTAIRFLIGHT":       {R: 200, G: 190, B: 170, A: 255},
	"IFCRAILING":           {R: 90, G: 90, B: 90, A: 255},
	"IFCFURNISHINGELEMENT": {R: 200, G: 160, B: 110, A: 255},
}

func defaultColour(category string) color.RGBA {
	if c, ok := defaultColours[category]; ok {
		return c
	}

	return color.RGBA{R: 204, G: 204, B: 204, A: 255}
}

// categoryName trims the IFC prefix for display, IFCWALL becomes Wall.
func categoryName(category string) string {
	name := strings.TrimPrefix(category, "IFC")
	if name == "" {
		return category
	}

	return name[:1] + strings.ToLower(name[1:])
}
