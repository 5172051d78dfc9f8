// Package ifc loads IFC exchange files (ISO 10303-21 clear text) into
// triangle meshes ready for the scene.
package ifc

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"

	"cogentcore.org/core/math32"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-ifcview/pkg/geom"
)

// magic opens every exchange structure.
const magic = "ISO-10303-21;"

// FileType is the content type registered with filetype for IFC files.
var FileType = filetype.AddType("ifc", "application/x-step")

func init() {
	filetype.AddMatcher(FileType, matchIFC)
}

var bom = []byte("\xef\xbb\xbf")

func matchIFC(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, bom)
	buf = bytes.TrimLeft(buf, " \t\r\n")

	return bytes.HasPrefix(buf, []byte(magic))
}

// IsIFC sniffs the content of data.
func IsIFC(data []byte) bool {
	return filetype.IsType(data, FileType)
}

// Settings configures a Loader once at startup.
type Settings struct {
	// ExcludedCategories are entity types, e.g. IFCREINFORCINGBAR, that never
	// produce geometry.
	ExcludedCategories []string
	// CoordinateToOrigin moves the model so that the centre of its bounding
	// box is the scene origin.
	CoordinateToOrigin bool
}

// DefaultSettings excludes reinforcement and normalizes coordinates.
func DefaultSettings() Settings {
	return Settings{
		ExcludedCategories: []string{
			"IFCTENDONANCHOR",
			"IFCREINFORCINGBAR",
			"IFCREINFORCINGELEMENT",
		},
		CoordinateToOrigin: true,
	}
}

// never meshed, whatever the settings say
var hidden = map[string]struct{}{
	"IFCOPENINGELEMENT":      {},
	"IFCOPENINGSTANDARDCASE": {},
	"IFCSPACE":               {},
}

// Loader turns file contents into a geom.Model.
type Loader struct {
	logger *slog.Logger

	mu                 sync.RWMutex
	ready              bool
	excluded           map[string]struct{}
	coordinateToOrigin bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Setup applies settings. It can only run once; the exclusion set is read
// only afterwards.
func (l *Loader) Setup(ctx context.Context, settings Settings) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "setup")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready {
		return ErrAlreadySetup
	}

	l.excluded = make(map[string]struct{}, len(settings.ExcludedCategories))
	for _, cat := range settings.ExcludedCategories {
		cat = strings.ToUpper(strings.TrimSpace(cat))
		if cat != "" {
			l.excluded[cat] = struct{}{}
		}
	}
	l.coordinateToOrigin = settings.CoordinateToOrigin
	l.ready = true

	return nil
}

// Excluded reports whether category never produces geometry.
func (l *Loader) Excluded(category string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.excluded[strings.ToUpper(category)]

	return ok
}

// Settings returns a copy of the applied settings.
func (l *Loader) Settings() Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := Settings{CoordinateToOrigin: l.coordinateToOrigin}
	for cat := range l.excluded {
		s.ExcludedCategories = append(s.ExcludedCategories, cat)
	}
	sort.Strings(s.ExcludedCategories)

	return s
}

// Load parses data and meshes its products. Products are meshed
// concurrently; the meshes keep file order.
func (l *Loader) Load(ctx context.Context, data []byte) (*geom.Model, error) {
	l.mu.RLock()
	ready, toOrigin := l.ready, l.coordinateToOrigin
	l.mu.RUnlock()
	if !ready {
		return nil, ErrNotSetup
	}
	if !IsIFC(data) {
		return nil, ErrNotIFC
	}

	file, err := Parse(ctx, bytes.TrimLeft(bytes.TrimPrefix(data, bom), " \t\r\n"))
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	var products []*Entity
	for _, e := range file.All() {
		if _, ok := hidden[e.Type]; ok || l.Excluded(e.Type) {
			continue
		}
		if file.isProduct(e) {
			products = append(products, e)
		}
	}

	g := newGeometry(file)
	results := make([][]*rawMesh, len(products))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, product := range products {
		i, product := i, product
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			meshes, err := g.product(product)
			if err != nil {
				return err
			}
			results[i] = meshes

			return nil
		})
	}
	err = eg.Wait()
	if err != nil {
		return nil, errors.Wrap(err, "mesh products")
	}

	if skipped := g.skippedTypes(); len(skipped) > 0 {
		l.logger.Debug("unsupported geometry skipped", slog.Any("types", skipped))
	}

	model := geom.NewModel(file.Name)
	model.Schema = file.Schema
	offset := l.place(results, g.unit, toOrigin)
	model.Offset = offset.vector3()

	for i, product := range products {
		for _, raw := range results[i] {
			mesh := &geom.Mesh{
				ExpressID: product.ID,
				Category:  product.Type,
				GlobalID:  product.Arg(0).Str,
				Name:      product.Arg(2).Str,
				Positions: make([]math32.Vector3, len(raw.positions)),
				Indices:   raw.indices,
				Color:     raw.color,
			}
			if mesh.Name == "" {
				mesh.Name = categoryName(product.Type)
			}
			for j, p := range raw.positions {
				mesh.Positions[j] = p.vector3()
			}
			model.Meshes = append(model.Meshes, mesh)
		}
	}

	if model.Empty() {
		return nil, ErrEmptyModel
	}
	l.logger.Debug("ifc model meshed",
		slog.String("schema", model.Schema),
		slog.Int("products", len(products)),
		slog.Int("meshes", len(model.Meshes)),
		slog.Int("triangles", model.Triangles()),
	)

	return model, nil
}

// place scales raw positions to metres, turns them Y-up and, when toOrigin
// is set, centres them. It returns the applied translation.
func (l *Loader) place(results [][]*rawMesh, unit float64, toOrigin bool) vec {
	lo := vec{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := vec{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, meshes := range results {
		for _, m := range meshes {
			for i, p := range m.positions {
				p = p.scale(unit).yUp()
				m.positions[i] = p
				for k := range p {
					lo[k] = math.Min(lo[k], p[k])
					hi[k] = math.Max(hi[k], p[k])
				}
			}
		}
	}
	if !toOrigin || math.IsInf(lo[0], 1) {
		return vec{}
	}

	offset := lo.add(hi).scale(-0.5)
	for _, meshes := range results {
		for _, m := range meshes {
			for i := range m.positions {
				m.positions[i] = m.positions[i].add(offset)
			}
		}
	}

	return offset
}
