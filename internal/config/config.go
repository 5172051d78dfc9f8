// Package config reads the viewer configuration from YAML or TOML files.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/core/math32"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-ifcview/pkg/ifc"
	"github.com/askiada/go-ifcview/pkg/overlay"
	"github.com/askiada/go-ifcview/pkg/scene"
	"github.com/askiada/go-ifcview/pkg/viewer"
)

var (
	ErrFormat  = errors.New("unsupported config format")
	ErrInvalid = errors.New("invalid config")
)

type Loader struct {
	ExcludedCategories []string `yaml:"excluded_categories" toml:"excluded_categories"`
	CoordinateToOrigin bool     `yaml:"coordinate_to_origin" toml:"coordinate_to_origin"`
}

type Intake struct {
	Accept []string `yaml:"accept" toml:"accept"`
}

// Camera is the initial camera, as position and target triples.
type Camera struct {
	Position [3]float32 `yaml:"position" toml:"position"`
	Target   [3]float32 `yaml:"target" toml:"target"`
}

type Overlay struct {
	Panel int `yaml:"panel" toml:"panel"`
}

type Config struct {
	Loader  Loader  `yaml:"loader" toml:"loader"`
	Intake  Intake  `yaml:"intake" toml:"intake"`
	Camera  Camera  `yaml:"camera" toml:"camera"`
	Overlay Overlay `yaml:"overlay" toml:"overlay"`
	// Watch reloads the loaded file when it changes on disk.
	Watch bool `yaml:"watch" toml:"watch"`
	// ShowBounds draws the bounding box of the loaded model.
	ShowBounds bool `yaml:"show_bounds" toml:"show_bounds"`
	QueueSize  int  `yaml:"queue_size" toml:"queue_size"`
}

// Default mirrors the viewer defaults.
func Default() Config {
	settings := ifc.DefaultSettings()

	return Config{
		Loader: Loader{
			ExcludedCategories: settings.ExcludedCategories,
			CoordinateToOrigin: settings.CoordinateToOrigin,
		},
		Intake: Intake{Accept: []string{viewer.DefaultAccept}},
		Camera: Camera{
			Position: [3]float32{12, 6, 8},
			Target:   [3]float32{0, 0, -10},
		},
		Overlay:   Overlay{Panel: int(overlay.DefaultPanel)},
		QueueSize: 8,
	}
}

// Load reads path over the defaults: keys missing from the file keep their
// default value. The format follows the extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read config")
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if err != nil && !errors.Is(err, io.EOF) {
			return Config{}, errors.Wrapf(err, "unable to decode %s", path)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
		if err != nil {
			return Config{}, errors.Wrapf(err, "unable to decode %s", path)
		}
	default:
		return Config{}, errors.Wrapf(ErrFormat, "%q", ext)
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.QueueSize < 0 {
		return errors.Wrapf(ErrInvalid, "queue_size %d is negative", c.QueueSize)
	}
	if c.Overlay.Panel < int(overlay.PanelFPS) || c.Overlay.Panel > int(overlay.PanelMB) {
		return errors.Wrapf(ErrInvalid, "overlay panel %d, want 0, 1 or 2", c.Overlay.Panel)
	}
	if c.Camera.Position == c.Camera.Target {
		return errors.Wrap(ErrInvalid, "camera position equals its target")
	}

	return nil
}

// Settings returns the loader settings.
func (c Config) Settings() ifc.Settings {
	return ifc.Settings{
		ExcludedCategories: append([]string(nil), c.Loader.ExcludedCategories...),
		CoordinateToOrigin: c.Loader.CoordinateToOrigin,
	}
}

// SceneCamera returns the initial camera.
func (c Config) SceneCamera() scene.Camera {
	cam := scene.DefaultCamera()
	cam.Position = math32.Vec3(c.Camera.Position[0], c.Camera.Position[1], c.Camera.Position[2])
	cam.Target = math32.Vec3(c.Camera.Target[0], c.Camera.Target[1], c.Camera.Target[2])

	return cam
}
