package viewer

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Source is a file selected by the user.
type Source interface {
	// Name is the base name shown in diagnostics.
	Name() string
	// Read returns the whole content.
	Read(ctx context.Context) ([]byte, error)
}

// keyer is implemented by sources whose Name is not unique, like a base name.
type keyer interface {
	Key() string
}

// sourceKey identifies the file behind src.
func sourceKey(src Source) string {
	if k, ok := src.(keyer); ok {
		return k.Key()
	}

	return src.Name()
}

// FileSource reads a file of the operating system.
type FileSource string

func (f FileSource) Name() string {
	return filepath.Base(string(f))
}

// Path returns the file path.
func (f FileSource) Path() string {
	return string(f)
}

// Key is the cleaned absolute path, or the cleaned path when it cannot be
// resolved.
func (f FileSource) Key() string {
	abs, err := filepath.Abs(string(f))
	if err != nil {
		return filepath.Clean(string(f))
	}

	return abs
}

func (f FileSource) Read(ctx context.Context) ([]byte, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer file.Close()

	return readAll(ctx, file)
}

// FSSource reads a file of an fs.FS.
type FSSource struct {
	FS   fs.FS
	Path string
}

func (f FSSource) Name() string {
	return path.Base(f.Path)
}

func (f FSSource) Key() string {
	return path.Clean(f.Path)
}

func (f FSSource) Read(ctx context.Context) ([]byte, error) {
	file, err := f.FS.Open(f.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer file.Close()

	return readAll(ctx, file)
}

// ctxReader stops reading once its context is done.
type ctxReader struct {
	ctx context.Context //nolint:containedctx // scoped to one readAll call.
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(ctxReader{ctx: ctx, r: r})
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}

	return data, nil
}

// DefaultAccept is the extension of IFC files.
const DefaultAccept = ".ifc"

// Intake validates selections by extension, like a file picker filter. It
// never looks at the content.
type Intake struct {
	accept []string
}

// NewIntake accepts files ending with one of the extensions, ".ifc" when
// none is given.
func NewIntake(accept ...string) *Intake {
	in := &Intake{}
	for _, ext := range accept {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		in.accept = append(in.accept, ext)
	}
	if len(in.accept) == 0 {
		in.accept = []string{DefaultAccept}
	}

	return in
}

// Accept returns the accepted extensions, with their leading dot.
func (in *Intake) Accept() []string {
	return append([]string(nil), in.accept...)
}

// Accepts reports whether name has an accepted extension.
func (in *Intake) Accepts(name string) bool {
	ext := strings.ToLower(path.Ext(filepath.ToSlash(name)))
	for _, a := range in.accept {
		if ext == a {
			return true
		}
	}

	return false
}

// Open turns a selected path into a Source.
func (in *Intake) Open(name string) (Source, error) {
	if !in.Accepts(name) {
		return nil, errors.Wrapf(ErrExtension, "%s, want %s", name, strings.Join(in.accept, ", "))
	}

	return FileSource(name), nil
}

// OpenFS turns a file of fsys into a Source.
func (in *Intake) OpenFS(fsys fs.FS, name string) (Source, error) {
	if !in.Accepts(name) {
		return nil, errors.Wrapf(ErrExtension, "%s, want %s", name, strings.Join(in.accept, ", "))
	}

	return FSSource{FS: fsys, Path: name}, nil
}
