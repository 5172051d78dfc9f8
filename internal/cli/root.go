// Package cli holds the ifcview commands. The window itself is supplied by
// the caller so the commands stay headless.
package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-ifcview/internal/config"
)

// Env is what a command resolved from its flags.
type Env struct {
	Config config.Config
	Logger *slog.Logger
	// File is loaded at start when set.
	File string
}

// GUI opens the viewer window and blocks until it closes.
type GUI func(ctx context.Context, env Env) error

type flags struct {
	config   string
	exclude  []string
	noOrigin bool
	watch    bool
	bounds   bool
	logLevel string
}

// NewRootCmd returns the ifcview command tree. Running the root command opens
// gui.
func NewRootCmd(gui GUI) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "ifcview [file]",
		Short:         "View IFC building models",
		Long:          "Open IFC (ISO 10303-21) files in a 3D viewer, or inspect them from the terminal.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := f.env(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				env.File = args[0]
			}

			return gui(commandContext(cmd), env)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "config file (.yaml, .yml or .toml)")
	pf.StringSliceVar(&f.exclude, "exclude", nil, "IFC categories to skip, replacing the configured ones")
	pf.BoolVar(&f.noOrigin, "no-origin", false, "keep the model coordinates instead of centring the model")
	pf.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.Flags().BoolVar(&f.watch, "watch", false, "reload the loaded file when it changes")
	root.Flags().BoolVar(&f.bounds, "bounds", false, "draw the bounding box of the model")

	root.AddCommand(newInfoCmd(f))

	return root
}

// env loads the config file and applies the flags the user set.
func (f *flags) env(cmd *cobra.Command) (Env, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(f.logLevel))
	if err != nil {
		return Env{}, errors.Wrapf(err, "invalid log level %q", f.logLevel)
	}

	cfg := config.Default()
	if f.config != "" {
		cfg, err = config.Load(f.config)
		if err != nil {
			return Env{}, err
		}
	}

	if cmd.Flags().Changed("exclude") {
		cfg.Loader.ExcludedCategories = normalize(f.exclude)
	}
	if f.noOrigin {
		cfg.Loader.CoordinateToOrigin = false
	}
	if f.watch {
		cfg.Watch = true
	}
	if f.bounds {
		cfg.ShowBounds = true
	}

	return Env{
		Config: cfg,
		Logger: newLogger(cmd.ErrOrStderr(), level),
	}, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func normalize(categories []string) []string {
	res := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c != "" {
			res = append(res, strings.ToUpper(c))
		}
	}

	return res
}
