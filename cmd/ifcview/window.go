package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"cogentcore.org/core/core"
	"cogentcore.org/core/events"
	"github.com/pkg/errors"

	"github.com/askiada/go-ifcview/internal/cli"
	"github.com/askiada/go-ifcview/internal/watch"
	"github.com/askiada/go-ifcview/internal/xyzhost"
	"github.com/askiada/go-ifcview/pkg/ifc"
	"github.com/askiada/go-ifcview/pkg/overlay"
	"github.com/askiada/go-ifcview/pkg/viewer"
)

// openWindow builds the viewer window and runs it until it is closed.
func openWindow(ctx context.Context, env cli.Env) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loader := ifc.NewLoader(ifc.WithLogger(env.Logger))
	err := loader.Setup(ctx, env.Config.Settings())
	if err != nil {
		return errors.Wrap(err, "unable to set up loader")
	}

	b := core.NewBody("ifcview")
	stats := overlay.New(overlay.WithPanel(overlay.Panel(env.Config.Overlay.Panel)))
	statsText := core.NewText(b).SetText(stats.Text())

	host := xyzhost.New(b,
		xyzhost.WithLogger(env.Logger),
		xyzhost.WithCamera(env.Config.SceneCamera()),
		xyzhost.WithBounds(env.Config.ShowBounds),
	)
	err = stats.Attach(host)
	if err != nil {
		return err
	}
	host.OnAfterRender(func() {
		if text := stats.Text(); text != statsText.Text {
			statsText.SetText(text)
			statsText.NeedsRender()
		}
	})

	pipe, err := viewer.NewPipeline(ctx, host, loader,
		viewer.WithLogger(env.Logger),
		viewer.WithQueueSize(env.Config.QueueSize),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipe.Close(); err != nil {
			env.Logger.Error("pipeline stopped with an error", slog.Any("error", err))
		}
	}()

	dir, _ := os.Getwd()
	if env.File != "" {
		dir = filepath.Dir(env.File)
	}
	panel := viewer.NewPanel(ctx, pipe, viewer.NewIntake(env.Config.Intake.Accept...), xyzhost.NewPicker(b, dir), env.Logger)
	xyzhost.Toolbar(b, panel.Actions())

	if env.Config.Watch {
		w, err := watch.New(pipe, watch.WithLogger(env.Logger))
		if err != nil {
			return err
		}
		defer w.Close()
		panel.OnLoad(func(path string, _ *viewer.Task) {
			if err := w.Watch(path); err != nil {
				env.Logger.Warn("unable to watch file", slog.String("path", path), slog.Any("error", err))
			}
		})
		go func() {
			_ = w.Run(ctx)
		}()
	}

	// attaching needs a live window
	b.OnShow(func(events.Event) {
		if env.File == "" {
			return
		}
		go func() {
			_, _ = panel.LoadPath(env.File)
		}()
	})

	b.RunMainWindow()
	host.Close()
	cancel()

	return nil
}
