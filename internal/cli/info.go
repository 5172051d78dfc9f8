package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"cogentcore.org/core/math32"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-ifcview/pkg/ifc"
	"github.com/askiada/go-ifcview/pkg/pipeline/drawer"
	"github.com/askiada/go-ifcview/pkg/pipeline/measure"
	"github.com/askiada/go-ifcview/pkg/pipeline/model"
	"github.com/askiada/go-ifcview/pkg/scene"
	"github.com/askiada/go-ifcview/pkg/viewer"
)

func newInfoCmd(f *flags) *cobra.Command {
	var dotPath string

	cmd := &cobra.Command{
		Use:   "info [file]",
		Short: "Display information about an IFC file",
		Long:  "Load the file through the viewer pipeline without a window and print its geometry statistics and the camera that frames it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := f.env(cmd)
			if err != nil {
				return err
			}

			return runInfo(commandContext(cmd), env, args[0], dotPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dotPath, "dot", "", "write the pipeline drawing, in DOT, to this file")

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

func runInfo(ctx context.Context, env Env, path, dotPath string, out io.Writer) error {
	loader := ifc.NewLoader(ifc.WithLogger(env.Logger))
	err := loader.Setup(ctx, env.Config.Settings())
	if err != nil {
		return errors.Wrap(err, "unable to set up loader")
	}

	var pipeOpts []model.PipelineOption
	if dotPath != "" {
		dotFile, err := os.Create(dotPath)
		if err != nil {
			return errors.Wrap(err, "unable to create drawing")
		}
		defer dotFile.Close()

		m := measure.NewDefaultMeasure()
		pipeOpts = append(pipeOpts,
			measure.PipelineMeasure(m),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(), m, dotFile),
		)
	}

	host := scene.NewGraph(env.Config.SceneCamera())
	pipe, err := viewer.NewPipeline(ctx, host, loader,
		viewer.WithLogger(env.Logger),
		viewer.WithQueueSize(env.Config.QueueSize),
		viewer.WithPipelineOptions(pipeOpts...),
	)
	if err != nil {
		return err
	}
	panel := viewer.NewPanel(ctx, pipe, viewer.NewIntake(env.Config.Intake.Accept...), nil, env.Logger)

	start := time.Now()
	task, err := panel.LoadPath(path)
	if err != nil {
		_ = pipe.Close()

		return err
	}
	res, loadErr := task.Wait(ctx)
	elapsed := time.Since(start)

	if loadErr == nil {
		err = panel.FitView(false)
		if err != nil {
			loadErr = err
		}
	}
	closeErr := pipe.Close()
	if loadErr != nil {
		return loadErr
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "pipeline stopped with an error")
	}

	var size uint64
	if st, err := os.Stat(path); err == nil {
		size = uint64(st.Size())
	}

	printInfo(out, info{
		path:    path,
		size:    size,
		elapsed: elapsed,
		result:  res,
		camera:  host.Camera(),
	})

	return nil
}

type info struct {
	path    string
	size    uint64
	elapsed time.Duration
	result  viewer.Result
	camera  scene.Camera
}

func printInfo(w io.Writer, in info) {
	m := in.result.Model
	box := in.result.Volume.Box
	dims := box.Size()

	fmt.Fprintln(w, "IFC File Information")
	fmt.Fprintln(w, "====================")
	fmt.Fprintf(w, "File: %s (%s)\n", in.path, humanize.Bytes(in.size))
	fmt.Fprintf(w, "Schema: %s\n", m.Schema)
	fmt.Fprintf(w, "Loaded in: %s\n\n", in.elapsed.Round(time.Millisecond))

	fmt.Fprintln(w, "Model Statistics:")
	fmt.Fprintf(w, "  Meshes: %s\n", humanize.Comma(int64(len(m.Meshes))))
	fmt.Fprintf(w, "  Triangles: %s\n", humanize.Comma(int64(m.Triangles())))

	categories := m.Categories()
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, categories[name])
	}

	fmt.Fprintln(w, "\nBounding Box:")
	fmt.Fprintf(w, "  Min: %s\n", vector(box.Min))
	fmt.Fprintf(w, "  Max: %s\n", vector(box.Max))
	fmt.Fprintf(w, "  Center: %s\n", vector(in.result.Volume.Center))
	fmt.Fprintf(w, "  Radius: %.3f\n", in.result.Volume.Radius)
	fmt.Fprintf(w, "  Dimensions: %.3f x %.3f x %.3f\n", dims.X, dims.Y, dims.Z)
	fmt.Fprintf(w, "  Offset: %s\n", vector(m.Offset))

	fmt.Fprintln(w, "\nCamera:")
	fmt.Fprintf(w, "  Position: %s\n", vector(in.camera.Position))
	fmt.Fprintf(w, "  Target: %s\n", vector(in.camera.Target))
}

func vector(v math32.Vector3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
