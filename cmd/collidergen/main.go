package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"syscall"
	"time"

	"colliderbake/internal/asset"
	"colliderbake/internal/batch"
	"colliderbake/internal/config"
	"colliderbake/internal/decompose"
	"colliderbake/internal/fetch"
	"colliderbake/internal/filter"
	"colliderbake/internal/meshsrc"
	"colliderbake/internal/metrics"
	"colliderbake/internal/preview"
	"colliderbake/internal/watch"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

// Set at build.
var version = "v0.1.0"

// Keeps option names intact when the binary is built with garble.
var _ = reflect.TypeOf(options{})

type options struct {
	Op                string   `cli:"" env:"COLLIDERBAKE_OP"                  help:"Operation (generate|remove-mesh-colliders|clear-colliders|preview)."`
	Config            string   `cli:"" env:"COLLIDERBAKE_CONFIG"              help:"Settings file (.json, .toml, .yaml)."`
	Select            []string `cli:"" env:"COLLIDERBAKE_SELECT"              help:"Comma separated prefab files or directories, relative to the asset root."`
	Assets            string   `cli:"" env:"COLLIDERBAKE_ASSETS"              help:"Asset root directory."`
	Meshes            string   `cli:"" env:"COLLIDERBAKE_MESHES"              help:"Mesh source directory (default: asset root)."`
	BoxesPerEdge      int      `cli:"" env:"COLLIDERBAKE_BOXES_PER_EDGE"      help:"Grid resolution per axis, clamped to [1,50]."`
	Trigger           bool     `cli:"" env:"COLLIDERBAKE_TRIGGER"             help:"Mark generated boxes as triggers."`
	Material          string   `cli:"" env:"COLLIDERBAKE_MATERIAL"            help:"Physics material of generated boxes."`
	Fill              string   `cli:"" env:"COLLIDERBAKE_FILL"                help:"Cell policy (surface|solid)."`
	Merge             bool     `cli:"" env:"COLLIDERBAKE_MERGE"               help:"Merge neighbouring cells into larger boxes."`
	KeepMeshColliders bool     `cli:"" env:"COLLIDERBAKE_KEEP_MESH_COLLIDERS" help:"Do not remove mesh colliders when generating."`
	Report            string   `cli:"" env:"COLLIDERBAKE_REPORT"              help:"Write a JSON run report to this file."`
	Metrics           string   `cli:"" env:"COLLIDERBAKE_METRICS"             help:"Write Prometheus metrics to this textfile."`
	PreviewDir        string   `cli:"" env:"COLLIDERBAKE_PREVIEW_DIR"         help:"Render a preview of the generated boxes per prefab into this directory."`
	PreviewFormat     string   `cli:"" env:"COLLIDERBAKE_PREVIEW_FORMAT"      help:"Preview image format (webp|tga)."`
	Fetch             string   `cli:"" env:"COLLIDERBAKE_FETCH"               help:"Download an asset bundle into the asset root first (go-getter address)."`
	Watch             bool     `cli:"" env:"COLLIDERBAKE_WATCH"               help:"Keep running and regenerate prefabs when their mesh sources change."`
	LogLevel          string   `cli:"" env:"COLLIDERBAKE_LOG_LEVEL"           help:"Log level (debug|info|warning|error)."`
	Version           bool     `cli:"" env:"-"                                help:"Show version."`
	Help              bool     `cli:"" env:"-"                                help:"Show help."`
}

const opPreview = "preview"

func main() {
	opts := options{
		Op:       string(batch.OpGenerate),
		LogLevel: logs.InfoLevel.String(),
	}

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Replaces mesh colliders in prefabs with generated box colliders.").
		Options(&opts)
	cli.Load()

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.Encoder = json.Marshal
	errors.Encoder = json.Marshal

	var settings config.Settings
	if opts.Config != "" {
		s, err := config.Load(opts.Config)
		if err != nil {
			logs.Fatal(err)
		}
		settings = s
	}
	settings.Resolve(config.Flags{
		AssetRoot:         opts.Assets,
		MeshDir:           opts.Meshes,
		ReportPath:        opts.Report,
		MetricsPath:       opts.Metrics,
		PreviewDir:        opts.PreviewDir,
		PreviewFormat:     opts.PreviewFormat,
		BoxesPerEdge:      opts.BoxesPerEdge,
		IsTrigger:         opts.Trigger,
		Material:          opts.Material,
		Fill:              opts.Fill,
		Merge:             opts.Merge,
		KeepMeshColliders: opts.KeepMeshColliders,
		LogLevel:          opts.LogLevel,
	})
	logs.SetLevel(logs.ParseLevel(settings.LogLevel))

	if opts.Fetch != "" {
		if settings.AssetRoot == "" {
			logs.Fatal(errors.New("fetching requires an asset root"))
		}
		if err := fetch.Fetch(ctx, opts.Fetch, settings.AssetRoot); err != nil {
			logs.Fatal(err)
		}
		if opts.Meshes == "" {
			settings.MeshDir = settings.AssetRoot
		}
	}

	os.Exit(run(ctx, opts, settings))
}

func run(ctx context.Context, opts options, settings config.Settings) int {
	paths := selection(settings.AssetRoot, opts.Select)

	effects, err := filter.New(settings.ExcludePatterns)
	if err != nil {
		logs.Error(err)
		return 1
	}

	index := meshsrc.BuildIndex(settings.MeshDir)
	cache := meshsrc.NewCache(index)
	driver := &batch.Driver{
		Store:    &asset.FileStore{Root: settings.AssetRoot},
		Meshes:   cache,
		Settings: settings,
		Filter:   effects,
		Progress: func(p batch.Progress) {
			logs.WithTag("asset", p.Path).
				WithTag("done", p.Done).
				WithTag("total", p.Total).
				Info(fmt.Sprintf("%.0f%%", p.Percent))
		},
	}

	format := preview.Format(settings.PreviewFormat)
	if settings.PreviewDir != "" {
		if !format.Valid() {
			logs.Error(errors.Newf("unknown preview format %q", format))
			return 1
		}
		driver.Generated = func(path string, boxes []decompose.Box) {
			writePreview(settings, format, path, boxes)
		}
	}

	logs.WithTag("version", version).
		WithTag("op", opts.Op).
		WithTag("assets", len(paths)).
		WithTag("mesh_sources", index.Len()).
		WithTag("boxes_per_edge", settings.BoxesPerEdge).
		WithTag("fill", settings.Fill).
		Info("starting collider bake")

	start := time.Now()
	report, err := operation(ctx, driver, opts.Op, paths)
	if errors.IsType(err, batch.ErrTypeNoSelection) {
		return 0
	}
	if err != nil && report.RunID == "" {
		logs.Error(err)
		return 1
	}

	finish(settings, report, time.Since(start))

	if opts.Watch && ctx.Err() == nil {
		w := &watch.Watcher{
			MeshDir: settings.MeshDir,
			Cache:   cache,
			Store:   driver.Store,
			Assets:  paths,
			Regenerate: func(ctx context.Context, paths []string) error {
				start := time.Now()
				report, err := driver.Generate(ctx, paths)
				finish(settings, report, time.Since(start))
				return err
			},
		}
		if err := w.Run(ctx); err != nil {
			logs.Error(err)
			return 1
		}
	}

	if err != nil || report.Failed() > 0 {
		return 1
	}
	return 0
}

func operation(ctx context.Context, d *batch.Driver, op string, paths []string) (batch.Report, error) {
	switch batch.Op(op) {
	case batch.OpGenerate:
		return d.Generate(ctx, paths)
	case batch.OpRemoveMeshColliders:
		return d.RemoveMeshColliders(ctx, paths)
	case batch.OpClearColliders:
		return d.ClearColliders(ctx, paths)
	}

	if op == opPreview {
		return previewOnly(ctx, d, paths)
	}
	return batch.Report{}, errors.Newf("unknown operation %q", op)
}

// previewOnly renders the boxes a generate run would produce without
// persisting them.
func previewOnly(ctx context.Context, d *batch.Driver, paths []string) (batch.Report, error) {
	if d.Generated == nil {
		return batch.Report{}, errors.New("preview requires a preview directory")
	}
	dry := *d
	dry.Store = &dryRunStore{Store: d.Store}
	return dry.Generate(ctx, paths)
}

// dryRunStore discards saves.
type dryRunStore struct {
	asset.Store
}

func (s *dryRunStore) Save(string, *asset.Prefab) error {
	return nil
}

func writePreview(settings config.Settings, format preview.Format, path string, boxes []decompose.Box) {
	img := preview.Render(boxes, preview.Options{
		Size:        settings.PreviewSize,
		Supersample: 2,
		Camera:      preview.DefaultCamera,
	})
	out, err := preview.WriteFile(settings.PreviewDir, path, img, format)
	if err != nil {
		logs.WithTag("asset", path).Warn(err)
		return
	}
	logs.WithTag("asset", path).
		WithTag("preview", out).
		Debug("preview written")
}

func finish(settings config.Settings, report batch.Report, elapsed time.Duration) {
	logs.WithTag("run_id", report.RunID).
		WithTag("op", report.Op).
		WithTag("succeeded", report.Succeeded()).
		WithTag("failed", report.Failed()).
		WithTag("boxes", report.Boxes()).
		WithTag("elapsed", elapsed.Round(time.Millisecond).String()).
		Info("collider bake done")

	for _, r := range report.Results {
		if !r.Success {
			logs.WithTag("asset", r.Path).Warn(r.Error)
		}
	}

	if settings.ReportPath != "" {
		if err := batch.WriteReport(settings.ReportPath, report); err != nil {
			logs.Warn(err)
		}
	}
	if settings.MetricsPath != "" {
		if err := metrics.WriteTextfile(settings.MetricsPath); err != nil {
			logs.Warn(err)
		}
	}
}

// selection expands the selected entries to prefab paths relative to the
// asset root. With no entries the whole asset root is selected.
func selection(root string, entries []string) []string {
	if len(entries) == 0 {
		entries = []string{"."}
	}

	abs := make([]string, len(entries))
	for i, e := range entries {
		if filepath.IsAbs(e) || root == "" {
			abs[i] = e
		} else {
			abs[i] = filepath.Join(root, e)
		}
	}

	paths := asset.Expand(abs)
	if root == "" {
		return paths
	}

	for i, p := range paths {
		if rel, err := filepath.Rel(root, p); err == nil {
			paths[i] = rel
		}
	}
	return paths
}
