// Package batch runs collider operations over a selection of prefab assets.
package batch

import (
	"context"
	"fmt"
	"time"

	"colliderbake/internal/asset"
	"colliderbake/internal/config"
	"colliderbake/internal/decompose"
	"colliderbake/internal/filter"
	"colliderbake/internal/mathutil"
	"colliderbake/internal/mesh"
	"colliderbake/internal/meshsrc"
	"colliderbake/internal/metrics"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
)

// ErrNoSelection is returned when an operation is started with no assets.
var ErrNoSelection = errors.New("no assets selected").WithType(ErrTypeNoSelection)

const (
	ErrTypeNoSelection = "batch_no_selection"
	ErrTypeMeshSource  = "batch_mesh_source"
	ErrTypePanic       = "batch_panic"
)

// Op names a batch operation.
type Op string

const (
	OpGenerate            Op = "generate"
	OpRemoveMeshColliders Op = "remove-mesh-colliders"
	OpClearColliders      Op = "clear-colliders"
)

// Progress is reported after every completed asset.
type Progress struct {
	Done    int
	Total   int
	Path    string
	Percent float64
}

// Driver applies operations to prefab assets one at a time.
type Driver struct {
	Store    asset.Store
	Meshes   meshsrc.Resolver
	Settings config.Settings
	Filter   *filter.Filter

	// Progress, when set, is called after each asset.
	Progress func(Progress)

	// Generated, when set, is called with the boxes of every asset that
	// generated successfully.
	Generated func(path string, boxes []decompose.Box)
}

// Generate replaces the generated colliders of every asset in paths.
func (d *Driver) Generate(ctx context.Context, paths []string) (Report, error) {
	return d.run(ctx, OpGenerate, paths, d.generate)
}

// RemoveMeshColliders deletes every mesh_collider component in paths.
func (d *Driver) RemoveMeshColliders(ctx context.Context, paths []string) (Report, error) {
	return d.run(ctx, OpRemoveMeshColliders, paths, func(_ string, p *asset.Prefab, res *Result) error {
		res.Removed = removeMeshColliders(p.Root)
		return nil
	})
}

// ClearColliders deletes the children of the Colliders container in paths.
func (d *Driver) ClearColliders(ctx context.Context, paths []string) (Report, error) {
	return d.run(ctx, OpClearColliders, paths, func(_ string, p *asset.Prefab, res *Result) error {
		if c := p.Root.Find(asset.CollidersNode); c != nil {
			res.Removed = len(c.Children)
			c.Children = nil
		}
		return nil
	})
}

type editFunc func(path string, p *asset.Prefab, res *Result) error

func (d *Driver) run(ctx context.Context, op Op, paths []string, fn editFunc) (report Report, err error) {
	report = newReport(op, d.Settings)
	defer report.finish()

	if len(paths) == 0 {
		logs.WithTag("op", op).Warn(ErrNoSelection)
		return report, ErrNoSelection
	}

	logs.WithTag("op", op).
		WithTag("run_id", report.RunID).
		WithTag("assets", len(paths)).
		Info("batch started")

	for i, path := range paths {
		if err = ctx.Err(); err != nil {
			logs.WithTag("op", op).
				WithTag("done", i).
				WithTag("total", len(paths)).
				Warn("batch interrupted")
			return report, err
		}

		start := time.Now()
		res := Result{Path: path}
		editErr := d.edit(path, func(p *asset.Prefab) error {
			return fn(path, p, &res)
		})
		if editErr != nil {
			res.Error = editErr.Error()
			logs.WithTag("asset", path).
				WithTag("op", op).
				Warn(editErr)
		} else {
			res.Success = true
			logs.WithTag("asset", path).
				WithTag("op", op).
				WithTag("meshes", res.Meshes).
				WithTag("boxes", res.Boxes).
				WithTag("removed", res.Removed).
				Debug("asset done")
		}
		metrics.ObserveAsset(string(op), editErr, res.Boxes, time.Since(start))
		report.Results = append(report.Results, res)

		if d.Progress != nil {
			done := i + 1
			d.Progress(Progress{
				Done:    done,
				Total:   len(paths),
				Path:    path,
				Percent: float64(done) * 100 / float64(len(paths)),
			})
		}
	}

	logs.WithTag("op", op).
		WithTag("run_id", report.RunID).
		WithTag("succeeded", report.Succeeded()).
		WithTag("failed", report.Failed()).
		Info("batch finished")
	return report, nil
}

// edit runs one scoped edit and turns a panic into an error so the
// remaining assets still get processed.
func (d *Driver) edit(path string, fn func(p *asset.Prefab) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic: %v", r).
				WithType(ErrTypePanic).
				WithTag("path", path)
		}
	}()
	return asset.Edit(d.Store, path, fn)
}

// nodeBoxes holds the boxes planned for one renderer node.
type nodeBoxes struct {
	node  *asset.Node
	boxes []decompose.Box
}

// generate resolves and decomposes every renderer before touching the
// prefab, so a failing renderer leaves the document as it was loaded.
func (d *Driver) generate(path string, p *asset.Prefab, res *Result) error {
	settings := d.Settings.For(path)
	params := settings.Params()

	container := p.Root.Find(asset.CollidersNode)
	planned, meshes, err := d.planBoxes(p.Root, container, params)
	if err != nil {
		return err
	}

	if !settings.KeepMeshColliders {
		res.Removed = removeMeshColliders(p.Root)
	}
	if container == nil {
		container = p.Root.AddChild(asset.CollidersNode)
	}
	// Boxes are computed in root space; the container must not move them.
	container.Transform = asset.Transform{}
	container.Children = nil

	var all []decompose.Box
	for _, nb := range planned {
		gen := nb.node.Component(asset.NonConvexMeshCollider)
		if gen == nil {
			gen = nb.node.AddComponent(asset.Component{Type: asset.NonConvexMeshCollider})
		}
		gen.Generator = &asset.Generator{
			BoxesPerEdge: params.BoxesPerEdge,
			IsTrigger:    params.IsTrigger,
			Material:     params.Material,
			Fill:         string(params.Fill),
			Merge:        params.Merge,
			Boxes:        len(nb.boxes),
		}
		all = append(all, nb.boxes...)

		for i, b := range nb.boxes {
			child := &asset.Node{Name: fmt.Sprintf("%s Box %d", nb.node.Name, i+1)}
			child.AddComponent(asset.Component{
				Type:      asset.BoxCollider,
				Center:    b.Center,
				Size:      b.Size(),
				IsTrigger: b.IsTrigger,
				Material:  b.Material,
			})
			container.Children = append(container.Children, child)
		}
	}

	res.Meshes = meshes
	res.Boxes = len(all)
	if d.Generated != nil {
		d.Generated(path, all)
	}
	return nil
}

// planBoxes decomposes the renderers under root in document order without
// modifying any node. The skip node itself is not visited for renderers.
func (d *Driver) planBoxes(root, skip *asset.Node, params decompose.Params) ([]nodeBoxes, int, error) {
	var (
		planned []nodeBoxes
		meshes  int
		walkErr error
	)
	root.Walk(func(node *asset.Node, local mathutil.Mat4) {
		if walkErr != nil || node == skip || node.Component(asset.MeshRenderer) == nil {
			return
		}

		nb := nodeBoxes{node: node}
		for _, c := range node.Components {
			if c.Type != asset.MeshRenderer {
				continue
			}
			ms, err := d.rendererMeshes(c)
			if err != nil {
				walkErr = errors.New("resolving renderer mesh failed").
					WithTag("node", node.Name).
					Wrap(err)
				return
			}

			for _, m := range ms {
				meshes++
				b, err := decompose.Decompose(m.Transform(local), params)
				if err != nil {
					walkErr = errors.New("decomposing mesh failed").
						WithTag("node", node.Name).
						Wrap(err)
					return
				}
				nb.boxes = append(nb.boxes, b...)
			}
		}
		planned = append(planned, nb)
	})
	if walkErr != nil {
		return nil, 0, walkErr
	}
	return planned, meshes, nil
}

// rendererMeshes returns the unfiltered geometry of one mesh_renderer.
func (d *Driver) rendererMeshes(c asset.Component) ([]*mesh.Mesh, error) {
	if c.Mesh != nil {
		if d.Filter.Excluded(c.Texture) {
			return nil, nil
		}
		return []*mesh.Mesh{c.Mesh}, nil
	}
	if c.Source == nil {
		return nil, nil
	}
	if d.Meshes == nil {
		return nil, errors.New("no mesh source configured").
			WithType(ErrTypeMeshSource).
			WithTag("file", c.Source.File)
	}

	subs, err := d.Meshes.Resolve(c.Source.File)
	if err != nil {
		return nil, err
	}
	if c.Source.Index >= 0 {
		if c.Source.Index >= len(subs) {
			return nil, errors.Newf("sub-mesh %d out of range", c.Source.Index).
				WithType(ErrTypeMeshSource).
				WithTag("file", c.Source.File).
				WithTag("count", len(subs))
		}
		subs = subs[c.Source.Index : c.Source.Index+1]
	}

	var meshes []*mesh.Mesh
	for _, s := range subs {
		if d.Filter.Excluded(s.Texture) {
			continue
		}
		meshes = append(meshes, s.Geometry)
	}
	return meshes, nil
}

func removeMeshColliders(root *asset.Node) int {
	removed := 0
	root.Walk(func(node *asset.Node, _ mathutil.Mat4) {
		removed += node.RemoveComponents(asset.MeshCollider)
	})
	return removed
}

func newRunID() string {
	return uuid.NewString()
}
