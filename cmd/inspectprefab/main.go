package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"colliderbake/internal/asset"
	"colliderbake/internal/filter"
	"colliderbake/internal/mathutil"
	"colliderbake/internal/mesh"
	"colliderbake/internal/meshsrc"
)

func main() {
	meshDir := flag.String("meshes", "", "Mesh source directory for renderer references")
	flag.Parse()

	cache := meshsrc.NewCache(meshsrc.BuildIndex(*meshDir))
	effects, _ := filter.New(nil)

	failed := false
	for _, arg := range flag.Args() {
		data, err := os.ReadFile(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Read error %s: %v\n", arg, err)
			failed = true
			continue
		}
		p, err := asset.Decode(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Decode error %s: %v\n", arg, err)
			failed = true
			continue
		}

		fmt.Printf("\n=== %s (%s) ===\n", arg, p.Name)
		printTree(p.Root, cache, effects)

		fmt.Printf("--- totals: renderers=%d mesh_colliders=%d box_colliders=%d generators=%d\n",
			p.Root.CountComponents(asset.MeshRenderer),
			p.Root.CountComponents(asset.MeshCollider),
			p.Root.CountComponents(asset.BoxCollider),
			p.Root.CountComponents(asset.NonConvexMeshCollider),
		)
		if c := p.Root.Find(asset.CollidersNode); c != nil {
			fmt.Printf("--- %s: %d children, bounds %s\n", asset.CollidersNode, len(c.Children), formatBounds(boxBounds(c)))
		}
	}

	if failed {
		os.Exit(1)
	}
}

func printTree(root *asset.Node, cache *meshsrc.Cache, effects *filter.Filter) {
	depth := map[*asset.Node]int{root: 0}
	root.Walk(func(node *asset.Node, local mathutil.Mat4) {
		for _, c := range node.Children {
			depth[c] = depth[node] + 1
		}
		if node.Name == asset.CollidersNode {
			return
		}
		if strings.Contains(node.Name, " Box ") && node.Component(asset.BoxCollider) != nil {
			return
		}

		indent := strings.Repeat("  ", depth[node])
		fmt.Printf("%s%s\n", indent, node.Name)

		for _, c := range node.Components {
			switch c.Type {
			case asset.MeshRenderer:
				for _, line := range describeRenderer(c, local, cache, effects) {
					fmt.Printf("%s  %s\n", indent, line)
				}
			case asset.NonConvexMeshCollider:
				if g := c.Generator; g != nil {
					fmt.Printf("%s  generator: n=%d fill=%s merge=%v trigger=%v material=%q boxes=%d\n",
						indent, g.BoxesPerEdge, g.Fill, g.Merge, g.IsTrigger, g.Material, g.Boxes)
				}
			default:
				fmt.Printf("%s  %s\n", indent, c.Type)
			}
		}
	})
}

func describeRenderer(c asset.Component, local mathutil.Mat4, cache *meshsrc.Cache, effects *filter.Filter) []string {
	if c.Mesh != nil {
		return []string{describeMesh("inline", c.Mesh.Transform(local), effects.Excluded(c.Texture))}
	}
	if c.Source == nil {
		return []string{"mesh_renderer: no mesh"}
	}

	subs, err := cache.Resolve(c.Source.File)
	if err != nil {
		return []string{fmt.Sprintf("mesh_renderer %s: %v", c.Source.File, err)}
	}
	var lines []string
	for i, s := range subs {
		if c.Source.Index >= 0 && i != c.Source.Index {
			continue
		}
		label := fmt.Sprintf("%s[%d] %s", c.Source.File, i, filter.Stem(s.Texture))
		lines = append(lines, describeMesh(label, s.Geometry.Transform(local), effects.Excluded(s.Texture)))
	}
	return lines
}

func describeMesh(label string, m *mesh.Mesh, excluded bool) string {
	tag := ""
	if excluded {
		tag = " [EFFECT]"
	}
	return fmt.Sprintf("mesh_renderer %s: verts=%d tris=%d bounds %s%s",
		label, len(m.Vertices), len(m.Triangles), formatBounds(m.Bounds()), tag)
}

func boxBounds(container *asset.Node) mathutil.AABB {
	b := mathutil.EmptyAABB()
	for _, child := range container.Children {
		for _, c := range child.Components {
			if c.Type != asset.BoxCollider {
				continue
			}
			b = b.Union(mathutil.AABBFromCenter(c.Center, c.Size.Scale(0.5)))
		}
	}
	return b
}

func formatBounds(b mathutil.AABB) string {
	if b.IsEmpty() {
		return "(empty)"
	}
	return fmt.Sprintf("[%.2f %.2f %.2f]..[%.2f %.2f %.2f]",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
