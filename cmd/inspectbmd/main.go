package main

import (
	"flag"
	"fmt"
	"os"

	"colliderbake/internal/bmd"
	"colliderbake/internal/decompose"
	"colliderbake/internal/filter"
	"colliderbake/internal/mathutil"
	"colliderbake/internal/skeleton"
)

func main() {
	boxes := flag.Int("boxes", 0, "Also report the box count at this grid resolution")
	fill := flag.String("fill", string(decompose.FillSurface), "Cell policy for -boxes (surface|solid)")
	flag.Parse()

	effects, _ := filter.New(nil)

	for _, arg := range flag.Args() {
		model, err := bmd.Parse(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
			continue
		}
		fmt.Printf("\n=== %s (meshes=%d bones=%d) ===\n", arg, len(model.Meshes), len(model.Bones))

		fmt.Println("--- RAW (before bones) ---")
		for i := range model.Meshes {
			g := model.Meshes[i].Geometry()
			printMesh(i, &model.Meshes[i], g.Bounds(), effects)
		}

		fmt.Println("--- POSED ---")
		posed := skeleton.Pose(model)
		for i, g := range posed {
			printMesh(i, &model.Meshes[i], g.Bounds(), effects)
			if *boxes <= 0 || effects.Excluded(model.Meshes[i].TexPath) {
				continue
			}
			result, err := decompose.Decompose(g, decompose.Params{
				BoxesPerEdge: *boxes,
				Fill:         decompose.Fill(*fill),
			})
			if err != nil {
				fmt.Printf("    decompose: %v\n", err)
				continue
			}
			fmt.Printf("    boxes(n=%d, %s)=%d\n", *boxes, *fill, len(result))
		}
	}
}

func printMesh(i int, m *bmd.Mesh, b mathutil.AABB, effects *filter.Filter) {
	flags := ""
	if effects.Excluded(m.TexPath) {
		flags = " [EFFECT]"
	}
	if b.IsEmpty() {
		fmt.Printf("  Mesh[%d]: v=%d t=%d tex=%q (empty)%s\n", i, len(m.Verts), len(m.Tris), filter.Stem(m.TexPath), flags)
		return
	}
	size := b.Size()
	fmt.Printf("  Mesh[%d]: v=%d t=%d tex=%q bbox=(%.0f,%.0f,%.0f) min=(%.0f,%.0f,%.0f) max=(%.0f,%.0f,%.0f)%s\n",
		i, len(m.Verts), len(m.Tris), filter.Stem(m.TexPath),
		size[0], size[1], size[2],
		b.Min[0], b.Min[1], b.Min[2],
		b.Max[0], b.Max[1], b.Max[2],
		flags)
}
