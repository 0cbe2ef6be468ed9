// Package asset models prefab documents and the scoped editing of them.
package asset

import (
	"colliderbake/internal/mathutil"
	"colliderbake/internal/mesh"
)

// Extension is the file suffix of prefab documents.
const Extension = ".prefab.json"

// CollidersNode is the name of the container holding generated boxes.
const CollidersNode = "Colliders"

// ComponentType names the kind of a component.
type ComponentType string

const (
	MeshRenderer          ComponentType = "mesh_renderer"
	MeshCollider          ComponentType = "mesh_collider"
	BoxCollider           ComponentType = "box_collider"
	NonConvexMeshCollider ComponentType = "non_convex_mesh_collider"
)

// Prefab is a reusable scene-object template.
type Prefab struct {
	Name string `json:"name"`
	Root *Node  `json:"root"`
}

// Node is one scene object with its components and children.
type Node struct {
	Name       string      `json:"name"`
	Transform  Transform   `json:"transform"`
	Components []Component `json:"components,omitempty"`
	Children   []*Node     `json:"children,omitempty"`
}

// Transform places a node relative to its parent. Rotation is Euler XYZ in
// degrees. A zero scale means unit scale.
type Transform struct {
	Position mathutil.Vec3 `json:"position"`
	Rotation mathutil.Vec3 `json:"rotation"`
	Scale    mathutil.Vec3 `json:"scale"`
}

// Matrix returns the local-to-parent transform.
func (t Transform) Matrix() mathutil.Mat4 {
	scale := t.Scale
	if scale == (mathutil.Vec3{}) {
		scale = mathutil.Vec3{1, 1, 1}
	}
	return mathutil.TRS(t.Position, t.Rotation, scale)
}

// Component is a tagged union; which fields are set depends on Type.
type Component struct {
	Type ComponentType `json:"type"`

	// mesh_renderer and mesh_collider: inline geometry or an external source.
	Mesh    *mesh.Mesh  `json:"mesh,omitempty"`
	Source  *MeshSource `json:"source,omitempty"`
	Texture string      `json:"texture,omitempty"`

	// box_collider
	Center    mathutil.Vec3 `json:"center,omitempty"`
	Size      mathutil.Vec3 `json:"size,omitempty"`
	IsTrigger bool          `json:"is_trigger,omitempty"`
	Material  string        `json:"material,omitempty"`

	// non_convex_mesh_collider
	Generator *Generator `json:"generator,omitempty"`
}

// MeshSource points a renderer at a mesh file. Index selects one sub-mesh;
// a negative index means all of them.
type MeshSource struct {
	File  string `json:"file"`
	Index int    `json:"index"`
}

// Generator records the settings last used to generate boxes for a node.
type Generator struct {
	BoxesPerEdge int    `json:"boxes_per_edge"`
	IsTrigger    bool   `json:"is_trigger"`
	Material     string `json:"material,omitempty"`
	Fill         string `json:"fill"`
	Merge        bool   `json:"merge"`
	Boxes        int    `json:"boxes"`
}

// Find returns the direct child called name, or nil.
func (n *Node) Find(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddChild appends a new child with an identity transform.
func (n *Node) AddChild(name string) *Node {
	c := &Node{Name: name}
	n.Children = append(n.Children, c)
	return c
}

// Component returns the first component of type t on n, or nil.
func (n *Node) Component(t ComponentType) *Component {
	for i := range n.Components {
		if n.Components[i].Type == t {
			return &n.Components[i]
		}
	}
	return nil
}

// AddComponent appends c and returns a pointer to the stored copy.
func (n *Node) AddComponent(c Component) *Component {
	n.Components = append(n.Components, c)
	return &n.Components[len(n.Components)-1]
}

// RemoveComponents deletes every component of type t on n and returns how
// many were removed.
func (n *Node) RemoveComponents(t ComponentType) int {
	kept := n.Components[:0]
	removed := 0
	for _, c := range n.Components {
		if c.Type == t {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	n.Components = kept
	return removed
}

// Walk visits n and its descendants depth-first in document order, passing
// each node's transform into n's local space. n itself gets the identity.
func (n *Node) Walk(fn func(node *Node, local mathutil.Mat4)) {
	n.walk(mathutil.Mat4Identity(), fn)
}

func (n *Node) walk(local mathutil.Mat4, fn func(*Node, mathutil.Mat4)) {
	fn(n, local)
	for _, c := range n.Children {
		c.walk(mathutil.Mat4Mul(local, c.Transform.Matrix()), fn)
	}
}

// CountComponents returns how many components of type t exist under n,
// including n itself.
func (n *Node) CountComponents(t ComponentType) int {
	count := 0
	n.Walk(func(node *Node, _ mathutil.Mat4) {
		for _, c := range node.Components {
			if c.Type == t {
				count++
			}
		}
	})
	return count
}
