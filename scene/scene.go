// Package scene is an in-memory interchange scene graph shaped after FBX:
// nodes with Euler transforms and skeleton attributes, meshes with layered
// vertex data and skin deformers made of clusters.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/transform"
)

type NodeRef int

const NoNode NodeRef = -1

type SkeletonType int

const (
	SkeletonNone SkeletonType = iota
	SkeletonRoot
	SkeletonLimbNode
)

func (t SkeletonType) String() string {
	switch t {
	case SkeletonRoot:
		return "Root"
	case SkeletonLimbNode:
		return "LimbNode"
	}
	return "None"
}

// RotationOrder values match the FBX enum.
type RotationOrder int32

const (
	EulerXYZ RotationOrder = 0
	EulerZYX RotationOrder = 5
)

type Node struct {
	Name     string
	Parent   NodeRef
	Children []NodeRef

	Translation   mgl32.Vec3
	Rotation      mgl32.Vec3 // degrees
	RotationOrder RotationOrder
	Scaling       mgl32.Vec3

	Skeleton SkeletonType
	Mesh     MeshRef
}

// LocalTRS returns the node transform. Only EulerZYX rotation order is supported.
func (n *Node) LocalTRS() transform.TRS {
	return transform.TRS{
		Scale:       n.Scaling,
		Rotation:    transform.FromEulerZYX(n.Rotation),
		Translation: n.Translation,
	}
}

func (n *Node) IsSkeleton() bool { return n.Skeleton != SkeletonNone }

type Scene struct {
	Name   string
	Nodes  []*Node
	Meshes []*Mesh
	Skins  []*Skin
}

// New creates a scene holding only the unnamed root node.
func New(name string) *Scene {
	s := &Scene{Name: name}
	s.Nodes = append(s.Nodes, newNode("RootNode", NoNode))
	return s
}

func newNode(name string, parent NodeRef) *Node {
	return &Node{
		Name:          name,
		Parent:        parent,
		RotationOrder: EulerZYX,
		Scaling:       mgl32.Vec3{1, 1, 1},
		Mesh:          NoMesh,
	}
}

func (s *Scene) Root() NodeRef { return 0 }

func (s *Scene) Node(ref NodeRef) *Node {
	return s.Nodes[ref]
}

func (s *Scene) valid(ref NodeRef) bool {
	return ref >= 0 && int(ref) < len(s.Nodes)
}

// CreateNode appends a node under parent. NoNode attaches it to the root.
func (s *Scene) CreateNode(name string, parent NodeRef) NodeRef {
	if parent == NoNode {
		parent = s.Root()
	}
	ref := NodeRef(len(s.Nodes))
	s.Nodes = append(s.Nodes, newNode(name, parent))
	s.Nodes[parent].Children = append(s.Nodes[parent].Children, ref)
	return ref
}

// Attach moves node under parent.
func (s *Scene) Attach(node, parent NodeRef) error {
	if !s.valid(node) || !s.valid(parent) || node == s.Root() {
		return errors.Errorf("Invalid attach %d -> %d", node, parent)
	}
	for cur := parent; cur != NoNode; cur = s.Nodes[cur].Parent {
		if cur == node {
			return errors.Errorf("Attaching node %q to %q creates a cycle", s.Nodes[node].Name, s.Nodes[parent].Name)
		}
	}

	n := s.Nodes[node]
	if n.Parent != NoNode {
		old := s.Nodes[n.Parent]
		for i, c := range old.Children {
			if c == node {
				old.Children = append(old.Children[:i], old.Children[i+1:]...)
				break
			}
		}
	}
	n.Parent = parent
	s.Nodes[parent].Children = append(s.Nodes[parent].Children, node)
	return nil
}

func (s *Scene) Rename(node NodeRef, name string) {
	s.Nodes[node].Name = name
}

func (s *Scene) SetLocalTransform(node NodeRef, t transform.TRS) {
	n := s.Nodes[node]
	n.Translation = t.Translation
	n.Rotation = t.EulerZYX()
	n.RotationOrder = EulerZYX
	n.Scaling = t.Scale
}

func (s *Scene) CreateSkeletonMarker(node NodeRef, kind SkeletonType) {
	s.Nodes[node].Skeleton = kind
}

// WorldTransform composes local transforms from the scene root down to node.
func (s *Scene) WorldTransform(node NodeRef) mgl32.Mat4 {
	world := mgl32.Ident4()
	for cur := node; cur != NoNode; cur = s.Nodes[cur].Parent {
		world = s.Nodes[cur].LocalTRS().Matrix().Mul4(world)
	}
	return world
}

// FindNode returns the first node with name in depth first order.
func (s *Scene) FindNode(name string) NodeRef {
	found := NoNode
	s.Walk(s.Root(), func(ref NodeRef) bool {
		if found == NoNode && s.Nodes[ref].Name == name {
			found = ref
		}
		return found == NoNode
	})
	return found
}

// Walk visits node and its descendants depth first, parents before children.
// Returning false from fn skips the children of that node.
func (s *Scene) Walk(node NodeRef, fn func(NodeRef) bool) {
	stack := []NodeRef{node}
	for len(stack) != 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(ref) {
			continue
		}
		children := s.Nodes[ref].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

// MeshNodes lists nodes carrying a mesh in depth first order.
func (s *Scene) MeshNodes() []NodeRef {
	nodes := make([]NodeRef, 0)
	s.Walk(s.Root(), func(ref NodeRef) bool {
		if s.Nodes[ref].Mesh != NoMesh {
			nodes = append(nodes, ref)
		}
		return true
	})
	return nodes
}
