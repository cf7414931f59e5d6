package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type MeshRef int

const NoMesh MeshRef = -1

type MappingMode int

const (
	ByControlPoint MappingMode = iota
	ByPolygonVertex
	ByPolygon
	AllSame
)

// String returns the FBX MappingInformationType name.
func (m MappingMode) String() string {
	switch m {
	case ByControlPoint:
		return "ByVertice"
	case ByPolygonVertex:
		return "ByPolygonVertex"
	case ByPolygon:
		return "ByPolygon"
	case AllSame:
		return "AllSame"
	}
	return "Unknown"
}

type ReferenceMode int

const (
	Direct ReferenceMode = iota
	IndexToDirect
)

func (r ReferenceMode) String() string {
	if r == IndexToDirect {
		return "IndexToDirect"
	}
	return "Direct"
}

type Vec2Layer struct {
	Name      string
	Mapping   MappingMode
	Reference ReferenceMode
	Direct    []mgl32.Vec2
	Index     []int
}

type Vec3Layer struct {
	Name      string
	Mapping   MappingMode
	Reference ReferenceMode
	Direct    []mgl32.Vec3
	Index     []int
}

// Vec4Layer holds colours (rgba 0..1) or tangents (xyz + handedness).
type Vec4Layer struct {
	Name      string
	Mapping   MappingMode
	Reference ReferenceMode
	Direct    []mgl32.Vec4
	Index     []int
}

type Mesh struct {
	Name          string
	Node          NodeRef
	ControlPoints []mgl32.Vec3
	Polygons      [][]int

	Normals  *Vec3Layer
	Tangents *Vec4Layer
	Colors   []*Vec4Layer
	UVs      []*Vec2Layer

	Skins []SkinRef
}

func (m *Mesh) AddPolygon(indices ...int) {
	m.Polygons = append(m.Polygons, append([]int(nil), indices...))
}

func (m *Mesh) PolygonCount() int { return len(m.Polygons) }

// CreateMesh attaches a new empty mesh to node.
func (s *Scene) CreateMesh(node NodeRef, name string) MeshRef {
	ref := MeshRef(len(s.Meshes))
	s.Meshes = append(s.Meshes, &Mesh{Name: name, Node: node})
	s.Nodes[node].Mesh = ref
	return ref
}

func (s *Scene) Mesh(ref MeshRef) *Mesh {
	return s.Meshes[ref]
}

// NodeMesh returns the mesh of node or an error when it has none.
func (s *Scene) NodeMesh(node NodeRef) (*Mesh, error) {
	n := s.Nodes[node]
	if n.Mesh == NoMesh {
		return nil, errors.Errorf("Node %q has no mesh", n.Name)
	}
	return s.Meshes[n.Mesh], nil
}
