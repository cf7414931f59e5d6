package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type SkinRef int

type LinkMode int

const (
	LinkNormalize LinkMode = iota
	LinkAdditive
	LinkTotalOne
)

func (m LinkMode) String() string {
	switch m {
	case LinkAdditive:
		return "Additive"
	case LinkTotalOne:
		return "TotalOne"
	}
	return "Normalize"
}

// Cluster binds control points of a mesh to one link node.
// Transform is the mesh bind matrix and TransformLink the link bind matrix.
type Cluster struct {
	Link          NodeRef
	Mode          LinkMode
	Indices       []int
	Weights       []float64
	Transform     mgl32.Mat4
	TransformLink mgl32.Mat4
}

func NewCluster(link NodeRef) *Cluster {
	return &Cluster{
		Link:          link,
		Transform:     mgl32.Ident4(),
		TransformLink: mgl32.Ident4(),
	}
}

func (c *Cluster) Add(index int, weight float64) {
	c.Indices = append(c.Indices, index)
	c.Weights = append(c.Weights, weight)
}

type Skin struct {
	Name     string
	Mesh     MeshRef
	Clusters []*Cluster
}

func (s *Scene) CreateSkin(mesh MeshRef, name string) SkinRef {
	ref := SkinRef(len(s.Skins))
	s.Skins = append(s.Skins, &Skin{Name: name, Mesh: mesh})
	s.Meshes[mesh].Skins = append(s.Meshes[mesh].Skins, ref)
	return ref
}

func (s *Scene) Skin(ref SkinRef) *Skin {
	return s.Skins[ref]
}

// BindCluster adds c to skin after checking its link and control point ranges.
func (s *Scene) BindCluster(skin SkinRef, c *Cluster) error {
	sk := s.Skins[skin]
	if !s.valid(c.Link) {
		return errors.Errorf("Skin %q: cluster link %d does not exist", sk.Name, c.Link)
	}
	if len(c.Indices) != len(c.Weights) {
		return errors.Errorf("Skin %q: cluster has %d indices and %d weights", sk.Name, len(c.Indices), len(c.Weights))
	}
	points := len(s.Meshes[sk.Mesh].ControlPoints)
	for _, idx := range c.Indices {
		if idx < 0 || idx >= points {
			return errors.Errorf("Skin %q: control point %d out of range [0, %d)", sk.Name, idx, points)
		}
	}
	sk.Clusters = append(sk.Clusters, c)
	return nil
}
