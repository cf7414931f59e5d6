package model

// BoundsOnlyVersion models carry a bounding box instead of geometry.
const BoundsOnlyVersion = 6

// RenderAtom is a contiguous run of faces drawn with one material.
// BaseIndex counts indices (not faces) into the topology.
type RenderAtom struct {
	BaseVertex          uint32 `yaml:"base_vertex"`
	TriangleCount       uint32 `yaml:"triangle_count"`
	BaseIndex           uint32 `yaml:"base_index"`
	GeometrySliceLength uint32 `yaml:"geometry_slice_length"`
	MaterialId          uint32 `yaml:"material_id"`
}

// Model is a mesh placement. The embedded Object3D shares the model section id.
type Model struct {
	Object3D        `yaml:",inline"`
	Version         uint32       `yaml:"version"`
	GeometryId      SectionId    `yaml:"geometry"`
	TopologyId      SectionId    `yaml:"topology"`
	MaterialGroupId SectionId    `yaml:"material_group"`
	SkinBonesId     SectionId    `yaml:"skin_bones,omitempty"`
	RenderAtoms     []RenderAtom `yaml:"render_atoms"`
}

func NewModel(name string) *Model {
	return &Model{
		Object3D: *NewObject3D(name),
		Version:  3,
	}
}

func (m *Model) IsSkinned() bool { return m.SkinBonesId != NoSection }

func (m *Model) TriangleCount() uint32 {
	var count uint32
	for _, ra := range m.RenderAtoms {
		count += ra.TriangleCount
	}
	return count
}
