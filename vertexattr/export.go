package vertexattr

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
)

// Target stores buffers in an interchange document and returns accessor handles.
type Target interface {
	CreateVertexBuffer(name string, buf *VertexBuffer) (uint32, error)
	// CreateIndexData stores a whole index block once.
	CreateIndexData(name string, indices []uint16) (uint32, error)
	// CreateIndexBuffer is a view of count indices starting at offset inside a block.
	CreateIndexBuffer(data uint32, offset, count uint32) (uint32, error)
}

type Attribute struct {
	Semantic string
	Accessor uint32
}

// Builder shares accessors between every primitive that uses the same
// geometry or topology section.
type Builder struct {
	target     Target
	attributes map[model.SectionId][]Attribute
	indexData  map[model.SectionId]uint32
}

func NewBuilder(target Target) *Builder {
	return &Builder{
		target:     target,
		attributes: make(map[model.SectionId][]Attribute),
		indexData:  make(map[model.SectionId]uint32),
	}
}

func (b *Builder) Attributes(geom *model.Geometry) ([]Attribute, error) {
	if attrs, ok := b.attributes[geom.Id]; ok {
		return attrs, nil
	}

	buffers, err := BuildBuffers(geom)
	if err != nil {
		return nil, err
	}

	attrs := make([]Attribute, 0, len(buffers))
	for _, buf := range buffers {
		accessor, err := b.target.CreateVertexBuffer(geom.HashName.Name()+"_"+buf.Semantic, buf)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to create %s buffer", buf.Semantic)
		}
		attrs = append(attrs, Attribute{Semantic: buf.Semantic, Accessor: accessor})
	}

	b.attributes[geom.Id] = attrs
	return attrs, nil
}

// AtomIndices returns one index accessor per render atom, all viewing one
// shared block holding the whole topology.
func (b *Builder) AtomIndices(topo *model.Topology, atoms []model.RenderAtom) ([]uint32, error) {
	data, ok := b.indexData[topo.Id]
	if !ok {
		var err error
		data, err = b.target.CreateIndexData("indices_"+topo.HashName.Name(), topo.Indices())
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to create index data")
		}
		b.indexData[topo.Id] = data
	}

	total := uint32(len(topo.Faces) * 3)
	accessors := make([]uint32, len(atoms))
	for i, ra := range atoms {
		count := ra.TriangleCount * 3
		if ra.BaseIndex+count > total {
			return nil, errors.Errorf("Render atom %d: indices [%d, %d) exceed topology %q size %d",
				i, ra.BaseIndex, ra.BaseIndex+count, topo.HashName.Name(), total)
		}
		accessor, err := b.target.CreateIndexBuffer(data, ra.BaseIndex, count)
		if err != nil {
			return nil, errors.Wrapf(err, "Render atom %d", i)
		}
		accessors[i] = accessor
	}
	return accessors, nil
}

// WriteMesh fills a scene mesh with control points, layers and triangles.
// Weights are left to the skin converter.
func WriteMesh(geom *model.Geometry, topo *model.Topology, mesh *scene.Mesh) error {
	buffers, err := BuildBuffers(geom)
	if err != nil {
		return err
	}
	if err := topo.Validate(geom.VertCount()); err != nil {
		return err
	}

	count := geom.VertCount()
	for _, buf := range buffers {
		switch {
		case buf.Semantic == AttrPosition:
			mesh.ControlPoints = make([]mgl32.Vec3, count)
			for i := range mesh.ControlPoints {
				mesh.ControlPoints[i] = buf.Vec3(i)
			}
		case buf.Semantic == AttrNormal:
			layer := &scene.Vec3Layer{Mapping: scene.ByControlPoint, Reference: scene.Direct}
			for i := 0; i < count; i++ {
				layer.Direct = append(layer.Direct, buf.Vec3(i))
			}
			mesh.Normals = layer
		case buf.Semantic == AttrTangent:
			mesh.Tangents = vec4Layer("", buf)
		case buf.Semantic == AttrColor:
			mesh.Colors = append(mesh.Colors, vec4Layer("", buf))
		case buf.IsTexCoord():
			layer := &scene.Vec2Layer{Name: UVLayerName(buf.Set), Mapping: scene.ByControlPoint, Reference: scene.Direct}
			for i := 0; i < count; i++ {
				layer.Direct = append(layer.Direct, buf.Vec2(i))
			}
			mesh.UVs = append(mesh.UVs, layer)
		}
	}

	mesh.Polygons = make([][]int, 0, len(topo.Faces))
	for _, f := range topo.Faces {
		mesh.AddPolygon(int(f.A), int(f.B), int(f.C))
	}
	return nil
}

func vec4Layer(name string, buf *VertexBuffer) *scene.Vec4Layer {
	layer := &scene.Vec4Layer{Name: name, Mapping: scene.ByControlPoint, Reference: scene.Direct}
	layer.Direct = make([]mgl32.Vec4, buf.Count())
	for i := range layer.Direct {
		layer.Direct[i] = buf.Vec4(i)
	}
	return layer
}
