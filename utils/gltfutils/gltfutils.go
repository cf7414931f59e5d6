// Package gltfutils wraps a qmuntal/gltf document with per-section caches and
// the buffer and node helpers the exporter needs.
package gltfutils

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/transform"
	"github.com/mogaika/diesel_model_tool/vertexattr"
)

type GLTFCacher struct {
	Doc *gltf.Document
	c   map[model.SectionId]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc: gltf.NewDocument(),
		c:   make(map[model.SectionId]interface{}),
	}
}

func (gc *GLTFCacher) AddCache(id model.SectionId, d interface{}) {
	gc.c[id] = d
}

func (gc *GLTFCacher) GetCached(id model.SectionId) interface{} {
	if v, e := gc.c[id]; e {
		return v
	}
	return nil
}

// CreateNode appends a node with identity transform. Negative parent puts it in the scene root.
func (gc *GLTFCacher) CreateNode(name string, parent int) uint32 {
	doc := gc.Doc
	idx := uint32(len(doc.Nodes))
	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:     name,
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	})
	if parent < 0 {
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, idx)
	} else {
		doc.Nodes[parent].Children = append(doc.Nodes[parent].Children, idx)
	}
	return idx
}

func (gc *GLTFCacher) SetLocalTransform(node uint32, t transform.TRS) {
	n := gc.Doc.Nodes[node]
	n.Translation = t.Translation
	n.Rotation = t.Rotation.V.Vec4(t.Rotation.W)
	n.Scale = t.Scale
}

func (gc *GLTFCacher) CreateVertexBuffer(name string, buf *vertexattr.VertexBuffer) (uint32, error) {
	doc := gc.Doc
	count := buf.Count()

	var idx uint32
	switch {
	case buf.Semantic == vertexattr.AttrPosition:
		data := make([][3]float32, count)
		for i := range data {
			data[i] = buf.Vec3(i)
		}
		idx = modeler.WritePosition(doc, data)
	case buf.Semantic == vertexattr.AttrNormal:
		data := make([][3]float32, count)
		for i := range data {
			data[i] = buf.Vec3(i)
		}
		idx = modeler.WriteNormal(doc, data)
	case buf.Semantic == vertexattr.AttrTangent:
		data := make([][4]float32, count)
		for i := range data {
			data[i] = buf.Vec4(i)
		}
		idx = modeler.WriteTangent(doc, data)
	case buf.Semantic == vertexattr.AttrColor:
		data := make([][4]float32, count)
		for i := range data {
			data[i] = buf.Vec4(i)
		}
		idx = modeler.WriteColor(doc, data)
	case buf.Semantic == vertexattr.AttrWeights:
		data := make([][4]float32, count)
		for i := range data {
			data[i] = buf.Vec4(i)
		}
		idx = modeler.WriteWeights(doc, data)
	case buf.Semantic == vertexattr.AttrJoints:
		data := make([][4]uint16, count)
		for i := range data {
			v := buf.Vec4(i)
			data[i] = [4]uint16{uint16(v[0]), uint16(v[1]), uint16(v[2]), uint16(v[3])}
		}
		idx = modeler.WriteJoints(doc, data)
	case buf.IsTexCoord():
		data := make([][2]float32, count)
		for i := range data {
			data[i] = buf.Vec2(i)
		}
		idx = modeler.WriteTextureCoord(doc, data)
	default:
		return 0, errors.Errorf("Unsupported vertex attribute %q", buf.Semantic)
	}

	doc.Accessors[idx].Name = name
	return idx, nil
}

// CreateIndexData stores the whole index block once and returns its buffer view.
// Per atom accessors are created over it by CreateIndexBuffer.
func (gc *GLTFCacher) CreateIndexData(name string, indices []uint16) (uint32, error) {
	if len(indices) == 0 {
		return 0, errors.Errorf("Index data %q is empty", name)
	}
	doc := gc.Doc
	acc := modeler.WriteIndices(doc, indices)
	doc.Accessors[acc].Name = name
	view := doc.Accessors[acc].BufferView
	if view == nil {
		return 0, errors.Errorf("Index accessor %q has no buffer view", name)
	}
	return *view, nil
}

func (gc *GLTFCacher) CreateIndexBuffer(data uint32, offset, count uint32) (uint32, error) {
	doc := gc.Doc
	if int(data) >= len(doc.BufferViews) {
		return 0, errors.Errorf("Buffer view %d does not exist", data)
	}
	doc.Accessors = append(doc.Accessors, &gltf.Accessor{
		BufferView:    gltf.Index(data),
		ByteOffset:    offset * 2,
		ComponentType: gltf.ComponentUshort,
		Count:         count,
		Type:          gltf.AccessorScalar,
	})
	return uint32(len(doc.Accessors) - 1), nil
}

// WriteInverseBindMatrices stores column major matrices as a MAT4 accessor.
func (gc *GLTFCacher) WriteInverseBindMatrices(matrices []mgl32.Mat4) uint32 {
	doc := gc.Doc
	data := make([][4]float32, len(matrices)*4)
	for i, m := range matrices {
		for col := 0; col < 4; col++ {
			data[i*4+col] = m.Col(col)
		}
	}
	acc := modeler.WriteTangent(doc, data)
	doc.Accessors[acc].Type = gltf.AccessorMat4
	doc.Accessors[acc].Count /= 4
	doc.BufferViews[*doc.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

// Encode writes doc as glb, or as json with buffers embedded as data uris.
func Encode(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	return encoder.Encode(doc)
}

var _ vertexattr.Target = (*GLTFCacher)(nil)
