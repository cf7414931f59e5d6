// Package vertexattr builds interchange vertex buffers from engine geometry
// columns and reads interchange meshes back into them.
package vertexattr

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/transform"
	"github.com/mogaika/diesel_model_tool/utils"
)

const (
	AttrPosition = "POSITION"
	AttrNormal   = "NORMAL"
	AttrTangent  = "TANGENT"
	AttrColor    = "COLOR_0"
	AttrWeights  = "WEIGHTS_0"
	AttrJoints   = "JOINTS_0"
)

func AttrTexCoord(set int) string {
	return fmt.Sprintf("TEXCOORD_%d", set)
}

// Encoding is the storage type of buffer components. Values are always held as float32.
type Encoding int

const (
	EncodingFloat Encoding = iota
	EncodingUnsignedShort
)

type VertexBuffer struct {
	Semantic   string
	Set        int
	Components int
	Encoding   Encoding
	Data       []float32
}

func newBuffer(semantic string, components, count int) *VertexBuffer {
	return &VertexBuffer{
		Semantic:   semantic,
		Components: components,
		Data:       make([]float32, components*count),
	}
}

func (b *VertexBuffer) Count() int {
	return len(b.Data) / b.Components
}

// Stride is the byte size of one element.
func (b *VertexBuffer) Stride() int {
	if b.Encoding == EncodingUnsignedShort {
		return b.Components * 2
	}
	return b.Components * 4
}

func (b *VertexBuffer) IsTexCoord() bool {
	return strings.HasPrefix(b.Semantic, "TEXCOORD_")
}

func (b *VertexBuffer) Vec2(i int) mgl32.Vec2 {
	return mgl32.Vec2{b.Data[i*2], b.Data[i*2+1]}
}

func (b *VertexBuffer) Vec3(i int) mgl32.Vec3 {
	return mgl32.Vec3{b.Data[i*3], b.Data[i*3+1], b.Data[i*3+2]}
}

func (b *VertexBuffer) Vec4(i int) mgl32.Vec4 {
	return mgl32.Vec4{b.Data[i*4], b.Data[i*4+1], b.Data[i*4+2], b.Data[i*4+3]}
}

func (b *VertexBuffer) set(i int, v ...float32) {
	copy(b.Data[i*b.Components:(i+1)*b.Components], v)
}

// BuildBuffers converts every populated geometry column into a vertex buffer.
// Positions are scaled to interchange units and texture V is flipped.
func BuildBuffers(geom *model.Geometry) ([]*VertexBuffer, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	count := geom.VertCount()
	if count == 0 {
		return nil, errors.Errorf("Geometry %q has no vertices", geom.HashName.Name())
	}

	buffers := make([]*VertexBuffer, 0, 8)

	pos := newBuffer(AttrPosition, 3, count)
	for i, v := range geom.Verts {
		v = transform.ToExternal(v)
		pos.set(i, v[0], v[1], v[2])
	}
	buffers = append(buffers, pos)

	if len(geom.Normals) != 0 {
		norm := newBuffer(AttrNormal, 3, count)
		for i, n := range geom.Normals {
			norm.set(i, n[0], n[1], n[2])
		}
		buffers = append(buffers, norm)
	}

	if len(geom.Tangents) != 0 {
		tan := newBuffer(AttrTangent, 4, count)
		for i, t := range geom.Tangents {
			tan.set(i, t[0], t[1], t[2], TangentSign(t, geom.Normals[i], geom.Binormals[i]))
		}
		buffers = append(buffers, tan)
	}

	if len(geom.Colors) != 0 {
		col := newBuffer(AttrColor, 4, count)
		for i, c := range geom.Colors {
			col.set(i, float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255)
		}
		buffers = append(buffers, col)
	}

	for set, uvs := range geom.UVs {
		if len(uvs) == 0 {
			continue
		}
		uv := newBuffer(AttrTexCoord(set), 2, count)
		uv.Set = set
		for i, t := range uvs {
			uv.set(i, t[0], 1-t[1])
		}
		buffers = append(buffers, uv)
	}

	if len(geom.Weights) != 0 {
		w := newBuffer(AttrWeights, 4, count)
		for i, v := range geom.Weights {
			w.set(i, v[0], v[1], v[2], 0)
		}
		j := newBuffer(AttrJoints, 4, count)
		j.Encoding = EncodingUnsignedShort
		for i, g := range geom.WeightGroups {
			j.set(i, float32(g.Bones1), float32(g.Bones2), float32(g.Bones3), 0)
		}
		buffers = append(buffers, w, j)
	}

	return buffers, nil
}

// TangentSign is the handedness of the tangent frame. Degenerate frames get +1.
func TangentSign(tangent, normal, binormal mgl32.Vec3) float32 {
	if s := utils.Sign(tangent.Cross(normal).Dot(binormal)); s != 0 {
		return s
	}
	return 1
}

// UVLayerName is the interchange layer name of a texture coordinate set.
func UVLayerName(set int) string {
	switch set {
	case 0:
		return "PrimaryUV"
	case 1:
		return "PatternUV"
	}
	return fmt.Sprintf("UV%d", set)
}

// UVSetFromName is the inverse of UVLayerName.
func UVSetFromName(name string) (int, error) {
	for set := 0; set < model.MaxUVSets; set++ {
		if UVLayerName(set) == name {
			return set, nil
		}
	}
	return -1, &UnknownUVLayerError{Name: name}
}
