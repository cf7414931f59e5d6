package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type ChannelType uint32

const (
	ChannelPosition     ChannelType = 1
	ChannelNormal       ChannelType = 2
	ChannelColor        ChannelType = 5
	ChannelTexCoord0    ChannelType = 7
	ChannelBlendIndices ChannelType = 15
	ChannelBlendWeight  ChannelType = 17
	ChannelBinormal     ChannelType = 20
	ChannelTangent      ChannelType = 21
)

const (
	MaxUVSets           = 8
	MaxWeightsPerVertex = 3
)

func ChannelTexCoord(set int) ChannelType {
	return ChannelTexCoord0 + ChannelType(set)
}

type GeometryHeader struct {
	ItemSize uint32      `yaml:"item_size"`
	Type     ChannelType `yaml:"type"`
}

type Color struct {
	R, G, B, A uint8
}

// WeightGroups holds the bone indices of one vertex. Bones4 is representable
// by the engine but never populated by the converters.
type WeightGroups struct {
	Bones1, Bones2, Bones3, Bones4 uint16
}

func (w WeightGroups) Slot(i int) uint16 {
	switch i {
	case 0:
		return w.Bones1
	case 1:
		return w.Bones2
	case 2:
		return w.Bones3
	case 3:
		return w.Bones4
	}
	panic(errors.Errorf("weight slot %d out of range", i))
}

func (w *WeightGroups) SetSlot(i int, bone uint16) {
	switch i {
	case 0:
		w.Bones1 = bone
	case 1:
		w.Bones2 = bone
	case 2:
		w.Bones3 = bone
	case 3:
		w.Bones4 = bone
	default:
		panic(errors.Errorf("weight slot %d out of range", i))
	}
}

// Geometry is columnar per-vertex storage. Every populated column has one entry per vertex.
type Geometry struct {
	Id           SectionId               `yaml:"id"`
	HashName     HashName                `yaml:"name"`
	Headers      []GeometryHeader        `yaml:"headers"`
	Verts        []mgl32.Vec3            `yaml:"verts,flow,omitempty"`
	Normals      []mgl32.Vec3            `yaml:"normals,flow,omitempty"`
	Tangents     []mgl32.Vec3            `yaml:"tangents,flow,omitempty"`
	Binormals    []mgl32.Vec3            `yaml:"binormals,flow,omitempty"`
	Colors       []Color                 `yaml:"colors,flow,omitempty"`
	UVs          [MaxUVSets][]mgl32.Vec2 `yaml:"uvs,flow"`
	Weights      []mgl32.Vec3            `yaml:"weights,flow,omitempty"`
	WeightGroups []WeightGroups          `yaml:"weight_groups,flow,omitempty"`
}

func NewGeometry(name string) *Geometry {
	return &Geometry{HashName: NewHashName(name)}
}

func (g *Geometry) GetId() SectionId { return g.Id }
func (g *Geometry) setId(id SectionId) { g.Id = id }

func (g *Geometry) VertCount() int { return len(g.Verts) }

func (g *Geometry) HasChannel(t ChannelType) bool {
	for _, h := range g.Headers {
		if h.Type == t {
			return true
		}
	}
	return false
}

// AddHeader appends a channel header unless one of that type already exists.
func (g *Geometry) AddHeader(itemSize uint32, t ChannelType) {
	if !g.HasChannel(t) {
		g.Headers = append(g.Headers, GeometryHeader{ItemSize: itemSize, Type: t})
	}
}

// ClearVertexData drops every per-vertex column along with the channel headers.
func (g *Geometry) ClearVertexData() {
	g.Headers = nil
	g.Verts = nil
	g.Normals = nil
	g.Tangents = nil
	g.Binormals = nil
	g.Colors = nil
	for i := range g.UVs {
		g.UVs[i] = nil
	}
	g.Weights = nil
	g.WeightGroups = nil
}

// Validate checks that all populated columns have the vertex count length.
func (g *Geometry) Validate() error {
	count := g.VertCount()
	check := func(name string, length int) error {
		if length != 0 && length != count {
			return errors.Errorf("Geometry %q: %s has %d entries, expected %d",
				g.HashName.Name(), name, length, count)
		}
		return nil
	}

	if err := check("normals", len(g.Normals)); err != nil {
		return err
	}
	if err := check("tangents", len(g.Tangents)); err != nil {
		return err
	}
	if err := check("binormals", len(g.Binormals)); err != nil {
		return err
	}
	if len(g.Tangents) != 0 && (len(g.Binormals) != count || len(g.Normals) != count) {
		return errors.Errorf("Geometry %q: tangents require normals and binormals", g.HashName.Name())
	}
	if err := check("colors", len(g.Colors)); err != nil {
		return err
	}
	for i, uvs := range g.UVs {
		if err := check("uv set "+string(rune('0'+i)), len(uvs)); err != nil {
			return err
		}
	}
	if err := check("weights", len(g.Weights)); err != nil {
		return err
	}
	if err := check("weight groups", len(g.WeightGroups)); err != nil {
		return err
	}
	if len(g.Weights) != len(g.WeightGroups) {
		return errors.Errorf("Geometry %q: %d weights but %d weight groups",
			g.HashName.Name(), len(g.Weights), len(g.WeightGroups))
	}
	return nil
}
