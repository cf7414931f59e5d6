package vertexattr

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/transform"
	"github.com/mogaika/diesel_model_tool/utils"
)

const minNormalLength = 0.1

func requireControlPointDirect(layer string, mapping scene.MappingMode, ref scene.ReferenceMode) error {
	if mapping != scene.ByControlPoint || ref != scene.Direct {
		return &UnsupportedMappingModeError{Layer: layer, Mapping: mapping, Reference: ref}
	}
	return nil
}

// ReadGeometry replaces the vertex columns of geom with the mesh control
// points and their per control point layers. Headers are rebuilt from the
// layers read and weights are cleared.
func ReadGeometry(mesh *scene.Mesh, geom *model.Geometry) error {
	count := len(mesh.ControlPoints)
	if count > math.MaxUint16+1 {
		return errors.Errorf("Mesh %q has %d control points, 16 bit indices allow %d",
			mesh.Name, count, math.MaxUint16+1)
	}

	geom.ClearVertexData()

	geom.Verts = make([]mgl32.Vec3, count)
	for i, p := range mesh.ControlPoints {
		geom.Verts[i] = transform.FromExternal(p)
	}
	geom.AddHeader(3, model.ChannelPosition)

	if mesh.Normals != nil {
		if err := readNormals(mesh.Normals, geom, count); err != nil {
			return err
		}
	} else {
		utils.Log.Warnf("Mesh %q has no normals", mesh.Name)
	}

	if mesh.Tangents != nil && len(geom.Normals) != 0 {
		if err := readTangents(mesh.Tangents, geom, count); err != nil {
			return err
		}
	}

	if err := readColors(mesh.Colors, geom, count); err != nil {
		return err
	}

	for _, layer := range mesh.UVs {
		if err := readUVs(layer, geom, count); err != nil {
			return err
		}
	}

	return geom.Validate()
}

func readNormals(layer *scene.Vec3Layer, geom *model.Geometry, count int) error {
	if err := requireControlPointDirect("Normal", layer.Mapping, layer.Reference); err != nil {
		return err
	}
	if len(layer.Direct) != count {
		return &LayerLengthError{Layer: "Normal", Got: len(layer.Direct), Want: count}
	}

	geom.Normals = make([]mgl32.Vec3, count)
	for i, n := range layer.Direct {
		if l := n.Len(); l < minNormalLength {
			return &DegenerateNormalError{Vertex: i, Length: l}
		}
		geom.Normals[i] = n
	}
	geom.AddHeader(3, model.ChannelNormal)
	return nil
}

// readTangents restores the binormal from the tangent handedness.
func readTangents(layer *scene.Vec4Layer, geom *model.Geometry, count int) error {
	if err := requireControlPointDirect("Tangent", layer.Mapping, layer.Reference); err != nil {
		return err
	}
	if len(layer.Direct) != count {
		return &LayerLengthError{Layer: "Tangent", Got: len(layer.Direct), Want: count}
	}

	geom.Tangents = make([]mgl32.Vec3, count)
	geom.Binormals = make([]mgl32.Vec3, count)
	for i, t := range layer.Direct {
		tangent := t.Vec3()
		geom.Tangents[i] = tangent
		geom.Binormals[i] = tangent.Cross(geom.Normals[i]).Mul(t.W())
	}
	geom.AddHeader(3, model.ChannelBinormal)
	geom.AddHeader(3, model.ChannelTangent)
	return nil
}

func readColors(layers []*scene.Vec4Layer, geom *model.Geometry, count int) error {
	switch len(layers) {
	case 0:
		return nil
	case 1:
	default:
		return &MultipleColorLayersError{Count: len(layers)}
	}
	layer := layers[0]

	if err := requireControlPointDirect("Vertex colour", layer.Mapping, layer.Reference); err != nil {
		return err
	}
	if len(layer.Direct) != count {
		return &LayerLengthError{Layer: "Vertex colour", Got: len(layer.Direct), Want: count}
	}

	geom.Colors = make([]model.Color, count)
	for i, c := range layer.Direct {
		geom.Colors[i] = model.Color{R: unitToByte(c[0]), G: unitToByte(c[1]), B: unitToByte(c[2]), A: unitToByte(c[3])}
	}
	geom.AddHeader(3, model.ChannelColor)
	return nil
}

func readUVs(layer *scene.Vec2Layer, geom *model.Geometry, count int) error {
	set, err := UVSetFromName(layer.Name)
	if err != nil {
		return err
	}
	if err := requireControlPointDirect("UV "+layer.Name, layer.Mapping, layer.Reference); err != nil {
		return err
	}
	if len(layer.Direct) != count {
		return &LayerLengthError{Layer: "UV " + layer.Name, Got: len(layer.Direct), Want: count}
	}

	if geom.UVs[set] != nil {
		return &DuplicateUVLayerError{Name: layer.Name}
	}

	uvs := make([]mgl32.Vec2, count)
	for i, uv := range layer.Direct {
		uvs[i] = mgl32.Vec2{uv[0], 1 - uv[1]}
	}
	geom.UVs[set] = uvs
	geom.AddHeader(2, model.ChannelTexCoord(set))
	return nil
}

func unitToByte(v float32) uint8 {
	return uint8(utils.Clamp(math.Round(float64(v)*255), 0, 255))
}

// ReadTopology replaces the faces of topo with the mesh triangles.
func ReadTopology(mesh *scene.Mesh, topo *model.Topology) error {
	count := len(mesh.ControlPoints)
	faces := make([]model.Face, len(mesh.Polygons))

	for i, poly := range mesh.Polygons {
		if len(poly) != 3 {
			return &NonTriangleError{Polygon: i, Size: len(poly)}
		}
		for _, idx := range poly {
			if idx < 0 || idx >= count {
				return errors.Errorf("Mesh %q polygon %d: index %d out of range [0, %d)", mesh.Name, i, idx, count)
			}
		}
		faces[i] = model.Face{A: uint16(poly[0]), B: uint16(poly[1]), C: uint16(poly[2])}
	}

	topo.Faces = faces
	return nil
}
