package vertexattr

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
)

func findBuffer(buffers []*VertexBuffer, semantic string) *VertexBuffer {
	for _, b := range buffers {
		if b.Semantic == semantic {
			return b
		}
	}
	return nil
}

func testGeometry() *model.Geometry {
	geom := model.NewGeometry("geom")
	geom.Verts = []mgl32.Vec3{{100, 200, 300}, {0, 0, 0}, {100, 0, 0}}
	geom.Normals = []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	geom.Tangents = []mgl32.Vec3{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}}
	geom.Binormals = []mgl32.Vec3{{0, -1, 0}, {0, 1, 0}, {1, 0, 0}}
	geom.UVs[0] = []mgl32.Vec2{{0, 0}, {1, 0.25}, {0.5, 1}}
	return geom
}

func TestBuildBuffersPositionScale(t *testing.T) {
	buffers, err := BuildBuffers(testGeometry())
	if err != nil {
		t.Fatal(err)
	}
	pos := findBuffer(buffers, AttrPosition)
	if got := pos.Vec3(0); !got.ApproxEqualThreshold(mgl32.Vec3{1, 2, 3}, 1e-5) {
		t.Errorf("position %v", got)
	}
	if pos.Count() != 3 || pos.Stride() != 12 {
		t.Errorf("count %d stride %d", pos.Count(), pos.Stride())
	}
}

func TestBuildBuffersColors(t *testing.T) {
	geom := testGeometry()
	buffers, err := BuildBuffers(geom)
	if err != nil {
		t.Fatal(err)
	}
	if findBuffer(buffers, AttrColor) != nil {
		t.Errorf("colour buffer emitted without colours")
	}

	geom.Colors = []model.Color{{R: 255, G: 128, B: 0, A: 255}, {}, {}}
	buffers, err = BuildBuffers(geom)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, b := range buffers {
		if b.Semantic == AttrColor {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("%d colour buffers", count)
	}
	if got := findBuffer(buffers, AttrColor).Vec4(0); !got.ApproxEqualThreshold(mgl32.Vec4{1, 0.502, 0, 1}, 1e-3) {
		t.Errorf("colour %v", got)
	}
}

func TestBuildBuffersTangentSign(t *testing.T) {
	buffers, err := BuildBuffers(testGeometry())
	if err != nil {
		t.Fatal(err)
	}
	tan := findBuffer(buffers, AttrTangent)
	// x cross z is -y
	for i, want := range []float32{1, -1, 1} {
		if got := tan.Vec4(i).W(); got != want {
			t.Errorf("vertex %d: sign %v, want %v", i, got, want)
		}
	}
}

func TestBuildBuffersUVFlip(t *testing.T) {
	buffers, err := BuildBuffers(testGeometry())
	if err != nil {
		t.Fatal(err)
	}
	uv := findBuffer(buffers, AttrTexCoord(0))
	if uv == nil || findBuffer(buffers, AttrTexCoord(1)) != nil {
		t.Fatalf("unexpected uv buffers")
	}
	if got := uv.Vec2(1); got != (mgl32.Vec2{1, 0.75}) {
		t.Errorf("uv %v", got)
	}
}

func TestBuildBuffersSkinning(t *testing.T) {
	geom := testGeometry()
	geom.Weights = []mgl32.Vec3{{0.5, 0.3, 0.2}, {1, 0, 0}, {1, 0, 0}}
	geom.WeightGroups = []model.WeightGroups{{Bones1: 2, Bones2: 5, Bones3: 9, Bones4: 7}, {Bones1: 1}, {Bones1: 1}}

	buffers, err := BuildBuffers(geom)
	if err != nil {
		t.Fatal(err)
	}
	if got := findBuffer(buffers, AttrWeights).Vec4(0); got != (mgl32.Vec4{0.5, 0.3, 0.2, 0}) {
		t.Errorf("weights %v", got)
	}
	joints := findBuffer(buffers, AttrJoints)
	if got := joints.Vec4(0); got != (mgl32.Vec4{2, 5, 9, 0}) {
		t.Errorf("joints %v", got)
	}
	if joints.Encoding != EncodingUnsignedShort || joints.Stride() != 8 {
		t.Errorf("joints encoding %v stride %d", joints.Encoding, joints.Stride())
	}
}

type recordingTarget struct {
	vertexBuffers int
	indexData     [][]uint16
	views         [][2]uint32
}

func (r *recordingTarget) CreateVertexBuffer(name string, buf *VertexBuffer) (uint32, error) {
	r.vertexBuffers++
	return uint32(r.vertexBuffers), nil
}

func (r *recordingTarget) CreateIndexData(name string, indices []uint16) (uint32, error) {
	r.indexData = append(r.indexData, indices)
	return uint32(len(r.indexData) - 1), nil
}

func (r *recordingTarget) CreateIndexBuffer(data uint32, offset, count uint32) (uint32, error) {
	r.views = append(r.views, [2]uint32{offset, count})
	return uint32(len(r.views) - 1), nil
}

func TestBuilderCaches(t *testing.T) {
	target := &recordingTarget{}
	b := NewBuilder(target)

	geom := testGeometry()
	geom.Id = 10
	first, err := b.Attributes(geom)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Attributes(geom)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) || target.vertexBuffers != len(first) {
		t.Errorf("attributes rebuilt: %d buffers for %d attributes", target.vertexBuffers, len(first))
	}

	topo := model.NewTopology("topo")
	topo.Id = 11
	topo.Faces = []model.Face{{A: 0, B: 1, C: 2}, {A: 2, B: 1, C: 0}, {A: 0, B: 2, C: 1}}
	atoms := []model.RenderAtom{
		{BaseIndex: 0, TriangleCount: 1},
		{BaseIndex: 3, TriangleCount: 2},
	}
	if _, err := b.AtomIndices(topo, atoms); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AtomIndices(topo, atoms[:1]); err != nil {
		t.Fatal(err)
	}
	if len(target.indexData) != 1 || len(target.indexData[0]) != 9 {
		t.Errorf("index data %v", target.indexData)
	}
	if target.views[1] != [2]uint32{3, 6} {
		t.Errorf("atom view %v", target.views[1])
	}

	if _, err := b.AtomIndices(topo, []model.RenderAtom{{BaseIndex: 6, TriangleCount: 2}}); err == nil {
		t.Errorf("expected range error")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	geom := testGeometry()
	geom.Colors = []model.Color{{R: 255, G: 128, B: 0, A: 255}, {R: 1, G: 2, B: 3, A: 4}, {}}
	geom.UVs[3] = []mgl32.Vec2{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}}
	topo := model.NewTopology("topo")
	topo.Faces = []model.Face{{A: 0, B: 1, C: 2}}

	sc := scene.New("test")
	mesh := sc.Mesh(sc.CreateMesh(sc.CreateNode("n", scene.NoNode), "m"))
	if err := WriteMesh(geom, topo, mesh); err != nil {
		t.Fatal(err)
	}
	if mesh.UVs[1].Name != "UV3" {
		t.Errorf("uv layer name %q", mesh.UVs[1].Name)
	}

	got := model.NewGeometry("geom")
	if err := ReadGeometry(mesh, got); err != nil {
		t.Fatal(err)
	}
	gotTopo := model.NewTopology("topo")
	if err := ReadTopology(mesh, gotTopo); err != nil {
		t.Fatal(err)
	}

	if !got.Verts[0].ApproxEqualThreshold(mgl32.Vec3{100, 200, 300}, 1e-3) {
		t.Errorf("position %v", got.Verts[0])
	}
	for i := range geom.Colors {
		if got.Colors[i] != geom.Colors[i] {
			t.Errorf("colour %d: %v, want %v", i, got.Colors[i], geom.Colors[i])
		}
	}
	for _, set := range []int{0, 3} {
		for i := range geom.UVs[set] {
			if !got.UVs[set][i].ApproxEqual(geom.UVs[set][i]) {
				t.Errorf("uv %d/%d: %v, want %v", set, i, got.UVs[set][i], geom.UVs[set][i])
			}
		}
	}
	// binormals are rebuilt perpendicular with the original handedness
	for i := range geom.Binormals {
		want := TangentSign(geom.Tangents[i], geom.Normals[i], geom.Binormals[i])
		if s := TangentSign(got.Tangents[i], got.Normals[i], got.Binormals[i]); s != want {
			t.Errorf("vertex %d handedness %v, want %v", i, s, want)
		}
	}
	if len(gotTopo.Faces) != 1 || gotTopo.Faces[0] != topo.Faces[0] {
		t.Errorf("faces %v", gotTopo.Faces)
	}
	if !got.HasChannel(model.ChannelTexCoord(3)) || !got.HasChannel(model.ChannelColor) {
		t.Errorf("headers %+v", got.Headers)
	}
}

func TestReadGeometryErrors(t *testing.T) {
	base := func() *scene.Mesh {
		return &scene.Mesh{
			Name:          "m",
			ControlPoints: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}},
			Normals: &scene.Vec3Layer{
				Mapping: scene.ByControlPoint, Reference: scene.Direct,
				Direct: []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}},
			},
		}
	}
	colors := func() *scene.Vec4Layer {
		return &scene.Vec4Layer{Mapping: scene.ByControlPoint, Reference: scene.Direct, Direct: make([]mgl32.Vec4, 2)}
	}

	for _, test := range []struct {
		name   string
		modify func(m *scene.Mesh)
		check  func(err error) bool
	}{
		{"normals by polygon vertex", func(m *scene.Mesh) {
			m.Normals.Mapping = scene.ByPolygonVertex
		}, func(err error) bool {
			var e *UnsupportedMappingModeError
			return errors.As(err, &e)
		}},
		{"normals indexed", func(m *scene.Mesh) {
			m.Normals.Reference = scene.IndexToDirect
		}, func(err error) bool {
			var e *UnsupportedMappingModeError
			return errors.As(err, &e)
		}},
		{"short normal", func(m *scene.Mesh) {
			m.Normals.Direct[1] = mgl32.Vec3{0, 0.05, 0}
		}, func(err error) bool {
			var e *DegenerateNormalError
			return errors.As(err, &e) && e.Vertex == 1
		}},
		{"two colour layers", func(m *scene.Mesh) {
			m.Colors = []*scene.Vec4Layer{colors(), colors()}
		}, func(err error) bool {
			var e *MultipleColorLayersError
			return errors.As(err, &e) && e.Count == 2
		}},
		{"colour length", func(m *scene.Mesh) {
			c := colors()
			c.Direct = c.Direct[:1]
			m.Colors = []*scene.Vec4Layer{c}
		}, func(err error) bool {
			var e *LayerLengthError
			return errors.As(err, &e) && e.Got == 1 && e.Want == 2
		}},
		{"unknown uv", func(m *scene.Mesh) {
			m.UVs = []*scene.Vec2Layer{{Name: "map1", Direct: make([]mgl32.Vec2, 2)}}
		}, func(err error) bool {
			var e *UnknownUVLayerError
			return errors.As(err, &e) && e.Name == "map1"
		}},
		{"duplicate uv", func(m *scene.Mesh) {
			m.UVs = []*scene.Vec2Layer{
				{Name: UVLayerName(0), Mapping: scene.ByControlPoint, Reference: scene.Direct, Direct: make([]mgl32.Vec2, 2)},
				{Name: UVLayerName(0), Mapping: scene.ByControlPoint, Reference: scene.Direct, Direct: make([]mgl32.Vec2, 2)},
			}
		}, func(err error) bool {
			var e *DuplicateUVLayerError
			return errors.As(err, &e) && e.Name == UVLayerName(0)
		}},
	} {
		m := base()
		test.modify(m)
		if err := ReadGeometry(m, model.NewGeometry("g")); !test.check(err) {
			t.Errorf("%s: unexpected error %v", test.name, err)
		}
	}
}

func TestReadTopologyNonTriangle(t *testing.T) {
	m := &scene.Mesh{ControlPoints: make([]mgl32.Vec3, 4)}
	m.AddPolygon(0, 1, 2)
	m.AddPolygon(0, 1, 2, 3)

	err := ReadTopology(m, model.NewTopology("t"))
	var e *NonTriangleError
	if !errors.As(err, &e) || e.Polygon != 1 || e.Size != 4 {
		t.Errorf("unexpected error %v", err)
	}
}

func TestUVLayerNames(t *testing.T) {
	for set := 0; set < model.MaxUVSets; set++ {
		got, err := UVSetFromName(UVLayerName(set))
		if err != nil || got != set {
			t.Errorf("set %d: %d %v", set, got, err)
		}
	}
}
