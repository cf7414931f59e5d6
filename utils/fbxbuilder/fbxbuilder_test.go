package fbxbuilder

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mogaika/fbx"

	"github.com/mogaika/diesel_model_tool/scene"
)

func childNode(n *fbx.Node, name string) *fbx.Node {
	for _, c := range n.Nodes {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func objectsOfType(f *FBXBuilder, name string, subtype string) []*fbx.Node {
	found := make([]*fbx.Node, 0)
	for _, o := range f.objects.Nodes {
		if o.Name != name {
			continue
		}
		if subtype != "" && o.Properties[2].(string) != subtype {
			continue
		}
		found = append(found, o)
	}
	return found
}

func riggedScene(t *testing.T) *scene.Scene {
	sc := scene.New("test")
	root := sc.CreateNode("hero", scene.NoNode)
	sc.CreateSkeletonMarker(root, scene.SkeletonRoot)
	obj := sc.CreateNode("heroObject", root)
	bone := sc.CreateNode("pelvis", root)
	sc.CreateSkeletonMarker(bone, scene.SkeletonLimbNode)
	sc.Node(bone).Translation = mgl32.Vec3{0, 1, 0}

	mesh := sc.CreateMesh(obj, "heroMesh")
	m := sc.Mesh(mesh)
	m.ControlPoints = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.AddPolygon(0, 1, 2)
	m.Normals = &scene.Vec3Layer{
		Mapping:   scene.ByControlPoint,
		Reference: scene.Direct,
		Direct:    []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
	}
	m.UVs = append(m.UVs, &scene.Vec2Layer{
		Name:      "PrimaryUV",
		Mapping:   scene.ByControlPoint,
		Reference: scene.Direct,
		Direct:    []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}},
	})

	skin := sc.CreateSkin(mesh, "heroSkin")
	c := scene.NewCluster(bone)
	c.Add(0, 1)
	c.Add(1, 0.5)
	if err := sc.BindCluster(skin, c); err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestAddScene(t *testing.T) {
	sc := riggedScene(t)
	f := NewFBXBuilder("test.fbx")
	ids, err := f.AddScene(sc)
	if err != nil {
		t.Fatal(err)
	}

	if len(ids.Models) != 4 || len(ids.Geometries) != 1 || len(ids.Skins) != 1 {
		t.Fatalf("ids: %d models, %d geometries, %d skins", len(ids.Models), len(ids.Geometries), len(ids.Skins))
	}

	kinds := make(map[string]int)
	for _, m := range objectsOfType(f, "Model", "") {
		kinds[m.Properties[2].(string)]++
	}
	if kinds["Root"] != 1 || kinds["LimbNode"] != 1 || kinds["Mesh"] != 1 {
		t.Errorf("model kinds %v", kinds)
	}
	if attrs := objectsOfType(f, "NodeAttribute", ""); len(attrs) != 2 {
		t.Errorf("%d node attributes, want 2", len(attrs))
	}

	geoms := objectsOfType(f, "Geometry", "Mesh")
	if len(geoms) != 1 {
		t.Fatalf("%d geometries", len(geoms))
	}
	indexes := childNode(geoms[0], "PolygonVertexIndex").Properties[0].([]int32)
	want := []int32{0, 1, -3}
	if len(indexes) != len(want) {
		t.Fatalf("polygon indexes %v", indexes)
	}
	for i := range want {
		if indexes[i] != want[i] {
			t.Errorf("polygon indexes %v, want %v", indexes, want)
			break
		}
	}
	if childNode(geoms[0], "LayerElementNormal") == nil || childNode(geoms[0], "LayerElementUV") == nil {
		t.Error("geometry is missing layer elements")
	}
	if layer := childNode(geoms[0], "Layer"); layer == nil || len(layer.Nodes) != 3 {
		t.Error("layer 0 does not reference the normal and uv elements")
	}

	if skins := objectsOfType(f, "Deformer", "Skin"); len(skins) != 1 {
		t.Errorf("%d skin deformers", len(skins))
	}
	clusters := objectsOfType(f, "Deformer", "Cluster")
	if len(clusters) != 1 {
		t.Fatalf("%d cluster deformers", len(clusters))
	}
	if idx := childNode(clusters[0], "Indexes").Properties[0].([]int32); len(idx) != 2 || idx[1] != 1 {
		t.Errorf("cluster indexes %v", idx)
	}
	if w := childNode(clusters[0], "Weights").Properties[0].([]float64); len(w) != 2 || w[1] != 0.5 {
		t.Errorf("cluster weights %v", w)
	}

	poses := objectsOfType(f, "Pose", "BindPose")
	if len(poses) != 1 {
		t.Fatalf("%d bind poses", len(poses))
	}
	if n := childNode(poses[0], "NbPoseNodes").Properties[0].(int32); n != 2 {
		t.Errorf("bind pose has %d nodes, want 2", n)
	}
}

func TestAddSceneWithoutSkinsHasNoPose(t *testing.T) {
	sc := scene.New("test")
	node := sc.CreateNode("crate", scene.NoNode)
	m := sc.Mesh(sc.CreateMesh(node, "crateMesh"))
	m.ControlPoints = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	m.AddPolygon(0, 1, 2)

	f := NewFBXBuilder("test.fbx")
	if _, err := f.AddScene(sc); err != nil {
		t.Fatal(err)
	}
	if poses := objectsOfType(f, "Pose", ""); len(poses) != 0 {
		t.Errorf("%d poses for a scene without skins", len(poses))
	}
}

func TestAddSceneRejectsBadPolygons(t *testing.T) {
	for _, tc := range []struct {
		name    string
		polygon []int
	}{
		{"degenerate", []int{0, 1}},
		{"out of range", []int{0, 1, 7}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sc := scene.New("test")
			node := sc.CreateNode("crate", scene.NoNode)
			m := sc.Mesh(sc.CreateMesh(node, "crateMesh"))
			m.ControlPoints = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
			m.AddPolygon(tc.polygon...)

			if _, err := NewFBXBuilder("test.fbx").AddScene(sc); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWrite(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	if _, err := f.AddScene(riggedScene(t)); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("Kaydara FBX Binary")) {
		t.Error("missing fbx magic")
	}
}

func TestCountDefinitions(t *testing.T) {
	f := NewFBXBuilder("test.fbx")
	if _, err := f.AddScene(riggedScene(t)); err != nil {
		t.Fatal(err)
	}
	f.countDefinitions()

	want := make(map[string]int32)
	total := int32(1)
	for _, o := range f.objects.Nodes {
		want[o.Name]++
		total++
	}

	definitions := f.Root().GetNode("Definitions")
	if got := childNode(definitions, "Count").Properties[0]; got != total {
		t.Errorf("total count %v, want %v", got, total)
	}
	for _, ot := range definitions.GetNodes("ObjectType") {
		name := ot.Properties[0].(string)
		if name == "GlobalSettings" {
			continue
		}
		if got := childNode(ot, "Count").Properties[0]; got != want[name] {
			t.Errorf("%s count %v, want %v", name, got, want[name])
		}
		delete(want, name)
	}
	if len(want) != 0 {
		t.Errorf("object types without definitions: %v", want)
	}
}
