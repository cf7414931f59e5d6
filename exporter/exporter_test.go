package exporter

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/transform"
)

func TestExportSceneUnskinnedModel(t *testing.T) {
	r := newRiggedDocument(t)
	sc, err := ExportScene(r.doc, "test")
	if err != nil {
		t.Fatal(err)
	}

	ref := sc.FindNode("prop")
	if ref == scene.NoNode {
		t.Fatal("prop node not found")
	}
	node := sc.Node(ref)
	if node.Parent != sc.Root() {
		t.Errorf("prop parent = %d, want scene root", node.Parent)
	}
	if !node.Translation.ApproxEqual(mgl32.Vec3{0.5, 0, 0}) {
		t.Errorf("prop translation = %v", node.Translation)
	}
	if sc.FindNode("propObject") != scene.NoNode {
		t.Error("unskinned model kept the Object suffix")
	}

	mesh, err := sc.NodeMesh(ref)
	if err != nil {
		t.Fatal(err)
	}
	if mesh.PolygonCount() != 1 || len(mesh.ControlPoints) != 3 {
		t.Fatalf("mesh has %d polygons and %d points", mesh.PolygonCount(), len(mesh.ControlPoints))
	}
	if !mesh.ControlPoints[1].ApproxEqual(mgl32.Vec3{0.1, 0, 0}) {
		t.Errorf("control point 1 = %v", mesh.ControlPoints[1])
	}
	if len(mesh.Skins) != 0 {
		t.Errorf("unskinned mesh has %d skins", len(mesh.Skins))
	}
}

func TestExportSceneSkinnedModel(t *testing.T) {
	r := newRiggedDocument(t)
	sc, err := ExportScene(r.doc, "test")
	if err != nil {
		t.Fatal(err)
	}

	rootRef := sc.FindNode("body")
	if rootRef == scene.NoNode {
		t.Fatal("body root node not found")
	}
	root := sc.Node(rootRef)
	if root.Skeleton != scene.SkeletonRoot || root.Parent != sc.Root() {
		t.Fatalf("body root: skeleton %v parent %d", root.Skeleton, root.Parent)
	}

	var children []string
	for _, c := range root.Children {
		children = append(children, sc.Node(c).Name)
	}
	if len(children) != 2 || children[0] != "bodyObject" || children[1] != "root" {
		t.Errorf("body root children = %v", children)
	}

	for name, want := range map[string]scene.SkeletonType{
		"root":              scene.SkeletonLimbNode,
		"hips":              scene.SkeletonLimbNode,
		"spine":             scene.SkeletonLimbNode,
		"spine_end_Locator": scene.SkeletonLimbNode,
	} {
		ref := sc.FindNode(name)
		if ref == scene.NoNode {
			t.Errorf("node %q not found", name)
			continue
		}
		if got := sc.Node(ref).Skeleton; got != want {
			t.Errorf("node %q skeleton = %v, want %v", name, got, want)
		}
	}
	if ref := sc.FindNode("hips"); !sc.Node(ref).Translation.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("hips translation = %v", sc.Node(ref).Translation)
	}
	if sc.FindNode("body_Locator") != scene.NoNode {
		t.Error("model placement exported as a bone")
	}

	mesh, err := sc.NodeMesh(sc.FindNode("bodyObject"))
	if err != nil {
		t.Fatal(err)
	}
	if len(mesh.Skins) != 1 {
		t.Fatalf("body mesh has %d skins", len(mesh.Skins))
	}
	skin := sc.Skin(mesh.Skins[0])
	if skin.Name != "bodySkin" || len(skin.Clusters) != 2 {
		t.Fatalf("skin %q with %d clusters", skin.Name, len(skin.Clusters))
	}

	hips := skin.Clusters[0]
	if sc.Node(hips.Link).Name != "hips" {
		t.Errorf("first cluster links %q", sc.Node(hips.Link).Name)
	}
	if len(hips.Indices) != 3 || hips.Indices[0] != 0 || hips.Indices[1] != 1 || hips.Indices[2] != 3 {
		t.Errorf("hips cluster indices %v", hips.Indices)
	}
	if hips.Weights[2] != 0.25 {
		t.Errorf("hips weight of vertex 3 = %v", hips.Weights[2])
	}
	want := transform.ScaleTranslation(mgl32.Translate3D(0, 100, 0), transform.ExternalScale)
	if !hips.TransformLink.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("hips transform link = %v", hips.TransformLink)
	}
}

func TestExportSceneSkipsBoundsOnlyModels(t *testing.T) {
	r := newRiggedDocument(t)
	r.prop.Version = model.BoundsOnlyVersion
	sc, err := ExportScene(r.doc, "test")
	if err != nil {
		t.Fatal(err)
	}
	if sc.FindNode("prop") != scene.NoNode {
		t.Error("bounds only model exported")
	}
}

func TestExportSceneMissingGeometry(t *testing.T) {
	r := newRiggedDocument(t)
	r.prop.GeometryId = 424242
	if _, err := ExportScene(r.doc, "test"); err == nil {
		t.Error("expected error for missing geometry")
	}
}

func TestExportGLTF(t *testing.T) {
	r := newRiggedDocument(t)
	doc, err := ExportGLTF(r.doc)
	if err != nil {
		t.Fatal(err)
	}

	nodes := make(map[string]*gltf.Node)
	index := make(map[string]uint32)
	for i, n := range doc.Nodes {
		nodes[n.Name] = n
		index[n.Name] = uint32(i)
	}
	if len(doc.Nodes) != 6 {
		t.Errorf("exported %d nodes, want 6", len(doc.Nodes))
	}

	body := nodes["body"]
	if body == nil || body.Skin == nil || body.Mesh == nil {
		t.Fatalf("body node %+v", body)
	}
	if body.Translation != [3]float32{} || body.Rotation != [4]float32{0, 0, 0, 1} {
		t.Errorf("skinned node is not at identity: %v %v", body.Translation, body.Rotation)
	}
	inScene := false
	for _, n := range doc.Scenes[0].Nodes {
		if n == index["body"] {
			inScene = true
		}
	}
	if !inScene {
		t.Error("skinned node is not a scene root")
	}
	for _, c := range nodes["hips"].Children {
		if c == index["body"] {
			t.Error("skinned node still parented to hips")
		}
	}

	if hips := nodes["hips"]; !mgl32.Vec3(hips.Translation).ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("hips translation = %v", hips.Translation)
	}

	skin := doc.Skins[*body.Skin]
	if skin.Name != "body_Skin" || len(skin.Joints) != 3 {
		t.Fatalf("skin %q with %d joints", skin.Name, len(skin.Joints))
	}
	for i, name := range []string{"root", "hips", "spine"} {
		if skin.Joints[i] != index[name] {
			t.Errorf("joint %d = node %d, want %q", i, skin.Joints[i], name)
		}
	}
	if skin.Skeleton == nil || *skin.Skeleton != index["root"] {
		t.Errorf("skin skeleton = %v", skin.Skeleton)
	}
	ibm := doc.Accessors[*skin.InverseBindMatrices]
	if ibm.Type != gltf.AccessorMat4 || ibm.Count != 3 {
		t.Errorf("inverse bind matrices accessor %v x%d", ibm.Type, ibm.Count)
	}

	mesh := doc.Meshes[*body.Mesh]
	if len(mesh.Primitives) != 1 {
		t.Fatalf("body mesh has %d primitives", len(mesh.Primitives))
	}
	prim := mesh.Primitives[0]
	for _, attr := range []string{"POSITION", "NORMAL", "TEXCOORD_0", "WEIGHTS_0", "JOINTS_0"} {
		if _, ok := prim.Attributes[attr]; !ok {
			t.Errorf("body primitive has no %s", attr)
		}
	}
	if prim.Material == nil || doc.Materials[*prim.Material].Name != "skin_df" {
		t.Errorf("body primitive material = %v", prim.Material)
	}
	if acc := doc.Accessors[*prim.Indices]; acc.Count != 6 || acc.ComponentType != gltf.ComponentUshort {
		t.Errorf("index accessor count %d type %v", acc.Count, acc.ComponentType)
	}

	propMesh := doc.Meshes[*nodes["prop"].Mesh]
	if propMesh.Primitives[0].Material != nil {
		t.Error("default material assigned to a primitive")
	}
}

func TestExportGLTFSharesAttributesBetweenAtoms(t *testing.T) {
	r := newRiggedDocument(t)
	r.body.RenderAtoms = []model.RenderAtom{
		{TriangleCount: 1, BaseIndex: 0, GeometrySliceLength: 4},
		{TriangleCount: 1, BaseIndex: 3, GeometrySliceLength: 4},
	}
	r.sb.BoneMappings = append(r.sb.BoneMappings, r.sb.BoneMappings[0])

	doc, err := ExportGLTF(r.doc)
	if err != nil {
		t.Fatal(err)
	}
	var mesh *gltf.Mesh
	for _, m := range doc.Meshes {
		if m.Name == "body" {
			mesh = m
		}
	}
	if mesh == nil || len(mesh.Primitives) != 2 {
		t.Fatalf("body mesh %+v", mesh)
	}
	a, b := mesh.Primitives[0], mesh.Primitives[1]
	if a.Attributes["POSITION"] != b.Attributes["POSITION"] {
		t.Error("render atoms do not share the position accessor")
	}
	ia, ib := doc.Accessors[*a.Indices], doc.Accessors[*b.Indices]
	if *ia.BufferView != *ib.BufferView {
		t.Error("render atoms do not share the index buffer view")
	}
	if ia.ByteOffset != 0 || ib.ByteOffset != 6 || ib.Count != 3 {
		t.Errorf("atom index ranges: %d+%d, %d+%d", ia.ByteOffset, ia.Count, ib.ByteOffset, ib.Count)
	}
}

func TestExportGLTFRejectsOutOfRangeAtom(t *testing.T) {
	r := newRiggedDocument(t)
	r.prop.RenderAtoms[0].TriangleCount = 5
	if _, err := ExportGLTF(r.doc); err == nil {
		t.Error("expected error for render atom past the topology end")
	}
}

func TestWriteGLBDecodes(t *testing.T) {
	r := newRiggedDocument(t)
	var buf bytes.Buffer
	if err := WriteGLB(r.doc, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("glTF")) {
		t.Fatalf("output does not start with the glb magic")
	}

	decoded := new(gltf.Document)
	if err := gltf.NewDecoder(&buf).Decode(decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded.Skins) != 1 || len(decoded.Meshes) != 2 {
		t.Errorf("decoded %d skins and %d meshes", len(decoded.Skins), len(decoded.Meshes))
	}
}

func TestWriteFBX(t *testing.T) {
	r := newRiggedDocument(t)
	var buf bytes.Buffer
	if err := WriteFBX(r.doc, &buf, "test.fbx"); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("Kaydara FBX Binary")) {
		t.Errorf("output does not start with the fbx magic")
	}
}
