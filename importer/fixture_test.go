package importer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/diesel_model_tool/model"
)

// newArmDocument builds "arm" skinned to rig > shoulder > elbow, plus an unskinned "crate".
func newArmDocument(t *testing.T) *model.Document {
	doc := model.NewDocument()

	rig := model.NewObject3D("rig")
	doc.Add(rig)
	shoulder := model.NewObject3D("shoulder")
	shoulder.Transform = mgl32.Translate3D(0, 50, 0)
	doc.Add(shoulder)
	if err := doc.SetParent(shoulder.Id, rig.Id); err != nil {
		t.Fatal(err)
	}
	elbow := model.NewObject3D("elbow")
	elbow.Transform = mgl32.Translate3D(0, 100, 0)
	doc.Add(elbow)
	if err := doc.SetParent(elbow.Id, shoulder.Id); err != nil {
		t.Fatal(err)
	}

	material := model.NewMaterial("arm_df")
	doc.Add(material)

	arm := addMesh(doc, "arm", []mgl32.Vec3{{0, 0, 0}, {100, 0, 0}, {0, 200, 0}}, material)
	geom, _ := doc.Geometry(arm.GeometryId)
	geom.AddHeader(3, model.ChannelBlendWeight)
	geom.AddHeader(7, model.ChannelBlendIndices)
	geom.Weights = []mgl32.Vec3{{1, 0, 0}, {0.5, 0.5, 0}, {1, 0, 0}}
	geom.WeightGroups = []model.WeightGroups{{Bones1: 1}, {Bones1: 1, Bones2: 2}, {Bones1: 2}}

	sb := model.NewSkinBones()
	sb.RootBone = rig.Id
	sb.Bones = []model.SectionId{rig.Id, shoulder.Id, elbow.Id}
	sb.Rotations = []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4(), mgl32.Ident4()}
	sb.BoneMappings = []model.BoneMapping{{Bones: []uint32{0, 1, 2}}}
	doc.Add(sb)
	arm.SkinBonesId = sb.Id
	if err := doc.SetParent(arm.Id, shoulder.Id); err != nil {
		t.Fatal(err)
	}

	addMesh(doc, "crate", []mgl32.Vec3{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}}, material)
	return doc
}

func addMesh(doc *model.Document, name string, verts []mgl32.Vec3, material *model.Material) *model.Model {
	geom := model.NewGeometry(name)
	geom.AddHeader(3, model.ChannelPosition)
	geom.AddHeader(3, model.ChannelNormal)
	geom.AddHeader(2, model.ChannelTexCoord0)
	geom.Verts = verts
	for i := range verts {
		geom.Normals = append(geom.Normals, mgl32.Vec3{0, 0, 1})
		geom.UVs[0] = append(geom.UVs[0], mgl32.Vec2{float32(i) * 0.5, 0.25})
	}
	doc.Add(geom)

	topo := model.NewTopology(name)
	topo.Faces = []model.Face{{A: 0, B: 1, C: 2}}
	doc.Add(topo)

	group := &model.MaterialGroup{Items: []model.SectionId{material.Id}}
	doc.Add(group)

	m := model.NewModel(name)
	m.GeometryId = geom.Id
	m.TopologyId = topo.Id
	m.MaterialGroupId = group.Id
	m.RenderAtoms = []model.RenderAtom{{TriangleCount: 1, GeometrySliceLength: uint32(len(verts))}}
	doc.Add(m)
	return m
}

func findModel(t *testing.T, doc *model.Document, name string) *model.Model {
	t.Helper()
	for _, m := range doc.Models() {
		if m.Name() == name {
			return m
		}
	}
	t.Fatalf("model %q not found", name)
	return nil
}

func findObject(t *testing.T, doc *model.Document, name string) *model.Object3D {
	t.Helper()
	for _, o := range doc.Objects() {
		if o.Name() == name {
			return o
		}
	}
	t.Fatalf("object %q not found", name)
	return nil
}
