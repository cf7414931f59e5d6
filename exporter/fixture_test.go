package exporter

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/diesel_model_tool/model"
)

type riggedDocument struct {
	doc     *model.Document
	root    *model.Object3D
	hips    *model.Object3D
	spine   *model.Object3D
	locator *model.Object3D
	body    *model.Model
	prop    *model.Model
	sb      *model.SkinBones
}

func addMesh(doc *model.Document, name string, verts []mgl32.Vec3, faces []model.Face, material *model.Material) *model.Model {
	geom := model.NewGeometry(name)
	geom.AddHeader(3, model.ChannelPosition)
	geom.AddHeader(3, model.ChannelNormal)
	geom.AddHeader(2, model.ChannelTexCoord0)
	geom.Verts = verts
	for i := range verts {
		geom.Normals = append(geom.Normals, mgl32.Vec3{0, 0, 1})
		geom.UVs[0] = append(geom.UVs[0], mgl32.Vec2{float32(i) * 0.25, 0.25})
	}
	doc.Add(geom)

	topo := model.NewTopology(name)
	topo.Faces = faces
	doc.Add(topo)

	group := &model.MaterialGroup{Items: []model.SectionId{material.Id}}
	doc.Add(group)

	m := model.NewModel(name)
	m.GeometryId = geom.Id
	m.TopologyId = topo.Id
	m.MaterialGroupId = group.Id
	m.RenderAtoms = []model.RenderAtom{{
		TriangleCount:       uint32(len(faces)),
		GeometrySliceLength: uint32(len(verts)),
	}}
	doc.Add(m)
	return m
}

// newRiggedDocument builds "body" skinned to root > hips > spine with an
// unbound spine_end object below spine, and an unskinned "prop" model.
func newRiggedDocument(t *testing.T) *riggedDocument {
	r := &riggedDocument{doc: model.NewDocument()}
	doc := r.doc

	newObject := func(name string, transform mgl32.Mat4, parent *model.Object3D) *model.Object3D {
		obj := model.NewObject3D(name)
		obj.Transform = transform
		doc.Add(obj)
		if parent != nil {
			if err := doc.SetParent(obj.Id, parent.Id); err != nil {
				t.Fatal(err)
			}
		}
		return obj
	}
	r.root = newObject("root", mgl32.Ident4(), nil)
	r.hips = newObject("hips", mgl32.Translate3D(0, 100, 0), r.root)
	r.spine = newObject("spine", mgl32.Translate3D(0, 20, 0).Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(30))), r.hips)
	r.locator = newObject("spine_end", mgl32.Translate3D(0, 10, 0), r.spine)

	material := model.NewMaterial("skin_df")
	doc.Add(material)

	r.body = addMesh(doc, "body",
		[]mgl32.Vec3{{0, 0, 0}, {100, 0, 0}, {0, 100, 0}, {100, 100, 0}},
		[]model.Face{{A: 0, B: 1, C: 2}, {A: 1, B: 3, C: 2}},
		material)
	geom, _ := doc.Geometry(r.body.GeometryId)
	geom.AddHeader(3, model.ChannelBlendWeight)
	geom.AddHeader(7, model.ChannelBlendIndices)
	geom.Weights = []mgl32.Vec3{{1, 0, 0}, {0.5, 0.5, 0}, {1, 0, 0}, {0.25, 0.75, 0}}
	geom.WeightGroups = []model.WeightGroups{
		{Bones1: 1},
		{Bones1: 1, Bones2: 2},
		{Bones1: 2},
		{Bones1: 1, Bones2: 2},
	}

	r.sb = model.NewSkinBones()
	r.sb.RootBone = r.root.Id
	r.sb.Bones = []model.SectionId{r.root.Id, r.hips.Id, r.spine.Id}
	for range r.sb.Bones {
		r.sb.Rotations = append(r.sb.Rotations, mgl32.Ident4())
	}
	r.sb.BoneMappings = []model.BoneMapping{{Bones: []uint32{0, 1, 2}}}
	doc.Add(r.sb)
	r.body.SkinBonesId = r.sb.Id
	if err := doc.SetParent(r.body.Id, r.hips.Id); err != nil {
		t.Fatal(err)
	}

	defaultMaterial := model.NewMaterial(DefaultMaterialName)
	doc.Add(defaultMaterial)
	r.prop = addMesh(doc, "prop",
		[]mgl32.Vec3{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}},
		[]model.Face{{A: 0, B: 1, C: 2}},
		defaultMaterial)
	r.prop.Transform = mgl32.Translate3D(50, 0, 0)
	return r
}
