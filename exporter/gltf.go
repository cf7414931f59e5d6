package exporter

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/transform"
	"github.com/mogaika/diesel_model_tool/utils"
	"github.com/mogaika/diesel_model_tool/utils/gltfutils"
	"github.com/mogaika/diesel_model_tool/vertexattr"
)

// DefaultMaterialName is the placeholder material. Primitives using it get no material.
const DefaultMaterialName = "Material: Default Material"

type GLTFModelExported struct {
	Model     *model.Model
	Node      uint32
	MeshIndex uint32
}

type gltfExporter struct {
	doc     *model.Document
	gc      *gltfutils.GLTFCacher
	buffers *vertexattr.Builder

	nodes   map[model.SectionId]uint32
	parents map[uint32]int
	toSkin  []*GLTFModelExported
}

// ExportGLTF converts the whole object forest of doc into a glTF document.
// Skinned models are moved to the scene root with an identity transform.
func ExportGLTF(doc *model.Document) (*gltf.Document, error) {
	gc := gltfutils.NewCacher()
	e := &gltfExporter{
		doc:     doc,
		gc:      gc,
		buffers: vertexattr.NewBuilder(gc),
		nodes:   make(map[model.SectionId]uint32),
		parents: make(map[uint32]int),
	}

	for _, mat := range doc.Materials() {
		gc.AddCache(mat.Id, uint32(len(gc.Doc.Materials)))
		gc.Doc.Materials = append(gc.Doc.Materials, &gltf.Material{
			Name:        mat.HashName.Name(),
			DoubleSided: true,
		})
	}

	for _, obj := range doc.Objects() {
		if obj.HasParent() {
			continue
		}
		if err := e.exportObject(obj.Id, -1, make(map[model.SectionId]struct{})); err != nil {
			return nil, err
		}
	}

	for _, exported := range e.toSkin {
		if err := e.skinModel(exported); err != nil {
			return nil, errors.Wrapf(err, "Failed to skin %q", exported.Model.Name())
		}
	}

	utils.Log.Debugf("glTF export: %d nodes, %d meshes, %d skins",
		len(gc.Doc.Nodes), len(gc.Doc.Meshes), len(gc.Doc.Skins))
	return gc.Doc, nil
}

func (e *gltfExporter) exportObject(id model.SectionId, parent int, path map[model.SectionId]struct{}) error {
	if _, ok := path[id]; ok {
		return &model.CycleError{Object: id, Parent: id}
	}
	path[id] = struct{}{}
	defer delete(path, id)

	obj, err := e.doc.Object(id)
	if err != nil {
		return err
	}
	m, _ := e.doc.Model(id)
	skinned := m != nil && m.IsSkinned()
	if skinned {
		parent = -1
	}

	trs, err := transform.DecomposeTRS(obj.Transform)
	if err != nil {
		return errors.Wrapf(err, "Object %q (%d)", obj.Name(), obj.Id)
	}

	node := e.gc.CreateNode(obj.Name(), parent)
	e.nodes[id] = node
	e.parents[node] = parent
	if !skinned {
		e.gc.SetLocalTransform(node, trs.ToExternal())
	}

	if m != nil && m.Version != model.BoundsOnlyVersion {
		meshIndex, err := e.exportMesh(m)
		if err != nil {
			return errors.Wrapf(err, "Model %q", m.Name())
		}
		e.gc.Doc.Nodes[node].Mesh = gltf.Index(meshIndex)
		if skinned {
			e.toSkin = append(e.toSkin, &GLTFModelExported{Model: m, Node: node, MeshIndex: meshIndex})
		}
	}

	for _, child := range obj.Children {
		if err := e.exportObject(child, int(node), path); err != nil {
			return err
		}
	}
	return nil
}

func (e *gltfExporter) exportMesh(m *model.Model) (uint32, error) {
	geom, err := e.doc.Geometry(m.GeometryId)
	if err != nil {
		return 0, err
	}
	topo, err := e.doc.Topology(m.TopologyId)
	if err != nil {
		return 0, err
	}
	var group *model.MaterialGroup
	if m.MaterialGroupId != model.NoSection {
		if group, err = e.doc.MaterialGroup(m.MaterialGroupId); err != nil {
			return 0, err
		}
	}

	attributes, err := e.buffers.Attributes(geom)
	if err != nil {
		return 0, err
	}
	indices, err := e.buffers.AtomIndices(topo, m.RenderAtoms)
	if err != nil {
		return 0, err
	}

	mesh := &gltf.Mesh{Name: m.Name()}
	for i, ra := range m.RenderAtoms {
		primitive := &gltf.Primitive{
			Indices:    gltf.Index(indices[i]),
			Attributes: make(map[string]uint32, len(attributes)),
		}
		for _, attr := range attributes {
			primitive.Attributes[attr.Semantic] = attr.Accessor
		}

		if group != nil {
			if int(ra.MaterialId) >= len(group.Items) {
				return 0, errors.Errorf("Render atom %d: material %d out of group range %d",
					i, ra.MaterialId, len(group.Items))
			}
			mat, err := e.doc.Material(group.Items[ra.MaterialId])
			if err != nil {
				return 0, errors.Wrapf(err, "Render atom %d", i)
			}
			if mat.HashName.Name() != DefaultMaterialName {
				if cached := e.gc.GetCached(mat.Id); cached != nil {
					primitive.Material = gltf.Index(cached.(uint32))
				}
			}
		}
		mesh.Primitives = append(mesh.Primitives, primitive)
	}

	e.gc.Doc.Meshes = append(e.gc.Doc.Meshes, mesh)
	return uint32(len(e.gc.Doc.Meshes) - 1), nil
}

// worldMatrix composes the glTF local transforms from the scene root to node.
func (e *gltfExporter) worldMatrix(node uint32) mgl32.Mat4 {
	world := mgl32.Ident4()
	for cur := int(node); cur >= 0; cur = e.parents[uint32(cur)] {
		n := e.gc.Doc.Nodes[cur]
		rotation := mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
		world = transform.Recompose(n.Scale, rotation, n.Translation).Mul4(world)
	}
	return world
}

// skinModel binds the joints in bone mapping order. Inverse bind matrices are
// taken relative to the mesh node world transform.
func (e *gltfExporter) skinModel(exported *GLTFModelExported) error {
	sb, err := e.doc.SkinBones(exported.Model.SkinBonesId)
	if err != nil {
		return err
	}
	skeletonNode, ok := e.nodes[sb.RootBone]
	if !ok {
		return errors.Errorf("Root bone %d was not exported", sb.RootBone)
	}

	meshWorld := e.worldMatrix(exported.Node)
	order := sb.JointOrder()
	joints := make([]uint32, len(order))
	inverseBind := make([]mgl32.Mat4, len(order))
	for i, boneIdx := range order {
		if int(boneIdx) >= sb.Count() {
			return errors.Errorf("Bone mapping entry %d: bone %d out of range %d", i, boneIdx, sb.Count())
		}
		node, ok := e.nodes[sb.Bones[boneIdx]]
		if !ok {
			return errors.Errorf("Bone %d (object %d) was not exported", boneIdx, sb.Bones[boneIdx])
		}
		joints[i] = node
		inverseBind[i] = e.worldMatrix(node).Inv().Mul4(meshWorld)
	}

	doc := e.gc.Doc
	doc.Skins = append(doc.Skins, &gltf.Skin{
		Name:                exported.Model.Name() + "_Skin",
		Skeleton:            gltf.Index(skeletonNode),
		Joints:              joints,
		InverseBindMatrices: gltf.Index(e.gc.WriteInverseBindMatrices(inverseBind)),
	})
	doc.Nodes[exported.Node].Skin = gltf.Index(uint32(len(doc.Skins) - 1))
	return nil
}

// WriteGLB exports doc as binary glTF.
func WriteGLB(doc *model.Document, w io.Writer) error {
	return writeGLTF(doc, w, true)
}

// WriteGLTF exports doc as glTF JSON with embedded buffers.
func WriteGLTF(doc *model.Document, w io.Writer) error {
	return writeGLTF(doc, w, false)
}

func writeGLTF(doc *model.Document, w io.Writer, binary bool) error {
	gdoc, err := ExportGLTF(doc)
	if err != nil {
		return err
	}
	return errors.Wrapf(gltfutils.Encode(w, gdoc, binary), "Failed to encode glTF")
}
