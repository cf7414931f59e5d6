// Package importer merges interchange scenes into a model document.
package importer

import (
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/skeleton"
	"github.com/mogaika/diesel_model_tool/skin"
	"github.com/mogaika/diesel_model_tool/utils"
	"github.com/mogaika/diesel_model_tool/vertexattr"
)

// RootPointResolver returns the object new models and bones are attached to.
type RootPointResolver func(sc *scene.Scene, node scene.NodeRef) model.SectionId

func NoRootPoint(sc *scene.Scene, node scene.NodeRef) model.SectionId {
	return model.NoSection
}

// NamedRootPoint resolves every mesh to the object called name. Empty name means no root point.
func NamedRootPoint(doc *model.Document, name string) (RootPointResolver, error) {
	if name == "" {
		return NoRootPoint, nil
	}
	for _, obj := range doc.Objects() {
		if obj.Name() == name {
			id := obj.Id
			return func(*scene.Scene, scene.NodeRef) model.SectionId { return id }, nil
		}
	}
	return nil, errors.Errorf("Root point %q not found", name)
}

type importer struct {
	doc   *model.Document
	names *model.NameIndex
	sc    *scene.Scene
}

// Import adds or replaces one model per mesh node of sc.
func Import(doc *model.Document, sc *scene.Scene, resolve RootPointResolver) ([]*model.Model, error) {
	if resolve == nil {
		resolve = NoRootPoint
	}
	imp := &importer{
		doc:   doc,
		names: doc.NameIndex(),
		sc:    sc,
	}

	models := make([]*model.Model, 0)
	for _, node := range sc.MeshNodes() {
		m, err := imp.addMesh(resolve(sc, node), node)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to import mesh node %q", sc.Node(node).Name)
		}
		models = append(models, m)
	}
	return models, nil
}

func (imp *importer) addMesh(parent model.SectionId, node scene.NodeRef) (*model.Model, error) {
	mesh, err := imp.sc.NodeMesh(node)
	if err != nil {
		return nil, err
	}

	root := node
	if p := imp.sc.Node(node).Parent; p != scene.NoNode && imp.sc.Node(p).IsSkeleton() {
		root = p
	}
	rootName := imp.sc.Node(root).Name

	var m *model.Model
	if id, ok := imp.names.Lookup(rootName); ok {
		if m, err = imp.doc.Model(id); err != nil {
			return nil, errors.Wrapf(err, "Object %q exists", rootName)
		}
		utils.Log.Infof("Replacing model %q", rootName)
	} else {
		m = CreateEmptyMesh(imp.doc, imp.names, parent, rootName)
		utils.Log.Infof("Creating model %q", rootName)
	}

	geom, err := imp.doc.Geometry(m.GeometryId)
	if err != nil {
		return nil, err
	}
	topo, err := imp.doc.Topology(m.TopologyId)
	if err != nil {
		return nil, err
	}

	oldTriangles := m.TriangleCount()
	if err := vertexattr.ReadGeometry(mesh, geom); err != nil {
		return nil, err
	}
	if err := vertexattr.ReadTopology(mesh, topo); err != nil {
		return nil, err
	}

	if triangles := uint32(len(topo.Faces)); triangles != oldTriangles || len(m.RenderAtoms) != 1 {
		if len(m.RenderAtoms) > 1 {
			utils.Log.Warnf("Model %q: triangle count changed from %d to %d, merging %d render atoms into one",
				m.Name(), oldTriangles, triangles, len(m.RenderAtoms))
		}
		materialId := uint32(0)
		if len(m.RenderAtoms) != 0 {
			materialId = m.RenderAtoms[0].MaterialId
		}
		m.RenderAtoms = []model.RenderAtom{{
			TriangleCount:       triangles,
			GeometrySliceLength: uint32(geom.VertCount()),
			MaterialId:          materialId,
		}}
	} else {
		m.RenderAtoms[0].GeometrySliceLength = uint32(geom.VertCount())
	}
	utils.LogDump("Render atoms of "+rootName, m.RenderAtoms)

	res, err := skeleton.Import(imp.doc, imp.names, imp.sc, root, m, parent)
	if err != nil {
		return nil, errors.Wrapf(err, "Skeleton")
	}
	if res == nil {
		if m.SkinBonesId != model.NoSection {
			utils.Log.Infof("Model %q: mesh has no skeleton, dropping skin binding", m.Name())
			m.SkinBonesId = model.NoSection
		}
		return m, nil
	}

	// meshes hang off the root bone
	if err := imp.doc.SetParent(m.Id, res.RootBone); err != nil {
		return nil, err
	}

	res.SkinBones.Reorder(clusterOrder(imp.sc, mesh, res))
	if err := skin.Import(res.SkinBones, geom, imp.sc, mesh, res.Nodes); err != nil {
		return nil, errors.Wrapf(err, "Weights")
	}
	return m, nil
}

// clusterOrder lists the root bone followed by the bones linked by the mesh
// clusters. Exporters write one cluster per bone, so following it keeps the
// source bone indices instead of the skeleton traversal order.
func clusterOrder(sc *scene.Scene, mesh *scene.Mesh, res *skeleton.Result) []model.SectionId {
	order := []model.SectionId{res.RootBone}
	if len(mesh.Skins) == 0 {
		return order
	}
	for _, cluster := range sc.Skin(mesh.Skins[0]).Clusters {
		if id, ok := res.Nodes[cluster.Link]; ok {
			order = append(order, id)
		}
	}
	return order
}

// CreateEmptyMesh adds a model named name with empty geometry, topology, a
// placeholder material and one render atom, parented to parent.
func CreateEmptyMesh(doc *model.Document, names *model.NameIndex, parent model.SectionId, name string) *model.Model {
	geom := model.NewGeometry(name)
	geom.AddHeader(3, model.ChannelPosition)
	geom.AddHeader(2, model.ChannelTexCoord0)
	geom.AddHeader(3, model.ChannelNormal)
	geom.AddHeader(3, model.ChannelBinormal)
	geom.AddHeader(3, model.ChannelTangent)
	doc.Add(geom)

	topo := model.NewTopology(name)
	doc.Add(topo)

	mat := model.NewMaterial("")
	doc.Add(mat)
	group := &model.MaterialGroup{Items: []model.SectionId{mat.Id}}
	doc.Add(group)

	m := model.NewModel(name)
	m.GeometryId = geom.Id
	m.TopologyId = topo.Id
	m.MaterialGroupId = group.Id
	m.RenderAtoms = []model.RenderAtom{{}}
	doc.Add(m)

	if parent != model.NoSection {
		if err := doc.SetParent(m.Id, parent); err != nil {
			utils.Log.Warnf("Failed to parent new model %q: %v", name, err)
		}
	}
	if names != nil {
		names.Register(m.HashName, m.Id)
	}
	return m
}
