package fbxbuilder

import (
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/utils"
)

// SceneIds holds the fbx object ids assigned while adding a scene.
type SceneIds struct {
	Models     map[scene.NodeRef]int64
	Geometries map[scene.MeshRef]int64
	Skins      map[scene.SkinRef]int64
}

// newNode builds a node for record types bfbx73 has no constructor for.
func newNode(name string, properties ...interface{}) *fbx.Node {
	return &fbx.Node{Name: name, Properties: properties}
}

// AddScene converts every node, mesh and skin of sc into fbx objects and connections.
// The scene root maps to the fbx root object 0.
func (f *FBXBuilder) AddScene(sc *scene.Scene) (*SceneIds, error) {
	ids := &SceneIds{
		Models:     make(map[scene.NodeRef]int64),
		Geometries: make(map[scene.MeshRef]int64),
		Skins:      make(map[scene.SkinRef]int64),
	}
	ids.Models[sc.Root()] = 0

	var walkErr error
	sc.Walk(sc.Root(), func(ref scene.NodeRef) bool {
		if walkErr != nil {
			return false
		}
		if ref == sc.Root() {
			return true
		}
		node := sc.Node(ref)
		parentId, ok := ids.Models[node.Parent]
		if !ok {
			walkErr = errors.Errorf("Node %q visited before its parent", node.Name)
			return false
		}
		ids.Models[ref] = f.addModel(node, parentId)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	for i, mesh := range sc.Meshes {
		modelId, ok := ids.Models[mesh.Node]
		if !ok {
			return nil, errors.Errorf("Mesh %q is attached to unreachable node %d", mesh.Name, mesh.Node)
		}
		geomId, err := f.addGeometry(mesh, modelId)
		if err != nil {
			return nil, errors.Wrapf(err, "Mesh %q", mesh.Name)
		}
		ids.Geometries[scene.MeshRef(i)] = geomId
	}

	for i, skin := range sc.Skins {
		skinId, err := f.addSkin(sc, skin, ids)
		if err != nil {
			return nil, errors.Wrapf(err, "Skin %q", skin.Name)
		}
		ids.Skins[scene.SkinRef(i)] = skinId
	}

	if len(sc.Skins) != 0 {
		f.addBindPose(sc, ids)
	}

	utils.Log.Debugf("fbx scene %q: %d models, %d geometries, %d skins",
		sc.Name, len(ids.Models)-1, len(ids.Geometries), len(ids.Skins))
	return ids, nil
}

func modelType(node *scene.Node) string {
	switch {
	case node.Mesh != scene.NoMesh:
		return "Mesh"
	case node.Skeleton == scene.SkeletonLimbNode:
		return "LimbNode"
	case node.Skeleton == scene.SkeletonRoot:
		return "Root"
	}
	return "Null"
}

func (f *FBXBuilder) addModel(node *scene.Node, parentId int64) int64 {
	id := f.GenerateId()
	kind := modelType(node)

	model := bfbx73.Model(id, node.Name+"\x00\x01Model", kind).AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("RotationOrder", "enum", "", "", int32(node.RotationOrder)),
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
				float64(node.Translation[0]), float64(node.Translation[1]), float64(node.Translation[2])),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
				float64(node.Rotation[0]), float64(node.Rotation[1]), float64(node.Rotation[2])),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A",
				float64(node.Scaling[0]), float64(node.Scaling[1]), float64(node.Scaling[2])),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	f.AddObjects(model)
	f.AddConnections(bfbx73.C("OO", id, parentId))

	if kind != "Mesh" {
		attrType := kind
		if kind == "Root" || kind == "LimbNode" {
			attrType = node.Skeleton.String()
		}
		attrId := f.GenerateId()
		attr := bfbx73.NodeAttribute(attrId, node.Name+"\x00\x01NodeAttribute", attrType)
		if node.IsSkeleton() {
			attr.AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("Size", "double", "Number", "", float64(1)),
				),
				bfbx73.TypeFlags("Skeleton"),
			)
		} else {
			attr.AddNodes(bfbx73.TypeFlags("Null"))
		}
		f.AddObjects(attr)
		f.AddConnections(bfbx73.C("OO", attrId, id))
	}
	return id
}

func (f *FBXBuilder) addGeometry(mesh *scene.Mesh, modelId int64) (int64, error) {
	vertices := make([]float64, 0, len(mesh.ControlPoints)*3)
	for _, p := range mesh.ControlPoints {
		vertices = append(vertices, float64(p[0]), float64(p[1]), float64(p[2]))
	}

	indexes := make([]int32, 0, len(mesh.Polygons)*3)
	for i, poly := range mesh.Polygons {
		if len(poly) < 3 {
			return 0, errors.Errorf("Polygon %d has %d vertices", i, len(poly))
		}
		for j, idx := range poly {
			if idx < 0 || idx >= len(mesh.ControlPoints) {
				return 0, errors.Errorf("Polygon %d: control point %d out of range", i, idx)
			}
			if j == len(poly)-1 {
				indexes = append(indexes, int32(-idx-1))
			} else {
				indexes = append(indexes, int32(idx))
			}
		}
	}

	id := f.GenerateId()
	layer := bfbx73.Layer(0).AddNodes(bfbx73.Version(100))
	geometry := bfbx73.Geometry(id, mesh.Name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
	)

	if n := mesh.Normals; n != nil {
		data := make([]float64, 0, len(n.Direct)*3)
		for _, v := range n.Direct {
			data = append(data, float64(v[0]), float64(v[1]), float64(v[2]))
		}
		element := bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(n.Name),
			bfbx73.MappingInformationType(n.Mapping.String()),
			bfbx73.ReferenceInformationType(n.Reference.String()),
			bfbx73.Normals(data),
		)
		if n.Reference == scene.IndexToDirect {
			element.AddNodes(newNode("NormalsIndex", intsTo32(n.Index)))
		}
		geometry.AddNode(element)
		layer.AddNodes(layerElement("LayerElementNormal", 0))
	}

	if t := mesh.Tangents; t != nil {
		data := make([]float64, 0, len(t.Direct)*3)
		w := make([]float64, 0, len(t.Direct))
		for _, v := range t.Direct {
			data = append(data, float64(v[0]), float64(v[1]), float64(v[2]))
			w = append(w, float64(v[3]))
		}
		geometry.AddNode(newNode("LayerElementTangent", int32(0)).AddNodes(
			bfbx73.Version(102),
			bfbx73.Name(t.Name),
			bfbx73.MappingInformationType(t.Mapping.String()),
			bfbx73.ReferenceInformationType(t.Reference.String()),
			newNode("Tangents", data),
			newNode("TangentsW", w),
		))
		layer.AddNodes(layerElement("LayerElementTangent", 0))
	}

	for i, c := range mesh.Colors {
		data := make([]float64, 0, len(c.Direct)*4)
		for _, v := range c.Direct {
			data = append(data, float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3]))
		}
		element := bfbx73.LayerElementColor(int32(i)).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(c.Name),
			bfbx73.MappingInformationType(c.Mapping.String()),
			bfbx73.ReferenceInformationType(c.Reference.String()),
			bfbx73.Colors(data),
		)
		if c.Reference == scene.IndexToDirect {
			element.AddNodes(newNode("ColorIndex", intsTo32(c.Index)))
		}
		geometry.AddNode(element)
		layer.AddNodes(layerElement("LayerElementColor", int32(i)))
	}

	for i, uv := range mesh.UVs {
		data := make([]float64, 0, len(uv.Direct)*2)
		for _, v := range uv.Direct {
			data = append(data, float64(v[0]), float64(v[1]))
		}
		element := bfbx73.LayerElementUV(int32(i)).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(uv.Name),
			bfbx73.MappingInformationType(uv.Mapping.String()),
			bfbx73.ReferenceInformationType(uv.Reference.String()),
			bfbx73.UV(data),
		)
		if uv.Reference == scene.IndexToDirect {
			element.AddNodes(bfbx73.UVIndex(intsTo32(uv.Index)))
		}
		geometry.AddNode(element)
		layer.AddNodes(layerElement("LayerElementUV", int32(i)))
	}

	geometry.AddNode(layer)
	f.AddObjects(geometry)
	f.AddConnections(bfbx73.C("OO", id, modelId))
	return id, nil
}

func layerElement(kind string, index int32) *fbx.Node {
	return bfbx73.LayerElement().AddNodes(
		bfbx73.Type(kind),
		bfbx73.TypedIndex(index),
	)
}

func (f *FBXBuilder) addSkin(sc *scene.Scene, skin *scene.Skin, ids *SceneIds) (int64, error) {
	geomId, ok := ids.Geometries[skin.Mesh]
	if !ok {
		return 0, errors.Errorf("Mesh %d was not exported", skin.Mesh)
	}

	skinId := f.GenerateId()
	f.AddObjects(newNode("Deformer", skinId, skin.Name+"\x00\x01Deformer", "Skin").AddNodes(
		bfbx73.Version(101),
		newNode("Link_DeformAcuracy", float64(50)),
	))
	f.AddConnections(bfbx73.C("OO", skinId, geomId))

	for _, c := range skin.Clusters {
		linkId, ok := ids.Models[c.Link]
		if !ok {
			return 0, errors.Errorf("Cluster link %d was not exported", c.Link)
		}
		clusterId := f.GenerateId()
		name := sc.Node(c.Link).Name
		f.AddObjects(newNode("Deformer", clusterId, name+"\x00\x01SubDeformer", "Cluster").AddNodes(
			bfbx73.Version(100),
			newNode("UserData", "", ""),
			newNode("Mode", c.Mode.String()),
			newNode("Indexes", intsTo32(c.Indices)),
			newNode("Weights", append([]float64(nil), c.Weights...)),
			newNode("Transform", utils.Mat4ToFloat64(c.Transform)),
			newNode("TransformLink", utils.Mat4ToFloat64(c.TransformLink)),
		))
		f.AddConnections(
			bfbx73.C("OO", clusterId, skinId),
			bfbx73.C("OO", linkId, clusterId),
		)
	}
	return skinId, nil
}

// addBindPose records the world matrix of every mesh and cluster link node.
func (f *FBXBuilder) addBindPose(sc *scene.Scene, ids *SceneIds) {
	nodes := make([]scene.NodeRef, 0)
	seen := make(map[scene.NodeRef]bool)
	add := func(ref scene.NodeRef) {
		if !seen[ref] {
			seen[ref] = true
			nodes = append(nodes, ref)
		}
	}
	for _, skin := range sc.Skins {
		add(sc.Mesh(skin.Mesh).Node)
		for _, c := range skin.Clusters {
			add(c.Link)
		}
	}

	pose := newNode("Pose", f.GenerateId(), "BindPose\x00\x01Pose", "BindPose").AddNodes(
		bfbx73.Type("BindPose"),
		bfbx73.Version(100),
		newNode("NbPoseNodes", int32(len(nodes))),
	)
	for _, ref := range nodes {
		pose.AddNodes(newNode("PoseNode").AddNodes(
			newNode("Node", ids.Models[ref]),
			newNode("Matrix", utils.Mat4ToFloat64(sc.WorldTransform(ref))),
		))
	}
	f.AddObjects(pose)
}

func intsTo32(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}
