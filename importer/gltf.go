package importer

import (
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/transform"
	"github.com/mogaika/diesel_model_tool/utils"
	"github.com/mogaika/diesel_model_tool/vertexattr"
)

// ReadGLTF opens a .gltf or .glb file. External buffers are resolved next to path.
func ReadGLTF(path string) (*gltf.Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open glTF %q", path)
	}
	return doc, nil
}

// DecodeGLTF reads a glb or a self contained glTF json stream.
func DecodeGLTF(r io.Reader) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode glTF")
	}
	return doc, nil
}

type gltfSceneBuilder struct {
	doc *gltf.Document
	sc  *scene.Scene

	parents map[uint32]int
	// joint node -> skin index
	joints  map[uint32]int
	markers map[int]scene.NodeRef
	nodes   map[uint32]scene.NodeRef
}

// SceneFromGLTF converts the default scene of doc. Every skin gets a root
// marker at the scene root named after the first mesh node using it; its
// joints become limb nodes and the skinned mesh nodes are moved under it.
func SceneFromGLTF(doc *gltf.Document, name string) (*scene.Scene, error) {
	b := &gltfSceneBuilder{
		doc:     doc,
		sc:      scene.New(name),
		parents: make(map[uint32]int),
		joints:  make(map[uint32]int),
		markers: make(map[int]scene.NodeRef),
		nodes:   make(map[uint32]scene.NodeRef),
	}

	for i, n := range doc.Nodes {
		for _, child := range n.Children {
			if int(child) >= len(doc.Nodes) {
				return nil, errors.Errorf("Node %q: child %d out of range", n.Name, child)
			}
			b.parents[child] = i
		}
	}
	for iSkin, skin := range doc.Skins {
		for _, joint := range skin.Joints {
			if int(joint) >= len(doc.Nodes) {
				return nil, errors.Errorf("Skin %q: joint %d out of range", skin.Name, joint)
			}
			if other, ok := b.joints[joint]; ok && other != iSkin {
				utils.Log.Warnf("Node %q is a joint of skins %d and %d, using the first", doc.Nodes[joint].Name, other, iSkin)
				continue
			}
			b.joints[joint] = iSkin
		}
	}
	for i, n := range doc.Nodes {
		if n.Skin == nil || n.Mesh == nil {
			continue
		}
		if _, ok := b.markers[int(*n.Skin)]; ok {
			utils.Log.Warnf("Skin %d is shared by several meshes, %q is grouped with the first", *n.Skin, n.Name)
			continue
		}
		if int(*n.Skin) >= len(doc.Skins) {
			return nil, errors.Errorf("Node %q: skin %d out of range", n.Name, *n.Skin)
		}
		marker := b.sc.CreateNode(n.Name, scene.NoNode)
		b.sc.CreateSkeletonMarker(marker, scene.SkeletonRoot)
		b.markers[int(*n.Skin)] = marker
		utils.Log.Debugf("glTF skin %d root marker %q (node %d)", *n.Skin, n.Name, i)
	}

	roots := b.roots()
	stack := make([]uint32, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	visited := make(map[uint32]bool)
	for len(stack) != 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[idx] {
			return nil, errors.Errorf("Node %q is reachable twice", doc.Nodes[idx].Name)
		}
		visited[idx] = true

		if err := b.addNode(idx); err != nil {
			return nil, err
		}
		children := doc.Nodes[idx].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	for i, n := range doc.Nodes {
		ref, ok := b.nodes[uint32(i)]
		if !ok || n.Mesh == nil {
			continue
		}
		if err := b.addMesh(uint32(i), ref); err != nil {
			return nil, errors.Wrapf(err, "Mesh of node %q", n.Name)
		}
	}
	return b.sc, nil
}

func (b *gltfSceneBuilder) roots() []uint32 {
	if len(b.doc.Scenes) != 0 {
		sceneIdx := uint32(0)
		if b.doc.Scene != nil {
			sceneIdx = *b.doc.Scene
		}
		if int(sceneIdx) < len(b.doc.Scenes) {
			return b.doc.Scenes[sceneIdx].Nodes
		}
	}
	roots := make([]uint32, 0)
	for i := range b.doc.Nodes {
		if _, ok := b.parents[uint32(i)]; !ok {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	m := mgl32.Mat4(n.Matrix)
	if m != (mgl32.Mat4{}) && m != mgl32.Ident4() {
		return m
	}
	scale := mgl32.Vec3(n.Scale)
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	rotation := mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
	if rotation.Len() == 0 {
		rotation = mgl32.QuatIdent()
	}
	return transform.Recompose(scale, rotation, n.Translation)
}

func (b *gltfSceneBuilder) worldMatrix(idx uint32) mgl32.Mat4 {
	world := mgl32.Ident4()
	for cur := int(idx); cur >= 0; {
		world = nodeMatrix(b.doc.Nodes[cur]).Mul4(world)
		p, ok := b.parents[uint32(cur)]
		if !ok {
			break
		}
		cur = p
	}
	return world
}

func (b *gltfSceneBuilder) addNode(idx uint32) error {
	n := b.doc.Nodes[idx]
	parent := scene.NoNode
	if p, ok := b.parents[idx]; ok {
		parent = b.nodes[uint32(p)]
	}
	local := nodeMatrix(n)

	name := n.Name
	iSkin, isJoint := b.joints[idx]
	switch {
	case isJoint:
		p, hasParent := b.parents[idx]
		if parentSkin, ok := b.joints[uint32(p)]; !hasParent || !ok || parentSkin != iSkin {
			if marker, ok := b.markers[iSkin]; ok {
				parent = marker
				local = b.worldMatrix(idx)
			}
		}
	case n.Skin != nil && n.Mesh != nil:
		if marker, ok := b.markers[int(*n.Skin)]; ok && b.sc.Node(marker).Name == n.Name {
			parent = marker
			name += "Object"
			local = mgl32.Ident4()
		}
	}

	trs, err := transform.DecomposeTRS(local)
	if err != nil {
		return errors.Wrapf(err, "Node %q", n.Name)
	}
	ref := b.sc.CreateNode(name, parent)
	b.sc.SetLocalTransform(ref, trs)
	if isJoint {
		b.sc.CreateSkeletonMarker(ref, scene.SkeletonLimbNode)
	}
	b.nodes[idx] = ref
	return nil
}

type primitiveData struct {
	positions [][3]float32
	normals   [][3]float32
	tangents  [][4]float32
	colors    [][4]uint16
	uvs       map[int][][2]float32
	joints    [][4]uint16
	weights   [][4]float32
}

func (b *gltfSceneBuilder) readPrimitive(p *gltf.Primitive) (*primitiveData, error) {
	doc := b.doc
	accessor := func(name string) (*gltf.Accessor, bool) {
		idx, ok := p.Attributes[name]
		if !ok || int(idx) >= len(doc.Accessors) {
			return nil, false
		}
		return doc.Accessors[idx], true
	}

	pd := &primitiveData{uvs: make(map[int][][2]float32)}
	var err error

	acc, ok := accessor(gltf.POSITION)
	if !ok {
		return nil, errors.Errorf("Primitive has no POSITION")
	}
	if pd.positions, err = modeler.ReadPosition(doc, acc, nil); err != nil {
		return nil, errors.Wrapf(err, "POSITION")
	}
	count := len(pd.positions)

	if acc, ok := accessor(gltf.NORMAL); ok {
		if pd.normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
			return nil, errors.Wrapf(err, "NORMAL")
		}
	}
	if acc, ok := accessor(gltf.TANGENT); ok {
		if pd.tangents, err = modeler.ReadTangent(doc, acc, nil); err != nil {
			return nil, errors.Wrapf(err, "TANGENT")
		}
	}
	if acc, ok := accessor(vertexattr.AttrColor); ok {
		if pd.colors, err = modeler.ReadColor64(doc, acc, nil); err != nil {
			return nil, errors.Wrapf(err, "COLOR_0")
		}
	}
	for set := 0; set < 8; set++ {
		acc, ok := accessor(vertexattr.AttrTexCoord(set))
		if !ok {
			continue
		}
		uv, err := modeler.ReadTextureCoord(doc, acc, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "TEXCOORD_%d", set)
		}
		pd.uvs[set] = uv
	}
	if acc, ok := accessor(gltf.JOINTS_0); ok {
		if pd.joints, err = modeler.ReadJoints(doc, acc, nil); err != nil {
			return nil, errors.Wrapf(err, "JOINTS_0")
		}
		wacc, ok := accessor(gltf.WEIGHTS_0)
		if !ok {
			return nil, errors.Errorf("JOINTS_0 without WEIGHTS_0")
		}
		if pd.weights, err = modeler.ReadWeights(doc, wacc, nil); err != nil {
			return nil, errors.Wrapf(err, "WEIGHTS_0")
		}
	}

	for name, length := range map[string]int{
		gltf.NORMAL:          len(pd.normals),
		gltf.TANGENT:         len(pd.tangents),
		vertexattr.AttrColor: len(pd.colors),
		gltf.JOINTS_0:        len(pd.joints),
		gltf.WEIGHTS_0:       len(pd.weights),
	} {
		if length != 0 && length != count {
			return nil, &vertexattr.LayerLengthError{Layer: name, Got: length, Want: count}
		}
	}
	return pd, nil
}

// addMesh merges every primitive of the node mesh into one scene mesh.
// Primitives sharing a POSITION accessor share control points.
func (b *gltfSceneBuilder) addMesh(idx uint32, ref scene.NodeRef) error {
	n := b.doc.Nodes[idx]
	if int(*n.Mesh) >= len(b.doc.Meshes) {
		return errors.Errorf("Mesh %d out of range", *n.Mesh)
	}
	gmesh := b.doc.Meshes[*n.Mesh]

	meshRef := b.sc.CreateMesh(ref, gmesh.Name)
	mesh := b.sc.Mesh(meshRef)

	normals := &scene.Vec3Layer{Mapping: scene.ByControlPoint, Reference: scene.Direct}
	tangents := &scene.Vec4Layer{Mapping: scene.ByControlPoint, Reference: scene.Direct}
	colors := &scene.Vec4Layer{Mapping: scene.ByControlPoint, Reference: scene.Direct}
	uvs := make(map[int]*scene.Vec2Layer)
	var joints [][4]uint16
	var weights [][4]float32
	hasNormals, hasTangents, hasColors := true, true, true
	unweighted := -1

	bases := make(map[uint32]int)
	for iPrim, p := range gmesh.Primitives {
		posAccessor := p.Attributes[gltf.POSITION]
		base, loaded := bases[posAccessor]
		if !loaded {
			pd, err := b.readPrimitive(p)
			if err != nil {
				return errors.Wrapf(err, "Primitive %d", iPrim)
			}
			base = len(mesh.ControlPoints)
			bases[posAccessor] = base
			count := len(pd.positions)

			for _, v := range pd.positions {
				mesh.ControlPoints = append(mesh.ControlPoints, v)
			}
			hasNormals = hasNormals && len(pd.normals) != 0
			for _, v := range pd.normals {
				normals.Direct = append(normals.Direct, v)
			}
			hasTangents = hasTangents && len(pd.tangents) != 0
			for _, v := range pd.tangents {
				tangents.Direct = append(tangents.Direct, v)
			}
			hasColors = hasColors && len(pd.colors) != 0
			for _, c := range pd.colors {
				colors.Direct = append(colors.Direct, mgl32.Vec4{
					float32(c[0]) / 65535, float32(c[1]) / 65535, float32(c[2]) / 65535, float32(c[3]) / 65535})
			}
			for set, data := range pd.uvs {
				layer, ok := uvs[set]
				if !ok {
					layer = &scene.Vec2Layer{Name: vertexattr.UVLayerName(set), Mapping: scene.ByControlPoint, Reference: scene.Direct}
					layer.Direct = make([]mgl32.Vec2, base)
					uvs[set] = layer
				}
				for _, v := range data {
					layer.Direct = append(layer.Direct, v)
				}
			}
			for _, layer := range uvs {
				for len(layer.Direct) < base+count {
					layer.Direct = append(layer.Direct, mgl32.Vec2{})
				}
			}
			if len(pd.joints) != 0 {
				for len(joints) < base {
					joints = append(joints, [4]uint16{})
					weights = append(weights, [4]float32{})
				}
				joints = append(joints, pd.joints...)
				weights = append(weights, pd.weights...)
			} else if unweighted < 0 {
				unweighted = iPrim
			}
		}

		var indices []uint32
		if p.Indices != nil {
			var err error
			if indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*p.Indices], nil); err != nil {
				return errors.Wrapf(err, "Primitive %d indices", iPrim)
			}
		} else {
			count := len(mesh.ControlPoints) - base
			if next := b.nextBase(bases, base); next >= 0 {
				count = next - base
			}
			for i := 0; i < count; i++ {
				indices = append(indices, uint32(i))
			}
		}
		if len(indices)%3 != 0 {
			return errors.Errorf("Primitive %d: %d indices do not form triangles", iPrim, len(indices))
		}
		for i := 0; i < len(indices); i += 3 {
			mesh.AddPolygon(base+int(indices[i]), base+int(indices[i+1]), base+int(indices[i+2]))
		}
	}

	if hasNormals && len(normals.Direct) != 0 {
		mesh.Normals = normals
	}
	if hasTangents && len(tangents.Direct) != 0 {
		mesh.Tangents = tangents
	}
	if hasColors && len(colors.Direct) != 0 {
		mesh.Colors = append(mesh.Colors, colors)
	}
	for set := 0; set < 8; set++ {
		if layer, ok := uvs[set]; ok {
			mesh.UVs = append(mesh.UVs, layer)
		}
	}

	if n.Skin == nil {
		return nil
	}
	if len(joints) == 0 {
		utils.Log.Warnf("Mesh %q is skinned but has no JOINTS_0, importing it unweighted", gmesh.Name)
		return nil
	}
	if unweighted >= 0 {
		return errors.Errorf("Mesh %q: primitive %d has no JOINTS_0 while other primitives are weighted", gmesh.Name, unweighted)
	}
	return b.addSkin(int(*n.Skin), meshRef, joints, weights)
}

func (b *gltfSceneBuilder) nextBase(bases map[uint32]int, base int) int {
	next := -1
	for _, other := range bases {
		if other > base && (next < 0 || other < next) {
			next = other
		}
	}
	return next
}

func (b *gltfSceneBuilder) addSkin(iSkin int, meshRef scene.MeshRef, joints [][4]uint16, weights [][4]float32) error {
	skin := b.doc.Skins[iSkin]
	clusters := make([]*scene.Cluster, len(skin.Joints))
	for i, joint := range skin.Joints {
		link, ok := b.nodes[joint]
		if !ok {
			return errors.Errorf("Skin %q: joint node %q is not in the scene", skin.Name, b.doc.Nodes[joint].Name)
		}
		clusters[i] = scene.NewCluster(link)
		clusters[i].TransformLink = b.sc.WorldTransform(link)
	}

	for iVertex := range joints {
		for slot := 0; slot < 4; slot++ {
			w := weights[iVertex][slot]
			if w == 0 {
				continue
			}
			joint := int(joints[iVertex][slot])
			if joint >= len(clusters) {
				return errors.Errorf("Vertex %d: joint %d out of range %d", iVertex, joint, len(clusters))
			}
			clusters[joint].Add(iVertex, float64(w))
		}
	}

	skinRef := b.sc.CreateSkin(meshRef, skin.Name)
	for _, c := range clusters {
		if err := b.sc.BindCluster(skinRef, c); err != nil {
			return err
		}
	}
	return nil
}
