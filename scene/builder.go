package scene

import "github.com/mogaika/diesel_model_tool/transform"

// HierarchyBuilder creates transform nodes and tags them as skeleton parts.
type HierarchyBuilder interface {
	CreateNode(name string, parent NodeRef) NodeRef
	SetLocalTransform(node NodeRef, t transform.TRS)
	CreateSkeletonMarker(node NodeRef, kind SkeletonType)
}

type MeshBuilder interface {
	CreateMesh(node NodeRef, name string) MeshRef
	Mesh(ref MeshRef) *Mesh
}

type SkinBuilder interface {
	CreateSkin(mesh MeshRef, name string) SkinRef
	BindCluster(skin SkinRef, c *Cluster) error
}

var (
	_ HierarchyBuilder = (*Scene)(nil)
	_ MeshBuilder      = (*Scene)(nil)
	_ SkinBuilder      = (*Scene)(nil)
)
