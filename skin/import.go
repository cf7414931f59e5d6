package skin

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/utils"
)

type influence struct {
	bone   int
	weight float32
}

// Import fills the weight columns of geom from the skin deformer of mesh.
// nodes maps skeleton nodes to their objects, as returned by skeleton.Import.
// Slots are filled by descending weight, ties keep cluster order.
func Import(sb *model.SkinBones, geom *model.Geometry, sc *scene.Scene, mesh *scene.Mesh,
	nodes map[scene.NodeRef]model.SectionId) error {

	switch len(mesh.Skins) {
	case 0:
		return nil
	case 1:
	default:
		return &MultipleSkinsError{Mesh: mesh.Name, Count: len(mesh.Skins)}
	}
	skin := sc.Skin(mesh.Skins[0])

	geom.AddHeader(3, model.ChannelBlendWeight)
	geom.AddHeader(7, model.ChannelBlendIndices)

	vertCount := geom.VertCount()
	influences := make([][]influence, vertCount)

	for _, cluster := range skin.Clusters {
		boneIdx := -1
		if id, ok := nodes[cluster.Link]; ok {
			boneIdx = sb.IndexOf(id)
		}
		if boneIdx < 0 {
			return &UnknownClusterLinkError{Node: sc.Node(cluster.Link).Name}
		}

		for j, iVertex := range cluster.Indices {
			if iVertex < 0 || iVertex >= vertCount {
				return &ClusterIndexRangeError{Vertex: iVertex, Count: vertCount}
			}
			for _, inf := range influences[iVertex] {
				if inf.bone == boneIdx {
					return &DuplicateClusterBindingError{Vertex: iVertex, Bone: boneIdx}
				}
			}
			influences[iVertex] = append(influences[iVertex], influence{
				bone:   boneIdx,
				weight: float32(cluster.Weights[j]),
			})
		}
	}

	weights := make([]mgl32.Vec3, vertCount)
	groups := make([]model.WeightGroups, vertCount)
	for iVertex, parts := range influences {
		if len(parts) > model.MaxWeightsPerVertex {
			return &TooManyBonesError{Vertex: iVertex, Count: len(parts)}
		}

		sort.SliceStable(parts, func(a, b int) bool {
			return parts[a].weight > parts[b].weight
		})

		for slot, part := range parts {
			if part.bone > math.MaxUint16 {
				return &BoneIndexOverflowError{Vertex: iVertex, Bone: part.bone}
			}
			weights[iVertex][slot] = part.weight
			groups[iVertex].SetSlot(slot, uint16(part.bone))
		}
	}

	geom.Weights = weights
	geom.WeightGroups = groups

	utils.Log.Debugf("Imported %d clusters into %q", len(skin.Clusters), geom.HashName.Name())
	return nil
}
