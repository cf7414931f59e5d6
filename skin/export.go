// Package skin converts per-vertex weight slots to per-bone clusters and back.
package skin

import (
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/skeleton"
	"github.com/mogaika/diesel_model_tool/transform"
)

// Export binds mesh to the exported skeleton with one cluster per bone.
// Bone index 0 never receives a cluster. Geometry without weights gets no skin.
func Export(doc *model.Document, sb *model.SkinBones, geom *model.Geometry, bones skeleton.BoneMap,
	target scene.SkinBuilder, mesh scene.MeshRef, name string) error {

	if len(geom.Weights) == 0 {
		return nil
	}
	if len(geom.Weights) != len(geom.WeightGroups) {
		return errors.Errorf("Geometry %q: %d weights but %d weight groups",
			geom.HashName.Name(), len(geom.Weights), len(geom.WeightGroups))
	}

	skin := target.CreateSkin(mesh, name+"Skin")

	for boneIdx := 1; boneIdx < sb.Count(); boneIdx++ {
		boneId := sb.Bones[boneIdx]
		bone, ok := bones[boneId]
		if !ok {
			return errors.Errorf("Bone %d (object %d) was not exported with the skeleton", boneIdx, boneId)
		}

		cluster := scene.NewCluster(bone.Node)
		cluster.Mode = scene.LinkNormalize

		world, err := doc.WorldTransform(boneId)
		if err != nil {
			return errors.Wrapf(err, "Bone %d", boneIdx)
		}
		link, err := transform.TranslationRotation(world)
		if err != nil {
			return errors.Wrapf(err, "Bone %d world transform", boneIdx)
		}
		cluster.TransformLink = transform.ScaleTranslation(link, transform.ExternalScale)

		for iVertex, groups := range geom.WeightGroups {
			weights := geom.Weights[iVertex]

			matched := false
			for slot := 0; slot < model.MaxWeightsPerVertex; slot++ {
				if weights[slot] != 0 && int(groups.Slot(slot)) == boneIdx {
					cluster.Add(iVertex, float64(weights[slot]))
					matched = true
					break
				}
			}
			if !matched && int(groups.Bones4) == boneIdx {
				return &UnsupportedFourthWeightError{Vertex: iVertex, Bone: boneIdx}
			}
		}

		if err := target.BindCluster(skin, cluster); err != nil {
			return errors.Wrapf(err, "Failed to bind bone %d", boneIdx)
		}
	}

	return nil
}
