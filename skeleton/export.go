// Package skeleton converts SkinBones hierarchies to interchange skeleton nodes and back.
package skeleton

import (
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/transform"
)

// LocatorSuffix marks nodes that are part of the hierarchy but not bound to vertices.
const LocatorSuffix = "_Locator"

type Bone struct {
	Node    scene.NodeRef
	Locator bool
}

// BoneMap maps engine objects to the nodes created for them.
type BoneMap map[model.SectionId]Bone

// ModelPlacements returns the ids of every model placement object. They are
// mesh nodes, never bones.
func ModelPlacements(doc *model.Document) map[model.SectionId]struct{} {
	placements := make(map[model.SectionId]struct{})
	for _, m := range doc.Models() {
		placements[m.Id] = struct{}{}
	}
	return placements
}

type exportItem struct {
	object model.SectionId
	parent scene.NodeRef
}

// Export creates limb nodes for the hierarchy below sb.RootBone under parent.
// Objects in exclude and their subtrees are skipped.
func Export(doc *model.Document, sb *model.SkinBones, exclude map[model.SectionId]struct{},
	target scene.HierarchyBuilder, parent scene.NodeRef) (BoneMap, error) {

	bones := make(BoneMap)
	stack := []exportItem{{object: sb.RootBone, parent: parent}}

	for len(stack) != 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, visited := bones[item.object]; visited {
			return nil, &model.CycleError{Object: item.object, Parent: item.object}
		}

		obj, err := doc.Object(item.object)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to get bone")
		}

		trs, err := transform.DecomposeTRS(obj.Transform)
		if err != nil {
			return nil, errors.Wrapf(err, "Bone %q", obj.Name())
		}

		locator := !sb.Contains(obj.Id)
		name := obj.Name()
		if locator {
			name += LocatorSuffix
		}

		node := target.CreateNode(name, item.parent)
		target.SetLocalTransform(node, trs.ToExternal())
		target.CreateSkeletonMarker(node, scene.SkeletonLimbNode)

		bones[obj.Id] = Bone{Node: node, Locator: locator}

		for i := len(obj.Children) - 1; i >= 0; i-- {
			child := obj.Children[i]
			if _, excluded := exclude[child]; excluded {
				continue
			}
			stack = append(stack, exportItem{object: child, parent: node})
		}
	}

	return bones, nil
}
