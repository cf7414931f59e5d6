package skeleton

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/utils"
)

type Result struct {
	SkinBones *model.SkinBones
	RootBone  model.SectionId
	// Nodes maps every imported bone and locator node to its object.
	Nodes map[scene.NodeRef]model.SectionId
}

type importItem struct {
	node   scene.NodeRef
	parent model.SectionId
	start  bool
}

// Import reads the skeleton below root into doc and binds it to m through a new
// SkinBones section. It returns nil when root is not a skeleton node.
// Bones are matched to existing objects by name hash, new objects are parented
// to the bone above them or to rootPoint.
func Import(doc *model.Document, names *model.NameIndex, sc *scene.Scene, root scene.NodeRef,
	m *model.Model, rootPoint model.SectionId) (*Result, error) {

	rootNode := sc.Node(root)
	if !rootNode.IsSkeleton() {
		return nil, nil
	}

	sb := model.NewSkinBones()
	res := &Result{
		SkinBones: sb,
		Nodes:     make(map[scene.NodeRef]model.SectionId),
	}
	offset := mgl32.Ident4()

	stack := []importItem{{node: root, parent: rootPoint, start: true}}
	for len(stack) != 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := sc.Node(item.node)

		parent := item.parent
		switch {
		case node.Skeleton == scene.SkeletonRoot && !item.start:
			// another rig, not ours
			continue
		case node.Skeleton == scene.SkeletonLimbNode:
			obj, err := resolveObject(doc, names, node.Name, item.parent)
			if err != nil {
				return nil, err
			}
			res.Nodes[item.node] = obj.Id
			parent = obj.Id

			if !strings.HasSuffix(node.Name, LocatorSuffix) {
				if res.RootBone == model.NoSection {
					res.RootBone = obj.Id
					sb.GlobalSkinTransform = obj.Transform
					offset = sb.GlobalSkinTransform.Inv()
				} else if item.parent == rootPoint {
					first, _ := doc.Object(res.RootBone)
					return nil, &MultipleRootBonesError{Root: rootNode.Name, First: first.Name(), Second: obj.Name()}
				}
			}

			obj.Transform = node.LocalTRS().FromExternal().Matrix()

			if !strings.HasSuffix(node.Name, LocatorSuffix) {
				if sb.Contains(obj.Id) {
					utils.Log.Warnf("Bone %q appears twice in skeleton %q", obj.Name(), rootNode.Name)
				} else {
					sb.Bones = append(sb.Bones, obj.Id)
					sb.Rotations = append(sb.Rotations, offset.Mul4(offset).Mul4(obj.Transform))
				}
			}
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, importItem{node: node.Children[i], parent: parent})
		}
	}

	if res.RootBone == model.NoSection {
		return nil, &NoBonesFoundError{Root: rootNode.Name}
	}
	sb.RootBone = res.RootBone

	for range m.RenderAtoms {
		mapping := model.BoneMapping{Bones: make([]uint32, len(sb.Bones))}
		for i := range mapping.Bones {
			mapping.Bones[i] = uint32(i)
		}
		sb.BoneMappings = append(sb.BoneMappings, mapping)
	}

	doc.Add(sb)
	m.SkinBonesId = sb.Id

	utils.Log.Debugf("Imported skeleton %q: %d bones, %d nodes", rootNode.Name, sb.Count(), len(res.Nodes))
	return res, nil
}

func resolveObject(doc *model.Document, names *model.NameIndex, nodeName string, parent model.SectionId) (*model.Object3D, error) {
	name := strings.TrimSuffix(nodeName, LocatorSuffix)

	if id, ok := names.Lookup(name); ok {
		obj, err := doc.Object(id)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to resolve bone %q", name)
		}
		return obj, nil
	}

	obj := model.NewObject3D(name)
	obj.HashName = model.ParseHashName(name)
	doc.Add(obj)
	if parent != model.NoSection {
		if err := doc.SetParent(obj.Id, parent); err != nil {
			return nil, errors.Wrapf(err, "Failed to parent bone %q", name)
		}
	}
	names.Register(obj.HashName, obj.Id)
	return obj, nil
}
