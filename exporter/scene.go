// Package exporter converts a model document into interchange scenes and files.
package exporter

import (
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/scene"
	"github.com/mogaika/diesel_model_tool/skeleton"
	"github.com/mogaika/diesel_model_tool/skin"
	"github.com/mogaika/diesel_model_tool/transform"
	"github.com/mogaika/diesel_model_tool/utils"
	"github.com/mogaika/diesel_model_tool/vertexattr"
)

// ExportScene builds the FBX shaped scene for every model of doc.
// Bounds only models are skipped.
func ExportScene(doc *model.Document, name string) (*scene.Scene, error) {
	sc := scene.New(name)
	exclude := skeleton.ModelPlacements(doc)

	for _, m := range doc.Models() {
		if m.Version == model.BoundsOnlyVersion {
			utils.Log.Debugf("Skipping bounds only model %q", m.Name())
			continue
		}
		if err := exportModel(doc, sc, m, exclude); err != nil {
			return nil, errors.Wrapf(err, "Model %q", m.Name())
		}
	}
	return sc, nil
}

func exportModel(doc *model.Document, sc *scene.Scene, m *model.Model, exclude map[model.SectionId]struct{}) error {
	geom, err := doc.Geometry(m.GeometryId)
	if err != nil {
		return err
	}
	topo, err := doc.Topology(m.TopologyId)
	if err != nil {
		return err
	}

	name := m.Name()
	node := sc.CreateNode(name+"Object", scene.NoNode)

	world, err := doc.WorldTransform(m.Id)
	if err != nil {
		return err
	}
	trs, err := transform.DecomposeTRS(world)
	if err != nil {
		return errors.Wrapf(err, "World transform")
	}
	sc.SetLocalTransform(node, trs.ToExternal())

	mesh := sc.CreateMesh(node, name+"Mesh")
	if err := vertexattr.WriteMesh(geom, topo, sc.Mesh(mesh)); err != nil {
		return err
	}

	if !m.IsSkinned() {
		sc.Rename(node, name)
		return nil
	}

	sb, err := doc.SkinBones(m.SkinBonesId)
	if err != nil {
		return err
	}

	// root marker holds both the mesh node and the root bone
	root := sc.CreateNode(name, scene.NoNode)
	sc.CreateSkeletonMarker(root, scene.SkeletonRoot)
	if err := sc.Attach(node, root); err != nil {
		return err
	}

	bones, err := skeleton.Export(doc, sb, exclude, sc, root)
	if err != nil {
		return errors.Wrapf(err, "Skeleton")
	}
	if err := skin.Export(doc, sb, geom, bones, sc, mesh, name); err != nil {
		return errors.Wrapf(err, "Skin")
	}

	utils.Log.Debugf("Exported %q: %d vertices, %d bones", name, geom.VertCount(), len(bones))
	return nil
}
