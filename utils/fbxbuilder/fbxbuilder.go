// Package fbxbuilder assembles an FBX 7.4 binary node tree from a scene.
package fbxbuilder

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/utils"
)

const (
	fbxVersion      = 7400
	fbxCreator      = "FBX SDK/FBX Plugins version 2013.3 build=20121223"
	fbxApplication  = "diesel_model_tool"
	fbxCreationTime = "1970-01-01 10:00:00:000"
)

var fbxFileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

type FBXBuilder struct {
	f      *fbx.FBX
	lastId int64

	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string) *FBXBuilder {
	f := &FBXBuilder{
		lastId:      1000000,
		f:           fbx.NewFBX(fbxVersion),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	f.Root().AddNodes(
		headerExtension(filename),
		bfbx73.FileId(fbxFileId),
		bfbx73.CreationTime(fbxCreationTime),
		bfbx73.Creator(fbxCreator),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		definitionTemplates(),
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return f
}

// Timestamps are fixed so identical scenes produce identical files.
func headerExtension(filename string) *fbx.Node {
	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(fbxVersion),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(1970), bfbx73.Month(1), bfbx73.Day(1),
			bfbx73.Hour(10), bfbx73.Minute(0), bfbx73.Second(0), bfbx73.Millisecond(0),
		),
		bfbx73.Creator(fbxCreator),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
				bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
				bfbx73.P("Original", "Compound", "", ""),
				bfbx73.P("Original|ApplicationName", "KString", "", "", fbxApplication),
				bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)),
			),
		),
	)
}

// Y up, right handed, centimetres.
func globalSettings() *fbx.Node {
	axis := func(name string, value int32) *fbx.Node {
		return bfbx73.P(name, "int", "Integer", "", value)
	}
	return bfbx73.GlobalSettings().AddNodes(
		bfbx73.Version(1000),
		bfbx73.Properties70().AddNodes(
			axis("UpAxis", 1), axis("UpAxisSign", 1),
			axis("FrontAxis", 2), axis("FrontAxisSign", 1),
			axis("CoordAxis", 0), axis("CoordAxisSign", 1),
			bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
		),
	)
}

// definitionTemplates carries property templates for the object types the scene
// writer emits. Counts are filled in by countDefinitions.
func definitionTemplates() *fbx.Node {
	template := func(objectType, class string, props ...*fbx.Node) *fbx.Node {
		return bfbx73.ObjectType(objectType).AddNodes(
			bfbx73.Count(0),
			bfbx73.PropertyTemplate(class).AddNodes(bfbx73.Properties70().AddNodes(props...)),
		)
	}
	return bfbx73.Definitions().AddNodes(
		bfbx73.Version(100),
		bfbx73.Count(1),
		bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)),
		template("Model", "FbxNode",
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
		),
		template("Geometry", "FbxMesh",
			bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
			bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
		),
		template("NodeAttribute", "FbxSkeleton",
			bfbx73.P("Size", "double", "Number", "", float64(100)),
		),
	)
}

func (f *FBXBuilder) countDefinitions() {
	counts := make(map[string]int32)
	for _, object := range f.objects.Nodes {
		if count, ex := counts[object.Name]; ex {
			counts[object.Name] = count + 1
		} else {
			counts[object.Name] = 1
		}
	}

	definitions := f.Root().GetNode("Definitions")
	totalCount := int32(1) // 1 for GlobalSettings

	for name, count := range counts {
		totalCount += count

		var objectType *fbx.Node
		for _, ot := range definitions.GetNodes("ObjectType") {
			if ot.Properties[0].(string) == name {
				objectType = ot
			}
		}
		if objectType == nil {
			objectType = bfbx73.ObjectType(name)
			definitions.AddNode(objectType)
		}

		objectType.GetOrAddNode(bfbx73.Count(0)).Properties[0] = count
		utils.Log.Debugf("fbx definitions: %v x%v", name, count)
	}

	definitions.GetOrAddNode(bfbx73.Count(0)).Properties[0] = totalCount
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

// Write serializes through a temp file because fbx.Write needs a seekable *os.File.
func (f *FBXBuilder) Write(w io.Writer) error {
	f.countDefinitions()

	tempFile, err := os.CreateTemp("", "fbxexport.*.fbx")
	if err != nil {
		return errors.Wrapf(err, "Unable to create temp file")
	}
	defer tempFile.Close()
	defer os.Remove(tempFile.Name())

	if err := fbx.Write(tempFile, f.f); err != nil {
		return errors.Wrapf(err, "Unable to write fbx")
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }
