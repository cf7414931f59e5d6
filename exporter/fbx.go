package exporter

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/utils/fbxbuilder"
)

// WriteFBX exports doc as a binary FBX 7.4 file. filename only names the document inside the file.
func WriteFBX(doc *model.Document, w io.Writer, filename string) error {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	sc, err := ExportScene(doc, name)
	if err != nil {
		return err
	}

	f := fbxbuilder.NewFBXBuilder(filename)
	if _, err := f.AddScene(sc); err != nil {
		return errors.Wrapf(err, "Failed to build fbx scene")
	}
	return errors.Wrapf(f.Write(w), "Failed to write fbx")
}
