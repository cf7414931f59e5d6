package web

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/exporter"
	"github.com/mogaika/diesel_model_tool/importer"
	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/utils"
	"github.com/mogaika/diesel_model_tool/webutils"
)

// Formats lists the export formats accepted by /export/{format}.
var Formats = []string{"fbx", "glb", "gltf"}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to parse form"))
		return false
	}
	return true
}

func readDocument(r *http.Request, optional bool) (*model.Document, string, error) {
	data, name, err := webutils.ReadFormFile(r, "document", optional)
	if err != nil {
		return nil, "", err
	}
	if data == nil {
		return model.NewDocument(), "", nil
	}
	doc, err := model.Load(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	return doc, name, nil
}

func HandlerFormats(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, Formats)
}

// HandlerExport converts the uploaded yaml document to the requested format.
func HandlerExport(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	if !parseForm(w, r) {
		return
	}
	doc, name, err := readDocument(r, false)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var buf bytes.Buffer
	fileName := name + "." + format
	switch format {
	case "fbx":
		err = exporter.WriteFBX(doc, &buf, fileName)
	case "glb":
		err = exporter.WriteGLB(doc, &buf)
	case "gltf":
		err = exporter.WriteGLTF(doc, &buf)
	default:
		webutils.WriteErrorStatus(w, http.StatusNotFound, errors.Errorf("Unknown export format %q", format))
		return
	}
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusUnprocessableEntity, errors.Wrapf(err, "Failed to export %q", name))
		return
	}

	utils.Log.Infof("[web] Exported %q as %s (%d bytes)", name, format, buf.Len())
	webutils.WriteFile(w, &buf, fileName)
}

// HandlerImport merges the uploaded glTF into the uploaded document, or into a
// new one, and answers with the resulting yaml document.
func HandlerImport(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	data, gltfName, err := webutils.ReadFormFile(r, "gltf", false)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	doc, name, err := readDocument(r, true)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	if name == "" {
		name = gltfName
	}

	gdoc, err := importer.DecodeGLTF(bytes.NewReader(data))
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	resolve, err := importer.NamedRootPoint(doc, r.FormValue("root_point"))
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	sc, err := importer.SceneFromGLTF(gdoc, gltfName)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusUnprocessableEntity, err)
		return
	}
	models, err := importer.Import(doc, sc, resolve)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusUnprocessableEntity, errors.Wrapf(err, "Failed to import %q", gltfName))
		return
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		webutils.WriteErrorStatus(w, http.StatusInternalServerError, err)
		return
	}
	utils.Log.Infof("[web] Imported %d models from %q into %q", len(models), gltfName, name)
	webutils.WriteFile(w, &buf, name+".yaml")
}

// HandlerDump answers with a text dump of the uploaded document.
func HandlerDump(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	doc, _, err := readDocument(r, false)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(utils.SDump(doc)))
}
