package webutils

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/diesel_model_tool/utils"
)

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		utils.Log.Warnf("Error when writing file %q: %v", name, err)
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

// ReadFormFile returns the content of multipart file formFileKey and its base name
// without extension. Missing optional files return nil data and no error.
func ReadFormFile(r *http.Request, formFileKey string, optional bool) ([]byte, string, error) {
	if strings.ToUpper(r.Method) != "POST" {
		return nil, "", errors.Errorf("Invalid http method %q", r.Method)
	}

	f, header, err := r.FormFile(formFileKey)
	if err != nil {
		if optional && errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil
		}
		return nil, "", errors.Wrapf(err, "Failed to get file %q", formFileKey)
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, "", errors.Wrapf(err, "Failed to read %q", formFileKey)
	}
	return data, BaseName(header), nil
}

func BaseName(header *multipart.FileHeader) string {
	name := filepath.Base(header.Filename)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func WriteResult(w http.ResponseWriter, data []byte) {
	_, err := w.Write(data)
	if err != nil {
		utils.Log.Warnf("Error when writing response: %v", err)
	}
}

// WriteError answers with status and a json {"error": ...} body.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorStatus(w, http.StatusBadRequest, err)
}

func WriteErrorStatus(w http.ResponseWriter, status int, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr != nil {
		utils.Log.Errorf("Error marshaling error '%v': %v", err, merr)
		http.Error(w, err.Error(), status)
		return
	}
	utils.Log.Warnf("HERR: %v", string(data))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	WriteResult(w, data)
}

