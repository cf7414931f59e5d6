package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/diesel_model_tool/config"
	"github.com/mogaika/diesel_model_tool/exporter"
	"github.com/mogaika/diesel_model_tool/importer"
	"github.com/mogaika/diesel_model_tool/model"
	"github.com/mogaika/diesel_model_tool/utils"
	"github.com/mogaika/diesel_model_tool/web"
)

// Action is one step of a conversion. Command line actions run in the order given.
type Action struct {
	Name string `yaml:"action"`
	Arg  string `yaml:"arg,omitempty"`
}

type session struct {
	cfg       *config.Config
	doc       *model.Document
	rootPoint string
	format    string
	out       io.Writer
}

func newSession(cfg *config.Config) *session {
	return &session{
		cfg:    cfg,
		format: cfg.Export.Format,
		out:    os.Stdout,
	}
}

func (s *session) document() (*model.Document, error) {
	if s.doc == nil {
		return nil, errors.Errorf("No document loaded, use -new or -load first")
	}
	return s.doc, nil
}

func (s *session) run(actions []Action, nested bool) error {
	for _, a := range actions {
		utils.Log.Debugf("Action %s %q", a.Name, a.Arg)
		if err := s.runOne(a, nested); err != nil {
			return errors.Wrapf(err, "Action -%s %s", a.Name, a.Arg)
		}
	}
	return nil
}

func (s *session) runOne(a Action, nested bool) error {
	switch a.Name {
	case "new":
		s.doc = model.NewDocument()
	case "load":
		return s.load(a.Arg)
	case "save":
		return s.save(a.Arg)
	case "import":
		return s.importGLTF(a.Arg)
	case "root_point":
		s.rootPoint = a.Arg
	case "export":
		return s.export(a.Arg)
	case "format":
		if _, err := exportFormat(a.Arg); err != nil {
			return err
		}
		s.format = a.Arg
	case "dump":
		doc, err := s.document()
		if err != nil {
			return err
		}
		utils.Dump(s.out, doc)
	case "batch":
		if nested {
			return errors.Errorf("Batch files can not include other batch files")
		}
		actions, err := readBatch(a.Arg)
		if err != nil {
			return err
		}
		return s.run(actions, true)
	case "write_config":
		s.cfg.Export.Format = s.format
		return config.Save(s.cfg, a.Arg)
	case "serve":
		addr := a.Arg
		if addr == "" {
			addr = s.cfg.Web.Addr
		}
		return web.StartServer(addr)
	default:
		return errors.Errorf("Unknown action %q", a.Name)
	}
	return nil
}

func (s *session) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to open document")
	}
	defer f.Close()

	doc, err := model.Load(f)
	if err != nil {
		return err
	}
	s.doc = doc
	utils.Log.Infof("Loaded %q: %d sections, %d models", path, doc.Len(), len(doc.Models()))
	return nil
}

func (s *session) save(path string) error {
	doc, err := s.document()
	if err != nil {
		return err
	}
	return writeFile(path, doc.Save)
}

func (s *session) importGLTF(path string) error {
	doc, err := s.document()
	if err != nil {
		return err
	}
	gdoc, err := importer.ReadGLTF(path)
	if err != nil {
		return err
	}
	resolve, err := importer.NamedRootPoint(doc, s.rootPoint)
	if err != nil {
		return err
	}
	sc, err := importer.SceneFromGLTF(gdoc, baseName(path))
	if err != nil {
		return err
	}
	models, err := importer.Import(doc, sc, resolve)
	if err != nil {
		return err
	}
	utils.Log.Infof("Imported %d models from %q", len(models), path)
	return nil
}

func (s *session) export(path string) error {
	doc, err := s.document()
	if err != nil {
		return err
	}

	format, err := exportFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		format = s.format
		path += "." + format
	}

	err = writeFile(path, func(w io.Writer) error {
		switch format {
		case "fbx":
			return exporter.WriteFBX(doc, w, filepath.Base(path))
		case "glb":
			return exporter.WriteGLB(doc, w)
		default:
			return exporter.WriteGLTF(doc, w)
		}
	})
	if err == nil {
		utils.Log.Infof("Exported %q", path)
	}
	return err
}

func exportFormat(name string) (string, error) {
	name = strings.ToLower(name)
	switch name {
	case "fbx", "glb", "gltf":
		return name, nil
	}
	return "", errors.Errorf("Unknown export format %q", name)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create %q", path)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return errors.Wrapf(f.Close(), "Failed to close %q", path)
}

func readBatch(path string) ([]Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read batch file")
	}
	var actions []Action
	if err := yaml.Unmarshal(data, &actions); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse batch file %q", path)
	}
	return actions, nil
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func actionFlag(actions *[]Action, name string) func(string) error {
	return func(arg string) error {
		*actions = append(*actions, Action{Name: name, Arg: arg})
		return nil
	}
}

func printActionUsage(w io.Writer) {
	fmt.Fprintln(w, "Actions run in command line order, for example:")
	fmt.Fprintln(w, "  diesel_model_tool -load body.model.yaml -root_point Hips -import body.glb -save body.model.yaml")
	fmt.Fprintln(w, "  diesel_model_tool -load body.model.yaml -format fbx -export body")
}
