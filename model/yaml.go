package model

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type documentYAML struct {
	Objects        []*Object3D      `yaml:"objects,omitempty"`
	Models         []*Model         `yaml:"models,omitempty"`
	Geometries     []*Geometry      `yaml:"geometries,omitempty"`
	Topologies     []*Topology      `yaml:"topologies,omitempty"`
	SkinBones      []*SkinBones     `yaml:"skin_bones,omitempty"`
	Materials      []*Material      `yaml:"materials,omitempty"`
	MaterialGroups []*MaterialGroup `yaml:"material_groups,omitempty"`
}

// Save writes the document as yaml, sections grouped by type and ordered by id.
func (d *Document) Save(w io.Writer) error {
	var doc documentYAML
	for _, id := range d.Ids() {
		switch s := d.sections[id].(type) {
		case *Object3D:
			doc.Objects = append(doc.Objects, s)
		case *Model:
			doc.Models = append(doc.Models, s)
		case *Geometry:
			doc.Geometries = append(doc.Geometries, s)
		case *Topology:
			doc.Topologies = append(doc.Topologies, s)
		case *SkinBones:
			doc.SkinBones = append(doc.SkinBones, s)
		case *Material:
			doc.Materials = append(doc.Materials, s)
		case *MaterialGroup:
			doc.MaterialGroups = append(doc.MaterialGroups, s)
		default:
			return errors.Errorf("Unknown section type %T (id %d)", s, id)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return errors.Wrapf(err, "Failed to encode document")
	}
	return enc.Close()
}

// Load reads a document written by Save.
func Load(r io.Reader) (*Document, error) {
	var doc documentYAML
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "Failed to decode document")
	}

	d := NewDocument()
	add := func(s Section) error {
		if s.GetId() == NoSection {
			return errors.Errorf("Section %T without id", s)
		}
		if _, exists := d.sections[s.GetId()]; exists {
			return errors.Errorf("Duplicate section id %d", s.GetId())
		}
		d.Add(s)
		return nil
	}

	for _, s := range doc.Objects {
		if err := add(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Models {
		if err := add(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Geometries {
		if err := add(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Topologies {
		if err := add(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.SkinBones {
		if err := add(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.Materials {
		if err := add(s); err != nil {
			return nil, err
		}
	}
	for _, s := range doc.MaterialGroups {
		if err := add(s); err != nil {
			return nil, err
		}
	}

	return d, nil
}
