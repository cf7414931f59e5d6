package model

import "github.com/pkg/errors"

type Face struct {
	A, B, C uint16
}

type Topology struct {
	Id       SectionId `yaml:"id"`
	HashName HashName  `yaml:"name"`
	Faces    []Face    `yaml:"faces,flow"`
}

func NewTopology(name string) *Topology {
	return &Topology{HashName: NewHashName(name)}
}

func (t *Topology) GetId() SectionId { return t.Id }
func (t *Topology) setId(id SectionId) { t.Id = id }

// Validate checks every face index is below vertCount.
func (t *Topology) Validate(vertCount int) error {
	for i, f := range t.Faces {
		for _, idx := range [3]uint16{f.A, f.B, f.C} {
			if int(idx) >= vertCount {
				return errors.Errorf("Topology %q face %d: index %d out of range [0, %d)",
					t.HashName.Name(), i, idx, vertCount)
			}
		}
	}
	return nil
}

// Indices flattens faces into a triangle list.
func (t *Topology) Indices() []uint16 {
	indices := make([]uint16, len(t.Faces)*3)
	for i, f := range t.Faces {
		indices[i*3+0] = f.A
		indices[i*3+1] = f.B
		indices[i*3+2] = f.C
	}
	return indices
}
