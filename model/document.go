package model

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Document is the section arena of one asset. Sections reference each other by id only.
type Document struct {
	sections map[SectionId]Section
	lastId   SectionId
}

func NewDocument() *Document {
	return &Document{
		sections: make(map[SectionId]Section),
		lastId:   1000,
	}
}

func (d *Document) GenerateId() SectionId {
	for {
		d.lastId++
		if _, exists := d.sections[d.lastId]; !exists {
			return d.lastId
		}
	}
}

// Add stores s, assigning a fresh id when it has none. Returns the id.
func (d *Document) Add(s Section) SectionId {
	if s.GetId() == NoSection {
		s.setId(d.GenerateId())
	} else if s.GetId() > d.lastId {
		d.lastId = s.GetId()
	}
	d.sections[s.GetId()] = s
	return s.GetId()
}

func (d *Document) Get(id SectionId) (Section, bool) {
	s, ok := d.sections[id]
	return s, ok
}

func (d *Document) Len() int { return len(d.sections) }

// Ids returns every section id in ascending order.
func (d *Document) Ids() []SectionId {
	ids := make([]SectionId, 0, len(d.sections))
	for id := range d.sections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Object returns the Object3D with id, including the placement of a Model.
func (d *Document) Object(id SectionId) (*Object3D, error) {
	switch s := d.sections[id].(type) {
	case *Object3D:
		return s, nil
	case *Model:
		return &s.Object3D, nil
	default:
		return nil, &MissingSectionError{Id: id, Want: "Object3D", Got: s}
	}
}

func (d *Document) Model(id SectionId) (*Model, error) {
	if m, ok := d.sections[id].(*Model); ok {
		return m, nil
	}
	return nil, &MissingSectionError{Id: id, Want: "Model", Got: d.sections[id]}
}

func (d *Document) Geometry(id SectionId) (*Geometry, error) {
	if g, ok := d.sections[id].(*Geometry); ok {
		return g, nil
	}
	return nil, &MissingSectionError{Id: id, Want: "Geometry", Got: d.sections[id]}
}

func (d *Document) Topology(id SectionId) (*Topology, error) {
	if t, ok := d.sections[id].(*Topology); ok {
		return t, nil
	}
	return nil, &MissingSectionError{Id: id, Want: "Topology", Got: d.sections[id]}
}

func (d *Document) SkinBones(id SectionId) (*SkinBones, error) {
	if sb, ok := d.sections[id].(*SkinBones); ok {
		return sb, nil
	}
	return nil, &MissingSectionError{Id: id, Want: "SkinBones", Got: d.sections[id]}
}

func (d *Document) Material(id SectionId) (*Material, error) {
	if m, ok := d.sections[id].(*Material); ok {
		return m, nil
	}
	return nil, &MissingSectionError{Id: id, Want: "Material", Got: d.sections[id]}
}

func (d *Document) MaterialGroup(id SectionId) (*MaterialGroup, error) {
	if g, ok := d.sections[id].(*MaterialGroup); ok {
		return g, nil
	}
	return nil, &MissingSectionError{Id: id, Want: "MaterialGroup", Got: d.sections[id]}
}

// Models returns all models ordered by id.
func (d *Document) Models() []*Model {
	models := make([]*Model, 0)
	for _, id := range d.Ids() {
		if m, ok := d.sections[id].(*Model); ok {
			models = append(models, m)
		}
	}
	return models
}

// Objects returns every Object3D, model placements included, ordered by id.
func (d *Document) Objects() []*Object3D {
	objects := make([]*Object3D, 0)
	for _, id := range d.Ids() {
		switch s := d.sections[id].(type) {
		case *Object3D:
			objects = append(objects, s)
		case *Model:
			objects = append(objects, &s.Object3D)
		}
	}
	return objects
}

func (d *Document) Materials() []*Material {
	materials := make([]*Material, 0)
	for _, id := range d.Ids() {
		if m, ok := d.sections[id].(*Material); ok {
			materials = append(materials, m)
		}
	}
	return materials
}

// SetParent moves child under parent (NoSection detaches it).
func (d *Document) SetParent(child, parent SectionId) error {
	obj, err := d.Object(child)
	if err != nil {
		return err
	}

	if parent != NoSection {
		for cur := parent; cur != NoSection; {
			if cur == child {
				return &CycleError{Object: child, Parent: parent}
			}
			p, err := d.Object(cur)
			if err != nil {
				return err
			}
			cur = p.Parent
		}
	}

	if obj.Parent != NoSection {
		if old, err := d.Object(obj.Parent); err == nil {
			old.removeChild(child)
		}
	}

	obj.Parent = parent
	if parent != NoSection {
		p, _ := d.Object(parent)
		if !p.hasChild(child) {
			p.Children = append(p.Children, child)
		}
	}
	return nil
}

// WorldTransform composes local transforms from the hierarchy root down to id.
func (d *Document) WorldTransform(id SectionId) (mgl32.Mat4, error) {
	world := mgl32.Ident4()
	visited := make(map[SectionId]struct{})
	for cur := id; cur != NoSection; {
		if _, seen := visited[cur]; seen {
			return world, &CycleError{Object: id, Parent: cur}
		}
		visited[cur] = struct{}{}

		obj, err := d.Object(cur)
		if err != nil {
			return world, err
		}
		world = obj.Transform.Mul4(world)
		cur = obj.Parent
	}
	return world, nil
}
