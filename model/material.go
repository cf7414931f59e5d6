package model

type Material struct {
	Id       SectionId `yaml:"id"`
	HashName HashName  `yaml:"name"`
}

func NewMaterial(name string) *Material {
	return &Material{HashName: NewHashName(name)}
}

func (m *Material) GetId() SectionId { return m.Id }
func (m *Material) setId(id SectionId) { m.Id = id }

// MaterialGroup maps render atom material indices to Material sections.
type MaterialGroup struct {
	Id    SectionId   `yaml:"id"`
	Items []SectionId `yaml:"items,flow"`
}

func (g *MaterialGroup) GetId() SectionId { return g.Id }
func (g *MaterialGroup) setId(id SectionId) { g.Id = id }
