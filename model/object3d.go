package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Object3D is a node of the engine hierarchy. Transform is relative to Parent.
// Children are owned, Parent is a back reference only.
type Object3D struct {
	Id        SectionId   `yaml:"id"`
	HashName  HashName    `yaml:"name"`
	Transform mgl32.Mat4  `yaml:"transform,flow"`
	Children  []SectionId `yaml:"children,flow,omitempty"`
	Parent    SectionId   `yaml:"parent,omitempty"`
}

func NewObject3D(name string) *Object3D {
	return &Object3D{
		HashName:  NewHashName(name),
		Transform: mgl32.Ident4(),
	}
}

func (o *Object3D) GetId() SectionId { return o.Id }
func (o *Object3D) setId(id SectionId) { o.Id = id }
func (o *Object3D) Name() string { return o.HashName.Name() }
func (o *Object3D) HasParent() bool { return o.Parent != NoSection }

func (o *Object3D) hasChild(id SectionId) bool {
	for _, c := range o.Children {
		if c == id {
			return true
		}
	}
	return false
}

func (o *Object3D) removeChild(id SectionId) {
	for i, c := range o.Children {
		if c == id {
			o.Children = append(o.Children[:i], o.Children[i+1:]...)
			return
		}
	}
}
