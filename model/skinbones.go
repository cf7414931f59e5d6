package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// BoneMapping maps render atom local bone slots to SkinBones bone indices.
type BoneMapping struct {
	Bones []uint32 `yaml:"bones,flow"`
}

// SkinBones binds a model to a skeleton. The position of an object in Bones is
// its bone index. Index 0 is never assigned to vertices.
type SkinBones struct {
	Id                  SectionId     `yaml:"id"`
	RootBone            SectionId     `yaml:"root_bone"`
	Bones               []SectionId   `yaml:"bones,flow"`
	Rotations           []mgl32.Mat4  `yaml:"rotations,flow"`
	GlobalSkinTransform mgl32.Mat4    `yaml:"global_skin_transform,flow"`
	BoneMappings        []BoneMapping `yaml:"bone_mappings"`
}

func NewSkinBones() *SkinBones {
	return &SkinBones{GlobalSkinTransform: mgl32.Ident4()}
}

func (sb *SkinBones) GetId() SectionId { return sb.Id }
func (sb *SkinBones) setId(id SectionId) { sb.Id = id }

func (sb *SkinBones) Count() int { return len(sb.Bones) }

// IndexOf returns the bone index of object id, or -1.
func (sb *SkinBones) IndexOf(id SectionId) int {
	for i, b := range sb.Bones {
		if b == id {
			return i
		}
	}
	return -1
}

func (sb *SkinBones) Contains(id SectionId) bool {
	return sb.IndexOf(id) >= 0
}

// Reorder moves the bones listed in order to the front, in that order. Ids that
// are not bones or repeat are skipped, the rest keep their relative order.
// Rotations follow their bones.
func (sb *SkinBones) Reorder(order []SectionId) {
	bones := make([]SectionId, 0, len(sb.Bones))
	rotations := make([]mgl32.Mat4, 0, len(sb.Rotations))
	taken := make([]bool, len(sb.Bones))
	take := func(i int) {
		taken[i] = true
		bones = append(bones, sb.Bones[i])
		if i < len(sb.Rotations) {
			rotations = append(rotations, sb.Rotations[i])
		}
	}

	for _, id := range order {
		if i := sb.IndexOf(id); i >= 0 && !taken[i] {
			take(i)
		}
	}
	for i := range sb.Bones {
		if !taken[i] {
			take(i)
		}
	}
	sb.Bones = bones
	sb.Rotations = rotations
}

// JointOrder is the bone order used when binding joints: the first bone
// mapping when present, otherwise plain bone index order.
func (sb *SkinBones) JointOrder() []uint32 {
	if len(sb.BoneMappings) != 0 && len(sb.BoneMappings[0].Bones) != 0 {
		return sb.BoneMappings[0].Bones
	}
	order := make([]uint32, len(sb.Bones))
	for i := range order {
		order[i] = uint32(i)
	}
	return order
}
