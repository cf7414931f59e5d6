package skin

import "fmt"

// UnsupportedFourthWeightError reports a vertex bound to a bone through the fourth slot.
type UnsupportedFourthWeightError struct {
	Vertex int
	Bone   int
}

func (e *UnsupportedFourthWeightError) Error() string {
	return fmt.Sprintf("vertex %d: bone %d is referenced by the unsupported fourth weight slot", e.Vertex, e.Bone)
}

// TooManyBonesError reports a vertex influenced by more bones than the engine stores.
type TooManyBonesError struct {
	Vertex int
	Count  int
}

func (e *TooManyBonesError) Error() string {
	return fmt.Sprintf("vertex %d is affected by %d bones, at most 3 are supported", e.Vertex, e.Count)
}

type BoneIndexOverflowError struct {
	Vertex int
	Bone   int
}

func (e *BoneIndexOverflowError) Error() string {
	return fmt.Sprintf("vertex %d: bone index %d does not fit 16 bits", e.Vertex, e.Bone)
}

// DuplicateClusterBindingError reports two cluster entries binding one vertex to one bone.
type DuplicateClusterBindingError struct {
	Vertex int
	Bone   int
}

func (e *DuplicateClusterBindingError) Error() string {
	return fmt.Sprintf("vertex %d is bound to bone %d more than once", e.Vertex, e.Bone)
}

// UnknownClusterLinkError reports a cluster linked to a node that is not an imported bone.
type UnknownClusterLinkError struct {
	Node string
}

func (e *UnknownClusterLinkError) Error() string {
	return fmt.Sprintf("cluster is linked to %q which is not a bone of the skeleton", e.Node)
}

type ClusterIndexRangeError struct {
	Vertex int
	Count  int
}

func (e *ClusterIndexRangeError) Error() string {
	return fmt.Sprintf("cluster references vertex %d, mesh has %d", e.Vertex, e.Count)
}

type MultipleSkinsError struct {
	Mesh  string
	Count int
}

func (e *MultipleSkinsError) Error() string {
	return fmt.Sprintf("mesh %q has %d skins, only one is supported", e.Mesh, e.Count)
}
