package skeleton

import "fmt"

// MultipleRootBonesError reports a rig with more than one bone directly under the mesh root point.
type MultipleRootBonesError struct {
	Root   string
	First  string
	Second string
}

func (e *MultipleRootBonesError) Error() string {
	return fmt.Sprintf("rigged model %q has more than one root bone: %q and %q", e.Root, e.First, e.Second)
}

// NoBonesFoundError reports a skeleton root without deforming bones beneath it.
type NoBonesFoundError struct {
	Root string
}

func (e *NoBonesFoundError) Error() string {
	return fmt.Sprintf("rigged model %q has no bones", e.Root)
}
