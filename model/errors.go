package model

import "fmt"

// CycleError reports an attempt to make an object its own ancestor.
type CycleError struct {
	Object SectionId
	Parent SectionId
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("object %d cannot be parented to %d: hierarchy would contain a cycle", e.Object, e.Parent)
}

// MissingSectionError reports a reference to an id that is not in the document
// or holds a different section type.
type MissingSectionError struct {
	Id   SectionId
	Want string
	Got  Section
}

func (e *MissingSectionError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("section %d (%s) not found", e.Id, e.Want)
	}
	return fmt.Sprintf("section %d is %T, not %s", e.Id, e.Got, e.Want)
}
