package transform

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// NotTRSError reports a matrix that is not scale, then rotate, then translate.
type NotTRSError struct {
	Matrix mgl32.Mat4
	Reason string
}

func (e *NotTRSError) Error() string {
	return fmt.Sprintf("matrix is not a TRS transform: %s", e.Reason)
}
