package vertexattr

import (
	"fmt"

	"github.com/mogaika/diesel_model_tool/scene"
)

type UnsupportedMappingModeError struct {
	Layer     string
	Mapping   scene.MappingMode
	Reference scene.ReferenceMode
}

func (e *UnsupportedMappingModeError) Error() string {
	return fmt.Sprintf("%s layer: mapping %v/%v is not supported, only per control point direct",
		e.Layer, e.Mapping, e.Reference)
}

type DegenerateNormalError struct {
	Vertex int
	Length float32
}

func (e *DegenerateNormalError) Error() string {
	return fmt.Sprintf("vertex %d: normal length %f is too short", e.Vertex, e.Length)
}

type MultipleColorLayersError struct {
	Count int
}

func (e *MultipleColorLayersError) Error() string {
	return fmt.Sprintf("mesh has %d vertex colour layers, only one is supported", e.Count)
}

type UnknownUVLayerError struct {
	Name string
}

func (e *UnknownUVLayerError) Error() string {
	return fmt.Sprintf("unknown UV layer %q", e.Name)
}

type DuplicateUVLayerError struct {
	Name string
}

func (e *DuplicateUVLayerError) Error() string {
	return fmt.Sprintf("UV layer %q appears more than once", e.Name)
}

// LayerLengthError reports a layer whose element count differs from the control point count.
type LayerLengthError struct {
	Layer string
	Got   int
	Want  int
}

func (e *LayerLengthError) Error() string {
	return fmt.Sprintf("%s layer has %d elements, mesh has %d control points", e.Layer, e.Got, e.Want)
}

type NonTriangleError struct {
	Polygon int
	Size    int
}

func (e *NonTriangleError) Error() string {
	return fmt.Sprintf("polygon %d has %d vertices, only triangles are supported", e.Polygon, e.Size)
}
