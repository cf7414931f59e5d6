// Package transform converts engine matrices to the scale/rotation/translation
// and Euler forms used by interchange formats, and back.
package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/diesel_model_tool/utils"
)

const (
	projectiveEpsilon = 1e-5
	degenerateEpsilon = 1e-8
	shearEpsilon      = 1e-3
	gimbalThreshold   = 0.99999
)

// ExternalScale maps engine units (centimeters) to interchange units (meters).
var ExternalScale = mgl32.Vec3{0.01, 0.01, 0.01}

// TRS is a decomposed affine transform.
type TRS struct {
	Scale       mgl32.Vec3
	Rotation    mgl32.Quat
	Translation mgl32.Vec3
}

func IdentityTRS() TRS {
	return TRS{
		Scale:    mgl32.Vec3{1, 1, 1},
		Rotation: mgl32.QuatIdent(),
	}
}

// Decompose splits m into scale, rotation and translation.
// A mirrored basis is folded into a negative X scale.
func Decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3, error) {
	row := m.Row(3)
	if !row.ApproxEqualThreshold(mgl32.Vec4{0, 0, 0, 1}, projectiveEpsilon) {
		return mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{}, &NotTRSError{Matrix: m, Reason: "projective bottom row"}
	}

	axes := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	var scale mgl32.Vec3
	for i := range axes {
		scale[i] = axes[i].Len()
		if scale[i] < degenerateEpsilon {
			return mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{}, &NotTRSError{Matrix: m, Reason: "degenerate axis"}
		}
		axes[i] = axes[i].Mul(1 / scale[i])
	}

	if abs32(axes[0].Dot(axes[1])) > shearEpsilon ||
		abs32(axes[0].Dot(axes[2])) > shearEpsilon ||
		abs32(axes[1].Dot(axes[2])) > shearEpsilon {
		return mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{}, &NotTRSError{Matrix: m, Reason: "shear"}
	}

	if axes[0].Cross(axes[1]).Dot(axes[2]) < 0 {
		scale[0] = -scale[0]
		axes[0] = axes[0].Mul(-1)
	}

	rotation := mgl32.Mat4ToQuat(mgl32.Mat3FromCols(axes[0], axes[1], axes[2]).Mat4()).Normalize()
	return scale, rotation, m.Col(3).Vec3(), nil
}

// Recompose builds translate * rotate * scale.
func Recompose(scale mgl32.Vec3, rotation mgl32.Quat, translation mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

func DecomposeTRS(m mgl32.Mat4) (TRS, error) {
	s, r, t, err := Decompose(m)
	if err != nil {
		return IdentityTRS(), err
	}
	return TRS{Scale: s, Rotation: r, Translation: t}, nil
}

func (t TRS) Matrix() mgl32.Mat4 {
	return Recompose(t.Scale, t.Rotation, t.Translation)
}

// ToExternal converts an engine space TRS to interchange units. Only translation carries units.
func (t TRS) ToExternal() TRS {
	t.Translation = ToExternal(t.Translation)
	return t
}

func (t TRS) FromExternal() TRS {
	t.Translation = FromExternal(t.Translation)
	return t
}

// EulerZYX returns the rotation as degrees for rotation order Z, then Y, then X.
func (t TRS) EulerZYX() mgl32.Vec3 {
	return ToEulerZYX(t.Rotation)
}

// ToEulerZYX converts q to Euler degrees (x, y, z) with R = Rx * Ry * Rz.
// At |y| = 90 degrees X and Z are not separable: X is reported as 0.
func ToEulerZYX(q mgl32.Quat) mgl32.Vec3 {
	m := q.Normalize().Mat4()

	sy := utils.Clamp(float64(m.At(0, 2)), -1, 1)
	y := math.Asin(sy)

	var x, z float64
	if math.Abs(sy) < gimbalThreshold {
		x = math.Atan2(float64(-m.At(1, 2)), float64(m.At(2, 2)))
		z = math.Atan2(float64(-m.At(0, 1)), float64(m.At(0, 0)))
	} else {
		x = 0
		z = math.Atan2(float64(m.At(1, 0)), float64(m.At(1, 1)))
	}

	return utils.RadiansToDegreeV3(mgl32.Vec3{float32(x), float32(y), float32(z)})
}

// FromEulerZYX is the inverse of ToEulerZYX.
func FromEulerZYX(degrees mgl32.Vec3) mgl32.Quat {
	r := utils.DegreeToRadiansV3(degrees)
	qx := mgl32.QuatRotate(r[0], mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(r[1], mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(r[2], mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz).Normalize()
}

func ToExternal(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0] * ExternalScale[0], v[1] * ExternalScale[1], v[2] * ExternalScale[2]}
}

func FromExternal(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0] / ExternalScale[0], v[1] / ExternalScale[1], v[2] / ExternalScale[2]}
}

// ScaleTranslation multiplies only the translation cells of m by s.
func ScaleTranslation(m mgl32.Mat4, s mgl32.Vec3) mgl32.Mat4 {
	m[12] *= s[0]
	m[13] *= s[1]
	m[14] *= s[2]
	return m
}

// TranslationRotation drops the scale of m, keeping position and orientation.
func TranslationRotation(m mgl32.Mat4) (mgl32.Mat4, error) {
	_, r, t, err := Decompose(m)
	if err != nil {
		return mgl32.Ident4(), err
	}
	return Recompose(mgl32.Vec3{1, 1, 1}, r, t), nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
