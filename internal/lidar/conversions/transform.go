package conversions

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
)

// orthonormalTolerance bounds |RᵀR - I| element-wise.
const orthonormalTolerance = 1e-6

// Transform is a homogeneous transform split into translation and rotation
// basis, stamped and tied to a frame pair.
type Transform struct {
	Frame             string
	ChildFrame        string
	Stamp             time.Duration
	TranslationMeters r3.Vec
	Basis             *mat.Dense // 3x3, row-major as given
}

// DecomposeTransform splits a row-major 4x4 homogeneous matrix whose
// translation column is in millimetres. Only the upper-left 3x3 block and
// elements 3, 7 and 11 are read.
func DecomposeTransform(m []float64, frame, childFrame string, stamp time.Duration) (Transform, error) {
	if len(m) != 16 {
		return Transform{}, fmt.Errorf("%w: got %d", ouster.ErrInvalidMatrix, len(m))
	}
	return Transform{
		Frame:      frame,
		ChildFrame: childFrame,
		Stamp:      stamp,
		TranslationMeters: r3.Vec{
			X: m[3] / 1e3,
			Y: m[7] / 1e3,
			Z: m[11] / 1e3,
		},
		Basis: mat.NewDense(3, 3, []float64{
			m[0], m[1], m[2],
			m[4], m[5], m[6],
			m[8], m[9], m[10],
		}),
	}, nil
}

// BasisValues returns the rotation basis in row-major order.
func (t Transform) BasisValues() [9]float64 {
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = t.Basis.At(r, c)
		}
	}
	return out
}

// Orthonormal reports whether the basis is a rotation within tolerance.
func (t Transform) Orthonormal() bool {
	var prod mat.Dense
	prod.Mul(t.Basis.T(), t.Basis)
	return mat.EqualApprox(&prod, eye3, orthonormalTolerance)
}

var eye3 = mat.NewDiagDense(3, []float64{1, 1, 1})

// Quaternion converts the basis to a unit quaternion.
func (t Transform) Quaternion() quat.Number {
	b := t.BasisValues()
	m00, m01, m02 := b[0], b[1], b[2]
	m10, m11, m12 := b[3], b[4], b[5]
	m20, m21, m22 := b[6], b[7], b[8]

	var q quat.Number
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = quat.Number{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}

	if n := quat.Abs(q); n > 0 {
		q = quat.Scale(1/n, q)
	}
	return q
}

// Msg builds the TransformStamped carried on the wire.
func (t Transform) Msg() *msgs.TransformStamped {
	q := t.Quaternion()
	return &msgs.TransformStamped{
		Header: msgs.Header{
			Stamp:   msgs.TimeFromDuration(t.Stamp),
			FrameID: t.Frame,
		},
		ChildFrameID: t.ChildFrame,
		Translation: msgs.Vector3{
			X: t.TranslationMeters.X,
			Y: t.TranslationMeters.Y,
			Z: t.TranslationMeters.Z,
		},
		Rotation: msgs.Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real},
	}
}

// ToTransform decomposes m and returns the wire message.
func ToTransform(m []float64, frame, childFrame string, stamp time.Duration) (*msgs.TransformStamped, error) {
	t, err := DecomposeTransform(m, frame, childFrame, stamp)
	if err != nil {
		return nil, err
	}
	return t.Msg(), nil
}
