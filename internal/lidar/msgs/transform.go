package msgs

import "bytes"

// TransformStamped expresses ChildFrameID in Header.FrameID.
type TransformStamped struct {
	Header       Header
	ChildFrameID string
	Translation  Vector3 // metres
	Rotation     Quaternion
}

// TransformStampedTypeName is the bus type name of TransformStamped.
const TransformStampedTypeName = "geometry_msgs/msg/TransformStamped"

// TypeName returns TransformStampedTypeName.
func (m *TransformStamped) TypeName() string { return TransformStampedTypeName }

// Serialize appends the little-endian encoding of the transform to buf.
func (m *TransformStamped) Serialize(buf *bytes.Buffer) error {
	w := newWriter(buf)
	m.Header.serialize(w)
	w.string(m.ChildFrameID)
	m.Translation.serialize(w)
	m.Rotation.serialize(w)
	return nil
}

// MsgHeader returns the transform header.
func (m *TransformStamped) MsgHeader() Header { return m.Header }
