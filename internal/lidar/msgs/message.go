package msgs

import (
	"bytes"
	"time"
)

// Message is implemented by every wire message.
type Message interface {
	// TypeName returns the full message type name, e.g. "sensor_msgs/msg/LaserScan".
	TypeName() string

	// Serialize appends the message payload to buf.
	Serialize(buf *bytes.Buffer) error
}

// Time is a message timestamp split into seconds and nanoseconds.
type Time struct {
	Sec  int32
	Nsec uint32
}

// TimeFromDuration converts a nanosecond count since the epoch into a Time.
func TimeFromDuration(d time.Duration) Time {
	ns := int64(d)
	sec := ns / int64(time.Second)
	nsec := ns % int64(time.Second)
	if nsec < 0 {
		sec--
		nsec += int64(time.Second)
	}
	return Time{Sec: int32(sec), Nsec: uint32(nsec)}
}

// Duration returns the time as nanoseconds since the epoch.
func (t Time) Duration() time.Duration {
	return time.Duration(t.Sec)*time.Second + time.Duration(t.Nsec)
}

// Header carries the acquisition time and coordinate frame of a message.
type Header struct {
	Stamp   Time
	FrameID string
}

// Stamped is implemented by messages that carry a Header.
type Stamped interface {
	MsgHeader() Header
}

func (h Header) serialize(w *writer) {
	w.int32(h.Stamp.Sec)
	w.uint32(h.Stamp.Nsec)
	w.string(h.FrameID)
}

func (h *Header) deserialize(r *reader) {
	h.Stamp.Sec = r.int32()
	h.Stamp.Nsec = r.uint32()
	h.FrameID = r.string()
}

// Vector3 is a 3D vector in metres or metres per second depending on use.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) serialize(w *writer) {
	w.float64(v.X)
	w.float64(v.Y)
	w.float64(v.Z)
}

// Quaternion is an orientation with W as the scalar part.
type Quaternion struct {
	X, Y, Z, W float64
}

func (q Quaternion) serialize(w *writer) {
	w.float64(q.X)
	w.float64(q.Y)
	w.float64(q.Z)
	w.float64(q.W)
}
