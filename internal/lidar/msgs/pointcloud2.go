package msgs

import (
	"bytes"
	"fmt"
)

// PointField datatypes.
const (
	INT8    uint8 = 1
	UINT8   uint8 = 2
	INT16   uint8 = 3
	UINT16  uint8 = 4
	INT32   uint8 = 5
	UINT32  uint8 = 6
	FLOAT32 uint8 = 7
	FLOAT64 uint8 = 8
)

// PointField describes one field inside each point of a PointCloud2.
type PointField struct {
	Name     string
	Offset   uint32
	Datatype uint8
	Count    uint32
}

// PointCloud2 is a row-major point buffer with self-describing fields.
type PointCloud2 struct {
	Header      Header
	Height      uint32
	Width       uint32
	Fields      []PointField
	IsBigEndian bool
	PointStep   uint32
	RowStep     uint32
	Data        []byte
	IsDense     bool
}

// PointCloud2TypeName is the bus type name of PointCloud2.
const PointCloud2TypeName = "sensor_msgs/msg/PointCloud2"

// TypeName returns PointCloud2TypeName.
func (m *PointCloud2) TypeName() string { return PointCloud2TypeName }

// Serialize appends the little-endian encoding of the cloud to buf.
func (m *PointCloud2) Serialize(buf *bytes.Buffer) error {
	w := newWriter(buf)
	m.Header.serialize(w)
	w.uint32(m.Height)
	w.uint32(m.Width)
	w.uint32(uint32(len(m.Fields)))
	for _, f := range m.Fields {
		w.string(f.Name)
		w.uint32(f.Offset)
		w.uint8(f.Datatype)
		w.uint32(f.Count)
	}
	w.bool(m.IsBigEndian)
	w.uint32(m.PointStep)
	w.uint32(m.RowStep)
	w.bytes(m.Data)
	w.bool(m.IsDense)
	return nil
}

// DecodePointCloud2 parses a payload written by PointCloud2.Serialize.
func DecodePointCloud2(data []byte) (*PointCloud2, error) {
	r := newReader(data)
	m := &PointCloud2{}
	m.Header.deserialize(r)
	m.Height = r.uint32()
	m.Width = r.uint32()
	n := int(r.uint32())
	if r.err == nil && n > len(data) {
		return nil, fmt.Errorf("%w: %d fields declared", ErrShortBuffer, n)
	}
	for i := 0; i < n && r.err == nil; i++ {
		m.Fields = append(m.Fields, PointField{
			Name:     r.string(),
			Offset:   r.uint32(),
			Datatype: r.uint8(),
			Count:    r.uint32(),
		})
	}
	m.IsBigEndian = r.bool()
	m.PointStep = r.uint32()
	m.RowStep = r.uint32()
	m.Data = r.bytes()
	m.IsDense = r.bool()
	if r.err != nil {
		return nil, fmt.Errorf("decode %s: %w", PointCloud2TypeName, r.err)
	}
	return m, nil
}

// MsgHeader returns the cloud header.
func (m *PointCloud2) MsgHeader() Header { return m.Header }
