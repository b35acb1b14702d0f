package ouster

import (
	"math"
	"reflect"
	"sync"
	"unsafe"

	"github.com/banshee-data/ouster-bridge/internal/lidar/hostorder"
)

// PointRecord is one lidar return as laid out in the capture buffer.
// Field order and offsets are part of the wire contract: the point cloud
// descriptors are generated from this declaration.
type PointRecord struct {
	Intensity        float32 `field:"intensity"`
	Reflectivity     uint16  `field:"reflectivity"`
	Noise            uint16  `field:"noise"`
	RangeMillimeters uint32  `field:"range"`
	Ring             uint8   `field:"ring"`
	Column           uint8   `field:"col"`
	_                [2]byte // pad to 16 bytes, matching the SDK's aligned record
}

// PointSize is the byte size of one PointRecord image.
const PointSize = int(unsafe.Sizeof(PointRecord{}))

// FieldSpec describes one named field of PointRecord.
type FieldSpec struct {
	Name   string
	Offset uint32
	Kind   reflect.Kind
	Count  uint32
}

var pointFields = sync.OnceValue(func() []FieldSpec {
	rt := reflect.TypeOf(PointRecord{})
	fields := make([]FieldSpec, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, ok := f.Tag.Lookup("field")
		if !ok {
			continue
		}
		fields = append(fields, FieldSpec{
			Name:   name,
			Offset: uint32(f.Offset),
			Kind:   f.Type.Kind(),
			Count:  1,
		})
	}
	return fields
})

// PointFields returns the PointRecord field descriptors in declaration order.
// The returned slice is shared; callers must not modify it.
func PointFields() []FieldSpec {
	return pointFields()
}

// EncodePoints writes records into a packed byte image in host byte order.
func EncodePoints(points []PointRecord) []byte {
	out := make([]byte, len(points)*PointSize)
	for i := range points {
		putPoint(out[i*PointSize:(i+1)*PointSize], points[i])
	}
	return out
}

func putPoint(b []byte, p PointRecord) {
	order := hostorder.ByteOrder()
	order.PutUint32(b[0:4], math.Float32bits(p.Intensity))
	order.PutUint16(b[4:6], p.Reflectivity)
	order.PutUint16(b[6:8], p.Noise)
	order.PutUint32(b[8:12], p.RangeMillimeters)
	b[12] = p.Ring
	b[13] = p.Column
	b[14], b[15] = 0, 0
}

// DecodePoint reads one record image written in host byte order.
// b must hold at least PointSize bytes.
func DecodePoint(b []byte) PointRecord {
	order := hostorder.ByteOrder()
	return PointRecord{
		Intensity:        math.Float32frombits(order.Uint32(b[0:4])),
		Reflectivity:     order.Uint16(b[4:6]),
		Noise:            order.Uint16(b[6:8]),
		RangeMillimeters: order.Uint32(b[8:12]),
		Ring:             b[12],
		Column:           b[13],
	}
}
