package ouster

import "fmt"

// PointBuffer holds one revolution of PointRecord images in column-major
// tiled order: the record for (ring, column) sits at record offset
// column*Rings + ring. Data may extend past Shape.Points() records when the
// capture buffer is over-allocated; those trailing records are padding.
//
// The buffer is borrowed by conversions for the duration of a call and is
// never retained.
type PointBuffer struct {
	Data  []byte
	Shape Shape
	Dense bool
}

// NewPointBuffer checks data against shape and returns the buffer.
// Data must be a whole number of records and hold at least the records the
// shape claims.
func NewPointBuffer(data []byte, shape Shape, dense bool) (PointBuffer, error) {
	if err := checkShape(shape.Rings, shape.Columns); err != nil {
		return PointBuffer{}, err
	}
	if len(data)%PointSize != 0 {
		return PointBuffer{}, fmt.Errorf("%w: %d bytes is not a multiple of the %d-byte record",
			ErrShapeMismatch, len(data), PointSize)
	}
	if have := len(data) / PointSize; have < shape.Points() {
		return PointBuffer{}, fmt.Errorf("%w: shape %s needs %d records, buffer holds %d",
			ErrShapeMismatch, shape, shape.Points(), have)
	}
	return PointBuffer{Data: data, Shape: shape, Dense: dense}, nil
}

// Capacity returns the number of records held in Data, padding included.
func (b PointBuffer) Capacity() int {
	return len(b.Data) / PointSize
}

// Record returns the byte image of record i in storage order.
func (b PointBuffer) Record(i int) []byte {
	return b.Data[i*PointSize : (i+1)*PointSize]
}

// At returns the byte image of the record at the logical (ring, column).
func (b PointBuffer) At(ring, column int) []byte {
	return b.Record(column*b.Shape.Rings + ring)
}
