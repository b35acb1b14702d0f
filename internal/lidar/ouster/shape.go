package ouster

import (
	"fmt"
	"math"
)

// Shape is the logical rings × columns extent of one revolution. Columns is
// the number of valid columns, which can be smaller than what the capture
// buffer holds. Construct it once from the authoritative source with
// NewShape and pass it along unchanged.
type Shape struct {
	Rings   int
	Columns int
}

// NewShape validates and returns a Shape. Rings must fit the uint32 height
// of a cloud, one row of records must fit its uint32 row step, and the byte
// size of the revolution must fit an int.
func NewShape(rings, columns int) (Shape, error) {
	if err := checkShape(rings, columns); err != nil {
		return Shape{}, err
	}
	return Shape{Rings: rings, Columns: columns}, nil
}

func checkShape(rings, columns int) error {
	if rings < 0 || columns < 0 {
		return fmt.Errorf("%w: rings=%d columns=%d", ErrInvalidShape, rings, columns)
	}
	if uint64(rings) > math.MaxUint32 || uint64(columns) > math.MaxUint32/uint64(PointSize) {
		return fmt.Errorf("%w: rings=%d columns=%d exceed uint32", ErrInvalidShape, rings, columns)
	}
	if rings != 0 && columns > math.MaxInt/PointSize/rings {
		return fmt.Errorf("%w: rings=%d columns=%d overflows the record count", ErrInvalidShape, rings, columns)
	}
	return nil
}

// Points returns the number of records covered by the shape.
func (s Shape) Points() int {
	return s.Rings * s.Columns
}

// Empty reports whether the shape covers no records.
func (s Shape) Empty() bool {
	return s.Rings == 0 || s.Columns == 0
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rings, s.Columns)
}
