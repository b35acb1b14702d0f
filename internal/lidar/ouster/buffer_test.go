package ouster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape(t *testing.T) {
	s, err := NewShape(16, 1024)
	require.NoError(t, err)
	assert.Equal(t, 16*1024, s.Points())
	assert.False(t, s.Empty())
	assert.Equal(t, "16x1024", s.String())

	_, err = NewShape(-1, 10)
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewShape(1, -10)
	assert.ErrorIs(t, err, ErrInvalidShape)

	tooLarge := []struct {
		name          string
		rings, column int
	}{
		{"product wraps", 1 << 32, 1 << 32},
		{"rings above uint32", 1 << 33, 1},
		{"columns above uint32", 1, 1 << 33},
		{"row step above uint32", 1, math.MaxUint32/PointSize + 1},
		{"byte size overflows", math.MaxUint32, math.MaxUint32 / PointSize},
	}
	for _, tt := range tooLarge {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShape(tt.rings, tt.column)
			assert.ErrorIs(t, err, ErrInvalidShape)
		})
	}

	maxWidth, err := NewShape(1, math.MaxUint32/PointSize)
	require.NoError(t, err)
	assert.Equal(t, math.MaxUint32/PointSize, maxWidth.Points())

	zero, err := NewShape(0, 128)
	require.NoError(t, err)
	assert.True(t, zero.Empty())
}

func TestNewPointBuffer(t *testing.T) {
	shape := Shape{Rings: 2, Columns: 3}

	tests := []struct {
		name    string
		records int
		extra   int
		wantErr error
	}{
		{"exact", 6, 0, nil},
		{"over-allocated", 10, 0, nil},
		{"too few records", 5, 0, ErrShapeMismatch},
		{"partial record", 6, 3, ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.records*PointSize+tt.extra)
			buf, err := NewPointBuffer(data, shape, true)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.records, buf.Capacity())
			assert.True(t, buf.Dense)
		})
	}
}

func TestNewPointBuffer_RejectsNegativeShape(t *testing.T) {
	_, err := NewPointBuffer(nil, Shape{Rings: -2, Columns: 1}, false)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestNewPointBuffer_RejectsWrappingShape(t *testing.T) {
	_, err := NewPointBuffer(nil, Shape{Rings: 1 << 32, Columns: 1 << 32}, false)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestPointBuffer_AtUsesTiledOrder(t *testing.T) {
	shape := Shape{Rings: 3, Columns: 2}
	points := make([]PointRecord, shape.Points())
	for col := 0; col < shape.Columns; col++ {
		for ring := 0; ring < shape.Rings; ring++ {
			points[col*shape.Rings+ring] = PointRecord{Ring: uint8(ring), Column: uint8(col)}
		}
	}
	buf, err := NewPointBuffer(EncodePoints(points), shape, false)
	require.NoError(t, err)

	got := DecodePoint(buf.At(2, 1))
	assert.Equal(t, uint8(2), got.Ring)
	assert.Equal(t, uint8(1), got.Column)
}
