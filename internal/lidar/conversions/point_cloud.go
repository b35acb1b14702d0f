package conversions

import (
	"reflect"
	"time"

	"github.com/banshee-data/ouster-bridge/internal/lidar/hostorder"
	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
)

var pointFieldTypes = map[reflect.Kind]uint8{
	reflect.Int8:    msgs.INT8,
	reflect.Uint8:   msgs.UINT8,
	reflect.Int16:   msgs.INT16,
	reflect.Uint16:  msgs.UINT16,
	reflect.Int32:   msgs.INT32,
	reflect.Uint32:  msgs.UINT32,
	reflect.Float32: msgs.FLOAT32,
	reflect.Float64: msgs.FLOAT64,
}

// PointFields returns the PointCloud2 field descriptors for ouster.PointRecord.
func PointFields() []msgs.PointField {
	specs := ouster.PointFields()
	fields := make([]msgs.PointField, len(specs))
	for i, s := range specs {
		fields[i] = msgs.PointField{
			Name:     s.Name,
			Offset:   s.Offset,
			Datatype: pointFieldTypes[s.Kind],
			Count:    s.Count,
		}
	}
	return fields
}

// ToPointCloud2 re-lays a column-major tiled point buffer into a row-major
// PointCloud2 of buf.Shape.Rings rows by buf.Shape.Columns columns.
//
// The record at input offset column*rings+ring is copied byte for byte to
// output offset ring*columns+column. Records past Shape.Points() in the
// input are capture padding and are dropped. The dense flag is carried over
// from the input, not recomputed.
//
// buf must come from ouster.NewPointBuffer, which guarantees the data
// covers the shape.
func ToPointCloud2(buf ouster.PointBuffer, stamp time.Duration, frame string) *msgs.PointCloud2 {
	height := buf.Shape.Rings
	width := buf.Shape.Columns
	step := ouster.PointSize

	cloud := &msgs.PointCloud2{
		Header: msgs.Header{
			Stamp:   msgs.TimeFromDuration(stamp),
			FrameID: frame,
		},
		Height:      uint32(height),
		Width:       uint32(width),
		Fields:      PointFields(),
		IsBigEndian: hostorder.IsBigEndian(),
		PointStep:   uint32(step),
		RowStep:     uint32(step * width),
		Data:        make([]byte, step*height*width),
		IsDense:     buf.Dense,
	}

	for i := 0; i < width; i++ {
		for j := 0; j < height; j++ {
			dst := (j*width + i) * step
			src := (i*height + j) * step
			copy(cloud.Data[dst:dst+step], buf.Data[src:src+step])
		}
	}

	return cloud
}
