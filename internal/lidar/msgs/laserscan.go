package msgs

import (
	"bytes"
	"fmt"
)

// LaserScan is a single planar sweep of ranges.
type LaserScan struct {
	Header         Header
	AngleMin       float32 // start angle [rad]
	AngleMax       float32 // end angle [rad]
	AngleIncrement float32 // angular distance between measurements [rad]
	TimeIncrement  float32 // time between measurements [s]
	ScanTime       float32 // time between scans [s]
	RangeMin       float32 // [m]
	RangeMax       float32 // [m]
	Ranges         []float32
	Intensities    []float32
}

// LaserScanTypeName is the bus type name of LaserScan.
const LaserScanTypeName = "sensor_msgs/msg/LaserScan"

// TypeName returns LaserScanTypeName.
func (m *LaserScan) TypeName() string { return LaserScanTypeName }

// Serialize appends the little-endian encoding of the scan to buf.
func (m *LaserScan) Serialize(buf *bytes.Buffer) error {
	w := newWriter(buf)
	m.Header.serialize(w)
	w.float32(m.AngleMin)
	w.float32(m.AngleMax)
	w.float32(m.AngleIncrement)
	w.float32(m.TimeIncrement)
	w.float32(m.ScanTime)
	w.float32(m.RangeMin)
	w.float32(m.RangeMax)
	w.float32s(m.Ranges)
	w.float32s(m.Intensities)
	return nil
}

// DecodeLaserScan parses a payload written by LaserScan.Serialize.
func DecodeLaserScan(data []byte) (*LaserScan, error) {
	r := newReader(data)
	m := &LaserScan{}
	m.Header.deserialize(r)
	m.AngleMin = r.float32()
	m.AngleMax = r.float32()
	m.AngleIncrement = r.float32()
	m.TimeIncrement = r.float32()
	m.ScanTime = r.float32()
	m.RangeMin = r.float32()
	m.RangeMax = r.float32()
	m.Ranges = r.float32s()
	m.Intensities = r.float32s()
	if r.err != nil {
		return nil, fmt.Errorf("decode %s: %w", LaserScanTypeName, r.err)
	}
	return m, nil
}

// MsgHeader returns the scan header.
func (m *LaserScan) MsgHeader() Header { return m.Header }
