package msgs

import "bytes"

// Metadata announces the sensor a driver is connected to.
type Metadata struct {
	ComputerIP             string
	LidarIP                string
	IMUPort                int32
	LidarPort              int32
	LidarMode              string
	NumLasers              uint32
	BeamAltitudeAngles     []float64
	BeamAzimuthAngles      []float64
	IMUToSensorTransform   []float64
	LidarToSensorTransform []float64
}

// MetadataTypeName is the bus type name of Metadata.
const MetadataTypeName = "ouster_msgs/msg/Metadata"

// TypeName returns MetadataTypeName.
func (m *Metadata) TypeName() string { return MetadataTypeName }

// Serialize appends the little-endian encoding of the metadata message to buf.
func (m *Metadata) Serialize(buf *bytes.Buffer) error {
	w := newWriter(buf)
	w.string(m.ComputerIP)
	w.string(m.LidarIP)
	w.int32(m.IMUPort)
	w.int32(m.LidarPort)
	w.string(m.LidarMode)
	w.uint32(m.NumLasers)
	w.float64s(m.BeamAltitudeAngles)
	w.float64s(m.BeamAzimuthAngles)
	w.float64s(m.IMUToSensorTransform)
	w.float64s(m.LidarToSensorTransform)
	return nil
}
