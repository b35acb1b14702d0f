package msgs

import "bytes"

// Imu is one inertial sample. A covariance whose first element is -1 marks
// the corresponding estimate as unavailable.
type Imu struct {
	Header                       Header
	Orientation                  Quaternion
	OrientationCovariance        [9]float64
	AngularVelocity              Vector3 // rad/s
	AngularVelocityCovariance    [9]float64
	LinearAcceleration           Vector3 // m/s^2
	LinearAccelerationCovariance [9]float64
}

// ImuTypeName is the bus type name of Imu.
const ImuTypeName = "sensor_msgs/msg/Imu"

// TypeName returns ImuTypeName.
func (m *Imu) TypeName() string { return ImuTypeName }

// Serialize appends the little-endian encoding of the IMU sample to buf.
func (m *Imu) Serialize(buf *bytes.Buffer) error {
	w := newWriter(buf)
	m.Header.serialize(w)
	m.Orientation.serialize(w)
	for _, v := range m.OrientationCovariance {
		w.float64(v)
	}
	m.AngularVelocity.serialize(w)
	for _, v := range m.AngularVelocityCovariance {
		w.float64(v)
	}
	m.LinearAcceleration.serialize(w)
	for _, v := range m.LinearAccelerationCovariance {
		w.float64(v)
	}
	return nil
}

// MsgHeader returns the IMU sample header.
func (m *Imu) MsgHeader() Header { return m.Header }
