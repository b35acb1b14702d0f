package conversions

import (
	"errors"
	"time"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
)

// ErrIMUNotImplemented is returned by ToIMU: decoding IMU packets into
// accelerations and rates is disabled for this sensor.
var ErrIMUNotImplemented = errors.New("imu conversion not implemented")

// Placeholder covariance diagonals published with PlaceholderIMU.
const (
	placeholderLinearAccelerationCov = 0.01
	placeholderAngularVelocityCov    = 6e-4
)

// ToIMU would convert a raw IMU packet. It always fails with
// ErrIMUNotImplemented; use PlaceholderIMU where a fixed message is wanted.
func ToIMU(packet []byte, frame string, overrideStamp time.Duration) (*msgs.Imu, error) {
	return nil, ErrIMUNotImplemented
}

// PlaceholderIMU returns the fixed stand-in IMU message: zero stamp,
// identity orientation with unknown covariance, zero rates and
// accelerations with nominal diagonal covariances. It carries no
// measurement.
func PlaceholderIMU(frame string) *msgs.Imu {
	m := &msgs.Imu{
		Header:      msgs.Header{FrameID: frame},
		Orientation: msgs.Quaternion{W: 1},
	}
	for i := range m.OrientationCovariance {
		m.OrientationCovariance[i] = -1
	}
	for i := 0; i < 9; i += 4 {
		m.LinearAccelerationCovariance[i] = placeholderLinearAccelerationCov
		m.AngularVelocityCovariance[i] = placeholderAngularVelocityCov
	}
	return m
}
