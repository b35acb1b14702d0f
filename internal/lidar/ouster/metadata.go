package ouster

import (
	"fmt"
	"math"
)

// Metadata describes the sensor a revolution came from. It is built once
// from the sensor's configuration and treated as immutable.
type Metadata struct {
	ComputerIP string
	LidarIP    string
	IMUPort    int
	LidarPort  int
	NumLasers  int
	Mode       LidarMode

	// Row-major 4x4 homogeneous transforms with translation in millimetres.
	// Either may be nil when the sensor did not report it.
	IMUToSensorTransform   []float64
	LidarToSensorTransform []float64

	// Per-beam angles in degrees, NumLasers entries each when present.
	BeamAltitudeAngles []float64
	BeamAzimuthAngles  []float64
}

// Validate checks the fields the conversions depend on.
func (m Metadata) Validate() error {
	if m.NumLasers <= 0 {
		return fmt.Errorf("%w: num_lasers must be positive, got %d", ErrInvalidMetadata, m.NumLasers)
	}
	for name, port := range map[string]int{"imu_port": m.IMUPort, "lidar_port": m.LidarPort} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%w: %s out of range: %d", ErrInvalidMetadata, name, port)
		}
	}
	if m.IMUToSensorTransform != nil && len(m.IMUToSensorTransform) != 16 {
		return fmt.Errorf("%w: imu_to_sensor_transform has %d elements", ErrInvalidMetadata, len(m.IMUToSensorTransform))
	}
	if m.LidarToSensorTransform != nil && len(m.LidarToSensorTransform) != 16 {
		return fmt.Errorf("%w: lidar_to_sensor_transform has %d elements", ErrInvalidMetadata, len(m.LidarToSensorTransform))
	}
	if n := len(m.BeamAltitudeAngles); n != 0 && n != m.NumLasers {
		return fmt.Errorf("%w: %d beam altitude angles for %d lasers", ErrInvalidMetadata, n, m.NumLasers)
	}
	if n := len(m.BeamAzimuthAngles); n != 0 && n != m.NumLasers {
		return fmt.Errorf("%w: %d beam azimuth angles for %d lasers", ErrInvalidMetadata, n, m.NumLasers)
	}
	return nil
}

// TotalSamples returns the number of scan samples one revolution of the
// given width carries. It fails with ErrInvalidShape when either factor is
// negative or the product does not fit an int.
func (m Metadata) TotalSamples(columns int) (int, error) {
	if columns < 0 || m.NumLasers < 0 {
		return 0, fmt.Errorf("%w: num_lasers=%d columns=%d", ErrInvalidShape, m.NumLasers, columns)
	}
	if m.NumLasers != 0 && columns > math.MaxInt/m.NumLasers {
		return 0, fmt.Errorf("%w: num_lasers=%d columns=%d overflows the sample count",
			ErrInvalidShape, m.NumLasers, columns)
	}
	return m.NumLasers * columns, nil
}
