package ouster

import (
	"fmt"
	"time"
)

// LidarMode is the horizontal resolution and spin rate the sensor runs at,
// in the device's "<columns>x<hz>" notation.
type LidarMode string

const (
	Mode512x10  LidarMode = "512x10"
	Mode512x20  LidarMode = "512x20"
	Mode1024x10 LidarMode = "1024x10"
	Mode1024x20 LidarMode = "1024x20"
	Mode2048x10 LidarMode = "2048x10"
)

var lidarModes = map[LidarMode]struct {
	columns int
	hz      int
}{
	Mode512x10:  {512, 10},
	Mode512x20:  {512, 20},
	Mode1024x10: {1024, 10},
	Mode1024x20: {1024, 20},
	Mode2048x10: {2048, 10},
}

// ParseLidarMode validates s as a known mode.
func ParseLidarMode(s string) (LidarMode, error) {
	m := LidarMode(s)
	if _, ok := lidarModes[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLidarMode, s)
	}
	return m, nil
}

// Columns returns the number of columns per revolution, or 0 for an
// unknown mode.
func (m LidarMode) Columns() int {
	return lidarModes[m].columns
}

// FrequencyHz returns the revolution rate, or 0 for an unknown mode.
func (m LidarMode) FrequencyHz() int {
	return lidarModes[m].hz
}

// RevolutionPeriod returns the duration of one revolution, or 0 for an
// unknown mode.
func (m LidarMode) RevolutionPeriod() time.Duration {
	hz := m.FrequencyHz()
	if hz == 0 {
		return 0
	}
	return time.Second / time.Duration(hz)
}
