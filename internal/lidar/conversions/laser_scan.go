package conversions

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
)

// Fixed scan bounds shared by every LaserScan produced here.
const (
	ScanAngleMin = 0.0
	ScanAngleMax = 2 * math.Pi
	ScanRangeMin = 0.025 // metres
	ScanRangeMax = 20.0  // metres
)

// ToLaserScan projects one ring of a revolution into a planar LaserScan.
//
// Only the first md.NumLasers*columns samples are examined. Samples whose
// ring matches are appended in input order with the range converted from
// millimetres to metres.
//
// The scan duration is taken from the t field of the first sample,
// reinterpreted as nanoseconds. That is how the device reports it; no other
// sample's t is assumed to carry the same meaning.
//
// A zero-width revolution yields an empty scan with zero timing fields.
func ToLaserScan(scans []ouster.ScanSample, columns int, stamp time.Duration, frame string, md ouster.Metadata, ring uint8) (*msgs.LaserScan, error) {
	total, err := md.TotalSamples(columns)
	if err != nil {
		return nil, err
	}
	if len(scans) < total {
		return nil, fmt.Errorf("%w: need %d samples (%d lasers x %d columns), got %d",
			ouster.ErrInsufficientSamples, total, md.NumLasers, columns, len(scans))
	}

	msg := &msgs.LaserScan{
		Header: msgs.Header{
			Stamp:   msgs.TimeFromDuration(stamp),
			FrameID: frame,
		},
		AngleMin: ScanAngleMin,
		AngleMax: ScanAngleMax,
		RangeMin: ScanRangeMin,
		RangeMax: ScanRangeMax,
	}
	if total == 0 {
		return msg, nil
	}

	scanTime := float64(scans[0].TNanos) * 1e-9
	resolution := float64(columns)
	msg.ScanTime = float32(scanTime)
	msg.TimeIncrement = float32(scanTime / resolution)
	msg.AngleIncrement = float32(2 * math.Pi / resolution)

	for _, s := range scans[:total] {
		if s.Ring != ring {
			continue
		}
		msg.Ranges = append(msg.Ranges, float32(float64(s.RangeMillimeters)*1e-3))
		msg.Intensities = append(msg.Intensities, s.Intensity)
	}

	return msg, nil
}
