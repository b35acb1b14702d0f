package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
	"github.com/banshee-data/ouster-bridge/internal/timeutil"
)

// SyntheticSource generates revolutions of a sensor standing in a
// rectangular room. Output is deterministic for a given seed apart from the
// stamps, which come from Clock.
type SyntheticSource struct {
	Mode      ouster.LidarMode
	NumLasers int

	// PaddingColumns extra columns of junk records are appended to every
	// point buffer, as an over-allocated capture buffer would carry.
	PaddingColumns int

	// Limit stops the source after that many revolutions. Zero means no limit.
	Limit int

	// Realtime paces Next at the mode's revolution rate using Clock.
	Realtime bool
	Clock    timeutil.Clock

	// DropoutRate is the fraction of returns reported with zero range.
	DropoutRate float64

	// Room half-extents in metres.
	HalfLength float64
	HalfWidth  float64

	mu     sync.Mutex
	seq    uint64
	rng    *rand.Rand
	ticker timeutil.Ticker
}

// NewSyntheticSource returns a source with an 8m x 6m room and a real clock.
func NewSyntheticSource(mode ouster.LidarMode, numLasers int, seed int64) *SyntheticSource {
	return &SyntheticSource{
		Mode:       mode,
		NumLasers:  numLasers,
		Clock:      timeutil.RealClock{},
		HalfLength: 4.0,
		HalfWidth:  3.0,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Next returns the next revolution, or io.EOF once Limit is reached.
func (s *SyntheticSource) Next(ctx context.Context) (*Revolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Limit > 0 && s.seq >= uint64(s.Limit) {
		s.stopTicker()
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	columns := s.Mode.Columns()
	if columns == 0 {
		return nil, fmt.Errorf("%w: %q", ouster.ErrUnknownLidarMode, s.Mode)
	}
	if s.NumLasers <= 0 || s.NumLasers > 256 {
		return nil, fmt.Errorf("%w: num_lasers=%d", ouster.ErrInvalidShape, s.NumLasers)
	}
	if s.PaddingColumns < 0 {
		return nil, fmt.Errorf("%w: padding_columns=%d", ouster.ErrInvalidShape, s.PaddingColumns)
	}

	if s.Realtime {
		if s.ticker == nil {
			s.ticker = s.Clock.NewTicker(s.Mode.RevolutionPeriod())
		}
		select {
		case <-s.ticker.C():
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.seq++
	rev, err := s.generate(columns)
	if err != nil {
		return nil, err
	}
	rev.Seq = s.seq
	rev.Stamp = time.Duration(s.Clock.Now().UnixNano())
	return rev, nil
}

func (s *SyntheticSource) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// beamAltitude spreads the lasers evenly over a 33.2 degree vertical field.
func (s *SyntheticSource) beamAltitude(ring int) float64 {
	if s.NumLasers == 1 {
		return 0
	}
	const fov = 33.2 * math.Pi / 180
	return fov/2 - fov*float64(ring)/float64(s.NumLasers-1)
}

func (s *SyntheticSource) wallDistance(azimuth float64) float64 {
	c, sn := math.Abs(math.Cos(azimuth)), math.Abs(math.Sin(azimuth))
	d := math.Inf(1)
	if c > 1e-9 {
		d = s.HalfLength / c
	}
	if sn > 1e-9 {
		d = math.Min(d, s.HalfWidth/sn)
	}
	return d
}

func (s *SyntheticSource) generate(columns int) (*Revolution, error) {
	rings := s.NumLasers
	stored := columns + s.PaddingColumns
	points := make([]ouster.PointRecord, rings*stored)
	scans := make([]ouster.ScanSample, 0, rings*columns)
	period := uint32(s.Mode.RevolutionPeriod())
	dense := true

	for col := 0; col < columns; col++ {
		azimuth := 2 * math.Pi * float64(col) / float64(columns)
		horizontal := s.wallDistance(azimuth)
		for ring := 0; ring < rings; ring++ {
			rangeMM := uint32(horizontal/math.Cos(s.beamAltitude(ring))*1000) + uint32(s.rng.Intn(20))
			if s.DropoutRate > 0 && s.rng.Float64() < s.DropoutRate {
				rangeMM = 0
				dense = false
			}
			intensity := float32(2000/(1+float64(rangeMM)/1000)) + s.rng.Float32()*10
			points[col*rings+ring] = ouster.PointRecord{
				Intensity:        intensity,
				Reflectivity:     uint16(s.rng.Intn(4096)),
				Noise:            uint16(s.rng.Intn(256)),
				RangeMillimeters: rangeMM,
				Ring:             uint8(ring),
				Column:           uint8(col),
			}
			scans = append(scans, ouster.ScanSample{
				RangeMillimeters: rangeMM,
				Intensity:        intensity,
				Ring:             uint8(ring),
				TNanos:           period,
			})
		}
	}
	for i := rings * columns; i < len(points); i++ {
		points[i] = ouster.PointRecord{Intensity: -1, Ring: 0xff, Column: 0xff}
	}

	shape, err := ouster.NewShape(rings, columns)
	if err != nil {
		return nil, err
	}
	buf, err := ouster.NewPointBuffer(ouster.EncodePoints(points), shape, dense)
	if err != nil {
		return nil, err
	}
	return &Revolution{Points: buf, Scans: scans}, nil
}
