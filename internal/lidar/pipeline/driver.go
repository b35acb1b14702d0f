package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/ouster-bridge/internal/lidar/conversions"
	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
	"github.com/banshee-data/ouster-bridge/internal/monitoring"
	"github.com/banshee-data/ouster-bridge/internal/timeutil"
)

// DriverOptions configures a Driver.
type DriverOptions struct {
	SessionID string
	Metadata  ouster.Metadata

	LaserFrame  string
	IMUFrame    string
	SensorFrame string

	// Ring is the laser projected into the planar scan.
	Ring uint8

	// Workers bounds the number of revolutions converted at once.
	Workers int

	PublishPlaceholderIMU bool

	// Clock times each revolution's conversion. Nil uses the real clock.
	Clock timeutil.Clock
}

// Driver converts revolutions from a Source and publishes the results.
type Driver struct {
	opts  DriverOptions
	sink  Sink
	stats StatsSink

	state       atomic.Int32
	revolutions atomic.Uint64
	cloudBytes  atomic.Uint64
	scanPoints  atomic.Uint64
	errs        atomic.Uint64
}

// NewDriver returns a driver publishing to sink. stats may be nil.
func NewDriver(opts DriverOptions, sink Sink, stats StatsSink) *Driver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	d := &Driver{opts: opts, sink: sink, stats: stats}
	d.state.Store(int32(ouster.StateTimeout))
	return d
}

// State reports what the driver last did.
func (d *Driver) State() ouster.ClientState {
	return ouster.ClientState(d.state.Load())
}

// Stats returns the running totals.
func (d *Driver) Stats() Stats {
	return Stats{
		Revolutions: d.revolutions.Load(),
		CloudBytes:  d.cloudBytes.Load(),
		ScanPoints:  d.scanPoints.Load(),
		Errors:      d.errs.Load(),
	}
}

// Run publishes the sensor metadata and static transforms, then converts
// revolutions from src until it returns io.EOF, ctx is cancelled, or a
// conversion fails. The first error stops the run and is returned.
func (d *Driver) Run(ctx context.Context, src Source) error {
	if err := d.opts.Metadata.Validate(); err != nil {
		d.state.Store(int32(ouster.StateError))
		return fmt.Errorf("failed to start driver: %w", err)
	}
	if err := d.publishStatic(ctx); err != nil {
		d.state.Store(int32(ouster.StateError))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	var srcErr error
	for {
		rev, err := src.Next(gctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// When a worker failed first, Wait returns that error instead.
			srcErr = err
			break
		}
		g.Go(func() error {
			return d.process(gctx, rev)
		})
	}

	err := g.Wait()
	if err == nil {
		err = srcErr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			d.state.Store(int32(ouster.StateExit))
		} else {
			d.state.Store(int32(ouster.StateError))
		}
		return err
	}
	d.state.Store(int32(ouster.StateExit))
	return nil
}

func (d *Driver) publishStatic(ctx context.Context) error {
	md := d.opts.Metadata
	if err := d.sink.Publish(ctx, TopicMetadata, conversions.ToMetadataMsg(md)); err != nil {
		return fmt.Errorf("failed to publish metadata: %w", err)
	}

	statics := []struct {
		name   string
		matrix []float64
		child  string
	}{
		{"imu_to_sensor", md.IMUToSensorTransform, d.opts.IMUFrame},
		{"lidar_to_sensor", md.LidarToSensorTransform, d.opts.LaserFrame},
	}
	for _, s := range statics {
		if s.matrix == nil {
			continue
		}
		tf, err := conversions.DecomposeTransform(s.matrix, d.opts.SensorFrame, s.child, 0)
		if err != nil {
			return fmt.Errorf("failed to decompose %s transform: %w", s.name, err)
		}
		if !tf.Orthonormal() {
			monitoring.Logf("[driver] %s rotation is not orthonormal: %v", s.name, tf.BasisValues())
		}
		if err := d.sink.Publish(ctx, TopicTFStatic, tf.Msg()); err != nil {
			return fmt.Errorf("failed to publish %s transform: %w", s.name, err)
		}
	}
	return nil
}

type publication struct {
	topic string
	msg   msgs.Message
}

func (d *Driver) process(ctx context.Context, rev *Revolution) error {
	d.state.Store(int32(ouster.StateLidarData))
	start := d.opts.Clock.Now()

	cloud := conversions.ToPointCloud2(rev.Points, rev.Stamp, d.opts.LaserFrame)
	scan, err := conversions.ToLaserScan(rev.Scans, rev.Points.Shape.Columns, rev.Stamp,
		d.opts.LaserFrame, d.opts.Metadata, d.opts.Ring)
	if err != nil {
		d.errs.Add(1)
		opsf("revolution %d: scan projection failed: %v", rev.Seq, err)
		return fmt.Errorf("revolution %d: failed to project scan: %w", rev.Seq, err)
	}

	out := []publication{
		{TopicPoints, cloud},
		{TopicScan, scan},
	}
	if d.opts.PublishPlaceholderIMU {
		d.state.Store(int32(ouster.StateIMUData))
		out = append(out, publication{TopicIMU, conversions.PlaceholderIMU(d.opts.IMUFrame)})
	}
	for _, o := range out {
		if err := d.sink.Publish(ctx, o.topic, o.msg); err != nil {
			d.errs.Add(1)
			opsf("revolution %d: dropped %s: %v", rev.Seq, o.topic, err)
			return fmt.Errorf("revolution %d: failed to publish %s: %w", rev.Seq, o.topic, err)
		}
		tracef("revolution %d: published %s (%s)", rev.Seq, o.topic, o.msg.TypeName())
	}

	elapsed := d.opts.Clock.Since(start)
	d.revolutions.Add(1)
	d.cloudBytes.Add(uint64(len(cloud.Data)))
	d.scanPoints.Add(uint64(len(scan.Ranges)))

	diagf("revolution %d: shape=%s dense=%t cloud=%dB scan=%d points in %v",
		rev.Seq, rev.Points.Shape, rev.Points.Dense, len(cloud.Data), len(scan.Ranges), elapsed)

	if d.stats == nil {
		return nil
	}
	if err := d.stats.RecordRevolution(RevolutionStats{
		SessionID:  d.opts.SessionID,
		Seq:        rev.Seq,
		StampNanos: int64(rev.Stamp),
		Rings:      rev.Points.Shape.Rings,
		Columns:    rev.Points.Shape.Columns,
		Dense:      rev.Points.Dense,
		CloudBytes: len(cloud.Data),
		ScanPoints: len(scan.Ranges),
		Elapsed:    elapsed,
	}); err != nil {
		d.errs.Add(1)
		return fmt.Errorf("revolution %d: failed to record stats: %w", rev.Seq, err)
	}
	return nil
}
