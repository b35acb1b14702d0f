package pipeline

import (
	"context"
	"time"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
)

// Topics the driver publishes on.
const (
	TopicMetadata = "metadata"
	TopicTFStatic = "tf_static"
	TopicPoints   = "points"
	TopicScan     = "scan"
	TopicIMU      = "imu"
)

// Revolution is one full sensor rotation as delivered by a Source. The
// driver owns Points and Scans once Next returns them.
type Revolution struct {
	Seq    uint64
	Stamp  time.Duration // since the Unix epoch
	Points ouster.PointBuffer
	Scans  []ouster.ScanSample
}

// Source yields revolutions until it returns io.EOF.
type Source interface {
	Next(ctx context.Context) (*Revolution, error)
}

// Sink receives converted messages. Publish is called from several
// goroutines at once.
type Sink interface {
	Publish(ctx context.Context, topic string, msg msgs.Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, topic string, msg msgs.Message) error

func (f SinkFunc) Publish(ctx context.Context, topic string, msg msgs.Message) error {
	return f(ctx, topic, msg)
}

// MultiSink fans every message out to each sink in order and stops at the
// first error.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, topic string, msg msgs.Message) error {
	for _, s := range m {
		if err := s.Publish(ctx, topic, msg); err != nil {
			return err
		}
	}
	return nil
}

// RevolutionStats summarises the conversion of one revolution.
type RevolutionStats struct {
	SessionID  string
	Seq        uint64
	StampNanos int64
	Rings      int
	Columns    int
	Dense      bool
	CloudBytes int
	ScanPoints int
	Elapsed    time.Duration
}

// StatsSink persists per-revolution statistics. Like Sink it must accept
// concurrent calls.
type StatsSink interface {
	RecordRevolution(stats RevolutionStats) error
}

// Stats are the running totals of a Driver.
type Stats struct {
	Revolutions uint64
	CloudBytes  uint64
	ScanPoints  uint64
	Errors      uint64
}
