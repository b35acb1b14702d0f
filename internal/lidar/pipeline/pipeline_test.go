package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/ouster"
	"github.com/banshee-data/ouster-bridge/internal/monitoring"
	"github.com/banshee-data/ouster-bridge/internal/timeutil"
)

type published struct {
	topic string
	msg   msgs.Message
}

type fakeSink struct {
	mu   sync.Mutex
	msgs []published
	fail map[string]error
}

func (s *fakeSink) Publish(_ context.Context, topic string, msg msgs.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[topic]; err != nil {
		return err
	}
	s.msgs = append(s.msgs, published{topic, msg})
	return nil
}

func (s *fakeSink) byTopic(topic string) []msgs.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []msgs.Message
	for _, p := range s.msgs {
		if p.topic == topic {
			out = append(out, p.msg)
		}
	}
	return out
}

type fakeStats struct {
	mu   sync.Mutex
	revs []RevolutionStats
}

func (s *fakeStats) RecordRevolution(st RevolutionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revs = append(s.revs, st)
	return nil
}

var testIdentity = []float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func testOptions() DriverOptions {
	return DriverOptions{
		SessionID: "session-1",
		Metadata: ouster.Metadata{
			ComputerIP:             "10.5.5.1",
			LidarIP:                "10.5.5.87",
			IMUPort:                7503,
			LidarPort:              7502,
			NumLasers:              16,
			Mode:                   ouster.Mode512x10,
			IMUToSensorTransform:   testIdentity,
			LidarToSensorTransform: testIdentity,
		},
		LaserFrame:  "laser_data_frame",
		IMUFrame:    "imu_data_frame",
		SensorFrame: "laser_sensor_frame",
		Workers:     3,
	}
}

func testSource(limit int) *SyntheticSource {
	src := NewSyntheticSource(ouster.Mode512x10, 16, 42)
	src.Limit = limit
	src.PaddingColumns = 4
	src.Clock = timeutil.NewMockClock(time.Unix(1700000000, 0))
	return src
}

func TestSyntheticSource_Revolution(t *testing.T) {
	src := testSource(1)

	rev, err := src.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), rev.Seq)
	assert.Equal(t, time.Duration(1700000000)*time.Second, rev.Stamp)
	assert.Equal(t, ouster.Shape{Rings: 16, Columns: 512}, rev.Points.Shape)
	assert.Equal(t, 16*(512+4), rev.Points.Capacity(), "padding columns stay in the buffer")
	assert.True(t, rev.Points.Dense)
	require.Len(t, rev.Scans, 16*512)

	p := ouster.DecodePoint(rev.Points.At(5, 100))
	assert.Equal(t, uint8(5), p.Ring)
	assert.Equal(t, uint8(100), p.Column)
	assert.NotZero(t, p.RangeMillimeters)

	assert.Equal(t, uint32(100*time.Millisecond), rev.Scans[0].TNanos)

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSyntheticSource_Deterministic(t *testing.T) {
	a, err := testSource(1).Next(context.Background())
	require.NoError(t, err)
	b, err := testSource(1).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Points.Data, b.Points.Data)
}

func TestSyntheticSource_Dropout(t *testing.T) {
	src := testSource(1)
	src.DropoutRate = 0.5
	rev, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, rev.Points.Dense)
}

func TestSyntheticSource_InvalidConfig(t *testing.T) {
	src := NewSyntheticSource("4096x5", 16, 1)
	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, ouster.ErrUnknownLidarMode)

	src = NewSyntheticSource(ouster.Mode1024x10, 0, 1)
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ouster.ErrInvalidShape)
}

func TestSyntheticSource_RealtimePacing(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	src := NewSyntheticSource(ouster.Mode1024x20, 2, 1)
	src.Clock = clock
	src.Realtime = true

	done := make(chan error, 1)
	go func() {
		_, err := src.Next(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return clock.Tickers() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("Next returned before the revolution period elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(50 * time.Millisecond)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after the tick")
	}
}

func TestSyntheticSource_RealtimeCancel(t *testing.T) {
	src := NewSyntheticSource(ouster.Mode1024x10, 2, 1)
	src.Clock = timeutil.NewMockClock(time.Unix(0, 0))
	src.Realtime = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDriver_Run(t *testing.T) {
	sink := &fakeSink{}
	stats := &fakeStats{}
	opts := testOptions()
	opts.PublishPlaceholderIMU = true
	d := NewDriver(opts, sink, stats)

	require.NoError(t, d.Run(context.Background(), testSource(5)))

	require.Len(t, sink.byTopic(TopicMetadata), 1)
	md := sink.byTopic(TopicMetadata)[0].(*msgs.Metadata)
	assert.Equal(t, "10.5.5.87", md.LidarIP)

	tfs := sink.byTopic(TopicTFStatic)
	require.Len(t, tfs, 2)
	children := []string{tfs[0].(*msgs.TransformStamped).ChildFrameID, tfs[1].(*msgs.TransformStamped).ChildFrameID}
	assert.ElementsMatch(t, []string{"imu_data_frame", "laser_data_frame"}, children)
	assert.Equal(t, "laser_sensor_frame", tfs[0].(*msgs.TransformStamped).Header.FrameID)

	clouds := sink.byTopic(TopicPoints)
	require.Len(t, clouds, 5)
	for _, m := range clouds {
		cloud := m.(*msgs.PointCloud2)
		assert.Equal(t, uint32(16), cloud.Height)
		assert.Equal(t, uint32(512), cloud.Width)
		assert.Len(t, cloud.Data, 16*512*ouster.PointSize)
	}

	scans := sink.byTopic(TopicScan)
	require.Len(t, scans, 5)
	for _, m := range scans {
		scan := m.(*msgs.LaserScan)
		assert.Len(t, scan.Ranges, 512, "ring 0 contributes one sample per column")
		assert.InDelta(t, 0.1, scan.ScanTime, 1e-6)
	}
	assert.Len(t, sink.byTopic(TopicIMU), 5)

	got := d.Stats()
	assert.Equal(t, Stats{
		Revolutions: 5,
		CloudBytes:  5 * 16 * 512 * uint64(ouster.PointSize),
		ScanPoints:  5 * 512,
	}, got)
	assert.Len(t, stats.revs, 5)
	seqs := map[uint64]bool{}
	for _, r := range stats.revs {
		seqs[r.Seq] = true
		assert.Equal(t, "session-1", r.SessionID)
		assert.Equal(t, 512, r.Columns)
	}
	assert.Len(t, seqs, 5)
	assert.Equal(t, ouster.StateExit, d.State())
}

func TestDriver_NoIMUByDefault(t *testing.T) {
	sink := &fakeSink{}
	d := NewDriver(testOptions(), sink, nil)
	require.NoError(t, d.Run(context.Background(), testSource(2)))
	assert.Empty(t, sink.byTopic(TopicIMU))
	assert.Len(t, sink.byTopic(TopicPoints), 2)
}

func TestDriver_SkipsMissingTransforms(t *testing.T) {
	sink := &fakeSink{}
	opts := testOptions()
	opts.Metadata.IMUToSensorTransform = nil
	d := NewDriver(opts, sink, nil)
	require.NoError(t, d.Run(context.Background(), testSource(1)))
	assert.Len(t, sink.byTopic(TopicTFStatic), 1)
}

func TestDriver_LogsNonOrthonormalRotation(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	var logged []string
	var mu sync.Mutex
	monitoring.SetLogger(func(format string, v ...interface{}) {
		mu.Lock()
		defer mu.Unlock()
		logged = append(logged, format)
	})

	opts := testOptions()
	skewed := append([]float64(nil), testIdentity...)
	skewed[1] = 0.5
	opts.Metadata.LidarToSensorTransform = skewed
	sink := &fakeSink{}
	require.NoError(t, NewDriver(opts, sink, nil).Run(context.Background(), testSource(1)))

	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "not orthonormal")
	assert.Len(t, sink.byTopic(TopicTFStatic), 2, "the transform is still published")
}

func TestDriver_InvalidMetadata(t *testing.T) {
	opts := testOptions()
	opts.Metadata.NumLasers = 0
	d := NewDriver(opts, &fakeSink{}, nil)
	err := d.Run(context.Background(), testSource(1))
	assert.ErrorIs(t, err, ouster.ErrInvalidMetadata)
	assert.Equal(t, ouster.StateError, d.State())
}

func TestDriver_ScanErrorStopsRun(t *testing.T) {
	opts := testOptions()
	opts.Metadata.NumLasers = 64 // more lasers than the source produces
	d := NewDriver(opts, &fakeSink{}, nil)

	err := d.Run(context.Background(), testSource(10))
	assert.ErrorIs(t, err, ouster.ErrInsufficientSamples)
	assert.Equal(t, ouster.StateError, d.State())
	assert.NotZero(t, d.Stats().Errors)
}

func TestDriver_PublishErrorStopsRun(t *testing.T) {
	boom := errors.New("bus down")
	sink := &fakeSink{fail: map[string]error{TopicScan: boom}}
	d := NewDriver(testOptions(), sink, nil)

	err := d.Run(context.Background(), testSource(10))
	assert.ErrorIs(t, err, boom)
	assert.Less(t, d.Stats().Revolutions, uint64(10))
}

func TestDriver_StaticPublishError(t *testing.T) {
	boom := errors.New("bus down")
	sink := &fakeSink{fail: map[string]error{TopicMetadata: boom}}
	err := NewDriver(testOptions(), sink, nil).Run(context.Background(), testSource(1))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, sink.byTopic(TopicPoints))
}

func TestDriver_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDriver(testOptions(), &fakeSink{}, nil)
	err := d.Run(ctx, testSource(0))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ouster.StateExit, d.State())
}

func TestDriver_ElapsedUsesClock(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))
	sink := SinkFunc(func(_ context.Context, topic string, _ msgs.Message) error {
		if topic == TopicPoints {
			clock.Advance(5 * time.Millisecond)
		}
		return nil
	})
	stats := &fakeStats{}
	opts := testOptions()
	opts.Workers = 1
	opts.Clock = clock

	require.NoError(t, NewDriver(opts, sink, stats).Run(context.Background(), testSource(3)))
	require.Len(t, stats.revs, 3)
	for _, rev := range stats.revs {
		assert.Equal(t, 5*time.Millisecond, rev.Elapsed)
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{}
	var calls int
	m := MultiSink{a, SinkFunc(func(context.Context, string, msgs.Message) error {
		calls++
		return nil
	}), b}

	require.NoError(t, m.Publish(context.Background(), TopicScan, &msgs.LaserScan{}))
	assert.Len(t, a.byTopic(TopicScan), 1)
	assert.Len(t, b.byTopic(TopicScan), 1)
	assert.Equal(t, 1, calls)
}

func TestDriver_LogStreams(t *testing.T) {
	var ops, diag, trace bytes.Buffer
	SetLogWriters(&ops, &diag, &trace)
	defer SetLogWriters(nil, nil, nil)

	require.NoError(t, NewDriver(testOptions(), &fakeSink{}, nil).Run(context.Background(), testSource(2)))
	assert.Empty(t, ops.String())
	assert.Equal(t, 2, strings.Count(diag.String(), "shape=16x512"))
	assert.Equal(t, 2, strings.Count(trace.String(), "published points"))

	opts := testOptions()
	opts.Metadata.NumLasers = 64
	require.Error(t, NewDriver(opts, &fakeSink{}, nil).Run(context.Background(), testSource(1)))
	assert.Contains(t, ops.String(), "scan projection failed")
}
