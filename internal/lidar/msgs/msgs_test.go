package msgs

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeFromDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want Time
	}{
		{0, Time{}},
		{1500 * time.Millisecond, Time{Sec: 1, Nsec: 500_000_000}},
		{-1 * time.Nanosecond, Time{Sec: -1, Nsec: 999_999_999}},
	}
	for _, tt := range tests {
		got := TimeFromDuration(tt.in)
		assert.Equal(t, tt.want, got, "TimeFromDuration(%v)", tt.in)
		assert.Equal(t, tt.in, got.Duration())
	}
}

func TestHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	Header{Stamp: Time{Sec: 2, Nsec: 3}, FrameID: "os"}.serialize(w)

	b := buf.Bytes()
	require.Len(t, b, 4+4+4+2)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(b[0:4]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(b[8:12]))
	assert.Equal(t, "os", string(b[12:]))
}

func TestLaserScanDecode(t *testing.T) {
	scan := &LaserScan{
		Header:         Header{Stamp: Time{Sec: 10}, FrameID: "laser_data_frame"},
		AngleMax:       6.2831855,
		AngleIncrement: 0.0061359233,
		TimeIncrement:  0.0001,
		ScanTime:       0.1,
		RangeMin:       0.025,
		RangeMax:       20,
		Ranges:         []float32{1.5, 2.25},
		Intensities:    []float32{100, 200},
	}
	var buf bytes.Buffer
	require.NoError(t, scan.Serialize(&buf))

	got, err := DecodeLaserScan(buf.Bytes())
	require.NoError(t, err)
	if diff := cmp.Diff(scan, got); diff != "" {
		t.Errorf("decoded scan mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodeLaserScan(buf.Bytes()[:buf.Len()-3])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestPointCloud2Decode(t *testing.T) {
	cloud := &PointCloud2{
		Header: Header{Stamp: Time{Sec: 1, Nsec: 2}, FrameID: "laser_data_frame"},
		Height: 1,
		Width:  2,
		Fields: []PointField{
			{Name: "intensity", Offset: 0, Datatype: FLOAT32, Count: 1},
			{Name: "ring", Offset: 12, Datatype: UINT8, Count: 1},
		},
		PointStep: 16,
		RowStep:   32,
		Data:      bytes.Repeat([]byte{0xAB}, 32),
		IsDense:   true,
	}
	var buf bytes.Buffer
	require.NoError(t, cloud.Serialize(&buf))

	got, err := DecodePointCloud2(buf.Bytes())
	require.NoError(t, err)
	if diff := cmp.Diff(cloud, got); diff != "" {
		t.Errorf("decoded cloud mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodePointCloud2(buf.Bytes()[:20])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeLaserScan_HugeArrayLength(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	Header{}.serialize(w)
	for i := 0; i < 7; i++ {
		w.float32(0)
	}
	w.uint32(1 << 30)

	_, err := DecodeLaserScan(buf.Bytes())
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestFixedSizeMessages(t *testing.T) {
	tf := &TransformStamped{Header: Header{FrameID: "a"}, ChildFrameID: "b", Rotation: Quaternion{W: 1}}
	var buf bytes.Buffer
	require.NoError(t, tf.Serialize(&buf))
	assert.Equal(t, 4+4+(4+1)+(4+1)+3*8+4*8, buf.Len())

	imu := &Imu{Header: Header{FrameID: "imu"}}
	buf.Reset()
	require.NoError(t, imu.Serialize(&buf))
	assert.Equal(t, 4+4+(4+3)+4*8+9*8+3*8+9*8+3*8+9*8, buf.Len())
}

func TestTypeNames(t *testing.T) {
	for _, tt := range []struct {
		msg  Message
		want string
	}{
		{&PointCloud2{}, "sensor_msgs/msg/PointCloud2"},
		{&LaserScan{}, "sensor_msgs/msg/LaserScan"},
		{&TransformStamped{}, "geometry_msgs/msg/TransformStamped"},
		{&Imu{}, "sensor_msgs/msg/Imu"},
		{&Metadata{}, "ouster_msgs/msg/Metadata"},
	} {
		assert.Equal(t, tt.want, tt.msg.TypeName())
	}
}
