package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/pipeline"
	"github.com/banshee-data/ouster-bridge/internal/lidar/recorder"
	"github.com/banshee-data/ouster-bridge/internal/lidar/storage/sqlite"
)

func TestRun_RecordPersistPlot(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "driver.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"lidar_mode": "512x10",
		"num_lasers": 8,
		"capture_padding_columns": 3,
		"publish_placeholder_imu": true,
		"workers": 2
	}`), 0o644))

	opts := options{
		ConfigPath:  cfgPath,
		Revolutions: 4,
		RecordDir:   filepath.Join(dir, "rec"),
		DBPath:      filepath.Join(dir, "bridge.db"),
		PlotPath:    filepath.Join(dir, "scan.png"),
		Seed:        3,
	}
	stats, err := run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), stats.Revolutions)
	assert.Equal(t, uint64(4*512), stats.ScanPoints)
	assert.FileExists(t, opts.PlotPath)

	rp, err := recorder.NewReplayer(opts.RecordDir)
	require.NoError(t, err)
	h := rp.Header()
	// metadata + 2 static transforms + 4 x (points, scan, imu)
	assert.Equal(t, uint64(1+2+4*3), h.TotalMessages)
	assert.Equal(t, uint64(4), h.Topics["points"])

	store, err := sqlite.Open(opts.DBPath)
	require.NoError(t, err)
	defer store.Close()
	revs, err := store.ListRevolutions(h.SessionID)
	require.NoError(t, err)
	assert.Len(t, revs, 4)
	md, err := store.Metadata(h.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 8, md.NumLasers)
}

func TestRun_StoreFailureFinalisesRecording(t *testing.T) {
	dir := t.TempDir()
	notADir := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(notADir, nil, 0o644))

	opts := options{
		Revolutions: 1,
		RecordDir:   filepath.Join(dir, "rec"),
		DBPath:      filepath.Join(notADir, "bridge.db"),
	}
	_, err := run(context.Background(), opts)
	require.Error(t, err)

	assert.FileExists(t, filepath.Join(opts.RecordDir, "header.json"))
	assert.FileExists(t, filepath.Join(opts.RecordDir, "index.bin"))
	rp, err := recorder.NewReplayer(opts.RecordDir)
	require.NoError(t, err)
	assert.Zero(t, rp.Total())
}

func TestRun_Defaults(t *testing.T) {
	stats, err := run(context.Background(), options{Revolutions: 1, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Revolutions)
	assert.Equal(t, uint64(1024), stats.ScanPoints)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := run(ctx, options{Revolutions: 0})
	assert.NoError(t, err, "interrupt is a clean shutdown")
}

func TestRun_BadConfig(t *testing.T) {
	_, err := run(context.Background(), options{ConfigPath: filepath.Join(t.TempDir(), "driver.toml")})
	assert.Error(t, err)
}

func TestRun_PlotFormat(t *testing.T) {
	_, err := run(context.Background(), options{Revolutions: 1, PlotPath: filepath.Join(t.TempDir(), "scan.bmp")})
	assert.Error(t, err)
}

func TestLastScan_KeepsLatestStamp(t *testing.T) {
	scanAt := func(sec int32) *msgs.LaserScan {
		return &msgs.LaserScan{Header: msgs.Header{Stamp: msgs.Time{Sec: sec}}}
	}
	newest, older := scanAt(20), scanAt(10)

	last := &lastScan{}
	ctx := context.Background()
	require.NoError(t, last.Publish(ctx, pipeline.TopicScan, newest))
	require.NoError(t, last.Publish(ctx, pipeline.TopicScan, older))
	require.NoError(t, last.Publish(ctx, pipeline.TopicPoints, &msgs.PointCloud2{}))
	assert.Same(t, newest, last.get())
}
