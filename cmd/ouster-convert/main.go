// Command ouster-convert runs the conversion driver against the synthetic
// revolution source, optionally recording the converted messages,
// persisting per-revolution statistics and plotting the last scan.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/banshee-data/ouster-bridge/internal/config"
	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/pipeline"
	"github.com/banshee-data/ouster-bridge/internal/lidar/recorder"
	"github.com/banshee-data/ouster-bridge/internal/lidar/scanplot"
	"github.com/banshee-data/ouster-bridge/internal/lidar/storage/sqlite"
	"github.com/banshee-data/ouster-bridge/internal/monitoring"
	"github.com/banshee-data/ouster-bridge/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a driver config JSON file (defaults apply when empty)")
	revolutions = flag.Int("revolutions", 10, "Number of revolutions to convert (0 runs until interrupted)")
	recordDir   = flag.String("record", "", "Directory to record converted messages into")
	dbPath      = flag.String("db", "", "SQLite database for per-revolution statistics")
	plotPath    = flag.String("plot", "", "Write the latest-stamped scan as a .png, .svg or .pdf plot")
	seed        = flag.Int64("seed", 1, "Seed for the synthetic source")
	debug       = flag.Bool("debug", false, "Log per-revolution diagnostics to stderr")
	trace       = flag.Bool("trace", false, "Log every published message to stderr")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

type options struct {
	ConfigPath  string
	Revolutions int
	RecordDir   string
	DBPath      string
	PlotPath    string
	Seed        int64
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *revolutions < 0 {
		log.Fatal("-revolutions must be non-negative")
	}
	var diag, traceW io.Writer
	if *debug {
		monitoring.SetDebugLogger(os.Stderr)
		diag = os.Stderr
	}
	if *trace {
		traceW = os.Stderr
	}
	pipeline.SetLogWriters(os.Stderr, diag, traceW)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := run(ctx, options{
		ConfigPath:  *configPath,
		Revolutions: *revolutions,
		RecordDir:   *recordDir,
		DBPath:      *dbPath,
		PlotPath:    *plotPath,
		Seed:        *seed,
	})
	if err != nil {
		log.Fatalf("ouster-convert: %v", err)
	}
	log.Printf("converted %d revolutions: %d cloud bytes, %d scan points, %d errors",
		stats.Revolutions, stats.CloudBytes, stats.ScanPoints, stats.Errors)
}

// lastScan keeps the latest-stamped scan. Workers may publish revolutions
// out of order, so arrival order is not used.
type lastScan struct {
	mu   sync.Mutex
	scan *msgs.LaserScan
}

func (l *lastScan) Publish(_ context.Context, topic string, msg msgs.Message) error {
	if scan, ok := msg.(*msgs.LaserScan); ok && topic == pipeline.TopicScan {
		l.mu.Lock()
		if l.scan == nil || scan.Header.Stamp.Duration() >= l.scan.Header.Stamp.Duration() {
			l.scan = scan
		}
		l.mu.Unlock()
	}
	return nil
}

func (l *lastScan) get() *msgs.LaserScan {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scan
}

func loadConfig(path string) (*config.DriverConfig, error) {
	if path == "" {
		return config.DefaultDriverConfig(), nil
	}
	return config.LoadDriverConfig(path)
}

func run(ctx context.Context, opts options) (pipeline.Stats, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return pipeline.Stats{}, err
	}
	md := cfg.Metadata()

	src := pipeline.NewSyntheticSource(cfg.GetLidarMode(), cfg.GetNumLasers(), opts.Seed)
	src.PaddingColumns = cfg.GetCapturePaddingColumns()
	src.Realtime = cfg.GetRealtime()
	src.Limit = opts.Revolutions

	last := &lastScan{}
	sinks := pipeline.MultiSink{last}
	sessionID := uuid.NewString()

	var rec *recorder.Recorder
	if opts.RecordDir != "" {
		rec, err = recorder.NewRecorder(opts.RecordDir, md.LidarIP)
		if err != nil {
			return pipeline.Stats{}, err
		}
		// Close is idempotent; this finalises the recording on early returns.
		defer rec.Close()
		sessionID = rec.SessionID()
		sinks = append(sinks, rec)
		monitoring.Logf("recording session %s to %s", sessionID, rec.Path())
	}

	var statsSink pipeline.StatsSink
	if opts.DBPath != "" {
		store, err := sqlite.Open(opts.DBPath)
		if err != nil {
			return pipeline.Stats{}, err
		}
		defer store.Close()
		if err := store.InsertMetadata(sessionID, md); err != nil {
			return pipeline.Stats{}, err
		}
		statsSink = store
	}

	driver := pipeline.NewDriver(pipeline.DriverOptions{
		SessionID:             sessionID,
		Metadata:              md,
		LaserFrame:            cfg.GetLaserFrame(),
		IMUFrame:              cfg.GetIMUFrame(),
		SensorFrame:           cfg.GetSensorFrame(),
		Ring:                  uint8(cfg.GetRingToUse()),
		Workers:               cfg.GetWorkers(),
		PublishPlaceholderIMU: cfg.GetPublishPlaceholderIMU(),
	}, sinks, statsSink)

	runErr := driver.Run(ctx, src)
	if errors.Is(runErr, context.Canceled) {
		monitoring.Logf("interrupted, shutting down")
		runErr = nil
	}

	if rec != nil {
		if err := rec.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	if runErr != nil {
		return driver.Stats(), runErr
	}

	if opts.PlotPath != "" {
		scan := last.get()
		if scan == nil {
			return driver.Stats(), fmt.Errorf("no scan to plot")
		}
		if err := scanplot.Save(scan, opts.PlotPath); err != nil {
			return driver.Stats(), err
		}
	}
	return driver.Stats(), nil
}
