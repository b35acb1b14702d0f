// Command ouster-replay summarises a recording made by ouster-convert and
// can plot one of its scans.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"time"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
	"github.com/banshee-data/ouster-bridge/internal/lidar/recorder"
	"github.com/banshee-data/ouster-bridge/internal/lidar/scanplot"
)

var (
	recording = flag.String("recording", "", "Recording directory to read")
	plotPath  = flag.String("plot", "", "Write the selected scan as a .png, .svg or .pdf plot")
	scanIndex = flag.Int("scan", -1, "Scan to plot, counted from 0 (-1 plots the last)")
)

func main() {
	flag.Parse()
	if *recording == "" {
		log.Fatal("-recording is required")
	}
	if err := run(os.Stdout, *recording, *plotPath, *scanIndex); err != nil {
		log.Fatalf("ouster-replay: %v", err)
	}
}

func run(w io.Writer, path, plot string, scanIdx int) error {
	rp, err := recorder.NewReplayer(path)
	if err != nil {
		return err
	}

	h := rp.Header()
	fmt.Fprintf(w, "session   %s\n", h.SessionID)
	fmt.Fprintf(w, "sensor    %s\n", h.SensorID)
	fmt.Fprintf(w, "format    %s (written by %s)\n", h.Version, h.SoftwareVersion)
	fmt.Fprintf(w, "messages  %d\n", h.TotalMessages)
	if h.EndNs > h.StartNs {
		fmt.Fprintf(w, "span      %v\n", time.Duration(h.EndNs-h.StartNs))
	}
	topics := make([]string, 0, len(h.Topics))
	for t := range h.Topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	for _, t := range topics {
		fmt.Fprintf(w, "  %-10s %d\n", t, h.Topics[t])
	}

	if plot == "" {
		return nil
	}

	var (
		selected *msgs.LaserScan
		seen     int
	)
	for {
		env, err := rp.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if env.Type != msgs.LaserScanTypeName {
			continue
		}
		if scanIdx >= 0 && seen != scanIdx {
			seen++
			continue
		}
		msg, err := env.Decode()
		if err != nil {
			return err
		}
		selected = msg.(*msgs.LaserScan)
		seen++
		if scanIdx >= 0 {
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("recording has no scan %d (%d scans)", scanIdx, seen)
	}
	if err := scanplot.Save(selected, plot); err != nil {
		return err
	}
	fmt.Fprintf(w, "plotted scan with %d returns to %s\n", len(selected.Ranges), plot)
	return nil
}
