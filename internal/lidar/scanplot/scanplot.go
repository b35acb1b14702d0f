// Package scanplot renders a LaserScan as a top-down scatter plot for
// diagnostics.
package scanplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/ouster-bridge/internal/lidar/msgs"
)

// ErrUnsupportedFormat is returned for output paths that are not .png,
// .svg or .pdf.
var ErrUnsupportedFormat = errors.New("unsupported plot format")

var formats = map[string]bool{".png": true, ".svg": true, ".pdf": true}

// Points converts the scan to Cartesian coordinates in metres. Returns
// outside [RangeMin, RangeMax] are skipped.
func Points(scan *msgs.LaserScan) plotter.XYs {
	pts := make(plotter.XYs, 0, len(scan.Ranges))
	for i, r := range scan.Ranges {
		rf := float64(r)
		if math.IsNaN(rf) || r < scan.RangeMin || r > scan.RangeMax {
			continue
		}
		theta := float64(scan.AngleMin) + float64(i)*float64(scan.AngleIncrement)
		pts = append(pts, plotter.XY{X: rf * math.Cos(theta), Y: rf * math.Sin(theta)})
	}
	return pts
}

// Save writes the scan plot to path. The format follows the extension.
func Save(scan *msgs.LaserScan, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !formats[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Scan %s @ %d.%09d (%d returns)",
		scan.Header.FrameID, scan.Header.Stamp.Sec, scan.Header.Stamp.Nsec, len(scan.Ranges))
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	if pts := Points(scan); len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("failed to create scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		sc.GlyphStyle.Radius = vg.Points(1)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}

	origin, err := plotter.NewScatter(plotter.XYs{{X: 0, Y: 0}})
	if err != nil {
		return fmt.Errorf("failed to create origin marker: %w", err)
	}
	origin.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	origin.GlyphStyle.Radius = vg.Points(3)
	origin.GlyphStyle.Shape = draw.CrossGlyph{}
	p.Add(origin)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save scan plot: %w", err)
	}
	return nil
}
