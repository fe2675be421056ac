// Package export renders trajectories as SVG.
package export

import (
	"fmt"
	"io"
	"math"
	"strings"
)

type Point struct{ X, Y float64 }

// Series pairs xs with ys point by point.
func Series(xs, ys []float64) []Point {
	n := min(len(xs), len(ys))
	pts := make([]Point, n)
	for i := 0; i < n; i++ {
		pts[i] = Point{xs[i], ys[i]}
	}
	return pts
}

// TrajectoryToSVG draws points as a single path scaled to width x height
// with 10% padding. Non-finite points are skipped. Fewer than two finite
// points yield an empty string.
func TrajectoryToSVG(points []Point, width, height int, strokeColor string) string {
	finite := make([]Point, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0) {
			finite = append(finite, p)
		}
	}
	if len(finite) < 2 {
		return ""
	}

	minX, maxX := finite[0].X, finite[0].X
	minY, maxY := finite[0].Y, finite[0].Y
	for _, p := range finite {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range finite {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

func WriteTrajectory(w io.Writer, points []Point, width, height int, strokeColor string) error {
	svg := TrajectoryToSVG(points, width, height, strokeColor)
	if svg == "" {
		return fmt.Errorf("export: need at least 2 finite points, got %d", len(points))
	}
	_, err := io.WriteString(w, svg)
	return err
}
