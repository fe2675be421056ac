package export

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestTrajectoryToSVG(t *testing.T) {
	pts := Series([]float64{0, 1, 2}, []float64{0, 1, 0})
	svg := TrajectoryToSVG(pts, 120, 100, "#00ff00")

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("malformed svg:\n%s", svg)
	}
	if !strings.Contains(svg, `width="120" height="100"`) {
		t.Error("expected requested size")
	}
	if strings.Count(svg, " L") != 2 {
		t.Errorf("expected 2 line segments, got %d", strings.Count(svg, " L"))
	}
	// x spans [0, 2] padded to [-0.2, 2.2]; the first point sits at 0.2/2.4 of the width
	if !strings.Contains(svg, "d=\"M10.0,") {
		t.Errorf("unexpected first point:\n%s", svg)
	}
}

func TestTrajectorySkipsNonFinite(t *testing.T) {
	pts := []Point{{0, 0}, {math.NaN(), 1}, {1, math.Inf(1)}}
	if svg := TrajectoryToSVG(pts, 10, 10, "red"); svg != "" {
		t.Errorf("expected empty svg for a single finite point, got %s", svg)
	}

	var buf bytes.Buffer
	if err := WriteTrajectory(&buf, pts, 10, 10, "red"); err == nil {
		t.Error("expected error")
	}
	if err := WriteTrajectory(&buf, append(pts, Point{1, 1}), 10, 10, "red"); err != nil {
		t.Errorf("write failed: %v", err)
	}
}

func TestSeries(t *testing.T) {
	pts := Series([]float64{1, 2, 3}, []float64{4, 5})
	if len(pts) != 2 || pts[1] != (Point{2, 5}) {
		t.Errorf("unexpected series %v", pts)
	}
}
