package sim

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r2"
)

// Colours used when rendering
var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	goalShade  = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	pathShade  = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	robotShade = color.RGBA{R: 40, G: 90, B: 200, A: 255}
)

// Render draws the trajectories, the goals and the final poses of all
// robots and saves the image as a PNG of size x size pixels at path
func (w *World) Render(path string, size int) error {
	if size < 1 {
		return fmt.Errorf("render: invalid image size %v", size)
	}
	min, max := w.bounds()
	span := math.Max(max.X-min.X, max.Y-min.Y)
	scale := float64(size) / span

	// toPixel maps world coordinates to pixels, with y pointing up
	toPixel := func(p r2.Vec) (float64, float64) {
		return (p.X - min.X) * scale, float64(size) - (p.Y-min.Y)*scale
	}

	dc := gg.NewContext(size, size)
	dc.SetColor(background)
	dc.Clear()

	dc.SetLineWidth(1.5)
	for _, r := range w.robots {
		dc.ClearPath()
		for _, p := range r.Trajectory() {
			x, y := toPixel(p)
			dc.LineTo(x, y)
		}
		dc.SetColor(pathShade)
		dc.Stroke()

		gx, gy := toPixel(r.Goal())
		dc.DrawCircle(gx, gy, r.config.GoalTolerance*scale)
		dc.SetColor(goalShade)
		dc.Stroke()

		pose := r.Pose()
		x, y := toPixel(pose.Position)
		dc.DrawCircle(x, y, r.Radius()*scale)
		dc.SetColor(robotShade)
		dc.Fill()

		// Heading
		hx, hy := toPixel(r2.Vec{
			X: pose.Position.X + r.Radius()*math.Cos(pose.Orientation),
			Y: pose.Position.Y + r.Radius()*math.Sin(pose.Orientation),
		})
		dc.DrawLine(x, y, hx, hy)
		dc.SetColor(background)
		dc.Stroke()
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("render: %v", err)
	}
	return nil
}

// bounds returns the corners of the box containing all trajectories and
// goals, with a margin
func (w *World) bounds() (r2.Vec, r2.Vec) {
	min := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	max := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	extend := func(p r2.Vec, margin float64) {
		min.X = math.Min(min.X, p.X-margin)
		min.Y = math.Min(min.Y, p.Y-margin)
		max.X = math.Max(max.X, p.X+margin)
		max.Y = math.Max(max.Y, p.Y+margin)
	}
	for _, r := range w.robots {
		for _, p := range r.Trajectory() {
			extend(p, r.Radius())
		}
		extend(r.Goal(), r.config.GoalTolerance)
	}
	if math.IsInf(min.X, 0) {
		return r2.Vec{X: -1, Y: -1}, r2.Vec{X: 1, Y: 1}
	}
	return min, max
}
