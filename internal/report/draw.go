package report

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawFilledCircle(img *image.RGBA, cx, cy, r int, col color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				px := cx + dx
				py := cy + dy
				if image.Pt(px, py).In(img.Bounds()) {
					img.Set(px, py, col)
				}
			}
		}
	}
}

func drawCircleThin(img *image.RGBA, cx, cy, r int, col color.Color) {
	x := r
	y := 0
	err := 1 - r
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			px := cx + p[0]
			py := cy + p[1]
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2 * (y - x + 1)
		}
	}
}

// drawDashedCircle traces the circle in short parametric arcs with gaps,
// so staged positions read differently from committed markers.
func drawDashedCircle(img *image.RGBA, cx, cy, r int, col color.Color, thick int) {
	steps := int(math.Ceil(2 * math.Pi * float64(r)))
	if steps < 16 {
		steps = 16
	}
	for i := 0; i < steps; i++ {
		if (i/4)%2 == 1 {
			continue
		}
		angle := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Cos(angle)*float64(r))
		y := cy + int(math.Sin(angle)*float64(r))
		setThickPixel(img, x, y, thick, col)
	}
}

// drawLabel paints text over a filled backdrop so annotations stay
// readable on busy photos. The anchor is the left edge of the baseline.
func drawLabel(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(text).Ceil()
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()
	pad := 3
	backdrop := image.Rect(x-pad, y-ascent-pad, x+w+pad, y+pad+2)
	for py := backdrop.Min.Y; py < backdrop.Max.Y; py++ {
		for px := backdrop.Min.X; px < backdrop.Max.X; px++ {
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, color.RGBA{0, 0, 0, 200})
			}
		}
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func drawString(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func drawStringCentered(img *image.RGBA, cx, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	w := d.MeasureString(text).Ceil()
	d.Dot = fixed.P(cx-w/2, y)
	d.DrawString(text)
}
