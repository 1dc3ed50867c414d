package lunarlander

import (
	"image"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
)

// worldToPixel converts Box2D coordinates to image coordinates
func worldToPixel(x, y float64) (float64, float64) {
	return Scale * x, ViewportH - Scale*y
}

// Image draws the current state of the world onto a ViewportW ⨉
// ViewportH image
func (l *LunarLander) Image() image.Image {
	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetRGB255(30, 30, 30)
	dc.Clear()
	if l.moon == nil {
		return dc.Image()
	}

	// Moon
	dc.MoveTo(worldToPixel(0, 0))
	for _, p := range l.terrain {
		dc.LineTo(worldToPixel(p[0], p[1]))
	}
	dc.LineTo(worldToPixel(ViewportW/Scale, 0))
	dc.ClosePath()
	dc.SetRGB255(255, 255, 255)
	dc.Fill()

	// Helipad flags
	for _, x := range []float64{l.helipadX1, l.helipadX2} {
		px, py := worldToPixel(x, l.helipadY)
		dc.SetRGB255(255, 166, 0)
		dc.SetLineWidth(1)
		dc.DrawLine(px, py, px, py-50)
		dc.Stroke()
		dc.DrawRectangle(px, py-50, 25, 10)
		dc.Fill()
	}

	dc.SetRGB255(128, 102, 230)
	for _, b := range append([]*box2d.B2Body{l.lander}, l.legs...) {
		drawBody(dc, b)
	}
	return dc.Image()
}

// drawBody fills the polygon fixtures of b
func drawBody(dc *gg.Context, b *box2d.B2Body) {
	for fix := b.GetFixtureList(); fix != nil; fix = fix.M_next {
		shape, ok := fix.M_shape.(*box2d.B2PolygonShape)
		if !ok {
			continue
		}

		dc.NewSubPath()
		for i := 0; i < shape.M_count; i++ {
			v := box2d.B2TransformVec2Mul(b.GetTransform(), shape.M_vertices[i])
			dc.LineTo(worldToPixel(v.X, v.Y))
		}
		dc.ClosePath()
		dc.Fill()
	}
}
