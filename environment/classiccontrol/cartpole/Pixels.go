package cartpole

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/mat"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// Size of rendered frames
const (
	Height   = 64
	Width    = 96
	Channels = 3
)

// Pixels is a Cartpole environment whose observations are RGB frames of
// the cart and pole of shape (Height, Width, Channels), with values in
// [0, 255] laid out in row major order
type Pixels struct {
	*Cartpole
	dc *gg.Context
}

// NewPixels returns a new pixel-observation Cartpole environment
func NewPixels(seed uint64) *Pixels {
	return &Pixels{
		Cartpole: NewDefault(seed),
		dc:       gg.NewContext(Width, Height),
	}
}

// Reset resets the environment and returns the first rendered frame
func (p *Pixels) Reset() (ts.TimeStep, error) {
	step, err := p.Cartpole.Reset()
	if err != nil {
		return step, err
	}
	step.Observation = p.frame(step.Observation)
	return step, nil
}

// Step takes one environmental step and returns the next rendered frame
func (p *Pixels) Step(a int) (ts.TimeStep, bool, error) {
	step, done, err := p.Cartpole.Step(a)
	if err != nil {
		return step, done, err
	}
	step.Observation = p.frame(step.Observation)
	return step, done, nil
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Pixels) ObservationSpec() env.Spec {
	n := Height * Width * Channels
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = 255
	}
	return env.NewObservationSpec([]int{Height, Width, Channels},
		mat.NewVecDense(n, nil), mat.NewVecDense(n, upper))
}

// Image returns the frame for the current state
func (p *Pixels) Image() image.Image {
	p.draw(p.lastStep.Observation)
	return p.dc.Image()
}

// frame renders a cartpole state into an RGB observation
func (p *Pixels) frame(state *mat.VecDense) *mat.VecDense {
	p.draw(state)
	img := p.dc.Image()

	data := make([]float64, 0, Height*Width*Channels)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			data = append(data, float64(c.R), float64(c.G), float64(c.B))
		}
	}
	return mat.NewVecDense(len(data), data)
}

// draw draws the cart and pole of state onto the drawing context
func (p *Pixels) draw(state *mat.VecDense) {
	dc := p.dc
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// World to screen scale, such that the track fits the frame width
	worldWidth := 2 * FailPosition
	scale := float64(Width) / worldWidth
	trackY := float64(Height) * 0.75

	// Track
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(0, trackY, Width, trackY)
	dc.Stroke()

	// Cart
	cartX := state.AtVec(0)*scale + Width/2.0
	cartW, cartH := 12.0, 6.0
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawRectangle(cartX-cartW/2, trackY-cartH/2, cartW, cartH)
	dc.Fill()

	// Pole, with angle measured from vertical
	poleLen := scale * 2 * HalfPoleLength
	dc.Push()
	dc.Translate(cartX, trackY-cartH/2)
	dc.Rotate(state.AtVec(2))
	dc.SetRGB(0.8, 0.6, 0.4)
	dc.SetLineWidth(2)
	dc.DrawLine(0, 0, 0, -poleLen)
	dc.Stroke()
	dc.Pop()

	// Axle
	dc.SetRGB(0.5, 0.5, 0.8)
	dc.DrawCircle(cartX, trackY-cartH/2, 1.5)
	dc.Fill()
}
