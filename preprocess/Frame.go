// Package preprocess converts raw environment observations into the
// states consumed by an agent. Image observations are converted to
// 84x84 grayscale frames and stacked, while feature vectors are passed
// through unchanged.
package preprocess

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Size is the height and width of preprocessed frames
const Size = 84

// FrameLen is the number of values in a single preprocessed frame
const FrameLen = Size * Size

// Frame converts an image observation of the given shape into a
// grayscale Size x Size frame with values in [0, 1].
//
// The observation must be laid out in row major order with shape
// (H, W) or (H, W, C), where C is 1, 3, or 4. Pixel values are
// expected in [0, 255].
func Frame(obs []float64, shape []int) ([]float64, error) {
	src, err := luminance(obs, shape)
	if err != nil {
		return nil, err
	}

	dst := image.NewGray(image.Rect(0, 0, Size, Size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	frame := make([]float64, FrameLen)
	for i, p := range dst.Pix {
		frame[i] = float64(p) / 255.0
	}
	return frame, nil
}

// luminance converts an observation into a grayscale image using the
// ITU-R BT.601 luma weights
func luminance(obs []float64, shape []int) (*image.Gray, error) {
	var h, w, c int
	switch len(shape) {
	case 2:
		h, w, c = shape[0], shape[1], 1
	case 3:
		h, w, c = shape[0], shape[1], shape[2]
	default:
		return nil, errors.Errorf("frame: image observations must have "+
			"rank 2 or 3 (have %d)", len(shape))
	}

	if h < 1 || w < 1 {
		return nil, errors.Errorf("frame: invalid image shape %v", shape)
	}
	if c != 1 && c != 3 && c != 4 {
		return nil, errors.Errorf("frame: unsupported number of channels "+
			"%d", c)
	}
	if len(obs) != h*w*c {
		return nil, errors.Errorf("frame: observation does not match "+
			"shape %v\n\twant(%d)\n\thave(%d)", shape, h*w*c, len(obs))
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * c
			var l float64
			if c == 1 {
				l = obs[i]
			} else {
				l = 0.299*obs[i] + 0.587*obs[i+1] + 0.114*obs[i+2]
			}
			img.Pix[y*img.Stride+x] = uint8(math.Round(
				math.Max(0, math.Min(255, l))))
		}
	}
	return img, nil
}
