// Package initwfn implements configurations of weight initialization
// algorithms so that they can be described in YAML configuration files
// and created as Gorgonia InitWFns driven by a seeded source.
package initwfn

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Type describes different types of InitWFn that are available
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "glorot_uniform"
	GlorotN  Type = "glorot_normal"
	HeU      Type = "he_uniform"
	HeN      Type = "he_normal"
	Gaussian Type = "gaussian"
	Uniform  Type = "uniform"
	Constant Type = "constant"
	Zeroes   Type = "zeroes"
	Ones     Type = "ones"
)

// Config describes a weight initialization algorithm. Fields which do not
// apply to the chosen Type are ignored.
type Config struct {
	Type Type    `yaml:"type"`
	Gain float64 `yaml:"gain"`

	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
	Low    float64 `yaml:"low"`
	High   float64 `yaml:"high"`
	Value  float64 `yaml:"value"`
}

// Default returns the default weight initializer: Glorot uniform with
// a gain of 1
func Default() Config {
	return Config{Type: GlorotU, Gain: 1.0}
}

// NewGlorotU returns the configuration of a Glorot uniform initializer
func NewGlorotU(gain float64) Config { return Config{Type: GlorotU, Gain: gain} }

// NewHeN returns the configuration of a He normal initializer
func NewHeN(gain float64) Config { return Config{Type: HeN, Gain: gain} }

// NewGaussian returns the configuration of a gaussian weight initializer
func NewGaussian(mean, stddev float64) Config {
	return Config{Type: Gaussian, Mean: mean, StdDev: stddev}
}

// NewUniform returns the configuration of a uniform weight initializer
func NewUniform(low, high float64) Config {
	return Config{Type: Uniform, Low: low, High: high}
}

// NewConstant returns the configuration of a weight initializer which
// sets all weights to value
func NewConstant(value float64) Config {
	return Config{Type: Constant, Value: value}
}

// Validate checks that the configuration describes a valid initializer
func (c Config) Validate() error {
	switch c.normalizedType() {
	case GlorotU, GlorotN, HeU, HeN:
		if c.Gain <= 0 {
			return fmt.Errorf("%v: gain must be positive, got %v", c.Type,
				c.Gain)
		}
	case Gaussian:
		if c.StdDev <= 0 {
			return fmt.Errorf("gaussian: stddev must be positive, got %v",
				c.StdDev)
		}
	case Uniform:
		if c.High <= c.Low {
			return fmt.Errorf("uniform: high (%v) must exceed low (%v)",
				c.High, c.Low)
		}
	case Constant, Zeroes, Ones:
	default:
		return fmt.Errorf("invalid weight initializer type: %q", c.Type)
	}
	return nil
}

// Create returns the Gorgonia InitWFn that the Config describes. All
// random draws come from a source seeded with seed, so that two
// initializers created with the same seed produce the same weights.
func (c Config) Create(seed uint64) (G.InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	src := rand.NewSource(seed)

	switch c.normalizedType() {
	case Zeroes:
		return G.Zeroes(), nil
	case Ones:
		return G.Ones(), nil
	case Constant:
		return constant(c.Value), nil
	case Gaussian:
		return sampled(func([]int) distuv.Rander {
			return distuv.Normal{Mu: c.Mean, Sigma: c.StdDev, Src: src}
		}), nil
	case Uniform:
		return sampled(func([]int) distuv.Rander {
			return distuv.Uniform{Min: c.Low, Max: c.High, Src: src}
		}), nil
	case GlorotU:
		return sampled(func(s []int) distuv.Rander {
			in, out := Fans(s)
			limit := c.Gain * math.Sqrt(6.0/float64(in+out))
			return distuv.Uniform{Min: -limit, Max: limit, Src: src}
		}), nil
	case GlorotN:
		return sampled(func(s []int) distuv.Rander {
			in, out := Fans(s)
			std := c.Gain * math.Sqrt(2.0/float64(in+out))
			return distuv.Normal{Mu: 0, Sigma: std, Src: src}
		}), nil
	case HeU:
		return sampled(func(s []int) distuv.Rander {
			in, _ := Fans(s)
			limit := c.Gain * math.Sqrt(3.0/float64(in))
			return distuv.Uniform{Min: -limit, Max: limit, Src: src}
		}), nil
	default:
		return sampled(func(s []int) distuv.Rander {
			in, _ := Fans(s)
			std := c.Gain / math.Sqrt(float64(in))
			return distuv.Normal{Mu: 0, Sigma: std, Src: src}
		}), nil
	}
}

// String implements the fmt.Stringer interface
func (c Config) String() string {
	switch c.normalizedType() {
	case Gaussian:
		return fmt.Sprintf("gaussian(%v, %v)", c.Mean, c.StdDev)
	case Uniform:
		return fmt.Sprintf("uniform[%v, %v)", c.Low, c.High)
	case Constant:
		return fmt.Sprintf("constant(%v)", c.Value)
	case Zeroes, Ones:
		return string(c.normalizedType())
	default:
		return fmt.Sprintf("%v(gain=%v)", c.normalizedType(), c.Gain)
	}
}

// Fans returns the fan in and fan out of a weight tensor of the given
// shape. Matrices are (in, out); higher rank tensors are convolution
// filters of shape (out, in, k1, k2, ...).
func Fans(shape []int) (in, out int) {
	switch len(shape) {
	case 0:
		return 1, 1
	case 1:
		return shape[0], shape[0]
	case 2:
		return shape[0], shape[1]
	}

	receptive := 1
	for _, k := range shape[2:] {
		receptive *= k
	}
	return shape[1] * receptive, shape[0] * receptive
}

// sampled returns an InitWFn which draws each weight from the
// distribution constructed for the requested shape
func sampled(dist func(shape []int) distuv.Rander) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		d := dist(s)
		size := tensor.Shape(s).TotalSize()

		switch dt {
		case tensor.Float32:
			v := make([]float32, size)
			for i := range v {
				v[i] = float32(d.Rand())
			}
			return v
		case tensor.Float64:
			v := make([]float64, size)
			for i := range v {
				v[i] = d.Rand()
			}
			return v
		default:
			panic(fmt.Sprintf("weight initialization: dtype %v not "+
				"supported", dt))
		}
	}
}

// constant returns an InitWFn which sets all weights to value
func constant(value float64) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		size := tensor.Shape(s).TotalSize()
		switch dt {
		case tensor.Float32:
			v := make([]float32, size)
			for i := range v {
				v[i] = float32(value)
			}
			return v
		case tensor.Float64:
			v := make([]float64, size)
			for i := range v {
				v[i] = value
			}
			return v
		default:
			panic(fmt.Sprintf("weight initialization: dtype %v not "+
				"supported", dt))
		}
	}
}

func (c Config) normalizedType() Type {
	return Type(strings.ToLower(string(c.Type)))
}
