package initwfn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorgonia.org/tensor"
)

func TestSeededDeterminism(t *testing.T) {
	for _, c := range []Config{
		NewGlorotU(1.0),
		{Type: GlorotN, Gain: 1.0},
		{Type: HeU, Gain: math.Sqrt2},
		NewHeN(math.Sqrt2),
		NewGaussian(0, 0.1),
		NewUniform(-1, 1),
	} {
		f1, err := c.Create(42)
		require.NoError(t, err)
		f2, err := c.Create(42)
		require.NoError(t, err)
		f3, err := c.Create(43)
		require.NoError(t, err)

		w1 := f1(tensor.Float64, 10, 20).([]float64)
		w2 := f2(tensor.Float64, 10, 20).([]float64)
		w3 := f3(tensor.Float64, 10, 20).([]float64)

		require.Len(t, w1, 200)
		require.Equal(t, w1, w2, c.String())
		require.NotEqual(t, w1, w3, c.String())
	}
}

func TestGlorotUBounds(t *testing.T) {
	f, err := NewGlorotU(1.0).Create(1)
	require.NoError(t, err)

	limit := math.Sqrt(6.0 / 30.0)
	for _, w := range f(tensor.Float64, 10, 20).([]float64) {
		require.LessOrEqual(t, math.Abs(w), limit)
	}
}

func TestConstantAndFloat32(t *testing.T) {
	f, err := NewConstant(0.5).Create(0)
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, 0.5, 0.5}, f(tensor.Float32, 3))

	z, err := Config{Type: Zeroes}.Create(0)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, z(tensor.Float64, 2))
}

func TestFans(t *testing.T) {
	in, out := Fans([]int{4, 8})
	require.Equal(t, 4, in)
	require.Equal(t, 8, out)

	// Convolution filter of 32 output channels over 4 input channels
	in, out = Fans([]int{32, 4, 8, 8})
	require.Equal(t, 4*64, in)
	require.Equal(t, 32*64, out)
}

func TestValidate(t *testing.T) {
	require.Error(t, Config{Type: "orthogonal"}.Validate())
	require.Error(t, Config{Type: GlorotU}.Validate())
	require.Error(t, NewGaussian(0, 0).Validate())
	require.Error(t, NewUniform(1, 1).Validate())

	_, err := Config{Type: HeN}.Create(0)
	require.Error(t, err)
}

func TestUnmarshalYAML(t *testing.T) {
	var c Config
	require.NoError(t, yaml.Unmarshal([]byte("type: He_Normal\ngain: 1.5\n"),
		&c))
	require.NoError(t, c.Validate())
	require.Equal(t, "he_normal(gain=1.5)", c.String())
}
