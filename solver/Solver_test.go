package solver

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	G "gorgonia.org/gorgonia"
)

func TestCreate(t *testing.T) {
	configs := []Config{
		Default(),
		NewAdam(1e-3, 1e-8, 0.9, 0.999),
		NewRMSProp(1e-3, 1e-6, 0.9),
		NewVanilla(0.1, 1.0),
		{Type: "ADAM", StepSize: 0.01, WeightDecay: 1e-4},
	}
	for _, c := range configs {
		s, err := c.Create(32)
		require.NoError(t, err, "config %+v", c)
		require.NotNil(t, s)
	}

	s, err := NewAdam(1e-3, 1e-8, 0.9, 0.999).Create(1)
	require.NoError(t, err)
	require.IsType(t, &G.AdamSolver{}, s)
}

func TestValidate(t *testing.T) {
	require.Error(t, Config{Type: "sgd", StepSize: 1}.Validate())
	require.Error(t, Config{Type: Adam, StepSize: 0}.Validate())
	require.Error(t, Config{Type: Adam, StepSize: 1, WeightDecay: -1}.Validate())

	_, err := Config{Type: Vanilla}.Create(1)
	require.Error(t, err)
}

func TestUnmarshalYAML(t *testing.T) {
	data := []byte("type: rmsprop\nstep_size: 0.00025\nrho: 0.95\n" +
		"weight_decay: 0.001\n")

	var c Config
	require.NoError(t, yaml.Unmarshal(data, &c))
	require.Equal(t, RMSProp, c.Type)
	require.Equal(t, 0.00025, c.StepSize)
	require.Equal(t, 0.001, c.WeightDecay)
	require.NoError(t, c.Validate())
}
