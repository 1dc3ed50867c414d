package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is
type SpecType int

const (
	Action SpecType = iota
	Observation
)

func (s SpecType) String() string {
	if s == Action {
		return "Action"
	}
	return "Observation"
}

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of the actions or observations of an environment.
// Bounds are flattened in row major order.
type Spec struct {
	Type       SpecType
	Shape      []int
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
	Cardinality
}

// NewActionSpec returns the specification of a discrete action set of
// numActions actions, enumerated from 0
func NewActionSpec(numActions int) Spec {
	if numActions < 1 {
		panic(fmt.Sprintf("need at least one action, have %d", numActions))
	}
	return Spec{
		Type:        Action,
		Shape:       []int{1},
		LowerBound:  mat.NewVecDense(1, []float64{0}),
		UpperBound:  mat.NewVecDense(1, []float64{float64(numActions - 1)}),
		Cardinality: Discrete,
	}
}

// NewObservationSpec returns the specification of continuous
// observations of the given shape. Nil bounds are left unset.
func NewObservationSpec(shape []int, lowerBound,
	upperBound *mat.VecDense) Spec {
	s := Spec{
		Type:        Observation,
		Shape:       append([]int{}, shape...),
		LowerBound:  lowerBound,
		UpperBound:  upperBound,
		Cardinality: Continuous,
	}
	if lowerBound != nil && lowerBound.Len() != s.Len() {
		panic(fmt.Sprintf("shape %v must match lower bounds length %v",
			shape, lowerBound.Len()))
	}
	if upperBound != nil && upperBound.Len() != s.Len() {
		panic(fmt.Sprintf("shape %v must match upper bounds length %v",
			shape, upperBound.Len()))
	}
	return s
}

// Rank returns the number of dimensions of the specified values
func (s Spec) Rank() int {
	return len(s.Shape)
}

// Len returns the number of values described by the Spec
func (s Spec) Len() int {
	n := 1
	for _, dim := range s.Shape {
		n *= dim
	}
	return n
}

// IsImage returns whether the Spec describes image observations
func (s Spec) IsImage() bool {
	return s.Type == Observation && s.Rank() > 1
}

// NumActions returns the number of actions described by a discrete
// action Spec, or 0 if the Spec does not describe discrete actions
func (s Spec) NumActions() int {
	if s.Type != Action || s.Cardinality != Discrete || s.UpperBound == nil {
		return 0
	}
	return int(s.UpperBound.AtVec(0)) + 1
}

func (s Spec) String() string {
	return fmt.Sprintf("%v(%v, %v)", s.Type, s.Cardinality, s.Shape)
}
