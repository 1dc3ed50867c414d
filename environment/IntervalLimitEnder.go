package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature in a feature vector leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
}

// NewIntervalLimit creates and returns a new interval limit. Feature
// obsIndices[i] must stay within limits[i].
func NewIntervalLimit(limits []r1.Interval, obsIndices []int) *IntervalLimit {
	if len(limits) != len(obsIndices) {
		panic(fmt.Sprintf("limits (%d) should have same length as "+
			"observation indices (%d)", len(limits), len(obsIndices)))
	}

	return &IntervalLimit{limits, obsIndices}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that its StepType
// field is timestep.Last.
func (i *IntervalLimit) End(t *ts.TimeStep) bool {
	for index, featureIndex := range i.indices {
		interval := i.intervals[index]
		value := t.Observation.AtVec(featureIndex)

		if value > interval.Max || value < interval.Min {
			t.StepType = ts.Last
			return true
		}
	}
	return false
}
