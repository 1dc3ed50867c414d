// Package tracker implements Trackers, which record per-episode data
// during an experiment and persist it when the experiment ends
package tracker

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// Episode summarizes a single finished (or truncated) episode
type Episode struct {
	Episode int     // Episode index, starting at 1
	Steps   int     // Action decisions taken in the episode
	Return  float64 // Undiscounted, unshaped return
	Epsilon float64 // Exploration rate at the end of the episode
	Loss    float64 // Mean loss over the learning steps of the episode
	Learns  int     // Number of learning steps in the episode
	Phase   string
}

// Interface Tracker keeps track of experiment data and saves the data
// once the experiment has finished
type Tracker interface {
	Track(Episode) error
	Close() error
}

// LoadData loads and returns the data saved by a Return Tracker
func LoadData(filename string) ([]float64, error) {
	// Open file
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "loadData: could not open data file")
	}
	defer file.Close()

	// Decode the data
	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "loadData: could not decode data")
	}

	return data, nil
}
