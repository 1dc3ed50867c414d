package tracker

import (
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Return tracks and saves the episodic return in an experiment. The
// returns are gob encoded as a []float64 when the Tracker is closed.
type Return struct {
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track caches the return of an episode
func (r *Return) Track(e Episode) error {
	r.episodeReturns = append(r.episodeReturns, e.Return)
	return nil
}

// Returns returns the episodic returns tracked so far
func (r *Return) Returns() []float64 {
	return append([]float64{}, r.episodeReturns...)
}

// Close saves the data tracked by the Return Tracker to disk
func (r *Return) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.filename), 0o755); err != nil {
		return errors.Wrap(err, "close")
	}

	// Open the file to save to
	file, err := os.Create(r.filename)
	if err != nil {
		return errors.Wrap(err, "close: could not open save file")
	}
	defer file.Close()

	// Encode and save the file
	if err = gob.NewEncoder(file).Encode(r.episodeReturns); err != nil {
		return errors.Wrap(err, "close: could not encode return data")
	}
	return file.Close()
}
