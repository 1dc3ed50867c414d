package checkpointer

import "github.com/pkg/errors"

// Extension is the file extension of checkpoints
const Extension = ".ckpt"

// NStep implements checkpointing every N steps
type NStep struct {
	interval int
	object   Saver // Object to save

	// filename returns the filename of the next file to save the object
	// in.
	//
	// If each checkpoint should be saved in a separate file with an
	// incremented number as a suffix (e.g. dqn1.ckpt, dqn2.ckpt, ...),
	// use FilenameEnumerator or Enumerated.
	filename func() string
	saved    int
}

// NewNStep returns a checkpointer that checkpoints every n steps.
func NewNStep(n int, object Saver, filename func() string) (*NStep, error) {
	if n < 1 {
		return nil, errors.Errorf("newNStep: interval must be positive "+
			"(have %d)", n)
	}
	if object == nil || filename == nil {
		return nil, errors.New("newNStep: object and filename must not " +
			"be nil")
	}

	return &NStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object if step is a positive multiple of
// the checkpointing interval
func (n *NStep) Checkpoint(step int) (string, error) {
	if step <= 0 || step%n.interval != 0 {
		return "", nil
	}
	return n.Save()
}

// Save saves the tracked object to the next file name
func (n *NStep) Save() (string, error) {
	path := n.filename()
	if err := n.object.Save(path); err != nil {
		return "", errors.Wrapf(err, "checkpoint %v", path)
	}
	n.saved++
	return path, nil
}

// Saved returns the number of checkpoints written
func (n *NStep) Saved() int {
	return n.saved
}
