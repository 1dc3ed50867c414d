// Package checkpointer decides when and where agent parameters are
// written to disk during training
package checkpointer

// Saver is an object whose state can be saved to a file
type Saver interface {
	Save(path string) error
}

// Checkpointer checkpoints a Saver based on the global step counter
type Checkpointer interface {
	// Checkpoint saves the tracked object if a checkpoint is due at
	// step and returns the path written to, or "" if nothing was saved
	Checkpoint(step int) (string, error)

	// Save saves the tracked object unconditionally
	Save() (string, error)
}
