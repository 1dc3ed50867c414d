package deepq

import (
	"bufio"
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/fiorenza2/RL-Algorithms/network"
)

const (
	checkpointMagic   = "DQNCKPT"
	checkpointVersion = 1
)

// Header is the first record of a checkpoint file. It describes the
// agent that wrote the checkpoint so that parameters are only loaded
// into a compatible network.
type Header struct {
	Magic      string
	Version    int
	Step       int
	EpsStart   float64
	EpsEnd     float64
	FinalStep  int
	Gamma      float64
	NumActions int
	Topology   network.Topology
}

// ParameterBlock holds the values of a single learnable node
type ParameterBlock struct {
	Name  string
	Shape []int
	Data  []float64
}

// Save writes the online weights and step counter to a checkpoint at
// path. Parent directories are created as needed, and the file is
// written to a temporary file first so that an existing checkpoint is
// never left half written.
func (d *DeepQ) Save(path string) error {
	header := Header{
		Magic:      checkpointMagic,
		Version:    checkpointVersion,
		Step:       d.step,
		EpsStart:   d.schedule.Start,
		EpsEnd:     d.schedule.End,
		FinalStep:  d.schedule.FinalStep,
		Gamma:      d.gamma,
		NumActions: d.numActions,
		Topology:   d.trainNet.Topology(),
	}

	params, err := network.Parameters(d.trainNet)
	if err != nil {
		return &CheckpointError{Op: "save", Path: path, Err: err}
	}
	names := network.Names(d.trainNet)
	shapes := network.Shapes(d.trainNet)
	blocks := make([]ParameterBlock, len(params))
	for i := range params {
		blocks[i] = ParameterBlock{
			Name:  names[i],
			Shape: shapes[i],
			Data:  params[i],
		}
	}

	if err := writeCheckpoint(path, header, blocks); err != nil {
		return &CheckpointError{Op: "save", Path: path, Err: err}
	}
	return nil
}

func writeCheckpoint(path string, header Header,
	blocks []ParameterBlock) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "could not create checkpoint directory")
	}

	tmp, err := os.CreateTemp(dir, ".ckpt-*")
	if err != nil {
		return errors.Wrap(err, "could not create temporary file")
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := gob.NewEncoder(w)
	if err := enc.Encode(header); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not encode header")
	}
	if err := enc.Encode(blocks); err != nil {
		tmp.Close()
		return errors.Wrap(err, "could not encode parameters")
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadHeader reads the header of the checkpoint at path
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, &CheckpointError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	header, err := decodeHeader(gob.NewDecoder(bufio.NewReader(f)))
	if err != nil {
		return Header{}, &CheckpointError{Op: "load", Path: path, Err: err}
	}
	return header, nil
}

func decodeHeader(dec *gob.Decoder) (Header, error) {
	var header Header
	if err := dec.Decode(&header); err != nil {
		return Header{}, errors.Wrap(errBadMagic, err.Error())
	}
	if header.Magic != checkpointMagic {
		return Header{}, errBadMagic
	}
	if header.Version != checkpointVersion {
		return Header{}, errors.Wrapf(errBadVersion, "version %d",
			header.Version)
	}
	return header, nil
}

// Load restores the online weights and step counter from the checkpoint
// at path. The target weights are then set to a copy of the online
// weights. On failure, a *CheckpointError is returned and the agent is
// left unchanged.
func (d *DeepQ) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &CheckpointError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	if err := d.load(gob.NewDecoder(bufio.NewReader(f))); err != nil {
		return &CheckpointError{Op: "load", Path: path, Err: err}
	}
	return nil
}

func (d *DeepQ) load(dec *gob.Decoder) error {
	header, err := decodeHeader(dec)
	if err != nil {
		return err
	}

	topology := d.trainNet.Topology()
	if !header.Topology.Equal(topology) || header.NumActions != d.numActions {
		return errors.Wrapf(errTopology, "want(%+v) have(%+v)", topology,
			header.Topology)
	}

	var blocks []ParameterBlock
	if err := dec.Decode(&blocks); err != nil {
		return errors.Wrap(err, "could not decode parameters")
	}

	shapes := network.Shapes(d.trainNet)
	if len(blocks) != len(shapes) {
		return errors.Wrapf(errShape, "want(%d blocks) have(%d blocks)",
			len(shapes), len(blocks))
	}
	params := make([][]float64, len(blocks))
	for i, block := range blocks {
		if !equalShape(block.Shape, shapes[i]) ||
			len(block.Data) != size(shapes[i]) {
			return errors.Wrapf(errShape, "block %d (%s): want(%v) have(%v)",
				i, block.Name, shapes[i], block.Shape)
		}
		params[i] = block.Data
	}

	if err := network.SetParameters(d.trainNet, params); err != nil {
		return err
	}
	if err := d.SyncTarget(); err != nil {
		return err
	}
	d.policyStale = true
	d.step = header.Step
	return nil
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
