// Package remote serves Environments over gRPC and provides a client
// which implements environment.Environment on top of such a server.
//
// Messages are google.protobuf.Struct values, so no generated code is
// needed. The service is:
//
//	service dqn.Environment {
//		rpc Reset(Struct) returns (Struct); // {} -> step
//		rpc Step(Struct) returns (Struct);  // {action} -> step
//		rpc Spec(Struct) returns (Struct);  // {} -> {observation_shape, num_actions}
//		rpc Seed(Struct) returns (Struct);  // {seed} -> {}
//	}
//
// where a step is {observation, reward, discount, done, number}.
package remote

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
	"gonum.org/v1/gonum/mat"

	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// Message field names
const (
	fieldObservation = "observation"
	fieldReward      = "reward"
	fieldDiscount    = "discount"
	fieldDone        = "done"
	fieldNumber      = "number"
	fieldAction      = "action"
	fieldSeed        = "seed"
	fieldObsShape    = "observation_shape"
	fieldNumActions  = "num_actions"
)

func encodeStep(step ts.TimeStep, done bool) *structpb.Struct {
	data := step.Observation.RawVector().Data
	obs := make([]*structpb.Value, len(data))
	for i, v := range data {
		obs[i] = structpb.NewNumberValue(v)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldObservation: structpb.NewListValue(&structpb.ListValue{
			Values: obs}),
		fieldReward:   structpb.NewNumberValue(step.Reward),
		fieldDiscount: structpb.NewNumberValue(step.Discount),
		fieldDone:     structpb.NewBoolValue(done),
		fieldNumber:   structpb.NewNumberValue(float64(step.Number)),
	}}
}

func decodeStep(msg *structpb.Struct) (ts.TimeStep, bool, error) {
	fields := msg.GetFields()
	list := fields[fieldObservation].GetListValue()
	if list == nil {
		return ts.TimeStep{}, false, errors.New("decodeStep: missing " +
			"observation")
	}

	obs := make([]float64, len(list.Values))
	for i, v := range list.Values {
		obs[i] = v.GetNumberValue()
	}

	done := fields[fieldDone].GetBoolValue()
	number := int(fields[fieldNumber].GetNumberValue())
	stepType := ts.Mid
	switch {
	case done:
		stepType = ts.Last
	case number == 0:
		stepType = ts.First
	}

	step := ts.New(stepType, fields[fieldReward].GetNumberValue(),
		fields[fieldDiscount].GetNumberValue(),
		mat.NewVecDense(len(obs), obs), number)
	return step, done, nil
}

func encodeSpec(obsShape []int, numActions int) *structpb.Struct {
	shape := make([]*structpb.Value, len(obsShape))
	for i, dim := range obsShape {
		shape[i] = structpb.NewNumberValue(float64(dim))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldObsShape: structpb.NewListValue(&structpb.ListValue{
			Values: shape}),
		fieldNumActions: structpb.NewNumberValue(float64(numActions)),
	}}
}

func decodeSpec(msg *structpb.Struct) ([]int, int, error) {
	fields := msg.GetFields()
	list := fields[fieldObsShape].GetListValue()
	if list == nil || len(list.Values) == 0 {
		return nil, 0, errors.New("decodeSpec: missing observation shape")
	}

	shape := make([]int, len(list.Values))
	for i, v := range list.Values {
		dim, err := integer(v)
		if err != nil || dim < 1 {
			return nil, 0, errors.Errorf("decodeSpec: invalid observation "+
				"shape dimension %v", v.GetNumberValue())
		}
		shape[i] = dim
	}

	numActions, err := integer(fields[fieldNumActions])
	if err != nil || numActions < 1 {
		return nil, 0, errors.New("decodeSpec: invalid number of actions")
	}
	return shape, numActions, nil
}

func encodeAction(action int) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAction: structpb.NewNumberValue(float64(action)),
	}}
}

func decodeAction(msg *structpb.Struct) (int, error) {
	return integer(msg.GetFields()[fieldAction])
}

// Seeds are sent as decimal strings since a float64 cannot hold every
// uint64
func encodeSeed(seed uint64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldSeed: structpb.NewStringValue(strconv.FormatUint(seed, 10)),
	}}
}

func decodeSeed(msg *structpb.Struct) (uint64, error) {
	seed, err := strconv.ParseUint(msg.GetFields()[fieldSeed].GetStringValue(),
		10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "decodeSeed")
	}
	return seed, nil
}

// integer returns the integral number held by v
func integer(v *structpb.Value) (int, error) {
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
		return 0, errors.New("not a number")
	}
	f := v.GetNumberValue()
	if f != math.Trunc(f) {
		return 0, errors.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}
