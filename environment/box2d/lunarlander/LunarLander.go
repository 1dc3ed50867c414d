// Package lunarlander implements the Lunar Lander environment with
// discrete actions on top of the Box2D physics engine
package lunarlander

import (
	"fmt"
	"io"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
	"github.com/fiorenza2/RL-Algorithms/utils/floatutils"
)

const (
	FPS float64 = 50

	// Scale converts pixels to Box2D units
	Scale float64 = 30.0

	XGravity float64 = 0.0
	YGravity float64 = -10.0

	MainEnginePower float64 = 13.0
	SideEnginePower float64 = 0.6

	LegAway         float64 = 20.0
	LegDown         float64 = 18.0
	LegW            float64 = 2.0
	LegH            float64 = 8.0
	LegSpringTorque float64 = 40.0

	SideEngineHeight float64 = 14.0
	SideEngineAway   float64 = 12.0

	Chunks int = 11

	ViewportW float64 = 600
	ViewportH float64 = 400

	StateObservations int = 8

	// Default starting values
	InitialX      float64 = ViewportW / Scale / 2
	InitialY      float64 = ViewportH / Scale
	InitialRandom float64 = 1000.0

	// Default episode cutoff
	EpisodeSteps int = 1000
)

// Actions
const (
	NoOp int = iota
	FireLeft
	FireMain
	FireRight
	NumActions
)

// Collision categories
const (
	groundCategory uint16 = 0x0001
	landerCategory uint16 = 0x0010
	legCategory    uint16 = 0x0020
)

// LanderPoly is the outline of the lander's body in pixels
var LanderPoly = [][2]float64{
	{-14, 17},
	{-17, 0},
	{-17, -10},
	{17, -10},
	{17, 0},
	{14, 17},
}

// LunarLander implements the Lunar Lander environment. The agent fires
// the engines of a lander to bring it to rest on a landing pad which is
// always centred at the bottom of the viewport. The terrain outside the
// pad is redrawn on each Reset. Walls on the left and right of the
// viewport keep the lander in view, and touching them with the body of
// the lander counts as a crash.
//
// Observations are vectors of the following features:
//
//  1. Horizontal position relative to the pad
//  2. Vertical position of the legs relative to the pad
//  3. Horizontal velocity
//  4. Vertical velocity
//  5. Angle, wrapped to [-π, π)
//  6. Angular velocity
//  7. Whether the left leg touches the ground
//  8. Whether the right leg touches the ground
//
// Positions are in units of half the viewport and are 0 on the pad.
//
// Actions select which engine fires for one frame:
//
//	Action	Meaning
//	  0		Do nothing
//	  1		Fire the left orientation engine
//	  2		Fire the main engine
//	  3		Fire the right orientation engine
//
// Starters must return vectors of the starting x and y positions of
// the lander in Box2D units followed by the magnitude of the random
// force applied to it on Reset. The x position must be in
// [0.05, 0.95] ⨉ ViewportW / Scale and the y position in
// [0.5, 1] ⨉ ViewportH / Scale.
type LunarLander struct {
	task     *Land
	starter  env.Starter
	lastStep ts.TimeStep
	started  bool
	discount float64
	rng      *rand.Rand

	world    box2d.B2World
	walls    []*box2d.B2Body
	moon     *box2d.B2Body
	terrain  [][2]float64
	lander   *box2d.B2Body
	legs     []*box2d.B2Body
	contact  [2]bool
	gameOver bool

	helipadX1, helipadX2, helipadY float64

	mPower, sPower float64
}

// New constructs a new LunarLander environment. The rng seeded by seed
// draws the terrain, the initial force and engine dispersion. The
// environment must be Reset before the first Step.
func New(task *Land, starter env.Starter, discount float64,
	seed uint64) *LunarLander {
	return &LunarLander{
		task:     task,
		starter:  starter,
		discount: discount,
		rng:      rand.New(rand.NewSource(seed)),
		world:    box2d.MakeB2World(box2d.MakeB2Vec2(XGravity, YGravity)),
	}
}

// NewDefault returns a LunarLander with the default Land task which
// always starts at the top centre of the viewport
func NewDefault(seed uint64) *LunarLander {
	starter := env.NewUniformStarter([]r1.Interval{
		{Min: InitialX, Max: InitialX},
		{Min: InitialY, Max: InitialY},
		{Min: InitialRandom, Max: InitialRandom},
	}, seed)
	return New(NewLand(EpisodeSteps), starter, 1.0, seed)
}

// Reset rebuilds the world with a new terrain and drops the lander in
// at a starting position drawn from the environment Starter
func (l *LunarLander) Reset() (ts.TimeStep, error) {
	start := l.starter.Start()
	if err := validateStart(start); err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	l.destroy()
	l.world.SetContactListener(&contactDetector{l})
	l.gameOver = false
	l.contact = [2]bool{}

	l.createWalls()
	l.createTerrain()
	l.createLander(start.AtVec(0), start.AtVec(1), start.AtVec(2))

	// A first frame with the engines off fixes the baseline of the
	// reward shaping
	l.task.reset()
	state := l.simulate(NoOp)
	l.task.GetReward(state, 0, 0, l.outcome(state))

	l.lastStep = ts.New(ts.First, 0, l.discount, state, 0)
	l.started = true
	return l.copyStep(l.lastStep), nil
}

// Step takes one environmental step given action a
func (l *LunarLander) Step(a int) (ts.TimeStep, bool, error) {
	if a < 0 || a >= NumActions {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%d ∉ [0, %d)", a, NumActions)
	}
	if !l.started || l.lastStep.Last() {
		return ts.TimeStep{}, false, errors.New("step: episode is over, " +
			"call Reset")
	}

	state := l.simulate(a)
	outcome := l.outcome(state)
	reward := l.task.GetReward(state, l.mPower, l.sPower, outcome)

	nextStep := ts.New(ts.Mid, reward, l.discount, state,
		l.lastStep.Number+1)
	l.task.End(&nextStep, outcome)

	l.lastStep = nextStep
	return l.copyStep(nextStep), nextStep.Last(), nil
}

// simulate fires the engines selected by action a and advances the
// world by one frame, returning the resulting state observation
func (l *LunarLander) simulate(a int) *mat.VecDense {
	angle := l.lander.GetAngle()
	tip := [2]float64{math.Sin(angle), math.Cos(angle)}
	side := [2]float64{-tip[1], tip[0]}
	dispersion := [2]float64{
		(2*l.rng.Float64() - 1) / Scale,
		(2*l.rng.Float64() - 1) / Scale,
	}
	pos := l.lander.GetPosition()

	l.mPower = 0
	if a == FireMain {
		l.mPower = 1
		ox := tip[0]*(4/Scale+2*dispersion[0]) + side[0]*dispersion[1]
		oy := -tip[1]*(4/Scale+2*dispersion[0]) - side[1]*dispersion[1]

		l.lander.ApplyLinearImpulse(
			box2d.MakeB2Vec2(-ox*MainEnginePower*l.mPower,
				-oy*MainEnginePower*l.mPower),
			box2d.MakeB2Vec2(pos.X+ox, pos.Y+oy),
			true,
		)
	}

	l.sPower = 0
	if a == FireLeft || a == FireRight {
		l.sPower = 1
		direction := float64(a - FireMain)
		ox := tip[0]*dispersion[0] + side[0]*(3*dispersion[1]+
			direction*SideEngineAway/Scale)
		oy := -tip[1]*dispersion[0] - side[1]*(3*dispersion[1]+
			direction*SideEngineAway/Scale)

		l.lander.ApplyLinearImpulse(
			box2d.MakeB2Vec2(-ox*SideEnginePower*l.sPower,
				-oy*SideEnginePower*l.sPower),
			box2d.MakeB2Vec2(pos.X+ox-tip[0]*17/Scale,
				pos.Y+oy+tip[1]*SideEngineHeight/Scale),
			true,
		)
	}

	l.world.Step(1/FPS, 6*int(Scale), 2*int(Scale))

	pos = l.lander.GetPosition()
	vel := l.lander.GetLinearVelocity()
	state := []float64{
		(pos.X - ViewportW/Scale/2) / (ViewportW / Scale / 2),
		(pos.Y - (l.helipadY + LegDown/Scale)) / (ViewportH / Scale / 2),
		vel.X * (ViewportW / Scale / 2) / FPS,
		vel.Y * (ViewportH / Scale / 2) / FPS,
		floatutils.Wrap(l.lander.GetAngle(), -math.Pi, math.Pi),
		20 * l.lander.GetAngularVelocity() / FPS,
		boolToFloat(l.contact[0]),
		boolToFloat(l.contact[1]),
	}
	return mat.NewVecDense(StateObservations, state)
}

func (l *LunarLander) outcome(state *mat.VecDense) Outcome {
	switch {
	case l.gameOver || math.Abs(state.AtVec(0)) >= 1:
		return Crashed
	case !l.lander.IsAwake():
		return Landed
	default:
		return Flying
	}
}

// ActionSpec returns the action specification of the environment
func (l *LunarLander) ActionSpec() env.Spec {
	return env.NewActionSpec(NumActions)
}

// ObservationSpec returns the observation specification of the
// environment. Only the angle and leg contacts are bounded.
func (l *LunarLander) ObservationSpec() env.Spec {
	inf := math.Inf(1)
	lower := mat.NewVecDense(StateObservations, []float64{
		-inf, -inf, -inf, -inf, -math.Pi, -inf, 0, 0,
	})
	upper := mat.NewVecDense(StateObservations, []float64{
		inf, inf, inf, inf, math.Pi, inf, 1, 1,
	})
	return env.NewObservationSpec([]int{StateObservations}, lower, upper)
}

// Seed reseeds the starting state distribution along with the terrain
// and engine noise
func (l *LunarLander) Seed(seed uint64) {
	l.starter.Seed(seed)
	l.rng.Seed(seed)
}

// Close destroys all bodies in the world
func (l *LunarLander) Close() error {
	l.destroy()
	l.started = false
	return nil
}

// GroundContact returns whether the left and right legs touch the
// ground
func (l *LunarLander) GroundContact() (left, right bool) {
	return l.contact[0], l.contact[1]
}

// Render writes a summary of the lander's state
func (l *LunarLander) Render(w io.Writer) error {
	_, err := fmt.Fprintln(w, l)
	return err
}

func (l *LunarLander) String() string {
	if !l.started {
		return "Lunar Lander  |  not started"
	}
	s := l.lastStep.Observation
	return fmt.Sprintf("Lunar Lander  |  Position: (%.3f, %.3f)  |  "+
		"Velocity: (%.3f, %.3f)  |  Angle: %.3f  |  Legs: %v %v",
		s.AtVec(0), s.AtVec(1), s.AtVec(2), s.AtVec(3), s.AtVec(4),
		l.contact[0], l.contact[1])
}

func (l *LunarLander) copyStep(t ts.TimeStep) ts.TimeStep {
	t.Observation = mat.VecDenseCopyOf(t.Observation)
	return t
}

func (l *LunarLander) destroy() {
	if l.moon == nil {
		return
	}
	l.world.SetContactListener(nil)

	for _, b := range append(append([]*box2d.B2Body{l.moon, l.lander},
		l.legs...), l.walls...) {
		l.world.DestroyBody(b)
	}
	l.moon, l.lander, l.legs, l.walls = nil, nil, nil, nil
}

func (l *LunarLander) createWalls() {
	w, h := ViewportW/Scale, ViewportH/Scale

	l.walls = make([]*box2d.B2Body, 0, 2)
	for _, x := range []float64{0, w} {
		body := l.world.CreateBody(box2d.NewB2BodyDef())
		shape := box2d.NewB2EdgeShape()
		shape.Set(box2d.MakeB2Vec2(x, 0), box2d.MakeB2Vec2(x, 2*h))

		fix := box2d.MakeB2FixtureDef()
		fix.Shape = shape
		fix.Filter = box2d.MakeB2Filter()
		body.CreateFixtureFromDef(&fix)
		l.walls = append(l.walls, body)
	}
}

func (l *LunarLander) createTerrain() {
	w, h := ViewportW/Scale, ViewportH/Scale

	height := make([]float64, Chunks+1)
	for i := range height {
		height[i] = l.rng.Float64() * h / 2
	}

	chunkX := make([]float64, Chunks)
	for i := range chunkX {
		chunkX[i] = float64(i) * w / float64(Chunks-1)
	}

	l.helipadX1 = chunkX[Chunks/2-1]
	l.helipadX2 = chunkX[Chunks/2+1]
	l.helipadY = h / 4
	for i := Chunks/2 - 2; i <= Chunks/2+2; i++ {
		height[i] = l.helipadY
	}

	smoothY := make([]float64, Chunks)
	for i := range smoothY {
		prev := Chunks
		if i > 0 {
			prev = i - 1
		}
		smoothY[i] = 0.33 * (height[prev] + height[i] + height[i+1])
	}

	l.moon = l.world.CreateBody(box2d.NewB2BodyDef())
	base := box2d.NewB2EdgeShape()
	base.Set(box2d.MakeB2Vec2(0, 0), box2d.MakeB2Vec2(w, 0))
	baseFix := box2d.MakeB2FixtureDef()
	baseFix.Shape = base
	baseFix.Filter = box2d.MakeB2Filter()
	l.moon.CreateFixtureFromDef(&baseFix)

	l.terrain = make([][2]float64, 0, Chunks)
	for i := 0; i < Chunks-1; i++ {
		p1 := [2]float64{chunkX[i], smoothY[i]}
		p2 := [2]float64{chunkX[i+1], smoothY[i+1]}
		if i == 0 {
			l.terrain = append(l.terrain, p1)
		}
		l.terrain = append(l.terrain, p2)

		edge := box2d.NewB2EdgeShape()
		edge.Set(box2d.MakeB2Vec2(p1[0], p1[1]), box2d.MakeB2Vec2(p2[0], p2[1]))
		fix := box2d.MakeB2FixtureDef()
		fix.Shape = edge
		fix.Friction = 0.1
		fix.Filter = box2d.MakeB2Filter()
		l.moon.CreateFixtureFromDef(&fix)
	}
}

func (l *LunarLander) createLander(x, y, force float64) {
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	def.Position = box2d.MakeB2Vec2(x, y)
	l.lander = l.world.CreateBody(&def)

	vertices := make([]box2d.B2Vec2, len(LanderPoly))
	for i, v := range LanderPoly {
		vertices[i] = box2d.MakeB2Vec2(v[0]/Scale, v[1]/Scale)
	}
	shape := box2d.NewB2PolygonShape()
	shape.Set(vertices, len(vertices))

	fix := box2d.MakeB2FixtureDef()
	fix.Shape = shape
	fix.Density = 5.0
	fix.Friction = 0.1
	fix.Filter = box2d.MakeB2Filter()
	fix.Filter.CategoryBits = landerCategory
	fix.Filter.MaskBits = groundCategory
	l.lander.CreateFixtureFromDef(&fix)

	l.lander.ApplyForceToCenter(box2d.MakeB2Vec2(
		(2*l.rng.Float64()-1)*force,
		(2*l.rng.Float64()-1)*force,
	), true)

	l.legs = make([]*box2d.B2Body, 0, 2)
	for _, i := range []float64{-1, 1} {
		legDef := box2d.MakeB2BodyDef()
		legDef.Type = box2d.B2BodyType.B2_dynamicBody
		legDef.Position = box2d.MakeB2Vec2(x-i*LegAway/Scale, y)
		legDef.Angle = i * 0.05
		leg := l.world.CreateBody(&legDef)

		legShape := box2d.NewB2PolygonShape()
		legShape.SetAsBox(LegW/Scale, LegH/Scale)
		legFix := box2d.MakeB2FixtureDef()
		legFix.Shape = legShape
		legFix.Density = 1.0
		legFix.Filter = box2d.MakeB2Filter()
		legFix.Filter.CategoryBits = legCategory
		legFix.Filter.MaskBits = groundCategory
		leg.CreateFixtureFromDef(&legFix)

		joint := box2d.MakeB2RevoluteJointDef()
		joint.BodyA = l.lander
		joint.BodyB = leg
		joint.LocalAnchorA = box2d.MakeB2Vec2(0, 0)
		joint.LocalAnchorB = box2d.MakeB2Vec2(i*LegAway/Scale, LegDown/Scale)
		joint.EnableMotor = true
		joint.EnableLimit = true
		joint.MaxMotorTorque = LegSpringTorque
		joint.MotorSpeed = 0.3 * i
		if i < 0 {
			joint.LowerAngle = 0.9 - 0.5
			joint.UpperAngle = 0.9
		} else {
			joint.LowerAngle = -0.9
			joint.UpperAngle = -0.9 + 0.5
		}
		l.world.CreateJoint(&joint)

		l.legs = append(l.legs, leg)
	}
}

func validateStart(start *mat.VecDense) error {
	if start.Len() != 3 {
		return errors.Errorf("start must have 3 elements, have %d",
			start.Len())
	}

	w, h := ViewportW/Scale, ViewportH/Scale
	if x := start.AtVec(0); x < 0.05*w || x > 0.95*w {
		return errors.Errorf("x position %v is not within [%v, %v]", x,
			0.05*w, 0.95*w)
	}
	if y := start.AtVec(1); y < h/2 || y > h {
		return errors.Errorf("y position %v is not within [%v, %v]", y,
			h/2, h)
	}
	if f := start.AtVec(2); f < 0 {
		return errors.Errorf("initial force %v must be non-negative", f)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// contactDetector tracks which parts of the lander touch the ground
type contactDetector struct {
	l *LunarLander
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	a := contact.GetFixtureA().GetBody()
	b := contact.GetFixtureB().GetBody()

	// The body of the lander must never touch anything
	if a == c.l.lander || b == c.l.lander {
		c.l.gameOver = true
	}
	c.legContact(a, b, true)
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	c.legContact(contact.GetFixtureA().GetBody(),
		contact.GetFixtureB().GetBody(), false)
}

// legContact records whether a leg touches the moon. Legs touching the
// walls are not on the ground.
func (c *contactDetector) legContact(a, b *box2d.B2Body, touching bool) {
	for i, leg := range c.l.legs {
		if (a == leg && b == c.l.moon) || (b == leg && a == c.l.moon) {
			c.l.contact[i] = touching
		}
	}
}

func (c *contactDetector) PreSolve(box2d.B2ContactInterface, box2d.B2Manifold) {}

func (c *contactDetector) PostSolve(box2d.B2ContactInterface,
	*box2d.B2ContactImpulse) {
}
