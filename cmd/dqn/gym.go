//go:build gym

package main

// Gym environments need a Python installation with gym, so they are
// only registered in builds tagged gym
import _ "github.com/fiorenza2/RL-Algorithms/environment/gym"
