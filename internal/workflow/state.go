// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package workflow implements the form submission flows for posts and
// profiles as small explicit state machines: validate, issue exactly one
// store call, then branch on the result. Workflows depend on repository
// interfaces and never touch HTTP.
package workflow

import "fmt"

// State names a step of a submission.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateInvalid
	StateBusy
	StateSubmitting
	StateSavedDraft
	StatePublished
	StateSucceeded
	StateFailed
	StateNotFound
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateValidating: "validating",
	StateInvalid:    "invalid",
	StateBusy:       "busy",
	StateSubmitting: "submitting",
	StateSavedDraft: "saved_draft",
	StatePublished:  "published",
	StateSucceeded:  "succeeded",
	StateFailed:     "failed",
	StateNotFound:   "not_found",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	switch s {
	case StateInvalid, StateBusy, StateSavedDraft, StatePublished,
		StateSucceeded, StateFailed, StateNotFound:
		return true
	}
	return false
}

// transitions lists the legal successors of every non-terminal state.
var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateInvalid, StateNotFound, StateFailed, StateBusy, StateSubmitting},
	StateSubmitting: {StateSavedDraft, StatePublished, StateSucceeded, StateFailed},
}

// machine tracks one submission's state and reports every transition to an
// optional observer.
type machine struct {
	state   State
	observe func(from, to State)
}

func newMachine(observe func(from, to State)) *machine {
	return &machine{state: StateIdle, observe: observe}
}

// to moves the machine to next. An illegal transition is a programming error.
func (m *machine) to(next State) State {
	legal := false
	for _, s := range transitions[m.state] {
		if s == next {
			legal = true
			break
		}
	}
	if !legal {
		panic(fmt.Sprintf("workflow: illegal transition %s -> %s", m.state, next))
	}

	prev := m.state
	m.state = next
	if m.observe != nil {
		m.observe(prev, next)
	}
	return next
}
