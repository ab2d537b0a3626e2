// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package state defines the device state and alarm condition vocabularies
// used by state and alarm leaves.
package state

import (
	"fmt"
)

// State is a device state name. States form a tree rooted at UNKNOWN, KNOWN
// and INIT; Parent walks one level up.
type State string

const (
	Unknown State = "UNKNOWN"
	Known   State = "KNOWN"
	Init    State = "INIT"

	Disabled    State = "DISABLED"
	Error       State = "ERROR"
	Normal      State = "NORMAL"
	Interlocked State = "INTERLOCKED"
	Paused      State = "PAUSED"
	Ignoring    State = "IGNORING"

	Static   State = "STATIC"
	Changing State = "CHANGING"
	Running  State = "RUNNING"

	Active  State = "ACTIVE"
	Passive State = "PASSIVE"

	Acquiring  State = "ACQUIRING"
	Processing State = "PROCESSING"
	Monitoring State = "MONITORING"

	Cooled    State = "COOLED"
	Heated    State = "HEATED"
	Evacuated State = "EVACUATED"
	Closed    State = "CLOSED"
	On        State = "ON"
	Extracted State = "EXTRACTED"
	Started   State = "STARTED"
	Locked    State = "LOCKED"
	Engaged   State = "ENGAGED"
	Cold      State = "COLD"

	Warm        State = "WARM"
	Pressurized State = "PRESSURIZED"
	Opened      State = "OPENED"
	Off         State = "OFF"
	Inserted    State = "INSERTED"
	Stopped     State = "STOPPED"
	Unlocked    State = "UNLOCKED"
	Disengaged  State = "DISENGAGED"

	Increasing State = "INCREASING"
	Decreasing State = "DECREASING"
	Moving     State = "MOVING"
	Rotating   State = "ROTATING"
	Searching  State = "SEARCHING"
	Switching  State = "SWITCHING"
	Homing     State = "HOMING"

	Heating      State = "HEATING"
	Opening      State = "OPENING"
	Inserting    State = "INSERTING"
	Starting     State = "STARTING"
	Pressurizing State = "PRESSURIZING"
	Engaging     State = "ENGAGING"
	SwitchingOn  State = "SWITCHING_ON"
	RampingUp    State = "RAMPING_UP"

	Cooling      State = "COOLING"
	Closing      State = "CLOSING"
	Extracting   State = "EXTRACTING"
	Stopping     State = "STOPPING"
	Evacuating   State = "EVACUATING"
	Disengaging  State = "DISENGAGING"
	SwitchingOff State = "SWITCHING_OFF"
	RampingDown  State = "RAMPING_DOWN"

	MovingLeft     State = "MOVING_LEFT"
	MovingRight    State = "MOVING_RIGHT"
	MovingUp       State = "MOVING_UP"
	MovingDown     State = "MOVING_DOWN"
	MovingForward  State = "MOVING_FORWARD"
	MovingBack     State = "MOVING_BACK"
	RotatingClk    State = "ROTATING_CLK"
	RotatingCntClk State = "ROTATING_CNTCLK"
)

var parents = map[State]State{
	Unknown: "",
	Known:   "",
	Init:    "",

	Disabled:    Known,
	Error:       Known,
	Normal:      Known,
	Interlocked: Disabled,
	Paused:      Disabled,
	Ignoring:    Disabled,

	Static:   Normal,
	Changing: Normal,
	Running:  Normal,

	Active:  Static,
	Passive: Static,

	Acquiring:  Running,
	Processing: Running,
	Monitoring: Running,

	Cooled:    Active,
	Heated:    Active,
	Evacuated: Active,
	Closed:    Active,
	On:        Active,
	Extracted: Active,
	Started:   Active,
	Locked:    Active,
	Engaged:   Active,
	Cold:      Active,

	Warm:        Passive,
	Pressurized: Passive,
	Opened:      Passive,
	Off:         Passive,
	Inserted:    Passive,
	Stopped:     Passive,
	Unlocked:    Passive,
	Disengaged:  Passive,

	Increasing: Changing,
	Decreasing: Changing,
	Moving:     Changing,
	Rotating:   Changing,
	Searching:  Changing,
	Switching:  Changing,
	Homing:     Changing,

	Heating:      Increasing,
	Opening:      Increasing,
	Inserting:    Increasing,
	Starting:     Increasing,
	Pressurizing: Increasing,
	Engaging:     Increasing,
	SwitchingOn:  Increasing,
	RampingUp:    Increasing,

	Cooling:      Decreasing,
	Closing:      Decreasing,
	Extracting:   Decreasing,
	Stopping:     Decreasing,
	Evacuating:   Decreasing,
	Disengaging:  Decreasing,
	SwitchingOff: Decreasing,
	RampingDown:  Decreasing,

	MovingLeft:     Moving,
	MovingRight:    Moving,
	MovingUp:       Moving,
	MovingDown:     Moving,
	MovingForward:  Moving,
	MovingBack:     Moving,
	RotatingClk:    Rotating,
	RotatingCntClk: Rotating,
}

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	_, ok := parents[s]
	return ok
}

// Parent returns the direct ancestor or the empty state for roots.
func (s State) Parent() State {
	return parents[s]
}

// IsDerivedFrom reports whether s descends from p. A state is not derived
// from itself.
func (s State) IsDerivedFrom(p State) bool {
	for x := s.Parent(); x != ""; x = x.Parent() {
		if x == p {
			return true
		}
	}
	return false
}

// Ancestors lists the parents of s, closest first.
func (s State) Ancestors() []State {
	var list []State
	for x := s.Parent(); x != ""; x = x.Parent() {
		list = append(list, x)
	}
	return list
}

func (s *State) UnmarshalText(data []byte) error {
	v, err := FromString(string(data))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// FromString parses a state name.
func FromString(s string) (State, error) {
	v := State(s)
	if !v.IsValid() {
		return "", fmt.Errorf("invalid state '%s'", s)
	}
	return v, nil
}

// All returns every known state name.
func All() []State {
	list := make([]State, 0, len(parents))
	for s := range parents {
		list = append(list, s)
	}
	return list
}
