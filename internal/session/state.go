package session

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownConference = errors.New("unknown conference")
	ErrStateRegression   = errors.New("state regression")
	ErrHandoffInFlight   = errors.New("hand-off already in flight")
)

// State is the position of a call in the warm-transfer lifecycle.
// States only move forward; Ended is reachable from any state.
type State int

const (
	StateRinging State = iota
	StateBridged
	StateAIAccepted
	StateAIConnected
	StateHandoffRequested
	StateHumanJoined
	StateEnded
)

var stateNames = [...]string{
	StateRinging:          "ringing",
	StateBridged:          "bridged",
	StateAIAccepted:       "ai-accepted",
	StateAIConnected:      "ai-connected",
	StateHandoffRequested: "handoff-requested",
	StateHumanJoined:      "human-joined",
	StateEnded:            "ended",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// CanAdvance reports whether a call in state s may move to next.
// Repeating the current state is not an advance.
func (s State) CanAdvance(next State) bool {
	if s == StateEnded {
		return false
	}
	return next == StateEnded || next > s
}

// CallSession is a point-in-time copy of everything known about one call.
type CallSession struct {
	TelephonyCallID string
	ConferenceName  string
	CallerNumber    string
	CallToken       string
	AICallID        string
	State           State
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
