package entities

import (
	"fmt"
)

// RoundState identifies which part of a game round an event belongs to
type RoundState int

const (
	StatePrimary RoundState = iota
	StatePresentation
	StateFreeGame
	StateCashInGate
	StatePlayerInputGate
)

var roundStateNames = map[RoundState]string{
	StatePrimary:         "Primary",
	StatePresentation:    "Presentation",
	StateFreeGame:        "FreeGame",
	StateCashInGate:      "CashInGate",
	StatePlayerInputGate: "PlayerInputGate",
}

func (s RoundState) String() string {
	if name, ok := roundStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RoundState(%d)", int(s))
}

// Valid reports whether s is one of the enumerated states
func (s RoundState) Valid() bool {
	_, ok := roundStateNames[s]
	return ok
}

func (s RoundState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid round state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *RoundState) UnmarshalText(text []byte) error {
	for state, name := range roundStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown round state %q", string(text))
}

// RoundAction is the lifecycle step within a RoundState
type RoundAction int

const (
	ActionBegin RoundAction = iota
	ActionInvoked
	ActionPending
	ActionCompleted
)

var roundActionNames = map[RoundAction]string{
	ActionBegin:     "Begin",
	ActionInvoked:   "Invoked",
	ActionPending:   "Pending",
	ActionCompleted: "Completed",
}

func (a RoundAction) String() string {
	if name, ok := roundActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("RoundAction(%d)", int(a))
}

// Valid reports whether a is one of the enumerated actions
func (a RoundAction) Valid() bool {
	_, ok := roundActionNames[a]
	return ok
}

func (a RoundAction) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid round action %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *RoundAction) UnmarshalText(text []byte) error {
	for action, name := range roundActionNames {
		if name == string(text) {
			*a = action
			return nil
		}
	}
	return fmt.Errorf("unknown round action %q", string(text))
}

// PlayMode governs whether financial and meter effects apply
type PlayMode int

const (
	PlayModeNormal PlayMode = iota
	PlayModeDemo
	PlayModeRecovery
)

var playModeNames = map[PlayMode]string{
	PlayModeNormal:   "Normal",
	PlayModeDemo:     "Demo",
	PlayModeRecovery: "Recovery",
}

func (m PlayMode) String() string {
	if name, ok := playModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("PlayMode(%d)", int(m))
}

// Valid reports whether m is one of the enumerated play modes
func (m PlayMode) Valid() bool {
	_, ok := playModeNames[m]
	return ok
}

// Wagering reports whether wagers are accepted in this mode
func (m PlayMode) Wagering() bool {
	return m == PlayModeNormal || m == PlayModeDemo
}

func (m PlayMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid play mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *PlayMode) UnmarshalText(text []byte) error {
	for mode, name := range playModeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown play mode %q", string(text))
}

// GameRoundEvent is one notification from the game presentation runtime.
// Amounts are in the platform base unit.
type GameRoundEvent struct {
	State     RoundState  `json:"state"`
	Action    RoundAction `json:"action"`
	PlayMode  PlayMode    `json:"playMode"`
	Bet       int64       `json:"bet"`
	Win       int64       `json:"win"`
	Stake     int64       `json:"stake"`
	Data      []byte      `json:"data,omitempty"`
	RoundInfo []string    `json:"roundInfo,omitempty"`
}

// Validate rejects events that cannot have come from a well-behaved runtime
func (e *GameRoundEvent) Validate() error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}
	if !e.State.Valid() {
		return fmt.Errorf("invalid state %d", int(e.State))
	}
	if !e.Action.Valid() {
		return fmt.Errorf("invalid action %d", int(e.Action))
	}
	if !e.PlayMode.Valid() {
		return fmt.Errorf("invalid play mode %d", int(e.PlayMode))
	}
	if e.Bet < 0 || e.Win < 0 || e.Stake < 0 {
		return fmt.Errorf("negative amount (bet=%d win=%d stake=%d)", e.Bet, e.Win, e.Stake)
	}
	return nil
}

func (e *GameRoundEvent) String() string {
	return fmt.Sprintf("%s/%s[%s bet=%d win=%d stake=%d]", e.State, e.Action, e.PlayMode, e.Bet, e.Win, e.Stake)
}

// RoundPhase is the recovery posture of the coordinator when an event arrives.
// It is captured once per dispatch and handed to the handler.
type RoundPhase int

const (
	// PhaseFresh is normal play with a round in progress or about to start
	PhaseFresh RoundPhase = iota
	// PhaseRecovering is replaying persisted fragments after an interruption
	PhaseRecovering
	// PhaseAwaitingCashOutRecovery has an interrupted cash-out to resolve
	PhaseAwaitingCashOutRecovery
	// PhaseRecoveringAwaitingCashOut is both of the above
	PhaseRecoveringAwaitingCashOut
	// PhaseSettled means the current round's base win is already committed
	PhaseSettled
)

var roundPhaseNames = map[RoundPhase]string{
	PhaseFresh:                     "Fresh",
	PhaseRecovering:                "Recovering",
	PhaseAwaitingCashOutRecovery:   "AwaitingCashOutRecovery",
	PhaseRecoveringAwaitingCashOut: "RecoveringAwaitingCashOut",
	PhaseSettled:                   "Settled",
}

func (p RoundPhase) String() string {
	if name, ok := roundPhaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("RoundPhase(%d)", int(p))
}

// Recovering reports whether persisted fragments are being replayed
func (p RoundPhase) Recovering() bool {
	return p == PhaseRecovering || p == PhaseRecoveringAwaitingCashOut
}

// CashOutPending reports whether an interrupted cash-out must be resolved first
func (p RoundPhase) CashOutPending() bool {
	return p == PhaseAwaitingCashOutRecovery || p == PhaseRecoveringAwaitingCashOut
}

// PhaseOf folds the recovery flags into a single phase
func PhaseOf(recovering, cashOutPending, committed bool) RoundPhase {
	switch {
	case recovering && cashOutPending:
		return PhaseRecoveringAwaitingCashOut
	case recovering:
		return PhaseRecovering
	case cashOutPending:
		return PhaseAwaitingCashOutRecovery
	case committed:
		return PhaseSettled
	default:
		return PhaseFresh
	}
}
