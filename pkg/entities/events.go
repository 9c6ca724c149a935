package entities

import (
	"time"
)

// EventType names a notification published by the coordinator
type EventType string

const (
	EventPrimaryGameStarted     EventType = "PrimaryGameStarted"
	EventPrimaryGameEnded       EventType = "PrimaryGameEnded"
	EventSecondaryGameStarted   EventType = "SecondaryGameStarted"
	EventPresentationStarted    EventType = "PresentationStarted"
	EventWinPendingStarted      EventType = "WinPendingStarted"
	EventPresentationEnded      EventType = "PresentationEnded"
	EventFreeGameStarted        EventType = "FreeGameStarted"
	EventFreeGameEnded          EventType = "FreeGameEnded"
	EventMoneyInAllowed         EventType = "MoneyInAllowed"
	EventMoneyInProhibited      EventType = "MoneyInProhibited"
	EventWaitingForInputStarted EventType = "WaitingForInputStarted"
	EventWaitingForInputEnded   EventType = "WaitingForInputEnded"
	EventHandpayPending         EventType = "HandpayPending"
	EventForcedCashOut          EventType = "ForcedCashOut"
	EventRoundRecoveryStarted   EventType = "RoundRecoveryStarted"
	EventReplayCompleted        EventType = "ReplayCompleted"
)

// RoundEvent is the outbound payload. Field names are stable; downstream
// protocol adapters relay them as-is.
type RoundEvent struct {
	Type          EventType       `json:"type"`
	GameID        string          `json:"gameId"`
	Denomination  int64           `json:"denomination"`
	WagerCategory string          `json:"wagerCategory"`
	Amount        int64           `json:"amount,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Replay        bool            `json:"replay,omitempty"`
	Log           *GameHistoryLog `json:"log,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}
