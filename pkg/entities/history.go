package entities

import (
	"time"
)

// GameResult is the outcome of a round or a free game
type GameResult string

const (
	ResultNone GameResult = ""
	ResultWon  GameResult = "won"
	ResultLost GameResult = "lost"
	ResultTied GameResult = "tied"
)

// ResultFor classifies a win against the amount wagered
func ResultFor(wager, win int64) GameResult {
	switch {
	case win == 0:
		return ResultLost
	case win == wager:
		return ResultTied
	default:
		return ResultWon
	}
}

// FreeGame is one supplementary round inside a GameHistoryLog
type FreeGame struct {
	Index     int        `json:"index"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	FinalWin  int64      `json:"finalWin"`
	Result    GameResult `json:"result"`
	Paid      bool       `json:"paid"` // credited to the bank on its own
}

// Open reports whether the free game has not been closed yet
func (f *FreeGame) Open() bool {
	return f.Result == ResultNone
}

// SecondaryGame is a side game staked out of the uncommitted win
type SecondaryGame struct {
	Stake     int64     `json:"stake"`
	StartTime time.Time `json:"startTime"`
}

// RecoveryDataPoint is an opaque checkpoint supplied by the runtime
type RecoveryDataPoint struct {
	Index     int       `json:"index"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// GameHistoryLog is the persisted record of the round in progress
type GameHistoryLog struct {
	RoundID       string    `json:"roundId"`
	GameID        string    `json:"gameId"`
	Denomination  int64     `json:"denomination"`
	WagerCategory string    `json:"wagerCategory"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime,omitempty"`

	InitialWager   int64 `json:"initialWager"`
	FinalWager     int64 `json:"finalWager"`
	UncommittedWin int64 `json:"uncommittedWin"`
	TotalWon       int64 `json:"totalWon"`
	HandpaidWin    int64 `json:"handpaidWin"`

	// WagerLocked is set once a mid-round wager has locked the bank. The
	// lock is released when the round ends.
	WagerLocked bool `json:"wagerLocked,omitempty"`

	// LastCommitIndex is -1 until the base game win reaches the bank, then
	// the number of free games present at commit time.
	LastCommitIndex int        `json:"lastCommitIndex"`
	Result          GameResult `json:"result"`

	StartData      []byte              `json:"startData,omitempty"`
	RoundInfo      []string            `json:"roundInfo"`
	FreeGames      []FreeGame          `json:"freeGames"`
	SecondaryGames []SecondaryGame     `json:"secondaryGames"`
	RecoveryData   []RecoveryDataPoint `json:"recoveryData"`

	// freeGameCursor is the free game currently being played or replayed.
	freeGameCursor int
}

// NewGameHistoryLog starts an uncommitted log
func NewGameHistoryLog(roundID string, started time.Time) *GameHistoryLog {
	return &GameHistoryLog{
		RoundID:         roundID,
		StartTime:       started,
		LastCommitIndex: -1,
		RoundInfo:       []string{},
		FreeGames:       []FreeGame{},
		SecondaryGames:  []SecondaryGame{},
		RecoveryData:    []RecoveryDataPoint{},
	}
}

// Committed reports whether the base game win has reached the bank
func (l *GameHistoryLog) Committed() bool {
	return l.LastCommitIndex >= 0
}

// FinalWin is everything the round has won so far
func (l *GameHistoryLog) FinalWin() int64 {
	total := l.TotalWon + l.HandpaidWin
	if !l.Committed() {
		total += l.UncommittedWin
	}
	return total
}

// LatestOpenFreeGame returns the last free game whose result is still None.
// It returns -1 when every free game has been closed.
func (l *GameHistoryLog) LatestOpenFreeGame() int {
	for i := len(l.FreeGames) - 1; i >= 0; i-- {
		if l.FreeGames[i].Open() {
			return i
		}
	}
	return -1
}

// LastFreeGame returns the most recently started free game, or nil
func (l *GameHistoryLog) LastFreeGame() *FreeGame {
	if len(l.FreeGames) == 0 {
		return nil
	}
	return &l.FreeGames[len(l.FreeGames)-1]
}

// CurrentFreeGame returns the free game being played or replayed, or -1
func (l *GameHistoryLog) CurrentFreeGame() int {
	return l.freeGameCursor - 1
}

// NextFreeGame moves the cursor forward. Entries that already exist are
// reused, which is how a replay lines up with what was persisted.
func (l *GameHistoryLog) NextFreeGame(now time.Time) int {
	if l.freeGameCursor < len(l.FreeGames) {
		l.freeGameCursor++
		return l.freeGameCursor - 1
	}
	l.FreeGames = append(l.FreeGames, FreeGame{
		Index:     len(l.FreeGames),
		StartTime: now,
	})
	l.freeGameCursor = len(l.FreeGames)
	return l.freeGameCursor - 1
}

// ResetForRecovery drops everything the replayed fragments will rebuild.
// Commit markers, wagers and closed free game results survive.
func (l *GameHistoryLog) ResetForRecovery() {
	l.RoundInfo = []string{}
	l.SecondaryGames = []SecondaryGame{}
	l.UncommittedWin = 0
	l.freeGameCursor = 0
	for i := range l.FreeGames {
		if l.FreeGames[i].Open() {
			l.FreeGames[i].FinalWin = 0
		}
	}
}

// Clone returns a deep copy
func (l *GameHistoryLog) Clone() *GameHistoryLog {
	if l == nil {
		return nil
	}
	c := *l
	c.StartData = append([]byte(nil), l.StartData...)
	c.RoundInfo = append([]string{}, l.RoundInfo...)
	c.FreeGames = make([]FreeGame, len(l.FreeGames))
	for i, fg := range l.FreeGames {
		c.FreeGames[i] = fg
		if fg.EndTime != nil {
			end := *fg.EndTime
			c.FreeGames[i].EndTime = &end
		}
	}
	c.SecondaryGames = append([]SecondaryGame{}, l.SecondaryGames...)
	c.RecoveryData = make([]RecoveryDataPoint, len(l.RecoveryData))
	for i, dp := range l.RecoveryData {
		c.RecoveryData[i] = dp
		c.RecoveryData[i].Data = append([]byte(nil), dp.Data...)
	}
	return &c
}
