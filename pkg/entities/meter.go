package entities

// Meter names
const (
	MeterGamesPlayed       = "games-played"
	MeterGamesWon          = "games-won"
	MeterGamesLost         = "games-lost"
	MeterGamesTied         = "games-tied"
	MeterFreeGamesPlayed   = "free-games-played"
	MeterFreeGamesWon      = "free-games-won"
	MeterEgmPaidGameWon    = "egm-paid-game-won-amount"
	MeterHandpaidGameWon   = "handpaid-game-won-amount"
	MeterTotalWagered      = "total-wagered-amount"
	MeterCashOutAmount     = "cash-out-amount"
	MeterWagerCategoryBase = "wager-category-played:"
)

// WagerCategoryMeter is the games-played meter for one wager category
func WagerCategoryMeter(category string) string {
	return MeterWagerCategoryBase + category
}

// GamePlayedRecord describes a settled game for the games-played meters
type GamePlayedRecord struct {
	Result        GameResult
	WagerCategory string
	FreeGame      bool
}
