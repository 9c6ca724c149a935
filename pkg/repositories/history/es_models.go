package history

import (
	"time"

	"github.com/fadedpez/egmcore/pkg/entities"
)

// ESRound represents an archived round document in Elasticsearch
type ESRound struct {
	RoundID       string                   `json:"round_id"`
	GameID        string                   `json:"game_id"`
	Denomination  int64                    `json:"denomination"`
	WagerCategory string                   `json:"wager_category"`
	StartTime     time.Time                `json:"start_time"`
	EndTime       time.Time                `json:"end_time"`
	InitialWager  int64                    `json:"initial_wager"`
	FinalWager    int64                    `json:"final_wager"`
	TotalWon      int64                    `json:"total_won"`
	HandpaidWin   int64                    `json:"handpaid_win"`
	Result        string                   `json:"result"`
	FreeGames     []ESFreeGame             `json:"free_games"`
	Log           *entities.GameHistoryLog `json:"log"` // stored, not indexed; the replay source
}

// ESFreeGame represents a free game inside an archived round
type ESFreeGame struct {
	Index    int    `json:"index"`
	FinalWin int64  `json:"final_win"`
	Result   string `json:"result"`
	Paid     bool   `json:"paid"`
}

func newESRound(log *entities.GameHistoryLog) *ESRound {
	doc := &ESRound{
		RoundID:       log.RoundID,
		GameID:        log.GameID,
		Denomination:  log.Denomination,
		WagerCategory: log.WagerCategory,
		StartTime:     log.StartTime,
		EndTime:       log.EndTime,
		InitialWager:  log.InitialWager,
		FinalWager:    log.FinalWager,
		TotalWon:      log.TotalWon,
		HandpaidWin:   log.HandpaidWin,
		Result:        string(log.Result),
		FreeGames:     make([]ESFreeGame, 0, len(log.FreeGames)),
		Log:           log,
	}
	for _, fg := range log.FreeGames {
		doc.FreeGames = append(doc.FreeGames, ESFreeGame{
			Index:    fg.Index,
			FinalWin: fg.FinalWin,
			Result:   string(fg.Result),
			Paid:     fg.Paid,
		})
	}
	return doc
}

const roundIndexMapping = `{
	"mappings": {
		"properties": {
			"round_id": { "type": "keyword" },
			"game_id": { "type": "keyword" },
			"denomination": { "type": "long" },
			"wager_category": { "type": "keyword" },
			"start_time": { "type": "date" },
			"end_time": { "type": "date" },
			"initial_wager": { "type": "long" },
			"final_wager": { "type": "long" },
			"total_won": { "type": "long" },
			"handpaid_win": { "type": "long" },
			"result": { "type": "keyword" },
			"free_games": {
				"type": "nested",
				"properties": {
					"index": { "type": "integer" },
					"final_win": { "type": "long" },
					"result": { "type": "keyword" },
					"paid": { "type": "boolean" }
				}
			},
			"log": { "type": "object", "enabled": false }
		}
	},
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 1
	}
}`
