package entities

// Denomination is one credit value a game can be played at
type Denomination struct {
	Value                int64 `yaml:"value" json:"value"`
	AllowsSecondaryGames bool  `yaml:"allow-secondary-games" json:"allowsSecondaryGames"`
}

// Game is a title in the catalog
type Game struct {
	ID            string         `yaml:"id" json:"id"`
	Name          string         `yaml:"name" json:"name"`
	WagerCategory string         `yaml:"wager-category" json:"wagerCategory"`
	Denominations []Denomination `yaml:"denominations" json:"denominations"`
}

// Denomination looks up a configured denomination by value
func (g *Game) Denomination(value int64) (Denomination, bool) {
	for _, d := range g.Denominations {
		if d.Value == value {
			return d, true
		}
	}
	return Denomination{}, false
}
