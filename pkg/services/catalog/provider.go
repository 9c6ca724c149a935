package catalog

import (
	"fmt"

	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/properties"
)

// Provider answers which game and denomination are active on the cabinet
type Provider struct {
	game         entities.Game
	denomination entities.Denomination
}

// NewProvider resolves the active game and denomination from the
// jurisdiction document
func NewProvider(f *properties.File) (*Provider, error) {
	if f == nil {
		return nil, types.NewGameError(types.ErrConfiguration, "no jurisdiction document")
	}
	for _, game := range f.Games {
		if game.ID != f.ActiveGame {
			continue
		}
		denom, ok := game.Denomination(f.ActiveDenomination)
		if !ok {
			return nil, types.NewGameError(types.ErrConfiguration,
				fmt.Sprintf("game %s has no denomination %d", game.ID, f.ActiveDenomination))
		}
		return &Provider{game: game, denomination: denom}, nil
	}
	return nil, types.NewGameError(types.ErrConfiguration,
		fmt.Sprintf("active game %q is not in the catalog", f.ActiveGame))
}

// GetActiveGame returns the active game and denomination
func (p *Provider) GetActiveGame() (*entities.Game, entities.Denomination) {
	game := p.game
	return &game, p.denomination
}
