package properties

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jurisdictionYAML = `
properties:
  meter-free-games-independently: true
  allow-cash-in-during-play: "false"
  max-win-ceiling: 500000
  large-win-limit: 120000
active-game: dragon
active-denomination: 1
games:
  - id: dragon
    name: Dragon Fortune
    wager-category: standard
    denominations:
      - value: 1
        allow-secondary-games: false
      - value: 5
        allow-secondary-games: true
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(jurisdictionYAML))
	require.NoError(t, err)

	assert.Equal(t, "dragon", f.ActiveGame)
	assert.Equal(t, int64(1), f.ActiveDenomination)
	require.Len(t, f.Games, 1)
	assert.Equal(t, "standard", f.Games[0].WagerCategory)
	require.Len(t, f.Games[0].Denominations, 2)
	assert.True(t, f.Games[0].Denominations[1].AllowsSecondaryGames)

	props := New(f.Properties)
	assert.True(t, props.MeterFreeGamesIndependently())
	assert.False(t, props.AllowCashInDuringPlay())
	assert.Equal(t, int64(500000), props.MaxWinCeiling())
	assert.Equal(t, int64(120000), props.LargeWinLimit())
	assert.Zero(t, props.MaxCreditLimit())
	assert.Equal(t, int64(1000), props.BaseUnitMillicents())
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("properties: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jurisdiction.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jurisdictionYAML), 0644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dragon", f.ActiveGame)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetValueDefaultsAndOverrides(t *testing.T) {
	props := New(map[string]interface{}{
		"flag":    "yes please",
		"count":   "12",
		"label":   42,
		"nothing": nil,
	})

	assert.Equal(t, "fallback", props.GetValue("missing", "fallback"))
	assert.Equal(t, "fallback", props.GetValue("nothing", "fallback"))
	assert.True(t, props.Bool("flag", true), "unparseable bool falls back to the default")
	assert.Equal(t, int64(12), props.Int64("count", 0))
	assert.Equal(t, "42", props.String("label", ""))

	props.SetValue(KeyBaseUnitMillicents, -5)
	assert.Equal(t, int64(1000), props.BaseUnitMillicents())

	props.SetValue(KeyAllowCashInDuringPlay, true)
	assert.True(t, props.AllowCashInDuringPlay())
}
