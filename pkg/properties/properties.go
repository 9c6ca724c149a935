package properties

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/fadedpez/egmcore/pkg/entities"
	"gopkg.in/yaml.v3"
)

// Jurisdiction property keys
const (
	KeyMeterFreeGamesIndependently = "meter-free-games-independently"
	KeyAllowCashInDuringPlay       = "allow-cash-in-during-play"
	KeyMaxWinCeiling               = "max-win-ceiling"
	KeyMaxCreditLimit              = "max-credit-limit"
	KeyLargeWinLimit               = "large-win-limit"
	KeyBaseUnitMillicents          = "base-unit-millicents"
)

const defaultBaseUnitMillicents = 1000

// File is the jurisdiction document: property values plus the game catalog
type File struct {
	Properties         map[string]interface{} `yaml:"properties"`
	ActiveGame         string                 `yaml:"active-game"`
	ActiveDenomination int64                  `yaml:"active-denomination"`
	Games              []entities.Game        `yaml:"games"`
}

// Parse decodes a jurisdiction document
func Parse(data []byte) (*File, error) {
	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal jurisdiction yaml: %w", err)
	}
	if f.Properties == nil {
		f.Properties = map[string]interface{}{}
	}
	return f, nil
}

// LoadFile reads and decodes a jurisdiction document from disk
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read jurisdiction file: %w", err)
	}
	return Parse(data)
}

// Properties answers GetValue lookups for jurisdiction flags
type Properties struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// New creates a property store over the given values
func New(values map[string]interface{}) *Properties {
	copied := make(map[string]interface{}, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Properties{values: copied}
}

// GetValue returns the raw value for key, or def when it is unset
func (p *Properties) GetValue(key string, def interface{}) interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok && v != nil {
		return v
	}
	return def
}

// SetValue overrides a property at runtime
func (p *Properties) SetValue(key string, value interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
}

// Bool returns key as a boolean. Unparseable values fall back to def.
func (p *Properties) Bool(key string, def bool) bool {
	switch v := p.GetValue(key, def).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int64 returns key as an integer. Unparseable values fall back to def.
func (p *Properties) Int64(key string, def int64) int64 {
	switch v := p.GetValue(key, def).(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// String returns key as a string
func (p *Properties) String(key string, def string) string {
	switch v := p.GetValue(key, def).(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// MeterFreeGamesIndependently reports whether each free game settles on its own
func (p *Properties) MeterFreeGamesIndependently() bool {
	return p.Bool(KeyMeterFreeGamesIndependently, false)
}

// AllowCashInDuringPlay reports whether money-in stays open during a round
func (p *Properties) AllowCashInDuringPlay() bool {
	return p.Bool(KeyAllowCashInDuringPlay, false)
}

// MaxWinCeiling is the win above which a cash-out is forced; 0 disables it
func (p *Properties) MaxWinCeiling() int64 {
	return p.Int64(KeyMaxWinCeiling, 0)
}

// MaxCreditLimit is the credit balance above which a cash-out is forced; 0 disables it
func (p *Properties) MaxCreditLimit() int64 {
	return p.Int64(KeyMaxCreditLimit, 0)
}

// LargeWinLimit is the win, in base units, that requires a handpay; 0 disables it
func (p *Properties) LargeWinLimit() int64 {
	return p.Int64(KeyLargeWinLimit, 0)
}

// BaseUnitMillicents is the value of one base unit in millicents
func (p *Properties) BaseUnitMillicents() int64 {
	n := p.Int64(KeyBaseUnitMillicents, defaultBaseUnitMillicents)
	if n <= 0 {
		return defaultBaseUnitMillicents
	}
	return n
}
