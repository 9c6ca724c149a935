package money

import (
	"github.com/shopspring/decimal"
)

const millicentsPerDollar = 100000

// Converter translates base-unit amounts into millicents and display strings
type Converter struct {
	millicentsPerUnit decimal.Decimal
}

// NewConverter creates a converter for a base unit worth baseUnitMillicents
func NewConverter(baseUnitMillicents int64) Converter {
	return Converter{millicentsPerUnit: decimal.NewFromInt(baseUnitMillicents)}
}

// ToMillicents converts a base-unit amount to millicents
func (c Converter) ToMillicents(amount int64) int64 {
	return decimal.NewFromInt(amount).Mul(c.millicentsPerUnit).IntPart()
}

// FromMillicents converts millicents to whole base units, rounding down
func (c Converter) FromMillicents(millicents int64) int64 {
	if c.millicentsPerUnit.IsZero() {
		return 0
	}
	return decimal.NewFromInt(millicents).Div(c.millicentsPerUnit).Floor().IntPart()
}

// Dollars returns the amount in dollars
func (c Converter) Dollars(amount int64) decimal.Decimal {
	return decimal.NewFromInt(c.ToMillicents(amount)).Div(decimal.NewFromInt(millicentsPerDollar))
}

// Format renders a base-unit amount as a dollar string, e.g. "$12.50"
func (c Converter) Format(amount int64) string {
	return "$" + c.Dollars(amount).StringFixed(2)
}
